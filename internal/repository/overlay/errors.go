package overlay

import "errors"

var ErrOverlayNotFound = errors.New("overlay not found")
