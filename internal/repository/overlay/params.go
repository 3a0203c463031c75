package overlay

type SetOverlayParams struct {
	ID       string
	Type     string
	Content  string
	X        int
	Y        int
	Width    int
	Height   int
	Opacity  float64
	Rotation float64
	ZIndex   int
}

// UpdateOverlayParams holds a partial update; nil fields are not written.
type UpdateOverlayParams struct {
	ID       string   `redis:"-"`
	Type     *string  `redis:"type"`
	Content  *string  `redis:"content"`
	X        *int     `redis:"x"`
	Y        *int     `redis:"y"`
	Width    *int     `redis:"width"`
	Height   *int     `redis:"height"`
	Opacity  *float64 `redis:"opacity"`
	Rotation *float64 `redis:"rotation"`
	ZIndex   *int     `redis:"z_index"`
}
