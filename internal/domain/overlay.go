package domain

import (
	"errors"
	"math"
)

// Kind discriminates the overlay variants.
type Kind string

const (
	KindText  Kind = "text"
	KindImage Kind = "image"
)

var ErrUnknownKind = errors.New("unknown overlay kind")

func (k Kind) Valid() bool {
	return k == KindText || k == KindImage
}

type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

type Overlay struct {
	ID       string   `json:"id"`
	Type     Kind     `json:"type"`
	Content  string   `json:"content"`
	Position Position `json:"position"`
	Size     Size     `json:"size"`
	Opacity  float64  `json:"opacity"`
	Rotation float64  `json:"rotation"`
	ZIndex   int      `json:"zIndex"`
}

// Draft is an overlay that has not been assigned an id yet.
type Draft struct {
	Type     Kind     `json:"type"`
	Content  string   `json:"content"`
	Position Position `json:"position"`
	Size     Size     `json:"size"`
	Opacity  float64  `json:"opacity"`
	Rotation float64  `json:"rotation"`
	ZIndex   int      `json:"zIndex"`
}

// Patch carries the fields of a partial update. Nil fields are left untouched
// and are not serialized.
type Patch struct {
	Type     *Kind     `json:"type,omitempty"`
	Content  *string   `json:"content,omitempty"`
	Position *Position `json:"position,omitempty"`
	Size     *Size     `json:"size,omitempty"`
	Opacity  *float64  `json:"opacity,omitempty"`
	Rotation *float64  `json:"rotation,omitempty"`
	ZIndex   *int      `json:"zIndex,omitempty"`
}

func (p Patch) Empty() bool {
	return p.Type == nil && p.Content == nil && p.Position == nil && p.Size == nil &&
		p.Opacity == nil && p.Rotation == nil && p.ZIndex == nil
}

// Apply returns o with every non-nil field of p written over it.
func (p Patch) Apply(o Overlay) Overlay {
	if p.Type != nil {
		o.Type = *p.Type
	}
	if p.Content != nil {
		o.Content = *p.Content
	}
	if p.Position != nil {
		o.Position = *p.Position
	}
	if p.Size != nil {
		o.Size = *p.Size
	}
	if p.Opacity != nil {
		o.Opacity = *p.Opacity
	}
	if p.Rotation != nil {
		o.Rotation = *p.Rotation
	}
	if p.ZIndex != nil {
		o.ZIndex = *p.ZIndex
	}
	return o
}

// Body is the kind-specific payload of an overlay. It is implemented only by
// TextBody and ImageBody.
type Body interface {
	isBody()
}

type TextBody struct {
	Text string
}

type ImageBody struct {
	URL string
}

func (TextBody) isBody()  {}
func (ImageBody) isBody() {}

func (o Overlay) Body() (Body, error) {
	switch o.Type {
	case KindText:
		return TextBody{Text: o.Content}, nil
	case KindImage:
		return ImageBody{URL: o.Content}, nil
	default:
		return nil, ErrUnknownKind
	}
}

// FontSize is the font size of a text overlay of the given box.
func FontSize(s Size) float64 {
	return math.Min(float64(s.Width)/10, float64(s.Height)/2)
}
