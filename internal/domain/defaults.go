package domain

const (
	MinWidth    = 50
	MaxWidth    = 800
	MinHeight   = 30
	MaxHeight   = 400
	MinOpacity  = 0.0
	MaxOpacity  = 1.0
	OpacityStep = 0.1
	MinRotation = -180
	MaxRotation = 180
)

// ServerDefaults fills the fields a create request may omit.
var ServerDefaults = Draft{
	Type:     KindText,
	Content:  "",
	Position: Position{X: 100, Y: 100},
	Size:     Size{Width: 200, Height: 80},
	Opacity:  1,
	Rotation: 0,
	ZIndex:   1,
}

// TextDraft is the overlay the panel's add form creates for content.
func TextDraft(content string) Draft {
	return Draft{
		Type:     KindText,
		Content:  content,
		Position: Position{X: 100, Y: 100},
		Size:     Size{Width: 300, Height: 100},
		Opacity:  1,
		Rotation: 0,
		ZIndex:   5,
	}
}
