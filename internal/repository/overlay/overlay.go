package overlay

type Overlay struct {
	ID       string  `redis:"-"`
	Type     string  `redis:"type"`
	Content  string  `redis:"content"`
	X        int     `redis:"x"`
	Y        int     `redis:"y"`
	Width    int     `redis:"width"`
	Height   int     `redis:"height"`
	Opacity  float64 `redis:"opacity"`
	Rotation float64 `redis:"rotation"`
	ZIndex   int     `redis:"z_index"`
}
