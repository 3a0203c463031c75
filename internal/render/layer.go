package render

import (
	"fmt"
	"html/template"
	"sort"
	"strconv"
	"strings"

	"github.com/streamoverlay/server/internal/domain"
)

// Layer is one absolutely positioned overlay box above the video.
type Layer struct {
	ID       string
	Kind     domain.Kind
	Style    template.CSS
	Text     string
	FontSize float64
	ImageURL string
}

func (l Layer) IsText() bool {
	return l.Kind == domain.KindText
}

// Layers turns overlays into layers ordered by ascending zIndex. Overlays with
// equal zIndex keep their input order.
func Layers(overlays []domain.Overlay) ([]Layer, error) {
	sorted := make([]domain.Overlay, len(overlays))
	copy(sorted, overlays)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].ZIndex < sorted[j].ZIndex
	})

	layers := make([]Layer, 0, len(sorted))
	for _, o := range sorted {
		body, err := o.Body()
		if err != nil {
			return nil, fmt.Errorf("overlay %s: %w", o.ID, err)
		}

		layer := Layer{
			ID:    o.ID,
			Kind:  o.Type,
			Style: boxStyle(o),
		}
		switch b := body.(type) {
		case domain.TextBody:
			layer.Text = b.Text
			layer.FontSize = domain.FontSize(o.Size)
		case domain.ImageBody:
			layer.ImageURL = b.URL
		}
		layers = append(layers, layer)
	}

	return layers, nil
}

// boxStyle only interpolates numbers, so the result is safe as CSS.
func boxStyle(o domain.Overlay) template.CSS {
	var b strings.Builder
	b.WriteString("position:absolute;")
	fmt.Fprintf(&b, "left:%dpx;top:%dpx;", o.Position.X, o.Position.Y)
	fmt.Fprintf(&b, "width:%dpx;height:%dpx;", o.Size.Width, o.Size.Height)
	b.WriteString("opacity:" + formatFloat(o.Opacity) + ";")
	b.WriteString("transform:rotate(" + formatFloat(o.Rotation) + "deg);")
	fmt.Fprintf(&b, "z-index:%d;", o.ZIndex)
	b.WriteString("pointer-events:none")

	return template.CSS(b.String())
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
