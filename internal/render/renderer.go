package render

import (
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/streamoverlay/server/internal/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

// PageData is everything the panel page shows.
type PageData struct {
	ManifestURL string
	FeedPath    string
	Overlays    []domain.Overlay
	Error       string
	Bounds      Bounds
}

type Bounds struct {
	MinWidth, MaxWidth       int
	MinHeight, MaxHeight     int
	MinRotation, MaxRotation int
	OpacityStep              float64
}

var DefaultBounds = Bounds{
	MinWidth:    domain.MinWidth,
	MaxWidth:    domain.MaxWidth,
	MinHeight:   domain.MinHeight,
	MaxHeight:   domain.MaxHeight,
	MinRotation: domain.MinRotation,
	MaxRotation: domain.MaxRotation,
	OpacityStep: domain.OpacityStep,
}

type Renderer struct {
	tmpl *template.Template
}

func NewRenderer() (*Renderer, error) {
	tmpl, err := template.New("").Funcs(template.FuncMap{
		"float": formatFloat,
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	return &Renderer{tmpl: tmpl}, nil
}

type pageView struct {
	PageData
	Layers []Layer
}

// Endpoint is one line of the home page index.
type Endpoint struct {
	Method      string
	Path        string
	Description string
}

func (r *Renderer) Home(w io.Writer, endpoints []Endpoint) error {
	return r.tmpl.ExecuteTemplate(w, "home.html", endpoints)
}

// Page writes the full control panel.
func (r *Renderer) Page(w io.Writer, data PageData) error {
	layers, err := Layers(data.Overlays)
	if err != nil {
		return err
	}
	if data.Bounds == (Bounds{}) {
		data.Bounds = DefaultBounds
	}

	return r.tmpl.ExecuteTemplate(w, "page.html", pageView{PageData: data, Layers: layers})
}

// Layer writes only the overlay layer, as pushed to open panels.
func (r *Renderer) Layer(w io.Writer, overlays []domain.Overlay) error {
	layers, err := Layers(overlays)
	if err != nil {
		return err
	}

	return r.tmpl.ExecuteTemplate(w, "layer.html", layers)
}
