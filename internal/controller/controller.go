package controller

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/streamoverlay/server/internal/domain"
	"github.com/streamoverlay/server/internal/panel"
	"github.com/streamoverlay/server/internal/player"
	"github.com/streamoverlay/server/internal/render"
	"github.com/streamoverlay/server/internal/repository/connection"
	"github.com/streamoverlay/server/internal/service/overlay"
	"github.com/streamoverlay/server/pkg/validator"
	"github.com/streamoverlay/server/pkg/wsrouter"
)

type iOverlayService interface {
	CreateOverlay(context.Context, *overlay.CreateOverlayParams) (domain.Overlay, error)
	GetOverlay(context.Context, string) (domain.Overlay, error)
	ListOverlays(context.Context) ([]domain.Overlay, error)
	UpdateOverlay(context.Context, *overlay.UpdateOverlayParams) (domain.Overlay, error)
	RemoveOverlay(context.Context, string) error
}

type iStreamService interface {
	Dir() string
	AbsDir() (string, error)
	Resolve(string) (string, error)
	Files() ([]string, error)
	Describe(name, streamURL string) (player.Playback, error)
}

type iStore interface {
	Snapshot() panel.State
	Find(string) (domain.Overlay, bool)
}

type iEditor interface {
	SetWidth(context.Context, domain.Overlay, int) error
	SetHeight(context.Context, domain.Overlay, int) error
	SetOpacity(context.Context, string, float64) error
	SetRotation(context.Context, string, int) error
	Delete(context.Context, string) error
}

type iAddForm interface {
	SubmitText(context.Context, string) error
}

type iRefresher interface {
	Refresh(context.Context) error
}

type iRenderer interface {
	Home(io.Writer, []render.Endpoint) error
	Page(io.Writer, render.PageData) error
	Layer(io.Writer, []domain.Overlay) error
}

type iViewerRepo interface {
	Add(*websocket.Conn, string) (*connection.Viewer, error)
	RemoveByConn(*websocket.Conn) error
	List() []*connection.Viewer
}

// Panel groups the control panel parts served under /panel.
type Panel struct {
	Store     iStore
	Editor    iEditor
	Form      iAddForm
	Refresher iRefresher
}

type controller struct {
	overlayService iOverlayService
	streamService  iStreamService
	panel          Panel
	renderer       iRenderer
	viewers        iViewerRepo
	manifestPath   string
	upgrader       websocket.Upgrader
	validate       *validator.Validator
	wsmux          *wsrouter.WSRouter
	logger         *slog.Logger
}

func NewController(
	overlayService iOverlayService,
	streamService iStreamService,
	panel Panel,
	renderer iRenderer,
	viewers iViewerRepo,
	manifestPath string,
	logger *slog.Logger,
) *controller {
	c := &controller{
		overlayService: overlayService,
		streamService:  streamService,
		panel:          panel,
		renderer:       renderer,
		viewers:        viewers,
		manifestPath:   manifestPath,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		validate: validator.NewValidator(),
		logger:   logger,
	}
	c.wsmux = c.getWSRouter()

	return c
}
