package overlay

import (
	"context"
	"errors"
	"log/slog"

	"github.com/streamoverlay/server/internal/domain"
	"github.com/streamoverlay/server/internal/repository/overlay"
)

var ErrOverlayNotFound = errors.New("overlay not found")

type iOverlayRepo interface {
	SetOverlay(context.Context, *overlay.SetOverlayParams) error
	GetOverlay(context.Context, string) (overlay.Overlay, error)
	ListOverlays(context.Context) ([]overlay.Overlay, error)
	UpdateOverlay(context.Context, *overlay.UpdateOverlayParams) error
	RemoveOverlay(context.Context, string) error
}

type iEventBus interface {
	Publish(context.Context, domain.Event) error
}

type iGenerator interface {
	NewID() string
}

type service struct {
	overlayRepo iOverlayRepo
	bus         iEventBus
	generator   iGenerator
	logger      *slog.Logger
}

func NewService(overlayRepo iOverlayRepo, bus iEventBus, generator iGenerator, logger *slog.Logger) *service {
	return &service{
		overlayRepo: overlayRepo,
		bus:         bus,
		generator:   generator,
		logger:      logger,
	}
}

// publish announces a change. Delivery failures are logged only, the write already happened.
func (s service) publish(ctx context.Context, eventType domain.EventType, overlayID string) {
	if s.bus == nil {
		return
	}

	if err := s.bus.Publish(ctx, domain.Event{Type: eventType, OverlayID: overlayID}); err != nil {
		s.logger.WarnContext(ctx, "failed to publish overlay event", "type", eventType, "error", err)
	}
}

func mapRepoErr(err error) error {
	if errors.Is(err, overlay.ErrOverlayNotFound) {
		return ErrOverlayNotFound
	}

	return err
}
