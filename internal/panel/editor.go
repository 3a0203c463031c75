package panel

import (
	"context"
	"fmt"
	"math"

	"github.com/streamoverlay/server/internal/domain"
	"golang.org/x/exp/constraints"
)

type iOverlayClient interface {
	iLister
	Create(context.Context, domain.Draft) (domain.Overlay, error)
	Update(context.Context, string, domain.Patch) (domain.Overlay, error)
	Delete(context.Context, string) error
}

type iRefresher interface {
	Refresh(context.Context) error
}

// Editor issues one partial update per control change and then re-fetches
// the list; it never edits the store directly.
type Editor struct {
	client    iOverlayClient
	refresher iRefresher
	store     *Store
}

func NewEditor(client iOverlayClient, refresher iRefresher, store *Store) *Editor {
	return &Editor{
		client:    client,
		refresher: refresher,
		store:     store,
	}
}

func (e *Editor) SetWidth(ctx context.Context, o domain.Overlay, width int) error {
	size := domain.Size{
		Width:  clamp(width, domain.MinWidth, domain.MaxWidth),
		Height: o.Size.Height,
	}
	return e.update(ctx, o.ID, domain.Patch{Size: &size})
}

func (e *Editor) SetHeight(ctx context.Context, o domain.Overlay, height int) error {
	size := domain.Size{
		Width:  o.Size.Width,
		Height: clamp(height, domain.MinHeight, domain.MaxHeight),
	}
	return e.update(ctx, o.ID, domain.Patch{Size: &size})
}

func (e *Editor) SetOpacity(ctx context.Context, overlayID string, opacity float64) error {
	v := clamp(roundToStep(opacity, domain.OpacityStep), domain.MinOpacity, domain.MaxOpacity)
	return e.update(ctx, overlayID, domain.Patch{Opacity: &v})
}

func (e *Editor) SetRotation(ctx context.Context, overlayID string, degrees int) error {
	v := float64(clamp(degrees, domain.MinRotation, domain.MaxRotation))
	return e.update(ctx, overlayID, domain.Patch{Rotation: &v})
}

func (e *Editor) Delete(ctx context.Context, overlayID string) error {
	if err := e.client.Delete(ctx, overlayID); err != nil {
		err = fmt.Errorf("failed to delete overlay %s: %w", overlayID, err)
		e.store.Fail(err)
		return err
	}

	return e.refresher.Refresh(ctx)
}

func (e *Editor) update(ctx context.Context, overlayID string, patch domain.Patch) error {
	if _, err := e.client.Update(ctx, overlayID, patch); err != nil {
		err = fmt.Errorf("failed to update overlay %s: %w", overlayID, err)
		e.store.Fail(err)
		return err
	}

	return e.refresher.Refresh(ctx)
}

func clamp[T constraints.Integer | constraints.Float](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// roundToStep divides by the step count instead of multiplying by step so
// 0.3 stays 0.3 rather than 0.30000000000000004.
func roundToStep(v, step float64) float64 {
	return math.Round(v/step) / math.Round(1/step)
}
