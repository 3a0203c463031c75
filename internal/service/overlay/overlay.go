package overlay

import (
	"context"
	"fmt"

	"github.com/streamoverlay/server/internal/domain"
	"github.com/streamoverlay/server/internal/repository/overlay"
)

// CreateOverlayParams has a pointer per field; nil fields take the server defaults.
type CreateOverlayParams struct {
	Type     *domain.Kind
	Content  *string
	Position *domain.Position
	Size     *domain.Size
	Opacity  *float64
	Rotation *float64
	ZIndex   *int
}

func (s service) CreateOverlay(ctx context.Context, params *CreateOverlayParams) (domain.Overlay, error) {
	draft := domain.Patch{
		Type:     params.Type,
		Content:  params.Content,
		Position: params.Position,
		Size:     params.Size,
		Opacity:  params.Opacity,
		Rotation: params.Rotation,
		ZIndex:   params.ZIndex,
	}.Apply(draftOverlay(domain.ServerDefaults))
	draft.ID = s.generator.NewID()

	if err := s.overlayRepo.SetOverlay(ctx, &overlay.SetOverlayParams{
		ID:       draft.ID,
		Type:     string(draft.Type),
		Content:  draft.Content,
		X:        draft.Position.X,
		Y:        draft.Position.Y,
		Width:    draft.Size.Width,
		Height:   draft.Size.Height,
		Opacity:  draft.Opacity,
		Rotation: draft.Rotation,
		ZIndex:   draft.ZIndex,
	}); err != nil {
		return domain.Overlay{}, fmt.Errorf("failed to set overlay: %w", err)
	}

	created, err := s.GetOverlay(ctx, draft.ID)
	if err != nil {
		return domain.Overlay{}, err
	}

	s.publish(ctx, domain.EventOverlayCreated, created.ID)

	return created, nil
}

func (s service) GetOverlay(ctx context.Context, overlayID string) (domain.Overlay, error) {
	o, err := s.overlayRepo.GetOverlay(ctx, overlayID)
	if err != nil {
		return domain.Overlay{}, fmt.Errorf("failed to get overlay: %w", mapRepoErr(err))
	}

	return toDomain(o), nil
}

func (s service) ListOverlays(ctx context.Context) ([]domain.Overlay, error) {
	overlays, err := s.overlayRepo.ListOverlays(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list overlays: %w", err)
	}

	result := make([]domain.Overlay, 0, len(overlays))
	for _, o := range overlays {
		result = append(result, toDomain(o))
	}

	return result, nil
}

type UpdateOverlayParams struct {
	OverlayID string
	Patch     domain.Patch
}

// UpdateOverlay writes the fields set in the patch. An empty patch changes
// nothing and publishes no event.
func (s service) UpdateOverlay(ctx context.Context, params *UpdateOverlayParams) (domain.Overlay, error) {
	p := params.Patch
	if p.Empty() {
		return s.GetOverlay(ctx, params.OverlayID)
	}

	update := overlay.UpdateOverlayParams{
		ID:       params.OverlayID,
		Content:  p.Content,
		Opacity:  p.Opacity,
		Rotation: p.Rotation,
		ZIndex:   p.ZIndex,
	}
	if p.Type != nil {
		t := string(*p.Type)
		update.Type = &t
	}
	if p.Position != nil {
		update.X, update.Y = &p.Position.X, &p.Position.Y
	}
	if p.Size != nil {
		update.Width, update.Height = &p.Size.Width, &p.Size.Height
	}

	if err := s.overlayRepo.UpdateOverlay(ctx, &update); err != nil {
		return domain.Overlay{}, fmt.Errorf("failed to update overlay: %w", mapRepoErr(err))
	}

	updated, err := s.GetOverlay(ctx, params.OverlayID)
	if err != nil {
		return domain.Overlay{}, err
	}

	s.publish(ctx, domain.EventOverlayUpdated, updated.ID)

	return updated, nil
}

func (s service) RemoveOverlay(ctx context.Context, overlayID string) error {
	if err := s.overlayRepo.RemoveOverlay(ctx, overlayID); err != nil {
		return fmt.Errorf("failed to remove overlay: %w", mapRepoErr(err))
	}

	s.publish(ctx, domain.EventOverlayRemoved, overlayID)

	return nil
}

func draftOverlay(d domain.Draft) domain.Overlay {
	return domain.Overlay{
		Type:     d.Type,
		Content:  d.Content,
		Position: d.Position,
		Size:     d.Size,
		Opacity:  d.Opacity,
		Rotation: d.Rotation,
		ZIndex:   d.ZIndex,
	}
}

func toDomain(o overlay.Overlay) domain.Overlay {
	return domain.Overlay{
		ID:       o.ID,
		Type:     domain.Kind(o.Type),
		Content:  o.Content,
		Position: domain.Position{X: o.X, Y: o.Y},
		Size:     domain.Size{Width: o.Width, Height: o.Height},
		Opacity:  o.Opacity,
		Rotation: o.Rotation,
		ZIndex:   o.ZIndex,
	}
}
