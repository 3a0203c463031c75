package overlay

import (
	"context"
	"log/slog"
	"strconv"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/streamoverlay/server/internal/domain"
	"github.com/streamoverlay/server/internal/repository/events/inmemory"
	overlayRedis "github.com/streamoverlay/server/internal/repository/overlay/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type seqGenerator struct {
	next int
}

func (g *seqGenerator) NewID() string {
	g.next++
	return strconv.Itoa(g.next)
}

func newTestService(t *testing.T) (*service, *[]domain.Event) {
	t.Helper()
	s := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { rc.Close() })

	bus := inmemory.NewBus()
	var events []domain.Event
	require.NoError(t, bus.Subscribe(context.Background(), func(e domain.Event) { events = append(events, e) }))

	return NewService(overlayRedis.NewRepo(rc, slog.Default()), bus, &seqGenerator{}, slog.Default()), &events
}

func TestCreateOverlayAppliesDefaults(t *testing.T) {
	service, events := newTestService(t)
	ctx := context.Background()

	created, err := service.CreateOverlay(ctx, &CreateOverlayParams{})
	require.NoError(t, err)
	assert.Equal(t, domain.Overlay{
		ID:       "1",
		Type:     domain.KindText,
		Content:  "",
		Position: domain.Position{X: 100, Y: 100},
		Size:     domain.Size{Width: 200, Height: 80},
		Opacity:  1,
		Rotation: 0,
		ZIndex:   1,
	}, created)
	assert.Equal(t, []domain.Event{{Type: domain.EventOverlayCreated, OverlayID: "1"}}, *events)
}

func TestCreateOverlayKeepsExplicitZeroes(t *testing.T) {
	service, _ := newTestService(t)

	kind := domain.KindImage
	content := "http://cdn/logo.png"
	opacity := 0.0
	zIndex := 0
	created, err := service.CreateOverlay(context.Background(), &CreateOverlayParams{
		Type:    &kind,
		Content: &content,
		Opacity: &opacity,
		ZIndex:  &zIndex,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.KindImage, created.Type)
	assert.Equal(t, 0.0, created.Opacity)
	assert.Equal(t, 0, created.ZIndex)
}

func TestUpdateAndRemoveOverlay(t *testing.T) {
	service, events := newTestService(t)
	ctx := context.Background()

	draft := domain.TextDraft("LIVE")
	created, err := service.CreateOverlay(ctx, &CreateOverlayParams{
		Type: &draft.Type, Content: &draft.Content, Position: &draft.Position,
		Size: &draft.Size, Opacity: &draft.Opacity, Rotation: &draft.Rotation, ZIndex: &draft.ZIndex,
	})
	require.NoError(t, err)

	updated, err := service.UpdateOverlay(ctx, &UpdateOverlayParams{
		OverlayID: created.ID,
		Patch:     domain.Patch{Size: &domain.Size{Width: 420, Height: 100}},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.Size{Width: 420, Height: 100}, updated.Size)
	assert.Equal(t, created.Opacity, updated.Opacity)
	assert.Equal(t, created.ZIndex, updated.ZIndex)

	require.NoError(t, service.RemoveOverlay(ctx, created.ID))

	list, err := service.ListOverlays(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	assert.Equal(t, []domain.EventType{
		domain.EventOverlayCreated,
		domain.EventOverlayUpdated,
		domain.EventOverlayRemoved,
	}, []domain.EventType{(*events)[0].Type, (*events)[1].Type, (*events)[2].Type})
}

func TestNotFound(t *testing.T) {
	service, events := newTestService(t)
	ctx := context.Background()

	opacity := 0.5
	_, err := service.UpdateOverlay(ctx, &UpdateOverlayParams{OverlayID: "nope", Patch: domain.Patch{Opacity: &opacity}})
	assert.ErrorIs(t, err, ErrOverlayNotFound)

	assert.ErrorIs(t, service.RemoveOverlay(ctx, "nope"), ErrOverlayNotFound)

	_, err = service.GetOverlay(ctx, "nope")
	assert.ErrorIs(t, err, ErrOverlayNotFound)

	assert.Empty(t, *events, "failed writes must not publish")
}

func TestListOverlaysSortedByZIndex(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()

	for _, z := range []int{7, -2, 3} {
		z := z
		_, err := service.CreateOverlay(ctx, &CreateOverlayParams{ZIndex: &z})
		require.NoError(t, err)
	}

	list, err := service.ListOverlays(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []int{-2, 3, 7}, []int{list[0].ZIndex, list[1].ZIndex, list[2].ZIndex})
}

func TestUpdateWithEmptyPatchChangesNothing(t *testing.T) {
	service, events := newTestService(t)
	ctx := context.Background()

	created, err := service.CreateOverlay(ctx, &CreateOverlayParams{})
	require.NoError(t, err)
	*events = nil

	got, err := service.UpdateOverlay(ctx, &UpdateOverlayParams{OverlayID: created.ID})
	require.NoError(t, err)
	assert.Equal(t, created, got)
	assert.Empty(t, *events)

	_, err = service.UpdateOverlay(ctx, &UpdateOverlayParams{OverlayID: "missing"})
	assert.ErrorIs(t, err, ErrOverlayNotFound)
}
