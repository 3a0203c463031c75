package panel

import (
	"context"
	"log/slog"
	"net/http"
	"testing"

	"github.com/streamoverlay/server/internal/apiclient"
	"github.com/streamoverlay/server/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedOverlay(id string) domain.Overlay {
	return domain.Overlay{
		ID:       id,
		Type:     domain.KindText,
		Content:  "hello",
		Position: domain.Position{X: 10, Y: 20},
		Size:     domain.Size{Width: 300, Height: 100},
		Opacity:  1,
		ZIndex:   1,
	}
}

func newTestEditor(t *testing.T, seed ...domain.Overlay) (*fakeAPI, *Editor, *Store) {
	t.Helper()
	api, client := newFakeAPI(t, seed...)
	store := NewStore()
	poller := NewPoller(client, store, 0, slog.Default())
	require.NoError(t, poller.Refresh(context.Background()))
	api.ResetCalls()

	return api, NewEditor(client, poller, store), store
}

func TestEditorOpacitySendsOnlyOpacity(t *testing.T) {
	api, editor, store := newTestEditor(t, seedOverlay("7"))

	require.NoError(t, editor.SetOpacity(context.Background(), "7", 0.3))

	calls := api.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, http.MethodPut, calls[0].Method)
	assert.Equal(t, "/api/overlays/7", calls[0].Path)
	assert.JSONEq(t, `{"opacity":0.3}`, calls[0].Body)
	assert.Equal(t, http.MethodGet, calls[1].Method)

	o, ok := store.Find("7")
	require.True(t, ok)
	assert.InDelta(t, 0.3, o.Opacity, 1e-9)
}

func TestEditorOpacityRoundsAndClamps(t *testing.T) {
	api, editor, _ := newTestEditor(t, seedOverlay("1"))
	ctx := context.Background()

	require.NoError(t, editor.SetOpacity(ctx, "1", 0.46))
	require.NoError(t, editor.SetOpacity(ctx, "1", 1.7))
	require.NoError(t, editor.SetOpacity(ctx, "1", -2))

	calls := api.Calls()
	require.Len(t, calls, 6)
	assert.JSONEq(t, `{"opacity":0.5}`, calls[0].Body)
	assert.JSONEq(t, `{"opacity":1}`, calls[2].Body)
	// A zero opacity is still sent.
	assert.JSONEq(t, `{"opacity":0}`, calls[4].Body)
}

func TestEditorWidthKeepsHeight(t *testing.T) {
	api, editor, store := newTestEditor(t, seedOverlay("1"))

	o, ok := store.Find("1")
	require.True(t, ok)
	require.NoError(t, editor.SetWidth(context.Background(), o, 420))

	calls := api.Calls()
	require.NotEmpty(t, calls)
	assert.JSONEq(t, `{"size":{"width":420,"height":100}}`, calls[0].Body)

	o, _ = store.Find("1")
	assert.Equal(t, domain.Size{Width: 420, Height: 100}, o.Size)
}

func TestEditorHeightClamps(t *testing.T) {
	api, editor, store := newTestEditor(t, seedOverlay("1"))

	o, _ := store.Find("1")
	require.NoError(t, editor.SetHeight(context.Background(), o, 10))

	assert.JSONEq(t, `{"size":{"width":300,"height":30}}`, api.Calls()[0].Body)
}

func TestEditorRotation(t *testing.T) {
	api, editor, _ := newTestEditor(t, seedOverlay("1"))

	require.NoError(t, editor.SetRotation(context.Background(), "1", 270))

	assert.JSONEq(t, `{"rotation":180}`, api.Calls()[0].Body)
}

func TestEditorDelete(t *testing.T) {
	api, editor, store := newTestEditor(t, seedOverlay("3"), seedOverlay("4"))

	require.NoError(t, editor.Delete(context.Background(), "3"))

	calls := api.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, http.MethodDelete, calls[0].Method)
	assert.Equal(t, "/api/overlays/3", calls[0].Path)
	assert.Equal(t, http.MethodGet, calls[1].Method)

	_, ok := store.Find("3")
	assert.False(t, ok)
	_, ok = store.Find("4")
	assert.True(t, ok)
}

func TestEditorDeleteUnknown(t *testing.T) {
	api, editor, store := newTestEditor(t, seedOverlay("1"))

	err := editor.Delete(context.Background(), "missing")
	assert.ErrorIs(t, err, apiclient.ErrNotFound)
	assert.ErrorIs(t, store.Snapshot().Err, apiclient.ErrNotFound)

	// No refresh after a failed mutation.
	assert.Len(t, api.Calls(), 1)
}

func TestEditorUpdateFailureKeepsList(t *testing.T) {
	api, editor, store := newTestEditor(t, seedOverlay("1"))
	api.FailNext(1)

	err := editor.SetRotation(context.Background(), "1", 45)
	require.Error(t, err)

	state := store.Snapshot()
	assert.Error(t, state.Err)
	require.Len(t, state.Overlays, 1)
	assert.Equal(t, 0.0, state.Overlays[0].Rotation)
}

func TestRoundToStep(t *testing.T) {
	assert.Equal(t, 0.3, roundToStep(0.3, 0.1))
	assert.Equal(t, 0.7, roundToStep(0.66, 0.1))
	assert.Equal(t, 0.0, roundToStep(0.04, 0.1))
}
