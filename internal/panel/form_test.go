package panel

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"testing"

	"github.com/streamoverlay/server/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestForm(t *testing.T) (*fakeAPI, *AddForm, *Store) {
	t.Helper()
	api, client := newFakeAPI(t)
	store := NewStore()
	poller := NewPoller(client, store, 0, slog.Default())

	return api, NewAddForm(client, poller, store), store
}

func TestAddFormCreatesTextOverlay(t *testing.T) {
	api, form, store := newTestForm(t)

	form.SetText("LIVE")
	require.NoError(t, form.Submit(context.Background()))
	assert.Empty(t, form.Text())

	calls := api.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, http.MethodPost, calls[0].Method)
	assert.Equal(t, "/api/overlays", calls[0].Path)
	assert.JSONEq(t, `{
		"type": "text",
		"content": "LIVE",
		"position": {"x": 100, "y": 100},
		"size": {"width": 300, "height": 100},
		"opacity": 1,
		"rotation": 0,
		"zIndex": 5
	}`, calls[0].Body)
	assert.Equal(t, http.MethodGet, calls[1].Method)

	state := store.Snapshot()
	require.Len(t, state.Overlays, 1)
	assert.Equal(t, "LIVE", state.Overlays[0].Content)
}

func TestAddFormBlankSendsNothing(t *testing.T) {
	for _, text := range []string{"", "   ", "\t\n"} {
		api, form, _ := newTestForm(t)

		form.SetText(text)
		err := form.Submit(context.Background())
		assert.ErrorIs(t, err, ErrEmptyText)
		assert.Empty(t, api.Calls())
		assert.Equal(t, text, form.Text())
	}
}

func TestAddFormKeepsSurroundingSpace(t *testing.T) {
	api, form, _ := newTestForm(t)

	form.SetText("  hi  ")
	require.NoError(t, form.Submit(context.Background()))

	var draft domain.Draft
	require.NoError(t, json.Unmarshal([]byte(api.Calls()[0].Body), &draft))
	assert.Equal(t, "  hi  ", draft.Content)
}

func TestAddFormClearsFieldOnFailure(t *testing.T) {
	api, form, store := newTestForm(t)
	api.FailNext(1)

	form.SetText("LIVE")
	err := form.Submit(context.Background())
	require.Error(t, err)

	assert.Empty(t, form.Text())
	assert.Error(t, store.Snapshot().Err)
	assert.Len(t, api.Calls(), 1)
}

func TestAddFormSubmitText(t *testing.T) {
	api, form, _ := newTestForm(t)

	require.NoError(t, form.SubmitText(context.Background(), "BRB"))
	assert.Empty(t, form.Text())

	calls := api.Calls()
	require.Len(t, calls, 2)
	assert.Contains(t, calls[0].Body, `"content":"BRB"`)
}
