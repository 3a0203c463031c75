package rest

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadJSON(t *testing.T) {
	var dst struct {
		Content string `json:"content"`
	}

	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"content":"LIVE","id":"ignored"}`))
	require.NoError(t, ReadJSON(r, &dst))
	assert.Equal(t, "LIVE", dst.Content)

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(``))
	assert.ErrorIs(t, ReadJSON(r, &dst), ErrEmptyBody)

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"content":`))
	assert.Error(t, ReadJSON(r, &dst))

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{} {}`))
	assert.Error(t, ReadJSON(r, &dst))
}

func TestWriteJSON(t *testing.T) {
	w := httptest.NewRecorder()
	require.NoError(t, WriteJSON(w, http.StatusCreated, Envelope{"deleted": true}))

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"deleted":true}`, w.Body.String())
}
