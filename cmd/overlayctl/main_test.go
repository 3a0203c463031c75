package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/streamoverlay/server/internal/domain"
)

type overlayServer struct {
	mu       sync.Mutex
	overlays []domain.Overlay
	patches  []string
}

func newOverlayServer(t *testing.T, seed ...domain.Overlay) (*overlayServer, string) {
	t.Helper()
	s := &overlayServer{overlays: seed}

	r := chi.NewRouter()
	r.Get("/api/overlays", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		json.NewEncoder(w).Encode(s.overlays)
	})
	r.Post("/api/overlays", func(w http.ResponseWriter, r *http.Request) {
		var draft domain.Draft
		require.NoError(t, json.NewDecoder(r.Body).Decode(&draft))
		s.mu.Lock()
		defer s.mu.Unlock()
		o := domain.Overlay{ID: "new", Type: draft.Type, Content: draft.Content, Size: draft.Size, Opacity: draft.Opacity, ZIndex: draft.ZIndex}
		s.overlays = append(s.overlays, o)
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(o)
	})
	r.Put("/api/overlays/{id}", func(w http.ResponseWriter, r *http.Request) {
		var body bytes.Buffer
		body.ReadFrom(r.Body)
		s.mu.Lock()
		defer s.mu.Unlock()
		s.patches = append(s.patches, chi.URLParam(r, "id")+" "+body.String())
		json.NewEncoder(w).Encode(domain.Overlay{ID: chi.URLParam(r, "id")})
	})

	r.Delete("/api/overlays/{id}", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, o := range s.overlays {
			if o.ID == chi.URLParam(r, "id") {
				s.overlays = append(s.overlays[:i], s.overlays[i+1:]...)
				json.NewEncoder(w).Encode(map[string]bool{"deleted": true})
				return
			}
		}
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": "not found"})
	})
	r.Get("/streams/index.m3u8", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(streamPlaylist))
	})
	r.Get("/streams/{segment}.ts", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(chi.URLParam(r, "segment")))
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	return s, srv.URL
}

const streamPlaylist = `#EXTM3U
#EXT-X-VERSION:3
#EXT-X-TARGETDURATION:4
#EXT-X-MEDIA-SEQUENCE:0
#EXTINF:4.0,
s0.ts
#EXTINF:4.0,
s1.ts
#EXT-X-ENDLIST
`

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return executeContext(t, context.Background(), args...)
}

func executeContext(t *testing.T, ctx context.Context, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(ctx)

	return out.String(), err
}

func TestListPrintsTable(t *testing.T) {
	_, url := newOverlayServer(t, domain.Overlay{
		ID: "a1", Type: domain.KindText, Content: "LIVE", ZIndex: 2,
		Position: domain.Position{X: 50, Y: 50}, Size: domain.Size{Width: 200, Height: 80}, Opacity: 1,
	})

	out, err := execute(t, "list", "--api", url)
	require.NoError(t, err)

	assert.Contains(t, out, "ID")
	assert.Contains(t, out, "a1")
	assert.Contains(t, out, "LIVE")
	assert.Contains(t, out, "200x80")
}

func TestAddSubmitsText(t *testing.T) {
	s, url := newOverlayServer(t)

	out, err := execute(t, "add", "--api", url, "Hello", "world")
	require.NoError(t, err)

	s.mu.Lock()
	defer s.mu.Unlock()
	require.Len(t, s.overlays, 1)
	assert.Equal(t, "Hello world", s.overlays[0].Content)
	assert.Equal(t, domain.KindText, s.overlays[0].Type)
	assert.Contains(t, out, "Hello world")
}

func TestSetOpacity(t *testing.T) {
	s, url := newOverlayServer(t, domain.Overlay{ID: "a1", Type: domain.KindText, Content: "x", Opacity: 1})

	_, err := execute(t, "set", "a1", "--api", url, "--opacity", "0.34")
	require.NoError(t, err)

	s.mu.Lock()
	defer s.mu.Unlock()
	require.Len(t, s.patches, 1)
	assert.JSONEq(t, `{"opacity":0.3}`, s.patches[0][len("a1 "):])
}

func TestRmDeletesAndPrintsRemaining(t *testing.T) {
	s, url := newOverlayServer(t,
		domain.Overlay{ID: "a1", Type: domain.KindText, Content: "keep"},
		domain.Overlay{ID: "b2", Type: domain.KindText, Content: "gone"},
	)

	out, err := execute(t, "rm", "b2", "--api", url)
	require.NoError(t, err)

	s.mu.Lock()
	require.Len(t, s.overlays, 1)
	assert.Equal(t, "a1", s.overlays[0].ID)
	s.mu.Unlock()
	assert.Contains(t, out, "keep")
	assert.NotContains(t, out, "gone")

	_, err = execute(t, "rm", "missing", "--api", url)
	assert.Error(t, err)
}

func TestWatchPrintsRenderedLayers(t *testing.T) {
	_, url := newOverlayServer(t,
		domain.Overlay{ID: "top", Type: domain.KindText, Content: "LIVE", Size: domain.Size{Width: 300, Height: 100}, Opacity: 1, ZIndex: 9},
		domain.Overlay{ID: "logo", Type: domain.KindImage, Content: "https://cdn.test/logo.png", Size: domain.Size{Width: 100, Height: 50}, Opacity: 1, ZIndex: 1},
	)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	out, err := executeContext(t, ctx, "watch", "--api", url, "--interval", "50ms")
	require.NoError(t, err)

	assert.Contains(t, out, "(2 overlays)")
	logo := strings.Index(out, "logo\thttps://cdn.test/logo.png")
	top := strings.Index(out, "top\tLIVE")
	require.GreaterOrEqual(t, logo, 0)
	require.GreaterOrEqual(t, top, 0)
	assert.Less(t, logo, top, "layers are printed in z-index order")
	assert.Contains(t, out, "pointer-events:none")
}

func TestPlayProbePrintsPlayback(t *testing.T) {
	_, url := newOverlayServer(t)

	out, err := execute(t, "play", "--api", url, "--probe", "--native=false")
	require.NoError(t, err)

	var pb map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &pb))
	assert.Equal(t, url+"/streams/index.m3u8", pb["stream_url"])
	assert.Equal(t, "hls", pb["playback_type"])
	assert.Equal(t, "application/vnd.apple.mpegurl", pb["mime_type"])
	assert.Equal(t, false, pb["live"])
}

func TestPlayWritesSegments(t *testing.T) {
	_, url := newOverlayServer(t)

	out, err := execute(t, "play", "--api", url, "--probe=false", "--native=false")
	require.NoError(t, err)
	assert.Equal(t, "s0s1", out)
}
