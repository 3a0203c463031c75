package panel

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/streamoverlay/server/internal/apiclient"
	"github.com/streamoverlay/server/internal/domain"
)

type call struct {
	Method string
	Path   string
	Body   string
}

// fakeAPI is an in-memory overlay server that records every request.
type fakeAPI struct {
	mu       sync.Mutex
	overlays []domain.Overlay
	nextID   int
	calls    []call
	failNext int
}

func newFakeAPI(t *testing.T, seed ...domain.Overlay) (*fakeAPI, *apiclient.Client) {
	t.Helper()
	api := &fakeAPI{overlays: seed, nextID: 100}

	r := chi.NewRouter()
	r.Use(api.record)
	r.Get("/api/overlays", api.list)
	r.Post("/api/overlays", api.create)
	r.Put("/api/overlays/{id}", api.update)
	r.Delete("/api/overlays/{id}", api.delete)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	return api, apiclient.New(srv.URL)
}

func (a *fakeAPI) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		r.Body = io.NopCloser(bytes.NewReader(raw))

		a.mu.Lock()
		a.calls = append(a.calls, call{Method: r.Method, Path: r.URL.Path, Body: string(raw)})
		fail := a.failNext > 0
		if fail {
			a.failNext--
		}
		a.mu.Unlock()

		if fail {
			http.Error(w, `{"error":"unavailable"}`, http.StatusServiceUnavailable)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (a *fakeAPI) list(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	defer a.mu.Unlock()
	json.NewEncoder(w).Encode(a.overlays)
}

func (a *fakeAPI) create(w http.ResponseWriter, r *http.Request) {
	var d domain.Draft
	json.NewDecoder(r.Body).Decode(&d)

	a.mu.Lock()
	defer a.mu.Unlock()
	a.nextID++
	o := domain.Overlay{
		ID: strconv.Itoa(a.nextID), Type: d.Type, Content: d.Content, Position: d.Position,
		Size: d.Size, Opacity: d.Opacity, Rotation: d.Rotation, ZIndex: d.ZIndex,
	}
	a.overlays = append(a.overlays, o)
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(o)
}

func (a *fakeAPI) update(w http.ResponseWriter, r *http.Request) {
	var p domain.Patch
	json.NewDecoder(r.Body).Decode(&p)

	a.mu.Lock()
	defer a.mu.Unlock()
	for i, o := range a.overlays {
		if o.ID == chi.URLParam(r, "id") {
			a.overlays[i] = p.Apply(o)
			json.NewEncoder(w).Encode(a.overlays[i])
			return
		}
	}
	http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
}

func (a *fakeAPI) delete(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i, o := range a.overlays {
		if o.ID == chi.URLParam(r, "id") {
			a.overlays = append(a.overlays[:i], a.overlays[i+1:]...)
			w.Write([]byte(`{"deleted":true}`))
			return
		}
	}
	http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
}

func (a *fakeAPI) Calls() []call {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]call(nil), a.calls...)
}

func (a *fakeAPI) FailNext(n int) {
	a.mu.Lock()
	a.failNext = n
	a.mu.Unlock()
}

func (a *fakeAPI) ResetCalls() {
	a.mu.Lock()
	a.calls = nil
	a.mu.Unlock()
}
