package controller

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/streamoverlay/server/internal/render"
)

const feedPath = "/ws/overlays"

func (c controller) GetMux() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(c.requestIdMw)
	r.Use(c.requestLoggingMw)
	r.Use(cors.AllowAll().Handler)

	r.Get("/", c.home)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", c.health)
		r.Get("/stream/playback", c.getPlayback)
		r.Route("/overlays", func(r chi.Router) {
			r.Get("/", c.listOverlays)
			r.Post("/", c.createOverlay)
			r.Route("/{overlay-id}", func(r chi.Router) {
				r.Get("/", c.getOverlay)
				r.Put("/", c.updateOverlay)
				r.Delete("/", c.removeOverlay)
			})
		})
	})

	r.Get("/streams/*", c.serveStream)
	r.Get("/debug/streams", c.debugStreams)

	r.Get(feedPath, c.connectViewer)

	r.Route("/panel", func(r chi.Router) {
		r.Get("/", c.showPanel)
		r.Post("/overlays", c.panelAddOverlay)
		r.Post("/overlays/{overlay-id}", c.panelEditOverlay)
		r.Post("/overlays/{overlay-id}/delete", c.panelDeleteOverlay)
	})

	return r
}

var endpoints = []render.Endpoint{
	{Method: http.MethodGet, Path: "/api/overlays", Description: "list overlays ordered by zIndex"},
	{Method: http.MethodPost, Path: "/api/overlays", Description: "create an overlay"},
	{Method: http.MethodGet, Path: "/api/overlays/{id}", Description: "get an overlay"},
	{Method: http.MethodPut, Path: "/api/overlays/{id}", Description: "update overlay fields"},
	{Method: http.MethodDelete, Path: "/api/overlays/{id}", Description: "delete an overlay"},
	{Method: http.MethodGet, Path: "/api/health", Description: "health check"},
	{Method: http.MethodGet, Path: "/api/stream/playback", Description: "stream playback descriptor"},
	{Method: http.MethodGet, Path: "/streams/{file}", Description: "HLS playlists and segments"},
	{Method: http.MethodGet, Path: "/debug/streams", Description: "list the streams directory"},
	{Method: http.MethodGet, Path: feedPath, Description: "live overlay layer (websocket)"},
	{Method: http.MethodGet, Path: "/panel", Description: "control panel"},
}
