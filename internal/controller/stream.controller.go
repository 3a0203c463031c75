package controller

import (
	"errors"
	"net/http"
	"os"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/streamoverlay/server/internal/service/stream"
	"github.com/streamoverlay/server/pkg/rest"
)

const streamsPrefix = "/streams/"

var contentTypes = map[string]string{
	".m3u8": "application/vnd.apple.mpegurl",
	".ts":   "video/mp2t",
	".m4s":  "video/iso.segment",
	".mp4":  "video/mp4",
	".aac":  "audio/aac",
}

func (c controller) health(w http.ResponseWriter, r *http.Request) {
	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"status": "ok"})
}

func (c controller) home(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := c.renderer.Home(w, endpoints); err != nil {
		c.logger.ErrorContext(r.Context(), "failed to render home", "error", err)
	}
}

func (c controller) serveStream(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "*")

	filePath, err := c.streamService.Resolve(name)
	if err != nil {
		if errors.Is(err, stream.ErrInvalidPath) {
			rest.WriteJSON(w, http.StatusBadRequest, rest.Envelope{"error": err.Error()})
			return
		}

		files, _ := c.streamService.Files()
		if files == nil {
			files = []string{}
		}
		c.logger.InfoContext(r.Context(), "stream file not found", "name", name)
		rest.WriteJSON(w, http.StatusNotFound, rest.Envelope{
			"error":           "file not found",
			"requested":       name,
			"available_files": files,
		})
		return
	}

	f, err := os.Open(filePath)
	if err != nil {
		c.logger.ErrorContext(r.Context(), "failed to open stream file", "path", filePath, "error", err)
		rest.WriteJSON(w, http.StatusInternalServerError, rest.Envelope{"error": "failed to open file"})
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		rest.WriteJSON(w, http.StatusInternalServerError, rest.Envelope{"error": "failed to stat file"})
		return
	}

	ext := path.Ext(name)
	if ct, ok := contentTypes[ext]; ok {
		w.Header().Set("Content-Type", ct)
	}
	if ext == ".m3u8" {
		w.Header().Set("Cache-Control", "no-cache")
	}

	http.ServeContent(w, r, name, info.ModTime(), f)
}

func (c controller) debugStreams(w http.ResponseWriter, r *http.Request) {
	resp := rest.Envelope{"HLS_DIR": c.streamService.Dir()}

	abs, err := c.streamService.AbsDir()
	if err == nil {
		resp["absolute_path"] = abs
	}

	files, err := c.streamService.Files()
	if err != nil {
		resp["files"] = []string{}
		resp["error"] = err.Error()
	} else {
		resp["files"] = files
	}

	rest.WriteJSON(w, http.StatusOK, resp)
}

func (c controller) getPlayback(w http.ResponseWriter, r *http.Request) {
	if !strings.HasPrefix(c.manifestPath, streamsPrefix) {
		rest.WriteJSON(w, http.StatusNotFound, rest.Envelope{"error": "manifest is not served locally"})
		return
	}

	pb, err := c.streamService.Describe(strings.TrimPrefix(c.manifestPath, streamsPrefix), c.manifestPath)
	if err != nil {
		if errors.Is(err, stream.ErrFileNotFound) {
			rest.WriteJSON(w, http.StatusNotFound, rest.Envelope{"error": "stream not available"})
			return
		}
		c.logger.WarnContext(r.Context(), "failed to describe stream", "error", err)
		rest.WriteJSON(w, http.StatusBadGateway, rest.Envelope{"error": err.Error()})
		return
	}

	rest.WriteJSON(w, http.StatusOK, pb)
}
