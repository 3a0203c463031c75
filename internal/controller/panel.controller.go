package controller

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/streamoverlay/server/internal/domain"
	"github.com/streamoverlay/server/internal/panel"
	"github.com/streamoverlay/server/internal/render"
)

const panelPath = "/panel"

func (c controller) showPanel(w http.ResponseWriter, r *http.Request) {
	state := c.panel.Store.Snapshot()

	data := render.PageData{
		ManifestURL: c.manifestPath,
		FeedPath:    feedPath,
		Overlays:    state.Overlays,
	}
	if state.Err != nil {
		data.Error = state.Err.Error()
	}

	var buf bytes.Buffer
	if err := c.renderer.Page(&buf, data); err != nil {
		c.logger.ErrorContext(r.Context(), "failed to render panel", "error", err)
		http.Error(w, "failed to render panel", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

func (c controller) panelAddOverlay(w http.ResponseWriter, r *http.Request) {
	if err := c.panel.Form.SubmitText(r.Context(), r.PostFormValue("content")); err != nil {
		if !errors.Is(err, panel.ErrEmptyText) {
			c.logger.WarnContext(r.Context(), "failed to add overlay", "error", err)
		}
	}

	http.Redirect(w, r, panelPath, http.StatusSeeOther)
}

func (c controller) panelEditOverlay(w http.ResponseWriter, r *http.Request) {
	overlayID := chi.URLParam(r, "overlay-id")
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	o, ok := c.findOverlay(r, overlayID)
	if !ok {
		http.Error(w, "overlay not found", http.StatusNotFound)
		return
	}

	if err := c.applyEdits(r, o); err != nil {
		var numErr *strconv.NumError
		if errors.As(err, &numErr) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		c.logger.WarnContext(r.Context(), "failed to edit overlay", "overlay_id", overlayID, "error", err)
	}

	http.Redirect(w, r, panelPath, http.StatusSeeOther)
}

// applyEdits sends one update per submitted control.
func (c controller) applyEdits(r *http.Request, o domain.Overlay) error {
	ctx := r.Context()
	form := r.PostForm

	if form.Has("width") {
		v, err := strconv.Atoi(form.Get("width"))
		if err != nil {
			return fmt.Errorf("width: %w", err)
		}
		if err := c.panel.Editor.SetWidth(ctx, o, v); err != nil {
			return err
		}
	}
	if form.Has("height") {
		v, err := strconv.Atoi(form.Get("height"))
		if err != nil {
			return fmt.Errorf("height: %w", err)
		}
		if err := c.panel.Editor.SetHeight(ctx, o, v); err != nil {
			return err
		}
	}
	if form.Has("opacity") {
		v, err := strconv.ParseFloat(form.Get("opacity"), 64)
		if err != nil {
			return fmt.Errorf("opacity: %w", err)
		}
		if err := c.panel.Editor.SetOpacity(ctx, o.ID, v); err != nil {
			return err
		}
	}
	if form.Has("rotation") {
		v, err := strconv.ParseFloat(form.Get("rotation"), 64)
		if err != nil {
			return fmt.Errorf("rotation: %w", err)
		}
		if err := c.panel.Editor.SetRotation(ctx, o.ID, int(v)); err != nil {
			return err
		}
	}

	return nil
}

func (c controller) panelDeleteOverlay(w http.ResponseWriter, r *http.Request) {
	overlayID := chi.URLParam(r, "overlay-id")
	if err := c.panel.Editor.Delete(r.Context(), overlayID); err != nil {
		c.logger.WarnContext(r.Context(), "failed to delete overlay", "overlay_id", overlayID, "error", err)
	}

	http.Redirect(w, r, panelPath, http.StatusSeeOther)
}

// findOverlay looks overlayID up in the panel store, refreshing once when
// the store has not seen it yet.
func (c controller) findOverlay(r *http.Request, overlayID string) (domain.Overlay, bool) {
	if o, ok := c.panel.Store.Find(overlayID); ok {
		return o, true
	}
	if c.panel.Refresher == nil {
		return domain.Overlay{}, false
	}
	if err := c.panel.Refresher.Refresh(r.Context()); err != nil {
		c.logger.WarnContext(r.Context(), "failed to refresh overlays", "error", err)
		return domain.Overlay{}, false
	}

	return c.panel.Store.Find(overlayID)
}
