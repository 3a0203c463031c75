package controller

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/streamoverlay/server/internal/domain"
	"github.com/streamoverlay/server/internal/service/overlay"
	"github.com/streamoverlay/server/pkg/rest"
)

// overlayFields are the only fields a request may set. Anything else in the
// body is ignored.
type overlayFields struct {
	Type     *domain.Kind     `json:"type" validate:"omitempty,oneof=text image"`
	Content  *string          `json:"content"`
	Position *domain.Position `json:"position"`
	Size     *domain.Size     `json:"size"`
	Opacity  *float64         `json:"opacity"`
	Rotation *float64         `json:"rotation"`
	ZIndex   *int             `json:"zIndex"`
}

func (f overlayFields) patch() domain.Patch {
	return domain.Patch{
		Type:     f.Type,
		Content:  f.Content,
		Position: f.Position,
		Size:     f.Size,
		Opacity:  f.Opacity,
		Rotation: f.Rotation,
		ZIndex:   f.ZIndex,
	}
}

func (c controller) listOverlays(w http.ResponseWriter, r *http.Request) {
	overlays, err := c.overlayService.ListOverlays(r.Context())
	if err != nil {
		c.logger.ErrorContext(r.Context(), "failed to list overlays", "error", err)
		rest.WriteJSON(w, http.StatusInternalServerError, rest.Envelope{"error": err.Error()})
		return
	}

	rest.WriteJSON(w, http.StatusOK, overlays)
}

func (c controller) readOverlayFields(w http.ResponseWriter, r *http.Request) (overlayFields, bool) {
	var req overlayFields
	if err := rest.ReadJSON(r, &req); err != nil {
		c.logger.InfoContext(r.Context(), "failed to read json", "error", err)
		rest.WriteJSON(w, http.StatusUnprocessableEntity, rest.Envelope{"error": err.Error()})
		return req, false
	}

	if validationErrors, ok := c.validate.Validate(req); !ok {
		c.logger.InfoContext(r.Context(), "validation failed", "errors", validationErrors)
		rest.WriteJSON(w, http.StatusBadRequest, rest.Envelope{"errors": validationErrors})
		return req, false
	}

	return req, true
}

func (c controller) createOverlay(w http.ResponseWriter, r *http.Request) {
	req, ok := c.readOverlayFields(w, r)
	if !ok {
		return
	}

	created, err := c.overlayService.CreateOverlay(r.Context(), &overlay.CreateOverlayParams{
		Type:     req.Type,
		Content:  req.Content,
		Position: req.Position,
		Size:     req.Size,
		Opacity:  req.Opacity,
		Rotation: req.Rotation,
		ZIndex:   req.ZIndex,
	})
	if err != nil {
		c.logger.ErrorContext(r.Context(), "failed to create overlay", "error", err)
		rest.WriteJSON(w, http.StatusInternalServerError, rest.Envelope{"error": err.Error()})
		return
	}

	rest.WriteJSON(w, http.StatusCreated, created)
}

func (c controller) getOverlay(w http.ResponseWriter, r *http.Request) {
	o, err := c.overlayService.GetOverlay(r.Context(), chi.URLParam(r, "overlay-id"))
	if err != nil {
		c.writeOverlayError(w, r, err)
		return
	}

	rest.WriteJSON(w, http.StatusOK, o)
}

func (c controller) updateOverlay(w http.ResponseWriter, r *http.Request) {
	req, ok := c.readOverlayFields(w, r)
	if !ok {
		return
	}

	updated, err := c.overlayService.UpdateOverlay(r.Context(), &overlay.UpdateOverlayParams{
		OverlayID: chi.URLParam(r, "overlay-id"),
		Patch:     req.patch(),
	})
	if err != nil {
		c.writeOverlayError(w, r, err)
		return
	}

	rest.WriteJSON(w, http.StatusOK, updated)
}

func (c controller) removeOverlay(w http.ResponseWriter, r *http.Request) {
	if err := c.overlayService.RemoveOverlay(r.Context(), chi.URLParam(r, "overlay-id")); err != nil {
		c.writeOverlayError(w, r, err)
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"deleted": true})
}

func (c controller) writeOverlayError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, overlay.ErrOverlayNotFound) {
		c.logger.InfoContext(r.Context(), "overlay not found", "overlay_id", chi.URLParam(r, "overlay-id"))
		rest.WriteJSON(w, http.StatusNotFound, rest.Envelope{"error": "not found"})
		return
	}

	c.logger.ErrorContext(r.Context(), "overlay request failed", "error", err)
	rest.WriteJSON(w, http.StatusInternalServerError, rest.Envelope{"error": err.Error()})
}
