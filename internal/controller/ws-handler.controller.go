package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/streamoverlay/server/internal/domain"
	"github.com/streamoverlay/server/pkg/ctxlogger"
	"github.com/streamoverlay/server/pkg/wsrouter"
)

const overlaysRenderedType = "OVERLAYS_RENDERED"

type Output struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type renderedPayload struct {
	HTML     string `json:"html"`
	Overlays int    `json:"overlays"`
}

func (c controller) connectViewer(w http.ResponseWriter, r *http.Request) {
	conn, err := c.upgrader.Upgrade(w, r, nil)
	if err != nil {
		c.logger.WarnContext(r.Context(), "failed to upgrade to websocket", "error", err)
		return
	}

	viewerId := uuid.NewString()
	viewer, err := c.viewers.Add(conn, viewerId)
	if err != nil {
		c.logger.WarnContext(r.Context(), "failed to add viewer", "error", err)
		conn.Close()
		return
	}
	defer c.viewers.RemoveByConn(conn)

	ctx := ctxlogger.AppendCtx(r.Context(), slog.String("viewer_id", viewerId))
	ctx = context.WithValue(ctx, viewerIdCtxKey, viewerId)
	c.logger.InfoContext(ctx, "viewer connected")

	if err := c.writeRendered(viewer, c.panel.Store.Snapshot().Overlays); err != nil {
		c.logger.WarnContext(ctx, "failed to write initial layer", "error", err)
		return
	}

	go func() {
		if err := viewer.RunWriter(ctx); err != nil {
			c.logger.InfoContext(ctx, "dropping viewer", "error", err)
			c.viewers.RemoveByConn(conn)
		}
	}()

	if err := c.wsmux.ServeConn(ctx, viewer); err != nil {
		c.logger.InfoContext(ctx, "viewer connection closed", "error", err)
		return
	}
	c.logger.InfoContext(ctx, "viewer disconnected")
}

func (c controller) handleAlive(_ context.Context, _ wsrouter.Conn, _ json.RawMessage) error {
	return nil
}

func (c controller) handleRender(_ context.Context, conn wsrouter.Conn, _ json.RawMessage) error {
	return c.writeRendered(conn, c.panel.Store.Snapshot().Overlays)
}

func (c controller) renderOutput(overlays []domain.Overlay) (*Output, error) {
	var buf bytes.Buffer
	if err := c.renderer.Layer(&buf, overlays); err != nil {
		return nil, fmt.Errorf("failed to render layer: %w", err)
	}

	return &Output{
		Type: overlaysRenderedType,
		Payload: renderedPayload{
			HTML:     buf.String(),
			Overlays: len(overlays),
		},
	}, nil
}

func (c controller) writeRendered(conn wsrouter.Conn, overlays []domain.Overlay) error {
	output, err := c.renderOutput(overlays)
	if err != nil {
		return err
	}

	return conn.WriteJSON(output)
}

// BroadcastOverlays queues the rendered layer of overlays for every viewer
// without waiting for the writes. Viewers whose queue is full are dropped.
func (c controller) BroadcastOverlays(ctx context.Context, overlays []domain.Overlay) error {
	output, err := c.renderOutput(overlays)
	if err != nil {
		return err
	}

	for _, viewer := range c.viewers.List() {
		if err := viewer.Send(output); err != nil {
			c.logger.InfoContext(ctx, "dropping viewer", "viewer_id", viewer.ID, "error", err)
			c.viewers.RemoveByConn(viewer.Conn())
		}
	}

	return nil
}
