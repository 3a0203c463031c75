package redis

import (
	"context"

	"github.com/redis/go-redis/v9"
	"github.com/streamoverlay/server/internal/repository/overlay"
)

const overlayIndexKey = "overlays"

func (r repo) getOverlayKey(overlayID string) string {
	return "overlay:" + overlayID
}

func (r repo) SetOverlay(ctx context.Context, params *overlay.SetOverlayParams) error {
	funcName := "overlay.redis.SetOverlay"
	r.logger.DebugContext(ctx, funcName, "params", params)

	o := overlay.Overlay{
		Type:     params.Type,
		Content:  params.Content,
		X:        params.X,
		Y:        params.Y,
		Width:    params.Width,
		Height:   params.Height,
		Opacity:  params.Opacity,
		Rotation: params.Rotation,
		ZIndex:   params.ZIndex,
	}

	pipe := r.rc.TxPipeline()
	pipe.HSet(ctx, r.getOverlayKey(params.ID), r.hashFields(o))
	pipe.ZAdd(ctx, overlayIndexKey, redis.Z{
		Score:  float64(params.ZIndex),
		Member: params.ID,
	})

	if err := r.executePipe(ctx, pipe); err != nil {
		r.logger.InfoContext(ctx, funcName, "error", err)
		return err
	}

	r.logger.DebugContext(ctx, funcName, "result", "OK")
	return nil
}

func (r repo) GetOverlay(ctx context.Context, overlayID string) (overlay.Overlay, error) {
	funcName := "overlay.redis.GetOverlay"
	r.logger.DebugContext(ctx, funcName, "overlayID", overlayID)

	cmd := r.rc.HGetAll(ctx, r.getOverlayKey(overlayID))
	if err := cmd.Err(); err != nil {
		r.logger.InfoContext(ctx, funcName, "error", err)
		return overlay.Overlay{}, err
	}

	if len(cmd.Val()) == 0 {
		return overlay.Overlay{}, overlay.ErrOverlayNotFound
	}

	var o overlay.Overlay
	if err := cmd.Scan(&o); err != nil {
		r.logger.InfoContext(ctx, funcName, "error", err)
		return overlay.Overlay{}, err
	}
	o.ID = overlayID

	return o, nil
}

// ListOverlays returns every overlay ordered by ascending z-index.
func (r repo) ListOverlays(ctx context.Context) ([]overlay.Overlay, error) {
	funcName := "overlay.redis.ListOverlays"
	r.logger.DebugContext(ctx, funcName)

	ids, err := r.rc.ZRange(ctx, overlayIndexKey, 0, -1).Result()
	if err != nil {
		r.logger.InfoContext(ctx, funcName, "error", err)
		return nil, err
	}

	if len(ids) == 0 {
		return []overlay.Overlay{}, nil
	}

	pipe := r.rc.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, 0, len(ids))
	for _, id := range ids {
		cmds = append(cmds, pipe.HGetAll(ctx, r.getOverlayKey(id)))
	}

	if err := r.executePipe(ctx, pipe); err != nil {
		r.logger.InfoContext(ctx, funcName, "error", err)
		return nil, err
	}

	overlays := make([]overlay.Overlay, 0, len(ids))
	for i, cmd := range cmds {
		// index entry left behind by an interrupted delete
		if len(cmd.Val()) == 0 {
			continue
		}

		var o overlay.Overlay
		if err := cmd.Scan(&o); err != nil {
			r.logger.InfoContext(ctx, funcName, "error", err)
			return nil, err
		}
		o.ID = ids[i]
		overlays = append(overlays, o)
	}

	r.logger.DebugContext(ctx, funcName, "result", len(overlays))
	return overlays, nil
}

func (r repo) UpdateOverlay(ctx context.Context, params *overlay.UpdateOverlayParams) error {
	funcName := "overlay.redis.UpdateOverlay"
	r.logger.DebugContext(ctx, funcName, "overlayID", params.ID)

	fields := r.hashFields(params)
	if len(fields) == 0 {
		exists, err := r.rc.Exists(ctx, r.getOverlayKey(params.ID)).Result()
		if err != nil {
			return err
		}
		if exists == 0 {
			return overlay.ErrOverlayNotFound
		}
		return nil
	}

	ok, err := r.hSetIfExists(ctx, r.getOverlayKey(params.ID), fields)
	if err != nil {
		r.logger.InfoContext(ctx, funcName, "error", err)
		return err
	}
	if !ok {
		return overlay.ErrOverlayNotFound
	}

	if params.ZIndex != nil {
		if err := r.rc.ZAdd(ctx, overlayIndexKey, redis.Z{
			Score:  float64(*params.ZIndex),
			Member: params.ID,
		}).Err(); err != nil {
			r.logger.InfoContext(ctx, funcName, "error", err)
			return err
		}
	}

	r.logger.DebugContext(ctx, funcName, "result", "OK")
	return nil
}

func (r repo) RemoveOverlay(ctx context.Context, overlayID string) error {
	funcName := "overlay.redis.RemoveOverlay"
	r.logger.DebugContext(ctx, funcName, "overlayID", overlayID)

	pipe := r.rc.TxPipeline()
	del := pipe.Del(ctx, r.getOverlayKey(overlayID))
	pipe.ZRem(ctx, overlayIndexKey, overlayID)

	if err := r.executePipe(ctx, pipe); err != nil {
		r.logger.InfoContext(ctx, funcName, "error", err)
		return err
	}

	if del.Val() == 0 {
		return overlay.ErrOverlayNotFound
	}

	r.logger.DebugContext(ctx, funcName, "result", "OK")
	return nil
}
