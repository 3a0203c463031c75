package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"github.com/streamoverlay/server/internal/domain"
)

type bus struct {
	rc      *redis.Client
	channel string
	logger  *slog.Logger
}

func NewBus(rc *redis.Client, channel string, logger *slog.Logger) *bus {
	if channel == "" {
		channel = "overlay-events"
	}

	return &bus{
		rc:      rc,
		channel: channel,
		logger:  logger,
	}
}

func (b *bus) Publish(ctx context.Context, event domain.Event) error {
	raw, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return b.rc.Publish(ctx, b.channel, raw).Err()
}

// Subscribe calls onEvent for every event published until ctx is cancelled.
// It returns once the subscription is confirmed by the server.
func (b *bus) Subscribe(ctx context.Context, onEvent func(domain.Event)) error {
	sub := b.rc.Subscribe(ctx, b.channel)

	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("redis subscribe: %w", err)
	}

	go func() {
		defer sub.Close()

		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-ch:
				if !ok {
					return
				}

				var event domain.Event
				if err := json.Unmarshal([]byte(m.Payload), &event); err != nil {
					b.logger.Warn("bad overlay event payload", "error", err)
					continue
				}
				onEvent(event)
			}
		}
	}()

	return nil
}
