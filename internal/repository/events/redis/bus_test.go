package redis

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/streamoverlay/server/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishSubscribe(t *testing.T) {
	s := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: s.Addr()})
	defer rc.Close()

	b := NewBus(rc, "", slog.Default())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan domain.Event, 1)
	require.NoError(t, b.Subscribe(ctx, func(e domain.Event) { received <- e }))

	require.NoError(t, b.Publish(ctx, domain.Event{Type: domain.EventOverlayCreated, OverlayID: "7"}))

	select {
	case e := <-received:
		assert.Equal(t, domain.Event{Type: domain.EventOverlayCreated, OverlayID: "7"}, e)
	case <-time.After(2 * time.Second):
		t.Fatal("event not delivered")
	}
}
