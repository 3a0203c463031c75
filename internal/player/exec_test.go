package player

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecTargetCanPlayType(t *testing.T) {
	sh := NewExecTarget(slog.Default(), "sh", "-c", "exit 0")
	assert.True(t, sh.CanPlayType(MimeTypeHLS))
	assert.False(t, sh.CanPlayType("video/mp4"))

	missing := NewExecTarget(slog.Default(), "no-such-player-for-tests")
	assert.False(t, missing.CanPlayType(MimeTypeHLS))
}

func TestExecTargetReceivesManifestURL(t *testing.T) {
	// sh -c passes the trailing manifest URL as $0.
	target := NewExecTarget(slog.Default(), "sh", "-c",
		`[ "$0" = "http://example.test/index.m3u8" ] || { echo "got $0" >&2; exit 1; }`)

	p := New(WithSoftwareDecoder(false))
	require.NoError(t, p.Play(context.Background(), "http://example.test/index.m3u8", target))
}

func TestExecTargetReportsStderr(t *testing.T) {
	target := NewExecTarget(slog.Default(), "sh", "-c", "echo broken stream >&2; exit 3")

	var reported error
	p := New(WithSoftwareDecoder(false), WithHooks(Hooks{OnError: func(err error) { reported = err }}))
	err := p.Play(context.Background(), "http://example.test/index.m3u8", target)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken stream")
	assert.Equal(t, err, reported)
}

func TestExecTargetPlayBeforeLoad(t *testing.T) {
	target := NewExecTarget(slog.Default(), "sh", "-c", "exit 0")
	assert.ErrorIs(t, target.Play(context.Background()), errNotLoaded)
}

func TestExecTargetStopsOnCancel(t *testing.T) {
	target := NewExecTarget(slog.Default(), "sh", "-c", "exec sleep 10")

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, target.Load(ctx, "http://example.test/index.m3u8"))

	time.AfterFunc(50*time.Millisecond, cancel)
	start := time.Now()
	assert.ErrorIs(t, target.Play(ctx), context.Canceled)
	assert.Less(t, time.Since(start), 5*time.Second)
}
