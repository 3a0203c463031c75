package player

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const (
	MimeTypeHLS     = "application/vnd.apple.mpegurl"
	PlaybackTypeHLS = "hls"

	defaultPrefetch = 3
)

var (
	ErrUnsupported = errors.New("hls playback is not supported by target")
	ErrNoVariants  = errors.New("master playlist has no variants")
	ErrNoSegments  = errors.New("media playlist has no segments")
)

// Target is where playback goes. The software decoder needs an io.Writer;
// native playback needs a NativeTarget.
type Target any

// NativeTarget plays HLS on its own when handed the manifest URL.
type NativeTarget interface {
	CanPlayType(mimeType string) bool
	// Load returns once the stream metadata is loaded.
	Load(ctx context.Context, manifestURL string) error
	Play(ctx context.Context) error
}

type Hooks struct {
	ManifestParsed  func(Playback)
	VariantSelected func(Variant)
	OnError         func(error)
}

type Player struct {
	httpClient *http.Client
	software   bool
	prefetch   int
	reload     time.Duration
	hooks      Hooks
	logger     *slog.Logger
}

type Option func(*Player)

func WithHTTPClient(hc *http.Client) Option {
	return func(p *Player) {
		p.httpClient = hc
	}
}

// WithSoftwareDecoder toggles the built-in adaptive streaming decoder.
func WithSoftwareDecoder(enabled bool) Option {
	return func(p *Player) {
		p.software = enabled
	}
}

func WithPrefetch(n int) Option {
	return func(p *Player) {
		if n > 0 {
			p.prefetch = n
		}
	}
}

// WithReloadInterval overrides the live playlist reload interval, which is
// the playlist's target duration by default.
func WithReloadInterval(d time.Duration) Option {
	return func(p *Player) {
		p.reload = d
	}
}

func WithHooks(h Hooks) Option {
	return func(p *Player) {
		p.hooks = h
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Player) {
		p.logger = logger
	}
}

func New(opts ...Option) *Player {
	p := &Player{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		software:   true,
		prefetch:   defaultPrefetch,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Play starts playback of manifestURL on target. With the software decoder
// enabled and a writable target, media segments are written to it in
// sequence order. Otherwise a NativeTarget that can play HLS is handed the
// URL. Any other target yields ErrUnsupported.
func (p *Player) Play(ctx context.Context, manifestURL string, target Target) error {
	err := p.play(ctx, manifestURL, target)
	if err != nil && ctx.Err() == nil {
		p.logger.ErrorContext(ctx, "playback failed", "url", manifestURL, "error", err)
		if p.hooks.OnError != nil {
			p.hooks.OnError(err)
		}
	}

	return err
}

func (p *Player) play(ctx context.Context, manifestURL string, target Target) error {
	if w, ok := target.(io.Writer); ok && p.software {
		return p.playSoftware(ctx, manifestURL, w)
	}

	if nt, ok := target.(NativeTarget); ok && nt.CanPlayType(MimeTypeHLS) {
		if err := nt.Load(ctx, manifestURL); err != nil {
			return fmt.Errorf("failed to load %s: %w", manifestURL, err)
		}
		return nt.Play(ctx)
	}

	return ErrUnsupported
}

func (p *Player) manifestParsed(pb Playback) {
	p.logger.Debug("manifest parsed", "url", pb.StreamURL, "variants", len(pb.Variants), "live", pb.Live)
	if p.hooks.ManifestParsed != nil {
		p.hooks.ManifestParsed(pb)
	}
}

func (p *Player) variantSelected(v Variant) {
	p.logger.Debug("variant selected", "uri", v.URI, "bandwidth", v.Bandwidth)
	if p.hooks.VariantSelected != nil {
		p.hooks.VariantSelected(v)
	}
}
