package panel

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/streamoverlay/server/internal/domain"
)

const DefaultPollInterval = 5 * time.Second

type iLister interface {
	List(context.Context) ([]domain.Overlay, error)
}

// Poller keeps a Store in sync with the server by re-fetching the full list.
type Poller struct {
	lister   iLister
	store    *Store
	interval time.Duration
	logger   *slog.Logger
	seq      atomic.Uint64
	trigger  chan struct{}
}

func NewPoller(lister iLister, store *Store, interval time.Duration, logger *slog.Logger) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	return &Poller{
		lister:   lister,
		store:    store,
		interval: interval,
		logger:   logger,
		trigger:  make(chan struct{}, 1),
	}
}

// Run fetches once immediately and then on every tick until ctx is done.
// Cancelling ctx stops the ticker and aborts the request in flight.
func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.poll(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			p.poll(ctx)
		case <-p.trigger:
			p.poll(ctx)
		}
	}
}

// Trigger asks a running poller to fetch now. It never blocks.
func (p *Poller) Trigger() {
	select {
	case p.trigger <- struct{}{}:
	default:
	}
}

// Refresh fetches the list synchronously and applies it.
func (p *Poller) Refresh(ctx context.Context) error {
	seq := p.seq.Add(1)

	overlays, err := p.lister.List(ctx)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err != nil {
		p.store.FailAt(seq, err)
		return err
	}

	p.store.Apply(seq, overlays)
	return nil
}

func (p *Poller) poll(ctx context.Context) {
	if err := p.Refresh(ctx); err != nil && ctx.Err() == nil {
		p.logger.WarnContext(ctx, "failed to fetch overlays", "error", err)
	}
}
