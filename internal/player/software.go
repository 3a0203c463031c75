package player

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/grafov/m3u8"
	"golang.org/x/sync/errgroup"
)

// estimator tracks download throughput in bits per second.
type estimator struct {
	mu  sync.Mutex
	bps float64
}

func (e *estimator) add(bytes int, elapsed time.Duration) {
	if elapsed <= 0 {
		elapsed = time.Microsecond
	}
	sample := float64(bytes) * 8 / elapsed.Seconds()

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.bps == 0 {
		e.bps = sample
		return
	}
	e.bps = 0.5*e.bps + 0.5*sample
}

func (e *estimator) estimate() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.bps
}

// pickVariant returns the index of the highest bandwidth variant not above
// bps. variants are sorted ascending; the lowest wins when nothing fits.
func pickVariant(variants []Variant, bps float64) int {
	idx := 0
	for i, v := range variants {
		if float64(v.Bandwidth) <= bps {
			idx = i
		}
	}

	return idx
}

func (p *Player) playSoftware(ctx context.Context, manifestURL string, w io.Writer) error {
	pl, listType, err := p.fetchPlaylist(ctx, manifestURL)
	if err != nil {
		return err
	}

	pb, err := describe(manifestURL, pl, listType)
	if err != nil {
		return err
	}
	p.manifestParsed(pb)

	var media *m3u8.MediaPlaylist
	if listType == m3u8.MEDIA {
		media = pl.(*m3u8.MediaPlaylist)
	}

	var (
		est     estimator
		current = pickVariant(pb.Variants, 0)
		next    uint64
		started bool
	)
	p.variantSelected(pb.Variants[current])

	for {
		if media == nil {
			media, err = p.fetchMedia(ctx, pb.Variants[current].URI)
			if err != nil {
				return err
			}
		}
		if !started {
			next = media.SeqNo
			started = true
		}

		segs, err := segmentsFrom(pb.Variants[current].URI, media, next)
		if err != nil {
			return err
		}
		if len(segs) == 0 && media.Closed && next == media.SeqNo {
			return ErrNoSegments
		}

		switched := false
		for len(segs) > 0 {
			n := min(p.prefetch, len(segs))
			if err := p.writeSegments(ctx, w, segs[:n], &est); err != nil {
				return err
			}
			next = segs[n-1].Seq + 1
			segs = segs[n:]

			if idx := pickVariant(pb.Variants, est.estimate()); idx != current {
				current = idx
				switched = true
				p.variantSelected(pb.Variants[current])
				break
			}
		}

		if switched {
			media = nil
			continue
		}
		if media.Closed {
			return nil
		}

		if err := p.waitReload(ctx, media.TargetDuration); err != nil {
			return err
		}
		media = nil
	}
}

// writeSegments downloads segs concurrently and writes them to w in order.
func (p *Player) writeSegments(ctx context.Context, w io.Writer, segs []segment, est *estimator) error {
	bodies := make([][]byte, len(segs))

	g, gctx := errgroup.WithContext(ctx)
	for i, s := range segs {
		g.Go(func() error {
			start := time.Now()
			raw, err := p.get(gctx, s.URI)
			if err != nil {
				return fmt.Errorf("failed to fetch segment %d: %w", s.Seq, err)
			}
			est.add(len(raw), time.Since(start))
			bodies[i] = raw
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for i, body := range bodies {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := w.Write(body); err != nil {
			return fmt.Errorf("failed to write segment %d: %w", segs[i].Seq, err)
		}
	}

	return nil
}

func (p *Player) waitReload(ctx context.Context, targetDuration float64) error {
	d := p.reload
	if d <= 0 {
		d = time.Duration(targetDuration * float64(time.Second))
	}
	if d <= 0 {
		d = time.Second
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
