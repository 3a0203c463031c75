package inmemory

import (
	"context"
	"sync"

	"github.com/streamoverlay/server/internal/domain"
)

type bus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]func(domain.Event)
}

func NewBus() *bus {
	return &bus{subs: make(map[int]func(domain.Event))}
}

func (b *bus) Publish(_ context.Context, event domain.Event) error {
	b.mu.RLock()
	subs := make([]func(domain.Event), 0, len(b.subs))
	for _, fn := range b.subs {
		subs = append(subs, fn)
	}
	b.mu.RUnlock()

	for _, fn := range subs {
		fn(event)
	}

	return nil
}

func (b *bus) Subscribe(ctx context.Context, onEvent func(domain.Event)) error {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = onEvent
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}()

	return nil
}
