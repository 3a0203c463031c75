package panel

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/streamoverlay/server/internal/domain"
)

var ErrEmptyText = errors.New("overlay text is empty")

// AddForm is the single-field form that creates text overlays.
type AddForm struct {
	submitMu  sync.Mutex
	mu        sync.Mutex
	text      string
	client    iOverlayClient
	refresher iRefresher
	store     *Store
}

func NewAddForm(client iOverlayClient, refresher iRefresher, store *Store) *AddForm {
	return &AddForm{
		client:    client,
		refresher: refresher,
		store:     store,
	}
}

func (f *AddForm) SetText(text string) {
	f.mu.Lock()
	f.text = text
	f.mu.Unlock()
}

func (f *AddForm) Text() string {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.text
}

// Submit creates a text overlay from the field. Blank input sends nothing.
// The field is cleared before the request whatever its outcome.
func (f *AddForm) Submit(ctx context.Context) error {
	f.submitMu.Lock()
	defer f.submitMu.Unlock()

	return f.submit(ctx)
}

// SubmitText fills the field with text and submits it without another
// caller interleaving.
func (f *AddForm) SubmitText(ctx context.Context, text string) error {
	f.submitMu.Lock()
	defer f.submitMu.Unlock()

	f.SetText(text)
	return f.submit(ctx)
}

func (f *AddForm) submit(ctx context.Context) error {
	f.mu.Lock()
	text := f.text
	if strings.TrimSpace(text) == "" {
		f.mu.Unlock()
		return ErrEmptyText
	}
	f.text = ""
	f.mu.Unlock()

	if _, err := f.client.Create(ctx, domain.TextDraft(text)); err != nil {
		err = fmt.Errorf("failed to create overlay: %w", err)
		f.store.Fail(err)
		return err
	}

	return f.refresher.Refresh(ctx)
}
