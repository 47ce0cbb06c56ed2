package host

import (
	"context"
	"fmt"
	"sync"

	"github.com/cloo-solutions/aliasgen/internal/domain"
	"github.com/cloo-solutions/aliasgen/internal/frontmatter"
	"github.com/cloo-solutions/aliasgen/internal/storage"
)

// Workspace is a host over a DocumentStore. One document at a time can be
// open; it is what ActiveDocument reports.
type Workspace struct {
	store    storage.DocumentStore
	notifier Notifier

	mu     sync.RWMutex
	active *domain.Document
}

func NewWorkspace(store storage.DocumentStore, notifier Notifier) *Workspace {
	if notifier == nil {
		notifier = LogNotifier{}
	}
	return &Workspace{store: store, notifier: notifier}
}

// Document loads the document behind handle.
func (w *Workspace) Document(ctx context.Context, handle string) (*domain.Document, error) {
	clean, err := domain.CleanHandle(handle)
	if err != nil {
		return nil, err
	}

	body, err := w.store.Read(ctx, clean)
	if err != nil {
		return nil, err
	}

	return &domain.Document{
		Handle: clean,
		Title:  domain.TitleFromHandle(clean),
		Body:   body,
	}, nil
}

// Open makes handle the active document.
func (w *Workspace) Open(ctx context.Context, handle string) (*domain.Document, error) {
	doc, err := w.Document(ctx, handle)
	if err != nil {
		return nil, err
	}

	w.mu.Lock()
	w.active = doc
	w.mu.Unlock()

	return doc, nil
}

// Close clears the active document.
func (w *Workspace) Close() {
	w.mu.Lock()
	w.active = nil
	w.mu.Unlock()
}

// ActiveDocument returns the open document, or nil when none is open.
func (w *Workspace) ActiveDocument(ctx context.Context) (*domain.Document, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.active == nil {
		return nil, nil
	}
	doc := *w.active
	return &doc, nil
}

func (w *Workspace) ReadBody(ctx context.Context, handle string) (string, error) {
	return w.store.Read(ctx, handle)
}

// ReadFrontmatterAliases returns the raw aliases value: nil, a string or a
// sequence.
func (w *Workspace) ReadFrontmatterAliases(ctx context.Context, handle string) (any, error) {
	body, err := w.store.Read(ctx, handle)
	if err != nil {
		return nil, err
	}

	value, err := frontmatter.Aliases(body)
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeValidation,
			fmt.Sprintf("front matter of %s could not be parsed", handle), err)
	}
	return value, nil
}

// WriteFrontmatterAliases replaces the aliases field and leaves the rest of
// the document untouched.
func (w *Workspace) WriteFrontmatterAliases(ctx context.Context, handle string, set domain.AliasSet) error {
	body, err := w.store.Read(ctx, handle)
	if err != nil {
		return err
	}

	updated, err := frontmatter.SetAliases(body, set)
	if err != nil {
		return fmt.Errorf("failed to update front matter: %w", err)
	}

	if err := w.store.Write(ctx, handle, updated); err != nil {
		return err
	}

	w.mu.Lock()
	if w.active != nil && w.active.Handle == handle {
		w.active.Body = updated
	}
	w.mu.Unlock()

	return nil
}

func (w *Workspace) Notify(ctx context.Context, message string) {
	w.notifier.Notify(ctx, message)
}
