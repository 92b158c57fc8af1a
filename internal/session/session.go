// Package session composes the request store, the transport and the saved
// request files behind independent locks. It is the only entry point the
// CLI and the runner use.
package session

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sadopc/treq/internal/core/collection"
	"github.com/sadopc/treq/internal/core/errs"
	"github.com/sadopc/treq/internal/core/request"
	"github.com/sadopc/treq/internal/core/state"
	"github.com/sadopc/treq/internal/logging"
	"github.com/sadopc/treq/internal/protocol"
)

// Session is safe for concurrent use. No two component locks are ever held
// at the same time.
type Session struct {
	store   *state.Store
	storeMu *rwLock

	transport   protocol.Transport
	transportMu *rwLock

	files   *collection.Store
	filesMu *rwLock

	log *slog.Logger
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger used by the session and its components.
func WithLogger(log *slog.Logger) Option {
	return func(s *Session) {
		if log != nil {
			s.log = log
		}
	}
}

// WithStore replaces the in-memory request store.
func WithStore(store *state.Store) Option {
	return func(s *Session) {
		if store != nil {
			s.store = store
		}
	}
}

// New creates a session submitting through transport and persisting saved
// requests in files.
func New(transport protocol.Transport, files *collection.Store, opts ...Option) *Session {
	s := &Session{
		store:       state.NewStore(),
		storeMu:     newRWLock(),
		transport:   transport,
		transportMu: newRWLock(),
		files:       files,
		filesMu:     newRWLock(),
		log:         logging.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.store.SetLogger(s.log)
	s.files.SetLogger(s.log)
	return s
}

// SetTransport swaps the transport. Submissions already started keep running
// on the previous one.
func (s *Session) SetTransport(ctx context.Context, t protocol.Transport) error {
	if err := s.transportMu.Lock(ctx); err != nil {
		return err
	}
	defer s.transportMu.Unlock()
	s.transport = t
	return nil
}

// Add stores a new request and returns its identifier.
func (s *Session) Add(ctx context.Context, d request.Data) (state.ID, error) {
	if err := s.storeMu.Lock(ctx); err != nil {
		return state.ID{}, err
	}
	defer s.storeMu.Unlock()
	return s.store.Add(d), nil
}

// Edit replaces the current value of id, discarding its redo branch.
func (s *Session) Edit(ctx context.Context, id state.ID, d request.Data) error {
	if err := s.storeMu.Lock(ctx); err != nil {
		return err
	}
	defer s.storeMu.Unlock()
	return s.store.Edit(id, d)
}

// Delete removes id and its history.
func (s *Session) Delete(ctx context.Context, id state.ID) error {
	if err := s.storeMu.Lock(ctx); err != nil {
		return err
	}
	defer s.storeMu.Unlock()
	return s.store.Delete(id)
}

// Get returns a copy of the current value of id.
func (s *Session) Get(ctx context.Context, id state.ID) (request.Data, error) {
	if err := s.storeMu.RLock(ctx); err != nil {
		return request.Data{}, err
	}
	defer s.storeMu.RUnlock()
	d, ok := s.store.Get(id)
	if !ok {
		return request.Data{}, fmt.Errorf("request %s: %w", id, errs.ErrNotFound)
	}
	return d, nil
}

// Undo steps id back one edit. It is a no-op when there is nothing to undo.
func (s *Session) Undo(ctx context.Context, id state.ID) error {
	if err := s.storeMu.Lock(ctx); err != nil {
		return err
	}
	defer s.storeMu.Unlock()
	return s.store.Undo(id)
}

// Redo reapplies the last undone edit of id. It is a no-op when there is
// nothing to redo.
func (s *Session) Redo(ctx context.Context, id state.ID) error {
	if err := s.storeMu.Lock(ctx); err != nil {
		return err
	}
	defer s.storeMu.Unlock()
	return s.store.Redo(id)
}

// IDs lists the identifiers currently stored.
func (s *Session) IDs(ctx context.Context) ([]state.ID, error) {
	if err := s.storeMu.RLock(ctx); err != nil {
		return nil, err
	}
	defer s.storeMu.RUnlock()
	return s.store.IDs(), nil
}

// SubmitAsync starts submitting the current value of id and returns its
// completion handle. The store lock is released before the transport runs,
// so a slow request never blocks edits, including edits to id itself.
func (s *Session) SubmitAsync(ctx context.Context, id state.ID) (*protocol.Completion, error) {
	d, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.log.Debug("submit", "component", "session", "id", id, "method", d.Method, "url", d.URL.String())
	return s.submit(ctx, d)
}

// SubmitByID submits the current value of id and waits for the response.
// Giving up on ctx leaves the submission running unobserved.
func (s *Session) SubmitByID(ctx context.Context, id state.ID) (*protocol.Response, error) {
	c, err := s.SubmitAsync(ctx, id)
	if err != nil {
		return nil, err
	}
	return c.Wait(ctx)
}

// Submit sends d without storing it and waits for the response.
func (s *Session) Submit(ctx context.Context, d request.Data) (*protocol.Response, error) {
	c, err := s.submit(ctx, d)
	if err != nil {
		return nil, err
	}
	return c.Wait(ctx)
}

func (s *Session) submit(ctx context.Context, d request.Data) (*protocol.Completion, error) {
	if err := s.transportMu.RLock(ctx); err != nil {
		return nil, err
	}
	t := s.transport
	s.transportMu.RUnlock()
	if t == nil {
		return nil, fmt.Errorf("no transport configured: %w", errs.ErrInvalidState)
	}
	return t.Submit(d), nil
}

// SaveAs writes d under name, replacing any previous content.
func (s *Session) SaveAs(ctx context.Context, name string, d request.Data) error {
	if err := s.filesMu.Lock(ctx); err != nil {
		return err
	}
	defer s.filesMu.Unlock()
	return s.files.Save(name, d)
}

// GetSaved loads the request saved under name. Loading may create or remove
// the backing file, so it runs under the exclusive grant.
func (s *Session) GetSaved(ctx context.Context, name string) (request.Data, error) {
	if err := s.filesMu.Lock(ctx); err != nil {
		return request.Data{}, err
	}
	defer s.filesMu.Unlock()
	return s.files.Load(name)
}

// ListSaved returns the saved request names in lexical order.
func (s *Session) ListSaved(ctx context.Context) ([]string, error) {
	if err := s.filesMu.RLock(ctx); err != nil {
		return nil, err
	}
	defer s.filesMu.RUnlock()
	return s.files.List()
}

// RemoveSaved deletes the request saved under name.
func (s *Session) RemoveSaved(ctx context.Context, name string) error {
	if err := s.filesMu.Lock(ctx); err != nil {
		return err
	}
	defer s.filesMu.Unlock()
	return s.files.Remove(name)
}

// RenameSaved moves a saved request from one name to another.
func (s *Session) RenameSaved(ctx context.Context, from, to string) error {
	if err := s.filesMu.Lock(ctx); err != nil {
		return err
	}
	defer s.filesMu.Unlock()
	return s.files.Rename(from, to)
}
