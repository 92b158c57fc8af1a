// Package state keeps the in-memory requests of a session together with
// their undo/redo history.
package state

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/google/uuid"

	"github.com/sadopc/treq/internal/core/errs"
	"github.com/sadopc/treq/internal/core/request"
	"github.com/sadopc/treq/internal/logging"
)

// ID identifies a request for the lifetime of the process.
type ID = uuid.UUID

// History is the undo/redo record of one request.
type History struct {
	current request.Data
	past    []request.Data
	future  []request.Data
}

func newHistory(d request.Data) *History {
	return &History{current: d}
}

func (h *History) edit(d request.Data) {
	h.past = append(h.past, h.current)
	h.current = d
	h.future = nil
}

// undo reports whether anything changed.
func (h *History) undo() bool {
	if len(h.past) == 0 {
		return false
	}
	h.future = append(h.future, h.current)
	h.current = h.past[len(h.past)-1]
	h.past = h.past[:len(h.past)-1]
	return true
}

func (h *History) redo() bool {
	if len(h.future) == 0 {
		return false
	}
	h.past = append(h.past, h.current)
	h.current = h.future[len(h.future)-1]
	h.future = h.future[:len(h.future)-1]
	return true
}

// Store maps identifiers to request histories.
// It is not safe for concurrent use; session.Session guards it with its own lock.
type Store struct {
	entries map[ID]*History
	log     *slog.Logger
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		entries: make(map[ID]*History),
		log:     logging.Nop(),
	}
}

// SetLogger sets the logger used for debug output.
func (s *Store) SetLogger(log *slog.Logger) {
	if log != nil {
		s.log = log
	}
}

// Add stores d under a newly minted identifier.
func (s *Store) Add(d request.Data) ID {
	id := uuid.New()
	for s.entries[id] != nil {
		id = uuid.New()
	}
	s.entries[id] = newHistory(d.Clone())
	s.log.Debug("request added", "id", id, "method", d.Method, "url", d.URL.String())
	return id
}

// Edit replaces the current value of id. Any redo branch is discarded.
func (s *Store) Edit(id ID, d request.Data) error {
	h, err := s.lookup(id)
	if err != nil {
		return err
	}
	h.edit(d.Clone())
	s.log.Debug("request edited", "id", id, "undo_depth", len(h.past))
	return nil
}

// Delete removes id and its whole history.
func (s *Store) Delete(id ID) error {
	if _, err := s.lookup(id); err != nil {
		return err
	}
	delete(s.entries, id)
	s.log.Debug("request deleted", "id", id)
	return nil
}

// Get returns a copy of the current value of id. Mutating the copy never
// affects the store.
func (s *Store) Get(id ID) (request.Data, bool) {
	h, ok := s.entries[id]
	if !ok {
		return request.Data{}, false
	}
	return h.current.Clone(), true
}

// Undo steps id back one edit. With nothing to undo it is a no-op.
func (s *Store) Undo(id ID) error {
	h, err := s.lookup(id)
	if err != nil {
		return err
	}
	if !h.undo() {
		s.log.Debug("undo with empty history", "id", id)
	}
	return nil
}

// Redo re-applies the last undone edit of id. With nothing to redo it is a no-op.
func (s *Store) Redo(id ID) error {
	h, err := s.lookup(id)
	if err != nil {
		return err
	}
	if !h.redo() {
		s.log.Debug("redo with empty history", "id", id)
	}
	return nil
}

// CanUndo reports whether id has an edit to undo.
func (s *Store) CanUndo(id ID) bool {
	h, ok := s.entries[id]
	return ok && len(h.past) > 0
}

// CanRedo reports whether id has an undone edit to re-apply.
func (s *Store) CanRedo(id ID) bool {
	h, ok := s.entries[id]
	return ok && len(h.future) > 0
}

// Len returns the number of stored requests.
func (s *Store) Len() int {
	return len(s.entries)
}

// IDs returns all identifiers in a stable order.
func (s *Store) IDs() []ID {
	ids := make([]ID, 0, len(s.entries))
	for id := range s.entries {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, func(a, b ID) int {
		return slices.Compare(a[:], b[:])
	})
	return ids
}

func (s *Store) lookup(id ID) (*History, error) {
	h, ok := s.entries[id]
	if !ok {
		return nil, fmt.Errorf("request %s: %w", id, errs.ErrNotFound)
	}
	return h, nil
}
