// Package memory is an in-process summary repository used for local runs
// and tests.
package memory

import (
	"context"
	"net/http"
	"sync"

	"github.com/google/uuid"

	"soda/internal/core"
	"soda/internal/repository"
)

type record struct {
	id     string
	fields core.Fields
}

type Store struct {
	mu    sync.Mutex
	items []record
	newID func() string
}

var _ repository.Repository = (*Store)(nil)

// New returns an empty store. Seed summaries keep their ids and totals are
// recomputed from their fields.
func New(seed ...core.Summary) *Store {
	s := &Store{newID: uuid.NewString}
	for _, sum := range seed {
		id := sum.ID
		if id == "" {
			id = s.newID()
		}
		s.items = append(s.items, record{id: id, fields: sum.Fields})
	}
	return s
}

// Create stores the summary under a fresh id.
func (s *Store) Create(ctx context.Context, f core.Fields) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &repository.Error{Op: repository.OpCreate, Message: err.Error(), Err: err}
	}
	if err := f.Validate(); err != nil {
		return "", &repository.Error{Op: repository.OpCreate, Status: http.StatusBadRequest, Message: err.Error(), Err: err}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.newID()
	s.items = append(s.items, record{id: id, fields: f})
	return id, nil
}

// ListAll returns summaries in insertion order.
func (s *Store) ListAll(ctx context.Context) ([]core.Summary, error) {
	if err := ctx.Err(); err != nil {
		return nil, &repository.Error{Op: repository.OpList, Message: err.Error(), Err: err}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Summary, 0, len(s.items))
	for _, r := range s.items {
		out = append(out, core.NewSummary(r.id, r.fields, core.StoredTotals{}))
	}
	return out, nil
}

// Update replaces the fields of summary id.
func (s *Store) Update(ctx context.Context, id string, f core.Fields) error {
	if err := ctx.Err(); err != nil {
		return &repository.Error{Op: repository.OpUpdate, Message: err.Error(), Err: err}
	}
	if err := f.Validate(); err != nil {
		return &repository.Error{Op: repository.OpUpdate, Status: http.StatusBadRequest, Message: err.Error(), Err: err}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return notFound(repository.OpUpdate)
	}
	s.items[i].fields = f
	return nil
}

// Delete removes summary id.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return &repository.Error{Op: repository.OpDelete, Message: err.Error(), Err: err}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return notFound(repository.OpDelete)
	}
	s.items = append(s.items[:i], s.items[i+1:]...)
	return nil
}

// Len returns the number of stored summaries.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

func (s *Store) indexOf(id string) int {
	for i, r := range s.items {
		if r.id == id {
			return i
		}
	}
	return -1
}

func notFound(op string) error {
	return &repository.Error{
		Op:      op,
		Status:  http.StatusNotFound,
		Message: "Resumen no encontrado",
		Err:     repository.ErrNotFound,
	}
}
