package store

import (
	"context"
	"sort"
	"sync"

	"gatepass/internal/visitor/models"
	id "gatepass/pkg/domain"
	"gatepass/pkg/platform/sentinel"
)

type entry struct {
	visitor *models.Visitor
	seq     uint64
}

// InMemory is a mutex-guarded visitor store. UpdateStatus compares and
// swaps under the write lock, giving the same race outcome as the
// conditional UPDATE in PostgresStore.
type InMemory struct {
	mu      sync.RWMutex
	entries map[id.VisitorID]*entry
	nextSeq uint64
}

func NewInMemory() *InMemory {
	return &InMemory{entries: make(map[id.VisitorID]*entry)}
}

func (s *InMemory) Insert(_ context.Context, v *models.Visitor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.entries[v.ID]; exists {
		return sentinel.ErrConflict
	}
	s.nextSeq++
	s.entries[v.ID] = &entry{visitor: v.Clone(), seq: s.nextSeq}
	return nil
}

func (s *InMemory) FindByID(_ context.Context, visitorID id.VisitorID) (*models.Visitor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[visitorID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return e.visitor.Clone(), nil
}

func (s *InMemory) Find(_ context.Context, q models.Query) ([]*models.Visitor, error) {
	s.mu.RLock()
	matched := make([]*entry, 0, len(s.entries))
	for _, e := range s.entries {
		if q.Matches(e.visitor) {
			matched = append(matched, e)
		}
	}
	s.mu.RUnlock()

	// Newest first; insertion order breaks ties on equal timestamps.
	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if !a.visitor.CreatedAt.Equal(b.visitor.CreatedAt) {
			return a.visitor.CreatedAt.After(b.visitor.CreatedAt)
		}
		return a.seq > b.seq
	})
	if q.Limit > 0 && len(matched) > q.Limit {
		matched = matched[:q.Limit]
	}

	out := make([]*models.Visitor, len(matched))
	for i, e := range matched {
		out[i] = e.visitor.Clone()
	}
	return out, nil
}

func (s *InMemory) UpdateStatus(_ context.Context, visitorID id.VisitorID, from models.Status, change models.StatusChange) (*models.Visitor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[visitorID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if e.visitor.Status != from {
		return nil, sentinel.ErrConflict
	}
	e.visitor.Apply(change)
	return e.visitor.Clone(), nil
}
