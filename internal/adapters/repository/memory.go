package repository

import (
	"context"
	"strings"
	"sync"

	"github.com/okian/monopad/internal/domain/model"
	"github.com/okian/monopad/pkg/metrics"
)

// MemoryStore keeps entities in memory with a treap roster index. It
// stores and returns copies so callers never share an entity with it.
type MemoryStore struct {
	mu   sync.RWMutex
	root *node
	byID map[string]*model.Entity
}

// NewMemoryStore constructs an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byID: make(map[string]*model.Entity)}
}

// Get implements Store.Get.
func (s *MemoryStore) Get(ctx context.Context, id string) (*model.Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return e.Clone(), nil
}

// Save implements Store.Save in O(log n) expected time.
func (s *MemoryStore) Save(ctx context.Context, e *model.Entity) error {
	if e == nil || strings.TrimSpace(e.ID) == "" {
		return ErrInvalidID
	}
	c := e.Clone()

	s.mu.Lock()
	if old, ok := s.byID[c.ID]; ok {
		s.root = deleteNode(s.root, old.ID, old.Rating)
	}
	s.byID[c.ID] = c
	s.root = insert(s.root, c.ID, c.Rating)
	count := len(s.byID)
	s.mu.Unlock()

	metrics.UpdateEntitiesTotal(count)
	return nil
}

// Delete implements Store.Delete.
func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	old, ok := s.byID[id]
	if !ok {
		s.mu.Unlock()
		return ErrNotFound
	}
	s.root = deleteNode(s.root, old.ID, old.Rating)
	delete(s.byID, id)
	count := len(s.byID)
	s.mu.Unlock()

	metrics.UpdateEntitiesTotal(count)
	return nil
}

// Roster implements Store.Roster.
func (s *MemoryStore) Roster(ctx context.Context, limit int) ([]Entry, error) {
	if limit < 0 {
		return nil, ErrInvalidLimit
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, s.capacity(limit))
	collect(s.root, limit, &ids)
	out := make([]Entry, len(ids))
	for i, id := range ids {
		out[i] = entryOf(s.byID[id])
	}
	assignRanks(out)
	return out, nil
}

func (s *MemoryStore) capacity(limit int) int {
	if limit > 0 && limit < len(s.byID) {
		return limit
	}
	return len(s.byID)
}

// Rank implements Store.Rank.
func (s *MemoryStore) Rank(ctx context.Context, id string) (Entry, error) {
	s.mu.RLock()
	_, ok := s.byID[id]
	s.mu.RUnlock()
	if !ok {
		return Entry{}, ErrNotFound
	}
	rows, err := s.Roster(ctx, 0)
	if err != nil {
		return Entry{}, err
	}
	for _, r := range rows {
		if r.EntityID == id {
			return r, nil
		}
	}
	return Entry{}, ErrNotFound
}

// Count implements Store.Count.
func (s *MemoryStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID), nil
}
