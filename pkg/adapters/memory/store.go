package memory

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/aretw0/arbiter/pkg/domain"
	"github.com/aretw0/arbiter/pkg/ports"
)

// Store implements ports.ResultStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]ports.Result
	mu   sync.RWMutex
}

// NewStore creates a new in-memory result store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]ports.Result),
	}
}

// Save persists a copy of the result.
func (s *Store) Save(ctx context.Context, result ports.Result) error {
	if result.RunID == "" {
		return domain.Preconditionf("result without run id")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[result.RunID] = clone(result)
	return nil
}

// Load retrieves a copy of the result so callers cannot mutate the store.
func (s *Store) Load(ctx context.Context, runID string) (ports.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result, ok := s.data[runID]
	if !ok {
		return ports.Result{}, domain.ErrRunNotFound
	}
	return clone(result), nil
}

// List returns the stored run ids in lexical order. Run ids are ULIDs, so this
// is also creation order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Sorted(maps.Keys(s.data)), nil
}

func clone(r ports.Result) ports.Result {
	r.Players = slices.Clone(r.Players)
	r.Scores = maps.Clone(r.Scores)
	return r
}
