package memory

import (
	"context"
	"sync"
	"time"

	"github.com/rallykat/rallykat/internal/repository"
)

type snapshot struct {
	payload   []byte
	fetchedAt time.Time
}

type Repository struct {
	snapshots map[string]snapshot
	mu        sync.RWMutex
}

func NewRepository() *Repository {
	return &Repository{
		snapshots: make(map[string]snapshot),
	}
}

func (r *Repository) Save(_ context.Context, key string, payload []byte, fetchedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := make([]byte, len(payload))
	copy(stored, payload)
	r.snapshots[key] = snapshot{payload: stored, fetchedAt: fetchedAt}
	return nil
}

func (r *Repository) Load(_ context.Context, key string) ([]byte, time.Time, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.snapshots[key]
	if !ok {
		return nil, time.Time{}, repository.ErrNotFound
	}
	return s.payload, s.fetchedAt, nil
}
