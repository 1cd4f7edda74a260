package repository

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("snapshot not found")

// Store keeps the last fetched payload per key together with its fetch time.
type Store interface {
	Load(ctx context.Context, key string) ([]byte, time.Time, error)
	Save(ctx context.Context, key string, payload []byte, fetchedAt time.Time) error
}
