package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/rallykat/rallykat/internal/repository"
)

// Cache puts a TTL in front of content fetches. Snapshots outlive the TTL so
// a failed refresh can fall back to the last good copy.
type Cache struct {
	store repository.Store
	ttl   time.Duration
	clock clockwork.Clock
}

func NewCache(store repository.Store, ttl time.Duration, clock clockwork.Clock) *Cache {
	return &Cache{store: store, ttl: ttl, clock: clock}
}

func cached[T any](ctx context.Context, c *Cache, key string, fetch func(context.Context) (T, error)) (T, error) {
	var value T

	payload, updatedAt, err := c.store.Load(ctx, key)
	switch {
	case err == nil:
		if c.clock.Since(updatedAt) < c.ttl {
			if err := json.Unmarshal(payload, &value); err == nil {
				return value, nil
			}
			slog.Warn("Discarding unreadable snapshot", "key", key)
			payload = nil
		}
	case errors.Is(err, repository.ErrNotFound):
		payload = nil
	default:
		slog.Warn("Error loading snapshot", "key", key, "error", err)
		payload = nil
	}

	fresh, err := fetch(ctx)
	if err != nil {
		if payload != nil && !isNotFound(err) {
			if jsonErr := json.Unmarshal(payload, &value); jsonErr == nil {
				slog.Warn("Serving stale snapshot", "key", key, "age", c.clock.Since(updatedAt), "error", err)
				return value, nil
			}
		}
		return fresh, err
	}

	c.save(ctx, key, fresh)
	return fresh, nil
}

// refresh fetches unconditionally and stores the result.
func refresh[T any](ctx context.Context, c *Cache, key string, fetch func(context.Context) (T, error)) error {
	fresh, err := fetch(ctx)
	if err != nil {
		return err
	}
	c.save(ctx, key, fresh)
	return nil
}

func (c *Cache) save(ctx context.Context, key string, value any) {
	payload, err := json.Marshal(value)
	if err != nil {
		slog.Warn("Error encoding snapshot", "key", key, "error", err)
		return
	}
	if err := c.store.Save(ctx, key, payload, c.clock.Now()); err != nil {
		slog.Warn("Error saving snapshot", "key", key, "error", err)
	}
}
