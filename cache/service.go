package cache

import (
	"context"
	"log/slog"
)

// Loader fetches the canonical value for a key on a cache miss
type Loader func(ctx context.Context) ([]byte, error)

// Service is the cache-aside read path shared by request handlers and the
// warmer: get, fall back to the loader on a miss, populate with the kind's
// TTL. Store trouble degrades a call to a plain load.
type Service struct {
	store *Store
}

func NewService(store *Store) *Service {
	return &Service{store: store}
}

// Store exposes the underlying adapter for operator endpoints (key info,
// health) that bypass the read path
func (s *Service) Store() *Store {
	return s.store
}

// GetOrLoad returns the cached bytes for key or loads and caches them.
// Loader errors propagate to the caller and nothing is cached.
func (s *Service) GetOrLoad(ctx context.Context, key Key, kind EntityKind, load Loader) ([]byte, error) {
	if data, found := s.store.Get(ctx, key); found {
		slog.Debug("cache hit", "key", key)
		return data, nil
	}

	slog.Debug("cache miss", "key", key)

	data, err := load(ctx)
	if err != nil {
		return nil, err
	}

	s.store.Set(ctx, key, data, TTLFor(kind))

	return data, nil
}
