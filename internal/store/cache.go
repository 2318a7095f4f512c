package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ResponseCache persists LLM completions keyed by prompt hash, so reruns
// of a pipeline stage skip calls that already resolved.
type ResponseCache struct {
	store   *Store
	backend string
	ttl     time.Duration
}

// ResponseCache returns a cache view scoped to one backend identity.
func (s *Store) ResponseCache(backend string, ttl time.Duration) *ResponseCache {
	return &ResponseCache{store: s, backend: strings.TrimSpace(backend), ttl: ttl}
}

// Get returns a cached completion if it is still valid.
func (c *ResponseCache) Get(ctx context.Context, key string) (string, bool, error) {
	if c == nil || c.store == nil || c.store.DB == nil {
		return "", false, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return "", false, errors.New("cache key is required")
	}

	var response string
	row := c.store.DB.QueryRowContext(ctx, `
		SELECT response FROM response_cache
		WHERE cache_key = ? AND expires_at > ?
	`, key, time.Now().UTC().Unix())
	if err := row.Scan(&response); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("fetch cached response: %w", err)
	}
	return response, true, nil
}

// Put stores a completion with the configured TTL.
func (c *ResponseCache) Put(ctx context.Context, key, value string) error {
	if c == nil || c.store == nil || c.store.DB == nil {
		return errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if c.ttl <= 0 {
		return nil
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("cache key is required")
	}

	now := time.Now().UTC()
	_, err := c.store.DB.ExecContext(ctx, `
		INSERT INTO response_cache (cache_key, backend, response, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(cache_key) DO UPDATE SET
			backend = excluded.backend,
			response = excluded.response,
			created_at = excluded.created_at,
			expires_at = excluded.expires_at
	`, key, c.backend, value, now.Unix(), now.Add(c.ttl).Unix())
	if err != nil {
		return fmt.Errorf("store cached response: %w", err)
	}
	return nil
}

// PruneExpired removes cache rows whose TTL has lapsed.
func (s *Store) PruneExpired(ctx context.Context) (int64, error) {
	if s == nil || s.DB == nil {
		return 0, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	res, err := s.DB.ExecContext(ctx, `DELETE FROM response_cache WHERE expires_at <= ?`, time.Now().UTC().Unix())
	if err != nil {
		return 0, fmt.Errorf("prune response cache: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return n, nil
}
