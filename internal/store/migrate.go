package store

import (
	"context"
	"errors"
	"fmt"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS forums (
		game_id INTEGER PRIMARY KEY,
		forum_id INTEGER NOT NULL,
		title TEXT,
		fetched_at INTEGER NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS threads (
		id INTEGER PRIMARY KEY,
		forum_id INTEGER NOT NULL,
		subject TEXT NOT NULL,
		author TEXT,
		num_articles INTEGER NOT NULL DEFAULT 0,
		post_date TEXT,
		last_post_date TEXT,
		url TEXT,
		fetched_at INTEGER NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS idx_threads_forum ON threads(forum_id);`,
	`CREATE TABLE IF NOT EXISTS posts (
		id INTEGER PRIMARY KEY,
		thread_id INTEGER NOT NULL,
		username TEXT,
		post_date TEXT,
		content TEXT,
		fetched_at INTEGER NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS idx_posts_thread ON posts(thread_id);`,
	`CREATE TABLE IF NOT EXISTS response_cache (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		cache_key TEXT NOT NULL UNIQUE,
		backend TEXT NOT NULL,
		response TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		expires_at INTEGER NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS idx_response_cache_expires ON response_cache(expires_at);`,
}

// Migrate ensures the required database tables exist.
func (s *Store) Migrate(ctx context.Context) error {
	if s == nil || s.DB == nil {
		return errors.New("store is not initialized")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	for _, stmt := range schemaStatements {
		if _, err := s.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("store migration failed: %w", err)
		}
	}

	return nil
}
