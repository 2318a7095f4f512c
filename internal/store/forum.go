package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rulebench/rulebench/internal/scrape"
)

// RulesForum returns the cached rules forum id for a game, if known.
func (s *Store) RulesForum(ctx context.Context, gameID int) (int64, bool, error) {
	if s == nil || s.DB == nil {
		return 0, false, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var forumID int64
	row := s.DB.QueryRowContext(ctx, `SELECT forum_id FROM forums WHERE game_id = ?`, gameID)
	if err := row.Scan(&forumID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("fetch rules forum: %w", err)
	}
	return forumID, true, nil
}

// SaveRulesForum records the rules forum id for a game.
func (s *Store) SaveRulesForum(ctx context.Context, gameID int, forum *scrape.Forum) error {
	if s == nil || s.DB == nil {
		return errors.New("store is not initialized")
	}
	if forum == nil {
		return errors.New("forum is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO forums (game_id, forum_id, title, fetched_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(game_id) DO UPDATE SET
			forum_id = excluded.forum_id,
			title = excluded.title,
			fetched_at = excluded.fetched_at
	`, gameID, forum.ID, forum.Title, time.Now().UTC().Unix())
	if err != nil {
		return fmt.Errorf("store rules forum: %w", err)
	}
	return nil
}

// SaveThreads upserts thread listing rows.
func (s *Store) SaveThreads(ctx context.Context, threads []scrape.ThreadSummary) error {
	if s == nil || s.DB == nil {
		return errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	now := time.Now().UTC().Unix()
	for _, t := range threads {
		_, err := s.DB.ExecContext(ctx, `
			INSERT INTO threads (id, forum_id, subject, author, num_articles, post_date, last_post_date, url, fetched_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				subject = excluded.subject,
				author = excluded.author,
				num_articles = excluded.num_articles,
				post_date = excluded.post_date,
				last_post_date = excluded.last_post_date,
				url = excluded.url,
				fetched_at = excluded.fetched_at
		`, t.ID, t.ForumID, t.Subject, t.Author, t.NumArticles, t.PostDate, t.LastPostDate, t.URL, now)
		if err != nil {
			return fmt.Errorf("store thread %d: %w", t.ID, err)
		}
	}
	return nil
}

// SavePosts upserts the articles of one thread.
func (s *Store) SavePosts(ctx context.Context, threadID int64, posts []scrape.Post) error {
	if s == nil || s.DB == nil {
		return errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	now := time.Now().UTC().Unix()
	for _, p := range posts {
		_, err := s.DB.ExecContext(ctx, `
			INSERT INTO posts (id, thread_id, username, post_date, content, fetched_at)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				username = excluded.username,
				post_date = excluded.post_date,
				content = excluded.content,
				fetched_at = excluded.fetched_at
		`, p.ID, threadID, p.Username, p.PostDate, p.Content, now)
		if err != nil {
			return fmt.Errorf("store post %d: %w", p.ID, err)
		}
	}
	return nil
}
