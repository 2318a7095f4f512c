package scrape

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// Recorder persists scraped forum data. The scraper treats it as a
// cache: a recorded rules forum id skips the forumlist call on reruns.
type Recorder interface {
	RulesForum(ctx context.Context, gameID int) (int64, bool, error)
	SaveRulesForum(ctx context.Context, gameID int, forum *Forum) error
	SaveThreads(ctx context.Context, threads []ThreadSummary) error
	SavePosts(ctx context.Context, threadID int64, posts []Post) error
}

// Scraper walks a game's rules forum and groups posts by thread.
type Scraper struct {
	client    *Client
	recorder  Recorder
	pageDelay time.Duration
	logger    *zap.Logger
}

// Option customizes a scraper.
type Option func(*Scraper)

// WithRecorder attaches a persistence layer.
func WithRecorder(rec Recorder) Option {
	return func(s *Scraper) { s.recorder = rec }
}

// WithPageDelay sets the pause between API requests.
func WithPageDelay(d time.Duration) Option {
	return func(s *Scraper) { s.pageDelay = d }
}

// WithLogger attaches a logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Scraper) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewScraper builds a scraper around a client.
func NewScraper(client *Client, opts ...Option) *Scraper {
	s := &Scraper{
		client:    client,
		pageDelay: time.Second,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run scrapes the rules forum of a game and returns posts grouped by
// thread id.
func (s *Scraper) Run(ctx context.Context, gameID int) (map[string]ThreadData, error) {
	forumID, err := s.resolveRulesForum(ctx, gameID)
	if err != nil {
		return nil, err
	}
	s.logger.Info("found rules forum", zap.Int("game_id", gameID), zap.Int64("forum_id", forumID))

	threads, err := s.collectThreads(ctx, forumID)
	if err != nil {
		return nil, err
	}
	s.logger.Info("collected threads", zap.Int("count", len(threads)))

	if s.recorder != nil {
		if err := s.recorder.SaveThreads(ctx, threads); err != nil {
			s.logger.Warn("persist threads failed", zap.Error(err))
		}
	}

	grouped := make(map[string]ThreadData, len(threads))
	for _, thread := range threads {
		s.logger.Debug("fetching posts",
			zap.Int64("thread_id", thread.ID),
			zap.String("subject", thread.Subject))

		posts, err := s.client.ThreadPosts(ctx, thread.ID)
		if err != nil {
			return nil, fmt.Errorf("fetch thread %d: %w", thread.ID, err)
		}
		if s.recorder != nil {
			if err := s.recorder.SavePosts(ctx, thread.ID, posts); err != nil {
				s.logger.Warn("persist posts failed", zap.Int64("thread_id", thread.ID), zap.Error(err))
			}
		}

		grouped[strconv.FormatInt(thread.ID, 10)] = ThreadData{
			Subject:     thread.Subject,
			Author:      thread.Author,
			NumArticles: thread.NumArticles,
			URL:         thread.URL,
			Posts:       posts,
		}

		if err := s.client.sleepFor(ctx, s.pageDelay); err != nil {
			return nil, err
		}
	}

	return grouped, nil
}

func (s *Scraper) resolveRulesForum(ctx context.Context, gameID int) (int64, error) {
	if s.recorder != nil {
		id, ok, err := s.recorder.RulesForum(ctx, gameID)
		if err != nil {
			s.logger.Warn("forum lookup failed", zap.Error(err))
		} else if ok {
			return id, nil
		}
	}

	forum, err := s.client.RulesForum(ctx, gameID)
	if err != nil {
		return 0, err
	}
	if s.recorder != nil {
		if err := s.recorder.SaveRulesForum(ctx, gameID, forum); err != nil {
			s.logger.Warn("persist forum failed", zap.Error(err))
		}
	}
	return forum.ID, nil
}

// collectThreads pages through the forum listing until an empty page.
func (s *Scraper) collectThreads(ctx context.Context, forumID int64) ([]ThreadSummary, error) {
	var all []ThreadSummary
	for page := 1; ; page++ {
		threads, err := s.client.ThreadPage(ctx, forumID, page)
		if err != nil {
			return nil, fmt.Errorf("fetch forum page %d: %w", page, err)
		}
		if len(threads) == 0 {
			break
		}
		all = append(all, threads...)

		if err := s.client.sleepFor(ctx, s.pageDelay); err != nil {
			return nil, err
		}
	}
	return all, nil
}

// WriteGrouped saves the grouped scrape output as an indented JSON document.
func WriteGrouped(path string, grouped map[string]ThreadData) error {
	data, err := json.MarshalIndent(grouped, "", "    ")
	if err != nil {
		return fmt.Errorf("encode scrape output: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil { // #nosec G306 -- dataset artifacts are world-readable
		return fmt.Errorf("write scrape output: %w", err)
	}
	return nil
}

// ReadGrouped loads a grouped scrape document.
func ReadGrouped(path string) (map[string]ThreadData, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- Input path is user-provided
	if err != nil {
		return nil, fmt.Errorf("read scrape output: %w", err)
	}
	var grouped map[string]ThreadData
	if err := json.Unmarshal(data, &grouped); err != nil {
		return nil, fmt.Errorf("decode scrape output: %w", err)
	}
	return grouped, nil
}
