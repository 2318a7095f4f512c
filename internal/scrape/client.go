// Package scrape collects rules-forum discussions from the
// BoardGameGeek XML API.
package scrape

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/rulebench/rulebench/internal/llm/driver"
)

const defaultBaseURL = "https://boardgamegeek.com/xmlapi2"

// Client talks to the BoardGameGeek XML API with bounded retries.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	MaxRetries int
	RetryDelay time.Duration
	Logger     *zap.Logger

	sleep func(ctx context.Context, d time.Duration) error
}

// NewClient returns a client with defaults applied.
func NewClient(baseURL string, timeout time.Duration) *Client {
	url := strings.TrimSpace(baseURL)
	if url == "" {
		url = defaultBaseURL
	}
	return &Client{
		BaseURL:    url,
		HTTPClient: driver.NewHTTPClient(timeout),
		MaxRetries: 3,
		RetryDelay: 5 * time.Second,
		Logger:     zap.NewNop(),
		sleep:      sleepContext,
	}
}

type forumListDocument struct {
	XMLName xml.Name       `xml:"forums"`
	Forums  []forumElement `xml:"forum"`
}

type forumElement struct {
	ID         int64  `xml:"id,attr"`
	Title      string `xml:"title,attr"`
	NumThreads int    `xml:"numthreads,attr"`
}

type forumDocument struct {
	XMLName xml.Name        `xml:"forum"`
	Threads []threadElement `xml:"threads>thread"`
}

type threadElement struct {
	ID           int64  `xml:"id,attr"`
	Subject      string `xml:"subject,attr"`
	Author       string `xml:"author,attr"`
	NumArticles  int    `xml:"numarticles,attr"`
	PostDate     string `xml:"postdate,attr"`
	LastPostDate string `xml:"lastpostdate,attr"`
}

type threadDocument struct {
	XMLName  xml.Name         `xml:"thread"`
	Articles []articleElement `xml:"articles>article"`
}

type articleElement struct {
	ID       int64  `xml:"id,attr"`
	Username string `xml:"username,attr"`
	PostDate string `xml:"postdate,attr"`
	Body     string `xml:"body"`
}

// ForumList returns the forums attached to a game.
func (c *Client) ForumList(ctx context.Context, gameID int) ([]Forum, error) {
	url := fmt.Sprintf("%s/forumlist?id=%d&type=thing", strings.TrimRight(c.BaseURL, "/"), gameID)
	body, err := c.get(ctx, url)
	if err != nil {
		return nil, err
	}

	var doc forumListDocument
	if err := xml.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("decode forum list: %w", err)
	}

	forums := make([]Forum, 0, len(doc.Forums))
	for _, f := range doc.Forums {
		forums = append(forums, Forum{ID: f.ID, Title: f.Title, NumThreads: f.NumThreads})
	}
	return forums, nil
}

// RulesForum finds the forum titled "Rules" for a game.
func (c *Client) RulesForum(ctx context.Context, gameID int) (*Forum, error) {
	forums, err := c.ForumList(ctx, gameID)
	if err != nil {
		return nil, err
	}
	for _, f := range forums {
		if strings.EqualFold(strings.TrimSpace(f.Title), "rules") {
			forum := f
			return &forum, nil
		}
	}
	return nil, fmt.Errorf("game %d has no rules forum", gameID)
}

// ThreadPage returns one page of the forum's thread listing. An empty
// result marks the end of pagination.
func (c *Client) ThreadPage(ctx context.Context, forumID int64, page int) ([]ThreadSummary, error) {
	url := fmt.Sprintf("%s/forum?id=%d&page=%d&sort=hot", strings.TrimRight(c.BaseURL, "/"), forumID, page)
	body, err := c.get(ctx, url)
	if err != nil {
		return nil, err
	}

	var doc forumDocument
	if err := xml.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("decode forum page: %w", err)
	}

	threads := make([]ThreadSummary, 0, len(doc.Threads))
	for _, t := range doc.Threads {
		threads = append(threads, ThreadSummary{
			ID:           t.ID,
			ForumID:      forumID,
			Subject:      t.Subject,
			Author:       t.Author,
			NumArticles:  t.NumArticles,
			PostDate:     t.PostDate,
			LastPostDate: t.LastPostDate,
			URL:          fmt.Sprintf("https://boardgamegeek.com/thread/%d", t.ID),
		})
	}
	return threads, nil
}

// ThreadPosts returns the articles of one thread.
func (c *Client) ThreadPosts(ctx context.Context, threadID int64) ([]Post, error) {
	url := fmt.Sprintf("%s/thread?id=%d", strings.TrimRight(c.BaseURL, "/"), threadID)
	body, err := c.get(ctx, url)
	if err != nil {
		return nil, err
	}

	var doc threadDocument
	if err := xml.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("decode thread: %w", err)
	}

	posts := make([]Post, 0, len(doc.Articles))
	for _, a := range doc.Articles {
		posts = append(posts, Post{
			ID:       a.ID,
			ThreadID: threadID,
			Username: a.Username,
			PostDate: a.PostDate,
			Content:  a.Body,
		})
	}
	return posts, nil
}

// get fetches a URL, retrying on errors and non-200 responses.
func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	attempts := c.MaxRetries
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			if err := c.sleepFor(ctx, c.RetryDelay); err != nil {
				return nil, err
			}
		}

		body, err := c.fetch(ctx, url)
		if err == nil {
			return body, nil
		}
		lastErr = err
		c.Logger.Warn("bgg request failed",
			zap.String("url", url),
			zap.Int("attempt", attempt+1),
			zap.Error(err))
	}
	return nil, fmt.Errorf("bgg request failed after %d attempts: %w", attempts, lastErr)
}

func (c *Client) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	client := c.HTTPClient
	if client == nil {
		client = driver.NewHTTPClient(0)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close() // nolint:errcheck // best-effort cleanup

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return body, nil
}

func (c *Client) sleepFor(ctx context.Context, d time.Duration) error {
	sleep := c.sleep
	if sleep == nil {
		sleep = sleepContext
	}
	return sleep(ctx, d)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
