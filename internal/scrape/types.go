package scrape

// Forum describes one forum attached to a game.
type Forum struct {
	ID         int64  `json:"forum_id"`
	Title      string `json:"title"`
	NumThreads int    `json:"num_threads"`
}

// ThreadSummary is a forum listing entry.
type ThreadSummary struct {
	ID           int64  `json:"thread_id"`
	ForumID      int64  `json:"forum_id"`
	Subject      string `json:"subject"`
	Author       string `json:"author"`
	NumArticles  int    `json:"numarticles"`
	PostDate     string `json:"postdate"`
	LastPostDate string `json:"lastpostdate"`
	URL          string `json:"url"`
}

// Post is one article inside a thread.
type Post struct {
	ID       int64  `json:"post_id"`
	ThreadID int64  `json:"thread_id"`
	Username string `json:"username"`
	PostDate string `json:"post_date"`
	Content  string `json:"content"`
}

// ThreadData is the grouped scrape output for one thread, keyed by
// thread id in the output document.
type ThreadData struct {
	Subject     string `json:"subject"`
	Author      string `json:"author"`
	NumArticles int    `json:"numarticles"`
	URL         string `json:"url"`
	Posts       []Post `json:"posts"`
}
