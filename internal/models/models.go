package models

import "time"

// Crawl run statuses.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// CrawlRun records one invocation of the crawl path.
type CrawlRun struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Path       string // snapshot written, empty on failure
	Bytes      int64
	Attempts   int
	Status     string
	Error      string
}
