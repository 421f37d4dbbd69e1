// Package crawler downloads the CWA weekly agricultural forecast and stores it as a snapshot.
package crawler

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"

	"mspro-labs/crop-weather/internal/credentials"
	"mspro-labs/crop-weather/internal/models"
	"mspro-labs/crop-weather/internal/snapshot"
)

var logger = log.New(os.Stdout, "CRAWLER: ", log.LstdFlags|log.Lshortfile)

// KeySource yields the API key; credentials.Resolver satisfies it.
type KeySource interface {
	Resolve() (string, error)
}

// Crawler runs the crawl path: resolve key, fetch, save.
type Crawler struct {
	Keys    KeySource
	Fetcher *Fetcher
	Writer  snapshot.Writer
	// APIKey, when set, skips Keys.
	APIKey string
}

// Run orchestrates one crawl. The returned CrawlRun is filled in on failure too.
func (c *Crawler) Run(ctx context.Context) (models.CrawlRun, error) {
	run := models.CrawlRun{
		ID:        uuid.NewString(),
		StartedAt: time.Now(),
		Status:    models.StatusFailed,
	}
	fail := func(err error) (models.CrawlRun, error) {
		run.FinishedAt = time.Now()
		run.Error = err.Error()
		return run, err
	}

	key := c.APIKey
	if key == "" && c.Keys == nil {
		return fail(credentials.ErrMissing)
	}
	if key == "" {
		var err error
		if key, err = c.Keys.Resolve(); err != nil {
			return fail(err)
		}
	}

	logger.Printf("Fetching forecast from %s", c.Fetcher.Endpoint)
	doc, attempts, err := c.Fetcher.fetch(ctx, key)
	run.Attempts = attempts
	if err != nil {
		return fail(err)
	}
	logger.Printf("Fetched %d bytes in %d attempt(s).", len(doc), attempts)

	path, err := c.Writer.Save(doc)
	if err != nil {
		return fail(err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return fail(fmt.Errorf("failed to stat saved snapshot: %w", err))
	}

	run.Path = path
	run.Bytes = info.Size()
	run.Status = models.StatusOK
	run.FinishedAt = time.Now()
	return run, nil
}
