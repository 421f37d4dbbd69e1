package db

import (
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"mspro-labs/crop-weather/internal/models"
)

func memoryDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open in-memory db: %v", err)
	}
	// One connection, otherwise each pooled conn gets its own empty :memory: db.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	if err := createSchema(db); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}
	return db
}

// TestCrawlRunLifecycle tests insert, update, listing order and clearing.
func TestCrawlRunLifecycle(t *testing.T) {
	db := memoryDB(t)
	base := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)

	// 1. Insert a failed run and a successful one
	failed := models.CrawlRun{
		ID:         "run-1",
		StartedAt:  base,
		FinishedAt: base.Add(6 * time.Second),
		Attempts:   3,
		Status:     models.StatusFailed,
		Error:      "error fetching CWA data after 3 attempt(s): unexpected status code: 503",
	}
	ok := models.CrawlRun{
		ID:         "run-2",
		StartedAt:  base.Add(time.Hour),
		FinishedAt: base.Add(time.Hour + time.Second),
		Path:       "weather_data/weather_20250301_090001.json",
		Bytes:      1234,
		Attempts:   1,
		Status:     models.StatusOK,
	}
	for _, r := range []models.CrawlRun{failed, ok} {
		if err := SaveRun(db, r); err != nil {
			t.Fatalf("SaveRun failed: %v", err)
		}
	}

	// 2. Newest first
	runs, err := ListRuns(db, 0)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("Expected 2 runs, got %d", len(runs))
	}
	if runs[0].ID != "run-2" || runs[1].ID != "run-1" {
		t.Errorf("Runs out of order: %s, %s", runs[0].ID, runs[1].ID)
	}
	if runs[0].Path != ok.Path || runs[0].Bytes != 1234 {
		t.Errorf("Run 2 fields wrong: %+v", runs[0])
	}
	if runs[1].Error != failed.Error || runs[1].Path != "" {
		t.Errorf("Run 1 fields wrong: %+v", runs[1])
	}
	if !runs[0].StartedAt.Equal(ok.StartedAt) {
		t.Errorf("StartedAt mismatch: got %v want %v", runs[0].StartedAt, ok.StartedAt)
	}

	// 3. Limit
	runs, err = ListRuns(db, 1)
	if err != nil || len(runs) != 1 {
		t.Errorf("Expected 1 run with limit, got %d (%v)", len(runs), err)
	}

	// 4. Last success
	last, err := LastSuccess(db)
	if err != nil {
		t.Fatalf("LastSuccess failed: %v", err)
	}
	if last.ID != "run-2" {
		t.Errorf("LastSuccess wrong: %s", last.ID)
	}

	// 5. Re-saving the same ID updates in place
	failed.Attempts = 4
	if err := SaveRun(db, failed); err != nil {
		t.Fatalf("SaveRun (update) failed: %v", err)
	}
	var attempts int
	if err := db.QueryRow("SELECT attempts FROM crawl_runs WHERE id = ?", "run-1").Scan(&attempts); err != nil {
		t.Fatal(err)
	}
	if attempts != 4 {
		t.Errorf("Expected updated attempts 4, got %d", attempts)
	}

	// 6. Clear
	n, err := ClearRuns(db)
	if err != nil || n != 2 {
		t.Errorf("ClearRuns: expected 2 rows, got %d (%v)", n, err)
	}
	if _, err := LastSuccess(db); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("Expected sql.ErrNoRows after clear, got %v", err)
	}
}

func TestConnectCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weather_data", "catalog.db")
	db, err := Connect(path)
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer db.Close()

	runs, err := ListRuns(db, 10)
	if err != nil {
		t.Fatalf("ListRuns on fresh db failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("Expected empty catalog, got %d runs", len(runs))
	}
}
