package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3" // Import for side-effects only

	"mspro-labs/crop-weather/internal/models"
)

// Connect opens a connection to the SQLite catalog and ensures the schema exists.
// It automatically applies recommended settings for concurrency (WAL mode).
func Connect(dbPath string) (*sql.DB, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// Use robust connection settings to prevent "database locked" errors
	dsn := fmt.Sprintf("%s?_busy_timeout=5000&_journal_mode=WAL", dbPath)

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err = createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure schema: %w", err)
	}

	return db, nil
}

// createSchema is private as it's only called by Connect (and tests).
func createSchema(db *sql.DB) error {
	runsTable := `
	CREATE TABLE IF NOT EXISTS crawl_runs (
	  id TEXT PRIMARY KEY,
	  started_at TIMESTAMP NOT NULL,
	  finished_at TIMESTAMP,
	  snapshot_path TEXT,
	  bytes INTEGER DEFAULT 0,
	  attempts INTEGER DEFAULT 0,
	  status TEXT NOT NULL,
	  error TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON crawl_runs(started_at);
	CREATE INDEX IF NOT EXISTS idx_runs_status ON crawl_runs(status);
	`
	_, err := db.Exec(runsTable)
	return err
}

// SaveRun inserts or replaces one crawl record.
func SaveRun(db *sql.DB, run models.CrawlRun) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := db.ExecContext(ctx, `
	INSERT INTO crawl_runs (id, started_at, finished_at, snapshot_path, bytes, attempts, status, error)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
	  finished_at = excluded.finished_at,
	  snapshot_path = excluded.snapshot_path,
	  bytes = excluded.bytes,
	  attempts = excluded.attempts,
	  status = excluded.status,
	  error = excluded.error;
	`,
		run.ID,
		run.StartedAt.UTC(),
		sql.NullTime{Time: run.FinishedAt.UTC(), Valid: !run.FinishedAt.IsZero()},
		sql.NullString{String: run.Path, Valid: run.Path != ""},
		run.Bytes,
		run.Attempts,
		run.Status,
		sql.NullString{String: run.Error, Valid: run.Error != ""},
	)
	if err != nil {
		return fmt.Errorf("failed to save crawl run %s: %w", run.ID, err)
	}
	return nil
}

// ListRuns returns up to limit runs, newest first. limit <= 0 means all.
func ListRuns(db *sql.DB, limit int) ([]models.CrawlRun, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := db.Query(`
		SELECT id, started_at, finished_at, snapshot_path, bytes, attempts, status, error
		FROM crawl_runs
		ORDER BY started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []models.CrawlRun
	for rows.Next() {
		var r models.CrawlRun
		var finished sql.NullTime
		var path, errText sql.NullString
		if err := rows.Scan(&r.ID, &r.StartedAt, &finished, &path, &r.Bytes, &r.Attempts, &r.Status, &errText); err != nil {
			return nil, err
		}
		r.FinishedAt = finished.Time
		r.Path = path.String
		r.Error = errText.String
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// LastSuccess returns the most recent successful run, or sql.ErrNoRows.
func LastSuccess(db *sql.DB) (models.CrawlRun, error) {
	var r models.CrawlRun
	var finished sql.NullTime
	err := db.QueryRow(`
		SELECT id, started_at, finished_at, snapshot_path, bytes, attempts
		FROM crawl_runs
		WHERE status = ?
		ORDER BY started_at DESC
		LIMIT 1
	`, models.StatusOK).Scan(&r.ID, &r.StartedAt, &finished, &r.Path, &r.Bytes, &r.Attempts)
	if err != nil {
		return models.CrawlRun{}, err
	}
	r.FinishedAt = finished.Time
	r.Status = models.StatusOK
	return r, nil
}

// ClearRuns wipes the catalog. Snapshot files are left alone.
func ClearRuns(db *sql.DB) (int64, error) {
	res, err := db.Exec("DELETE FROM crawl_runs")
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
