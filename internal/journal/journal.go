// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package journal records pipeline runs in a local SQLite database so past
// deliveries, fallbacks, and backups stay inspectable after the fact.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

const dbFile = "scribe.db"

// Run is one recorded pipeline invocation.
type Run struct {
	ID         string
	PDFPath    string
	Title      string
	Status     string
	Blocks     int
	Delivered  int
	Fallbacks  int
	PageURL    string
	BackupPath string
	Error      string
	StartedAt  time.Time
	FinishedAt time.Time
}

// Journal wraps the run database.
type Journal struct {
	db *sql.DB
}

// Open opens or creates the journal database under dir, creating the
// schema on first use.
func Open(dir string) (*Journal, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating journal directory: %w", err)
	}

	dbPath := filepath.Join(dir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening journal database: %w", err)
	}

	j := &Journal{db: db}
	if err := j.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return j, nil
}

// Close releases the database connection.
func (j *Journal) Close() error {
	return j.db.Close()
}

func (j *Journal) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			pdf_path TEXT,
			title TEXT,
			status TEXT NOT NULL,
			blocks INTEGER,
			delivered INTEGER,
			fallbacks INTEGER,
			page_url TEXT,
			backup_path TEXT,
			error TEXT,
			started_at TEXT NOT NULL,
			finished_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at)`,
	}
	for _, stmt := range statements {
		if _, err := j.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Record inserts one run. A missing ID is generated.
func (j *Journal) Record(ctx context.Context, run Run) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO runs (id, pdf_path, title, status, blocks, delivered, fallbacks,
			page_url, backup_path, error, started_at, finished_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.PDFPath, run.Title, run.Status, run.Blocks, run.Delivered,
		run.Fallbacks, run.PageURL, run.BackupPath, run.Error,
		run.StartedAt.UTC().Format(time.RFC3339Nano),
		run.FinishedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("inserting run %s: %w", run.ID, err)
	}
	return nil
}

// Recent returns the most recent runs, newest first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := j.db.QueryContext(ctx,
		`SELECT id, pdf_path, title, status, blocks, delivered, fallbacks,
			page_url, backup_path, error, started_at, finished_at
		 FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var started, finished string
		if err := rows.Scan(&r.ID, &r.PDFPath, &r.Title, &r.Status, &r.Blocks,
			&r.Delivered, &r.Fallbacks, &r.PageURL, &r.BackupPath, &r.Error,
			&started, &finished); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		r.StartedAt, _ = time.Parse(time.RFC3339Nano, started)
		r.FinishedAt, _ = time.Parse(time.RFC3339Nano, finished)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
