// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package telemetry records local API usage statistics.
package telemetry

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	ErrClosed        = errors.New("usage ledger is closed")
	ErrDatabaseError = errors.New("database error")
)

// =============================================================================
// USAGE RECORD
// =============================================================================

// Record is a single API request's usage entry.
//
// Only statistics are stored; message content never touches the ledger.
type Record struct {
	ID               int64
	Timestamp        time.Time
	Model            string
	PromptTokens     int
	CompletionTokens int
	TTFT             time.Duration
	TotalDuration    time.Duration
	Succeeded        bool
}

// Totals aggregates usage over a time range.
type Totals struct {
	Requests         int
	Failures         int
	PromptTokens     int
	CompletionTokens int
}

// TotalTokens returns the combined token count.
func (t Totals) TotalTokens() int {
	return t.PromptTokens + t.CompletionTokens
}

// =============================================================================
// USAGE LEDGER
// =============================================================================

// Ledger persists usage records to a local SQLite database.
type Ledger struct {
	db *sql.DB
	mu sync.Mutex

	closed bool
}

// Open opens (creating if needed) the usage ledger at the given path.
func Open(path string) (*Ledger, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create ledger directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA temp_store=MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	l := &Ledger{db: db}
	if err := l.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return l, nil
}

// initSchema creates the usage table if missing.
func (l *Ledger) initSchema() error {
	_, err := l.db.Exec(`
		CREATE TABLE IF NOT EXISTS usage (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp INTEGER NOT NULL,
			model TEXT NOT NULL,
			prompt_tokens INTEGER NOT NULL DEFAULT 0,
			completion_tokens INTEGER NOT NULL DEFAULT 0,
			ttft_ns INTEGER NOT NULL DEFAULT 0,
			total_duration_ns INTEGER NOT NULL DEFAULT 0,
			succeeded INTEGER NOT NULL DEFAULT 1
		);
		CREATE INDEX IF NOT EXISTS idx_usage_timestamp ON usage(timestamp);
		CREATE INDEX IF NOT EXISTS idx_usage_model ON usage(model);
	`)
	return err
}

// Record appends a usage entry to the ledger.
func (l *Ledger) Record(rec Record) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return ErrClosed
	}

	ts := rec.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	succeeded := 0
	if rec.Succeeded {
		succeeded = 1
	}

	_, err := l.db.Exec(`
		INSERT INTO usage (timestamp, model, prompt_tokens, completion_tokens, ttft_ns, total_duration_ns, succeeded)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, ts.Unix(), rec.Model, rec.PromptTokens, rec.CompletionTokens,
		int64(rec.TTFT), int64(rec.TotalDuration), succeeded)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	return nil
}

// TotalsSince aggregates usage recorded at or after the given time.
func (l *Ledger) TotalsSince(since time.Time) (Totals, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return Totals{}, ErrClosed
	}

	var t Totals
	err := l.db.QueryRow(`
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN succeeded = 0 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(prompt_tokens), 0),
			COALESCE(SUM(completion_tokens), 0)
		FROM usage
		WHERE timestamp >= ?
	`, since.Unix()).Scan(&t.Requests, &t.Failures, &t.PromptTokens, &t.CompletionTokens)
	if err != nil {
		return Totals{}, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	return t, nil
}

// Recent returns the most recent usage records, newest first.
func (l *Ledger) Recent(limit int) ([]Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil, ErrClosed
	}
	if limit <= 0 {
		limit = 50
	}

	rows, err := l.db.Query(`
		SELECT id, timestamp, model, prompt_tokens, completion_tokens, ttft_ns, total_duration_ns, succeeded
		FROM usage
		ORDER BY timestamp DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		var ts, ttft, total int64
		var succeeded int
		if err := rows.Scan(&rec.ID, &ts, &rec.Model, &rec.PromptTokens,
			&rec.CompletionTokens, &ttft, &total, &succeeded); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
		}
		rec.Timestamp = time.Unix(ts, 0)
		rec.TTFT = time.Duration(ttft)
		rec.TotalDuration = time.Duration(total)
		rec.Succeeded = succeeded == 1
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Prune removes records older than the given cutoff.
func (l *Ledger) Prune(before time.Time) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return 0, ErrClosed
	}

	result, err := l.db.Exec(`DELETE FROM usage WHERE timestamp < ?`, before.Unix())
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	return result.RowsAffected()
}

// Close releases the database handle.
func (l *Ledger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}
	l.closed = true
	return l.db.Close()
}

// =============================================================================
// NOP LEDGER
// =============================================================================

// Recorder is the interface consumed by the UI layer.
type Recorder interface {
	Record(rec Record) error
}

// NopRecorder discards all records. Used when usage tracking is disabled
// or the ledger failed to open.
type NopRecorder struct{}

// Record discards the entry.
func (NopRecorder) Record(Record) error { return nil }
