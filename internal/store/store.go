// Package store persists adapted centroids and the learn-batch journal in SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/teemow/inboxsort/internal/vsm"
)

// ErrNoSnapshot is returned when no snapshot exists for a vocabulary.
var ErrNoSnapshot = errors.New("no centroid snapshot for this vocabulary")

const schema = `
CREATE TABLE IF NOT EXISTS centroid_snapshots (
	fingerprint TEXT NOT NULL,
	label       TEXT NOT NULL,
	vector      TEXT NOT NULL,
	saved_at    DATETIME NOT NULL,
	PRIMARY KEY (fingerprint, label)
);

CREATE TABLE IF NOT EXISTS learn_batches (
	id         TEXT PRIMARY KEY,
	source     TEXT NOT NULL,
	learned    INTEGER NOT NULL,
	skipped    INTEGER NOT NULL,
	labels     TEXT NOT NULL DEFAULT '{}',
	created_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_learn_batches_created_at ON learn_batches(created_at);
`

// Store wraps the SQLite database.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	// sqlite allows one writer; keep the pool from racing itself
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize store schema: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// SaveSnapshot replaces the snapshot for fingerprint with centroids.
func (s *Store) SaveSnapshot(ctx context.Context, fingerprint string, centroids map[string]vsm.Vector) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin snapshot: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM centroid_snapshots WHERE fingerprint = ?`, fingerprint); err != nil {
		return fmt.Errorf("failed to clear snapshot: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO centroid_snapshots (fingerprint, label, vector, saved_at) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare snapshot insert: %w", err)
	}
	defer stmt.Close()

	savedAt := s.now().UTC()
	for label, vec := range centroids {
		data, err := json.Marshal(vec)
		if err != nil {
			return fmt.Errorf("failed to encode centroid %q: %w", label, err)
		}
		if _, err := stmt.ExecContext(ctx, fingerprint, label, string(data), savedAt); err != nil {
			return fmt.Errorf("failed to save centroid %q: %w", label, err)
		}
	}

	return tx.Commit()
}

// LoadSnapshot returns the centroids saved for fingerprint.
func (s *Store) LoadSnapshot(ctx context.Context, fingerprint string) (map[string]vsm.Vector, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT label, vector FROM centroid_snapshots WHERE fingerprint = ?`, fingerprint)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshot: %w", err)
	}
	defer rows.Close()

	centroids := make(map[string]vsm.Vector)
	for rows.Next() {
		var label, data string
		if err := rows.Scan(&label, &data); err != nil {
			return nil, fmt.Errorf("failed to read snapshot row: %w", err)
		}
		var vec vsm.Vector
		if err := json.Unmarshal([]byte(data), &vec); err != nil {
			return nil, fmt.Errorf("failed to decode centroid %q: %w", label, err)
		}
		centroids[label] = vec
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(centroids) == 0 {
		return nil, ErrNoSnapshot
	}
	return centroids, nil
}

// BatchRecord is one journaled learn batch.
type BatchRecord struct {
	ID        string         `json:"id"`
	Source    string         `json:"source"`
	Learned   int            `json:"learned"`
	Skipped   int            `json:"skipped"`
	Labels    map[string]int `json:"labels"`
	CreatedAt time.Time      `json:"created_at"`
}

// RecordBatch appends a learn batch to the journal.
func (s *Store) RecordBatch(ctx context.Context, source string, res vsm.LearnResult) error {
	labels, err := json.Marshal(res.Labels)
	if err != nil {
		return fmt.Errorf("failed to encode batch labels: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO learn_batches (id, source, learned, skipped, labels, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		res.BatchID, source, res.Learned, res.Skipped, string(labels), s.now().UTC())
	if err != nil {
		return fmt.Errorf("failed to record batch %s: %w", res.BatchID, err)
	}
	return nil
}

// RecentBatches returns up to limit journal entries, newest first.
func (s *Store) RecentBatches(ctx context.Context, limit int) ([]BatchRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source, learned, skipped, labels, created_at FROM learn_batches
		 ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query batches: %w", err)
	}
	defer rows.Close()

	var out []BatchRecord
	for rows.Next() {
		var rec BatchRecord
		var labels string
		if err := rows.Scan(&rec.ID, &rec.Source, &rec.Learned, &rec.Skipped, &labels, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to read batch row: %w", err)
		}
		if err := json.Unmarshal([]byte(labels), &rec.Labels); err != nil {
			return nil, fmt.Errorf("failed to decode labels of batch %s: %w", rec.ID, err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
