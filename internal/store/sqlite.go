package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/agenthands/tally/internal/core/model"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS tracker (
	id         TEXT PRIMARY KEY,
	data       TEXT NOT NULL,
	updated_at TEXT NOT NULL,
	version    INTEGER NOT NULL
)`

// SQLiteStore keeps the record in a single-table SQLite database.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, &StorageError{Op: "open", ID: path, Err: err}
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = 5000"); err != nil {
		_ = db.Close()
		return nil, &StorageError{Op: "open", ID: path, Err: err}
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, &StorageError{Op: "open", ID: path, Err: fmt.Errorf("failed to create schema: %w", err)}
	}

	return &SQLiteStore{db: db, now: time.Now}, nil
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (*model.Snapshot, error) {
	var data, updatedAt string
	var version int64

	err := s.db.QueryRowContext(ctx,
		`SELECT data, updated_at, version FROM tracker WHERE id = ?`, id,
	).Scan(&data, &updatedAt, &version)
	if errors.Is(err, sql.ErrNoRows) {
		return emptySnapshot(id), nil
	}
	if err != nil {
		return nil, &StorageError{Op: "get", ID: id, Err: err}
	}

	snap := emptySnapshot(id)
	snap.Version = version
	if err := json.Unmarshal([]byte(data), &snap.Data); err != nil {
		return nil, &StorageError{Op: "get", ID: id, Err: fmt.Errorf("failed to decode data: %w", err)}
	}
	if snap.Data == nil {
		snap.Data = model.Record{}
	}
	if ts, err := time.Parse(time.RFC3339Nano, updatedAt); err == nil {
		snap.UpdatedAt = ts
	}

	return snap, nil
}

func (s *SQLiteStore) Patch(ctx context.Context, id string, record model.Record, expectedVersion int64) (*model.Snapshot, error) {
	data, err := json.Marshal(record)
	if err != nil {
		return nil, &StorageError{Op: "patch", ID: id, Err: fmt.Errorf("failed to encode data: %w", err)}
	}
	now := s.now().UTC()

	var res sql.Result
	if expectedVersion == 0 {
		res, err = s.db.ExecContext(ctx,
			`INSERT INTO tracker (id, data, updated_at, version) VALUES (?, ?, ?, 1)
			 ON CONFLICT(id) DO NOTHING`,
			id, string(data), now.Format(time.RFC3339Nano))
	} else {
		res, err = s.db.ExecContext(ctx,
			`UPDATE tracker SET data = ?, updated_at = ?, version = version + 1
			 WHERE id = ? AND version = ?`,
			string(data), now.Format(time.RFC3339Nano), id, expectedVersion)
	}
	if err != nil {
		return nil, &StorageError{Op: "patch", ID: id, Err: err}
	}

	n, err := res.RowsAffected()
	if err != nil {
		return nil, &StorageError{Op: "patch", ID: id, Err: err}
	}
	if n == 0 {
		return nil, &StorageError{Op: "patch", ID: id, Err: ErrVersionConflict}
	}

	return &model.Snapshot{ID: id, Data: record.Clone(), UpdatedAt: now, Version: expectedVersion + 1}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
