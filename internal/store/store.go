// Package store persists the canonical tracker record.
//
// Every backend keys the record by id and guards writes with an optimistic
// version token: Patch succeeds only when the caller's expected version matches
// the stored one, so two overlapping reconciliation cycles cannot silently
// overwrite each other. The loser gets ErrVersionConflict and must re-read.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/agenthands/tally/internal/config"
	"github.com/agenthands/tally/internal/core/model"
	"github.com/agenthands/tally/internal/driver"
)

// ErrVersionConflict means the stored version no longer matches the caller's.
var ErrVersionConflict = errors.New("version conflict")

type Store interface {
	// Get returns the snapshot for id. An absent id yields an empty record with version 0.
	Get(ctx context.Context, id string) (*model.Snapshot, error)
	// Patch replaces the record for id if its version equals expectedVersion
	// (0 means the id must not exist yet) and returns the committed snapshot.
	Patch(ctx context.Context, id string, record model.Record, expectedVersion int64) (*model.Snapshot, error)
	Close() error
}

// StorageError is a failed read or write. A failed Patch never applied partially.
type StorageError struct {
	Op  string
	ID  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s %q: %v", e.Op, e.ID, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func emptySnapshot(id string) *model.Snapshot {
	return &model.Snapshot{ID: id, Data: model.Record{}}
}

// Open connects the backend named in cfg.
func Open(ctx context.Context, cfg config.StoreConfig, logger *zap.Logger) (Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	switch strings.ToLower(cfg.Backend) {
	case "memgraph":
		d, err := driver.NewMemgraphDriver(ctx, cfg.URI, cfg.User, cfg.Password, logger)
		if err != nil {
			return nil, &StorageError{Op: "connect", ID: cfg.RecordID, Err: err}
		}
		if err := d.BuildIndices(ctx); err != nil {
			return nil, &StorageError{Op: "connect", ID: cfg.RecordID, Err: err}
		}
		return NewMemgraphStore(d, logger), nil

	case "sqlite":
		return NewSQLiteStore(ctx, cfg.Path)

	case "memory":
		return NewMemoryStore(), nil

	default:
		return nil, fmt.Errorf("unsupported store backend: %s", cfg.Backend)
	}
}
