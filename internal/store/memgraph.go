package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/agenthands/tally/internal/core/model"
	"github.com/agenthands/tally/internal/driver"
)

// MemgraphStore keeps the record on a :Tracker node, data serialized as JSON.
type MemgraphStore struct {
	Driver driver.GraphDriver
	logger *zap.Logger
	now    func() time.Time
}

func NewMemgraphStore(d driver.GraphDriver, logger *zap.Logger) *MemgraphStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MemgraphStore{Driver: d, logger: logger, now: time.Now}
}

func (s *MemgraphStore) Get(ctx context.Context, id string) (*model.Snapshot, error) {
	res, err := s.Driver.ExecuteQuery(ctx, driver.GetTrackerQuery, map[string]interface{}{"id": id})
	if err != nil {
		return nil, &StorageError{Op: "get", ID: id, Err: err}
	}
	if len(res.Records) == 0 {
		return emptySnapshot(id), nil
	}

	rec := res.Records[0]
	snap := emptySnapshot(id)

	if raw, ok := rec.Get("data"); ok && raw != nil {
		str, ok := raw.(string)
		if !ok {
			return nil, &StorageError{Op: "get", ID: id, Err: fmt.Errorf("unexpected data type %T", raw)}
		}
		if err := json.Unmarshal([]byte(str), &snap.Data); err != nil {
			return nil, &StorageError{Op: "get", ID: id, Err: fmt.Errorf("failed to decode data: %w", err)}
		}
		if snap.Data == nil {
			snap.Data = model.Record{}
		}
	}
	if raw, ok := rec.Get("updated_at"); ok {
		if str, ok := raw.(string); ok {
			if ts, err := time.Parse(time.RFC3339Nano, str); err == nil {
				snap.UpdatedAt = ts
			}
		}
	}
	if raw, ok := rec.Get("version"); ok {
		if v, ok := raw.(int64); ok {
			snap.Version = v
		}
	}

	return snap, nil
}

func (s *MemgraphStore) Patch(ctx context.Context, id string, record model.Record, expectedVersion int64) (*model.Snapshot, error) {
	data, err := json.Marshal(record)
	if err != nil {
		return nil, &StorageError{Op: "patch", ID: id, Err: fmt.Errorf("failed to encode data: %w", err)}
	}

	now := s.now().UTC()
	params := map[string]interface{}{
		"id":         id,
		"data":       string(data),
		"updated_at": now.Format(time.RFC3339Nano),
	}

	query := driver.CreateTrackerQuery
	if expectedVersion > 0 {
		query = driver.PatchTrackerQuery
		params["expected_version"] = expectedVersion
	}

	res, err := s.Driver.ExecuteQuery(ctx, query, params)
	if err != nil {
		return nil, &StorageError{Op: "patch", ID: id, Err: err}
	}
	if len(res.Records) == 0 {
		return nil, &StorageError{Op: "patch", ID: id, Err: ErrVersionConflict}
	}

	version := expectedVersion + 1
	if raw, ok := res.Records[0].Get("version"); ok {
		if v, ok := raw.(int64); ok {
			version = v
		}
	}

	s.logger.Debug("patched tracker", zap.String("id", id), zap.Int64("version", version))

	return &model.Snapshot{ID: id, Data: record.Clone(), UpdatedAt: now, Version: version}, nil
}

func (s *MemgraphStore) Close() error {
	return s.Driver.Close(context.Background())
}
