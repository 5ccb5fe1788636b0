package store

import (
	"context"
	"errors"
	"testing"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/tally/internal/core/model"
	"github.com/agenthands/tally/internal/driver"
)

var trackerKeys = []string{"data", "updated_at", "version"}

func TestMemgraphGetEmpty(t *testing.T) {
	d := &MockDriver{}
	s := NewMemgraphStore(d, nil)

	snap, err := s.Get(context.Background(), "main")
	require.NoError(t, err)
	assert.Equal(t, int64(0), snap.Version)
	assert.Equal(t, model.Record{}, snap.Data)
	assert.Equal(t, driver.GetTrackerQuery, d.Queries[0])
	assert.Equal(t, "main", d.Params[0]["id"])
}

func TestMemgraphGetDecodesRecord(t *testing.T) {
	d := &MockDriver{
		ResultQueue: []neo4j.EagerResult{
			records(trackerKeys, []interface{}{`{"debt":{"a":1,"b":2}}`, "2026-01-02T03:04:05Z", int64(4)}),
		},
	}
	s := NewMemgraphStore(d, nil)

	snap, err := s.Get(context.Background(), "main")
	require.NoError(t, err)
	assert.Equal(t, int64(4), snap.Version)
	assert.Equal(t, map[string]interface{}{"a": 1.0, "b": 2.0}, snap.Data["debt"])
	assert.Equal(t, 2026, snap.UpdatedAt.Year())
}

func TestMemgraphGetCorruptData(t *testing.T) {
	d := &MockDriver{
		ResultQueue: []neo4j.EagerResult{
			records(trackerKeys, []interface{}{`{not json`, "", int64(1)}),
		},
	}
	s := NewMemgraphStore(d, nil)

	_, err := s.Get(context.Background(), "main")
	var storageErr *StorageError
	require.True(t, errors.As(err, &storageErr))
	assert.Equal(t, "get", storageErr.Op)
}

func TestMemgraphPatchCreatesWhenVersionZero(t *testing.T) {
	d := &MockDriver{
		ResultQueue: []neo4j.EagerResult{records([]string{"version"}, []interface{}{int64(1)})},
	}
	s := NewMemgraphStore(d, nil)

	snap, err := s.Patch(context.Background(), "main", model.Record{"debt": 42.0}, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), snap.Version)
	assert.Equal(t, driver.CreateTrackerQuery, d.Queries[0])
	assert.Equal(t, `{"debt":42}`, d.Params[0]["data"])
	assert.NotContains(t, d.Params[0], "expected_version")
}

func TestMemgraphPatchUsesExpectedVersion(t *testing.T) {
	d := &MockDriver{
		ResultQueue: []neo4j.EagerResult{records([]string{"version"}, []interface{}{int64(6)})},
	}
	s := NewMemgraphStore(d, nil)

	snap, err := s.Patch(context.Background(), "main", model.Record{}, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(6), snap.Version)
	assert.Equal(t, driver.PatchTrackerQuery, d.Queries[0])
	assert.Equal(t, int64(5), d.Params[0]["expected_version"])
}

func TestMemgraphPatchConflict(t *testing.T) {
	s := NewMemgraphStore(&MockDriver{}, nil)

	_, err := s.Patch(context.Background(), "main", model.Record{}, 3)
	assert.ErrorIs(t, err, ErrVersionConflict)
}

func TestMemgraphPatchDriverError(t *testing.T) {
	boom := errors.New("connection reset")
	s := NewMemgraphStore(&MockDriver{Err: boom}, nil)

	_, err := s.Patch(context.Background(), "main", model.Record{}, 3)
	var storageErr *StorageError
	require.True(t, errors.As(err, &storageErr))
	assert.ErrorIs(t, err, boom)
}
