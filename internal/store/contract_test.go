package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/tally/internal/core/model"
)

// runStoreContract exercises the behaviour every backend must share.
func runStoreContract(t *testing.T, s Store) {
	ctx := context.Background()

	t.Run("empty store is a valid cold start", func(t *testing.T) {
		snap, err := s.Get(ctx, "main")
		require.NoError(t, err)
		assert.Equal(t, int64(0), snap.Version)
		assert.Empty(t, snap.Data)
		assert.NotNil(t, snap.Data)
	})

	t.Run("create then update", func(t *testing.T) {
		first, err := s.Patch(ctx, "main", model.Record{"debt": map[string]interface{}{"a": 1.0}}, 0)
		require.NoError(t, err)
		assert.Equal(t, int64(1), first.Version)

		got, err := s.Get(ctx, "main")
		require.NoError(t, err)
		assert.Equal(t, int64(1), got.Version)
		assert.Equal(t, map[string]interface{}{"a": 1.0}, got.Data["debt"])
		assert.False(t, got.UpdatedAt.IsZero())

		second, err := s.Patch(ctx, "main", model.Record{"debt": 42.0}, 1)
		require.NoError(t, err)
		assert.Equal(t, int64(2), second.Version)

		got, err = s.Get(ctx, "main")
		require.NoError(t, err)
		assert.Equal(t, model.Record{"debt": 42.0}, got.Data)
	})

	t.Run("stale version is rejected without writing", func(t *testing.T) {
		_, err := s.Patch(ctx, "main", model.Record{"debt": 7.0}, 1)
		require.Error(t, err)

		var storageErr *StorageError
		require.True(t, errors.As(err, &storageErr))
		assert.ErrorIs(t, err, ErrVersionConflict)

		got, err := s.Get(ctx, "main")
		require.NoError(t, err)
		assert.Equal(t, model.Record{"debt": 42.0}, got.Data)
		assert.Equal(t, int64(2), got.Version)
	})

	t.Run("create on existing id conflicts", func(t *testing.T) {
		_, err := s.Patch(ctx, "main", model.Record{}, 0)
		assert.ErrorIs(t, err, ErrVersionConflict)
	})

	t.Run("other ids are independent", func(t *testing.T) {
		snap, err := s.Get(ctx, "staging")
		require.NoError(t, err)
		assert.Equal(t, int64(0), snap.Version)
	})
}
