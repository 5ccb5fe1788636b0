package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/tally/internal/core/model"
)

func TestMemoryStoreContract(t *testing.T) {
	runStoreContract(t, NewMemoryStore())
}

func TestMemoryStoreIsolatesCallers(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	rec := model.Record{"wealth": map[string]interface{}{"current": 7.0}}
	_, err := s.Patch(ctx, "main", rec, 0)
	require.NoError(t, err)

	rec["wealth"].(map[string]interface{})["current"] = 99.0

	got, err := s.Get(ctx, "main")
	require.NoError(t, err)
	assert.Equal(t, 7.0, got.Data["wealth"].(map[string]interface{})["current"])

	got.Data["wealth"] = "mutated"
	again, err := s.Get(ctx, "main")
	require.NoError(t, err)
	assert.IsType(t, map[string]interface{}{}, again.Data["wealth"])
	assert.Equal(t, 2, s.Gets)
	assert.Equal(t, 1, s.Patches)
}
