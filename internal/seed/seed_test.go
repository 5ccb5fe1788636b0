package seed

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/tally/internal/core/model"
	"github.com/agenthands/tally/internal/store"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadJSONAndYAMLAgree(t *testing.T) {
	jsonPath := writeFile(t, "seed.json", `{"debt": {"total": 36, "unit": "T"}, "promises": [{"text": "A"}]}`)
	yamlPath := writeFile(t, "seed.yaml", "debt:\n  total: 36\n  unit: T\npromises:\n  - text: A\n")

	fromJSON, err := Load(jsonPath)
	require.NoError(t, err)
	fromYAML, err := Load(yamlPath)
	require.NoError(t, err)

	assert.Equal(t, fromJSON, fromYAML)
	assert.Equal(t, 36.0, fromYAML["debt"].(map[string]interface{})["total"])
}

func TestLoadRejectsUnknownFormat(t *testing.T) {
	_, err := Load(writeFile(t, "seed.txt", "debt: 1"))
	assert.Error(t, err)
}

func TestLoadRejectsEmpty(t *testing.T) {
	_, err := Load(writeFile(t, "seed.json", "null"))
	assert.Error(t, err)
}

func TestApplyCreatesOnce(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()

	snap, err := Apply(ctx, s, "main", model.Record{"debt": 1.0}, false, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), snap.Version)
	assert.Equal(t, seedReason, snap.Data[model.FieldLastUpdateReason])
	assert.NotEmpty(t, snap.Data[model.FieldLastUpdated])

	_, err = Apply(ctx, s, "main", model.Record{"debt": 2.0}, false, nil)
	assert.ErrorIs(t, err, ErrAlreadySeeded)

	got, err := s.Get(ctx, "main")
	require.NoError(t, err)
	assert.Equal(t, 1.0, got.Data["debt"])
}

func TestApplyForceReplaces(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()

	_, err := Apply(ctx, s, "main", model.Record{"debt": 1.0}, false, nil)
	require.NoError(t, err)

	snap, err := Apply(ctx, s, "main", model.Record{"wealth": 7.0}, true, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), snap.Version)
	assert.NotContains(t, snap.Data, "debt")
}
