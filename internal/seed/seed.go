// Package seed creates the canonical tracker from a snapshot file before the
// first reconciliation cycle.
package seed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/agenthands/tally/internal/core/model"
	"github.com/agenthands/tally/internal/store"
)

// ErrAlreadySeeded is returned when the record exists and force is not set.
var ErrAlreadySeeded = errors.New("tracker already exists")

const seedReason = "initial seed"

// Load reads a seed snapshot from a .json, .yaml or .yml file.
// Values are normalized to their JSON shapes so seeded and reconciled data compare equal.
func Load(path string) (model.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file '%s': %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var raw map[string]interface{}
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse YAML seed: %w", err)
		}
		data, err = json.Marshal(raw)
		if err != nil {
			return nil, fmt.Errorf("failed to normalize YAML seed: %w", err)
		}
	case ".json":
	default:
		return nil, fmt.Errorf("unsupported seed format: %s", filepath.Ext(path))
	}

	var rec model.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to parse seed: %w", err)
	}
	if rec == nil {
		return nil, fmt.Errorf("seed file '%s' is empty", path)
	}
	return rec, nil
}

// Apply writes rec as the tracker for id. Without force it only creates.
func Apply(ctx context.Context, s store.Store, id string, rec model.Record, force bool, logger *zap.Logger) (*model.Snapshot, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Version > 0 && !force {
		return nil, ErrAlreadySeeded
	}

	data := rec.Clone()
	if _, ok := data[model.FieldLastUpdated]; !ok {
		data[model.FieldLastUpdated] = time.Now().UTC().Format(time.RFC3339)
	}
	if _, ok := data[model.FieldLastUpdateReason]; !ok {
		data[model.FieldLastUpdateReason] = seedReason
	}

	snap, err := s.Patch(ctx, id, data, current.Version)
	if err != nil {
		return nil, err
	}

	logger.Info("tracker seeded", zap.String("id", id), zap.Int64("version", snap.Version), zap.Int("topics", len(rec)))
	return snap, nil
}
