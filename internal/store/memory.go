package store

import (
	"context"
	"sync"
	"time"

	"github.com/agenthands/tally/internal/core/model"
)

// MemoryStore is an in-process Store for tests and local runs.
type MemoryStore struct {
	mu    sync.Mutex
	snaps map[string]*model.Snapshot
	now   func() time.Time

	// Call counters, read by tests.
	Gets    int
	Patches int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{snaps: make(map[string]*model.Snapshot), now: time.Now}
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*model.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Gets++

	snap, ok := s.snaps[id]
	if !ok {
		return emptySnapshot(id), nil
	}
	return copySnapshot(snap), nil
}

func (s *MemoryStore) Patch(ctx context.Context, id string, record model.Record, expectedVersion int64) (*model.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Patches++

	var current int64
	if snap, ok := s.snaps[id]; ok {
		current = snap.Version
	}
	if current != expectedVersion {
		return nil, &StorageError{Op: "patch", ID: id, Err: ErrVersionConflict}
	}

	snap := &model.Snapshot{ID: id, Data: record.Clone(), UpdatedAt: s.now().UTC(), Version: current + 1}
	s.snaps[id] = snap
	return copySnapshot(snap), nil
}

func (s *MemoryStore) Close() error { return nil }

func copySnapshot(snap *model.Snapshot) *model.Snapshot {
	out := *snap
	out.Data = snap.Data.Clone()
	return &out
}
