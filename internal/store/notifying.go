package store

import (
	"context"

	"go.uber.org/zap"

	"github.com/agenthands/tally/internal/core/model"
	"github.com/agenthands/tally/internal/metrics"
)

// Publisher delivers a committed snapshot to live observers.
type Publisher interface {
	Publish(ctx context.Context, snap *model.Snapshot) error
}

// Notifying publishes every successfully committed snapshot.
// A publish failure is logged; the commit is already durable and still succeeds.
type Notifying struct {
	Store
	publisher Publisher
	logger    *zap.Logger
	metrics   *metrics.Metrics
}

func NewNotifying(s Store, p Publisher, logger *zap.Logger, m *metrics.Metrics) *Notifying {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Notifying{Store: s, publisher: p, logger: logger, metrics: m}
}

func (n *Notifying) Patch(ctx context.Context, id string, record model.Record, expectedVersion int64) (*model.Snapshot, error) {
	snap, err := n.Store.Patch(ctx, id, record, expectedVersion)
	if err != nil {
		return nil, err
	}

	if err := n.publisher.Publish(ctx, snap); err != nil {
		n.metrics.NotifyFailed()
		n.logger.Warn("failed to publish committed snapshot",
			zap.String("id", id), zap.Int64("version", snap.Version), zap.Error(err))
	}

	return snap, nil
}
