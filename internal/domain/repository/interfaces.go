package repository

import (
	"context"
	"time"

	"AfriPulse/internal/domain/models"
)

// Metrics abstracts operational metrics recording.
type Metrics interface {
	RecordIngest(indicator string, rows int)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
	RecordSnapshot(records, pyramids int, clusteredK int)
}

// SnapshotCache stores the latest published snapshot between refresh
// cycles so the read API never blocks on recompute.
type SnapshotCache interface {
	Put(ctx context.Context, snap *models.Snapshot, ttl time.Duration) error
	Get(ctx context.Context) (*models.Snapshot, error)
}

// RefreshNotifier receives refresh-cycle completion events.
type RefreshNotifier interface {
	NotifyRefresh(snap *models.Snapshot, took time.Duration)
}
