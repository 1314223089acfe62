package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"AfriPulse/internal/domain/models"
	"AfriPulse/internal/domain/repository"
	pkgcache "AfriPulse/pkg/cache"
)

const snapshotKey = "snapshot:latest"

// CachedSnapshotStore keeps the latest snapshot in-process and mirrors it
// to the shared cache so restarted instances can warm up without a full
// recompute. The in-process copy always wins on reads: the snapshot is
// immutable once published, so there is no staleness to resolve.
type CachedSnapshotStore struct {
	mu     sync.RWMutex
	latest *models.Snapshot
	shared pkgcache.Service
}

// NewCachedSnapshotStore wraps the shared cache; shared may be nil when
// Redis is disabled, leaving a process-local store.
func NewCachedSnapshotStore(shared pkgcache.Service) *CachedSnapshotStore {
	return &CachedSnapshotStore{shared: shared}
}

func (s *CachedSnapshotStore) Put(ctx context.Context, snap *models.Snapshot, ttl time.Duration) error {
	s.mu.Lock()
	s.latest = snap
	s.mu.Unlock()

	if s.shared == nil {
		return nil
	}
	if err := s.shared.Set(ctx, snapshotKey, snap, ttl); err != nil {
		return fmt.Errorf("mirror snapshot: %w", err)
	}
	return nil
}

func (s *CachedSnapshotStore) Get(ctx context.Context) (*models.Snapshot, error) {
	s.mu.RLock()
	snap := s.latest
	s.mu.RUnlock()
	if snap != nil {
		return snap, nil
	}

	if s.shared == nil {
		return nil, pkgcache.ErrCacheMiss
	}
	var restored models.Snapshot
	if err := s.shared.Get(ctx, snapshotKey, &restored); err != nil {
		if errors.Is(err, pkgcache.ErrCacheMiss) {
			return nil, pkgcache.ErrCacheMiss
		}
		return nil, fmt.Errorf("restore snapshot: %w", err)
	}

	s.mu.Lock()
	if s.latest == nil {
		s.latest = &restored
	}
	snap = s.latest
	s.mu.Unlock()
	return snap, nil
}

var _ repository.SnapshotCache = (*CachedSnapshotStore)(nil)
