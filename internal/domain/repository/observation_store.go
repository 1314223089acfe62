package repository

import (
	"context"

	"AfriPulse/internal/domain/models"
)

// ObservationStore persists and serves raw observations. The engine never
// touches it directly; the refresh usecase materializes observations into
// explicit arguments before any computation runs.
type ObservationStore interface {
	Init(ctx context.Context) error // ensure tables, health checks
	StoreBatch(ctx context.Context, obs []models.RawObservation) error
	// GetIndicator returns all observations of one indicator within the
	// year range, across all countries, ordered by (country, year).
	GetIndicator(ctx context.Context, indicator string, fromYear, toYear int) ([]models.RawObservation, error)
	// Countries lists the distinct country codes present in the store.
	Countries(ctx context.Context) ([]string, error)
	Health(ctx context.Context) error
	Close() error
}
