package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"AfriPulse/internal/domain/models"
	"AfriPulse/internal/domain/repository"
	pkgch "AfriPulse/pkg/clickhouse"
	applogger "AfriPulse/pkg/logger"
)

// CHObservationStore implements ObservationStore backed by ClickHouse. Raw
// observations land in demographics.raw_observations; the imputed flag is
// kept so the resolver can exclude upstream-imputed rows from fallback
// means.
type CHObservationStore struct {
	ch *pkgch.Client
	db *sql.DB
	l  *applogger.Logger
}

var observationSchema = []string{
	`CREATE DATABASE IF NOT EXISTS demographics`,
	`CREATE TABLE IF NOT EXISTS demographics.raw_observations (
		country   LowCardinality(String),
		year      UInt16,
		indicator LowCardinality(String),
		value     Float64,
		has_value UInt8,
		observed  UInt8,
		loaded_at DateTime DEFAULT now()
	) ENGINE = ReplacingMergeTree(loaded_at)
	ORDER BY (indicator, country, year)`,
}

func NewCHObservationStore(ch *pkgch.Client) *CHObservationStore {
	return &CHObservationStore{ch: ch, db: ch.DB()}
}

// SetLogger injects a structured logger.
func (s *CHObservationStore) SetLogger(l *applogger.Logger) { s.l = l }

func (s *CHObservationStore) Init(ctx context.Context) error {
	for _, stmt := range observationSchema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init observation schema: %w", err)
		}
	}
	return nil
}

func (s *CHObservationStore) StoreBatch(ctx context.Context, obs []models.RawObservation) error {
	if len(obs) == 0 {
		return nil
	}
	// Batch insert using VALUES multi-row to reduce round-trips.
	const chunkSize = 2000
	for start := 0; start < len(obs); start += chunkSize {
		end := start + chunkSize
		if end > len(obs) {
			end = len(obs)
		}

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*6)
		for _, o := range obs[start:end] {
			if o.Country == "" || o.Indicator == "" || o.Year == 0 {
				continue
			}
			values = append(values, "(?, ?, ?, ?, ?, ?)")
			args = append(args,
				o.Country,
				uint16(o.Year),
				o.Indicator,
				o.Value,
				boolToUInt8(o.HasValue),
				boolToUInt8(o.IsObserved),
			)
		}
		if len(values) == 0 {
			continue
		}
		q := "INSERT INTO demographics.raw_observations (country, year, indicator, value, has_value, observed) VALUES " +
			strings.Join(values, ",")
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("store observations: %w", err)
		}
	}
	return nil
}

func (s *CHObservationStore) GetIndicator(ctx context.Context, indicator string, fromYear, toYear int) ([]models.RawObservation, error) {
	start := time.Now()
	const q = `
        SELECT country, year, indicator, value, has_value, observed
        FROM demographics.raw_observations FINAL
        WHERE indicator = ? AND year >= ? AND year <= ?
        ORDER BY country ASC, year ASC
    `
	rows, err := s.db.QueryContext(ctx, q, indicator, uint16(fromYear), uint16(toYear))
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse get_indicator query error",
				applogger.String("indicator", indicator),
				applogger.Int("from", fromYear),
				applogger.Int("to", toYear),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("get indicator: %w", err)
	}
	defer rows.Close()

	out := make([]models.RawObservation, 0, 1024)
	for rows.Next() {
		var (
			o        models.RawObservation
			year     uint16
			hasValue uint8
			observed uint8
		)
		if err := rows.Scan(&o.Country, &year, &o.Indicator, &o.Value, &hasValue, &observed); err != nil {
			if s.l != nil {
				s.l.Error("clickhouse get_indicator scan error",
					applogger.String("indicator", indicator),
					applogger.Error(err),
				)
			}
			return nil, fmt.Errorf("scan observation: %w", err)
		}
		o.Year = int(year)
		o.HasValue = hasValue != 0
		o.IsObserved = observed != 0
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	if s.l != nil {
		s.l.Debug("clickhouse get_indicator ok",
			applogger.String("indicator", indicator),
			applogger.Int("rows", len(out)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return out, nil
}

func (s *CHObservationStore) Countries(ctx context.Context) ([]string, error) {
	const q = `
        SELECT DISTINCT country
        FROM demographics.raw_observations
        ORDER BY country ASC
    `
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list countries: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("scan country: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *CHObservationStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *CHObservationStore) Close() error {
	return s.ch.Close()
}

func boolToUInt8(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

var _ repository.ObservationStore = (*CHObservationStore)(nil)
