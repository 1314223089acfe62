package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"AfriPulse/internal/domain/models"
	domrepo "AfriPulse/internal/domain/repository"
	"AfriPulse/internal/services/engine"
	applogger "AfriPulse/pkg/logger"
	"AfriPulse/pkg/util"
)

// RefresherConfig bounds one refresh cycle.
type RefresherConfig struct {
	FromYear    int
	ToYear      int
	Workers     int
	SnapshotTTL time.Duration
}

// Refresher runs the full analytics cycle: load raw observations, resolve
// gaps, derive per-country indicators, aggregate, classify, synthesize
// pyramids and cluster, then publish one immutable snapshot. Cycles never
// overlap; a refresh requested while one is running is coalesced into the
// running one's result.
type Refresher struct {
	store    domrepo.ObservationStore
	cache    domrepo.SnapshotCache
	metrics  domrepo.Metrics
	notifier domrepo.RefreshNotifier
	l        *applogger.Logger

	cfg RefresherConfig

	resolver   *engine.Resolver
	calc       *engine.Calculator
	classifier *engine.Classifier
	synth      *engine.Synthesizer
	clusterer  *engine.Clusterer

	mu      sync.Mutex
	running bool
	waiters []chan refreshResult
}

type refreshResult struct {
	snap *models.Snapshot
	err  error
}

func NewRefresher(
	store domrepo.ObservationStore,
	cache domrepo.SnapshotCache,
	metrics domrepo.Metrics,
	notifier domrepo.RefreshNotifier,
	l *applogger.Logger,
	params engine.Params,
	cfg RefresherConfig,
) *Refresher {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	return &Refresher{
		store:      store,
		cache:      cache,
		metrics:    metrics,
		notifier:   notifier,
		l:          l,
		cfg:        cfg,
		resolver:   engine.NewResolver(),
		calc:       engine.NewCalculator(params.Score),
		classifier: engine.NewClassifier(params.Dividend),
		synth:      engine.NewSynthesizer(params.Pyramid),
		clusterer:  engine.NewClusterer(params.Cluster),
	}
}

// Refresh runs one cycle and publishes the snapshot. Concurrent callers
// share the in-flight cycle instead of starting another.
func (r *Refresher) Refresh(ctx context.Context) (*models.Snapshot, error) {
	r.mu.Lock()
	if r.running {
		ch := make(chan refreshResult, 1)
		r.waiters = append(r.waiters, ch)
		r.mu.Unlock()
		select {
		case res := <-ch:
			return res.snap, res.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	r.running = true
	r.mu.Unlock()

	snap, err := r.runCycle(ctx)

	r.mu.Lock()
	r.running = false
	waiters := r.waiters
	r.waiters = nil
	r.mu.Unlock()
	for _, ch := range waiters {
		ch <- refreshResult{snap: snap, err: err}
	}
	return snap, err
}

func (r *Refresher) runCycle(ctx context.Context) (*models.Snapshot, error) {
	start := time.Now()

	countries, err := r.store.Countries(ctx)
	if err != nil {
		r.metrics.RecordError("refresh_countries")
		return nil, fmt.Errorf("list countries: %w", err)
	}
	if len(countries) == 0 {
		return nil, fmt.Errorf("no observations ingested yet")
	}
	years := util.YearsBetween(r.cfg.FromYear, r.cfg.ToYear)

	resolved, err := r.resolveAll(ctx, countries, years)
	if err != nil {
		return nil, err
	}

	records, err := r.computeRecords(ctx, countries, years, resolved)
	if err != nil {
		return nil, err
	}
	r.classifyRecords(records)

	aggregates := make([]models.ContinentalAggregate, 0, len(years))
	for _, year := range years {
		aggregates = append(aggregates, engine.AggregateYear(year, records))
	}

	pyramids := r.buildPyramids(countries, r.cfg.ToYear, resolved, records)

	clusters, err := r.clusterer.Cluster(ctx, r.cfg.ToYear, records)
	if err != nil {
		r.metrics.RecordError("refresh_cluster")
		return nil, fmt.Errorf("cluster countries: %w", err)
	}

	snap := &models.Snapshot{
		GeneratedAt: time.Now().UTC(),
		FromYear:    r.cfg.FromYear,
		ToYear:      r.cfg.ToYear,
		Resolved:    resolved,
		Records:     records,
		Aggregates:  aggregates,
		Pyramids:    pyramids,
		Clusters:    clusters,
	}

	if err := r.cache.Put(ctx, snap, r.cfg.SnapshotTTL); err != nil {
		r.metrics.RecordError("refresh_publish")
		return nil, fmt.Errorf("publish snapshot: %w", err)
	}

	took := time.Since(start)
	r.metrics.RecordLatency("refresh_cycle_seconds", took.Seconds())
	r.metrics.RecordSnapshot(len(records), len(pyramids), clusters.K)
	if r.notifier != nil {
		r.notifier.NotifyRefresh(snap, took)
	}
	r.l.Info("refresh cycle complete",
		applogger.Int("countries", len(countries)),
		applogger.Int("records", len(records)),
		applogger.Int("cluster_k", clusters.K),
		applogger.Duration("duration_ms", took),
	)
	return snap, nil
}

// resolveAll loads and resolves every known indicator over the key space.
func (r *Refresher) resolveAll(ctx context.Context, countries []string, years []int) (map[string]*models.ResolvedSeries, error) {
	indicators := append(models.BaseIndicatorCodes(), models.CohortIndicatorCodes()...)
	out := make(map[string]*models.ResolvedSeries, len(indicators))
	for _, ind := range indicators {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		obs, err := r.store.GetIndicator(ctx, ind, r.cfg.FromYear, r.cfg.ToYear)
		if err != nil {
			r.metrics.RecordError("refresh_load")
			return nil, fmt.Errorf("load %s: %w", ind, err)
		}
		series, err := r.resolver.Resolve(ind, obs, countries, years)
		if err != nil {
			r.metrics.RecordError("refresh_resolve")
			return nil, fmt.Errorf("resolve %s: %w", ind, err)
		}
		out[ind] = series
	}
	return out, nil
}

// computeRecords derives indicator records for the full key space with a
// bounded worker pool. Record computation is pure per key, so only the
// final ordering is fixed, not the execution order.
func (r *Refresher) computeRecords(ctx context.Context, countries []string, years []int, resolved map[string]*models.ResolvedSeries) ([]models.IndicatorRecord, error) {
	type key struct {
		country string
		year    int
	}
	jobs := make(chan key)
	results := make([]models.IndicatorRecord, 0, len(countries)*len(years))

	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		firstErr error
	)
	for i := 0; i < r.cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for k := range jobs {
				rec, err := r.calc.Record(k.country, k.year, resolved)
				mu.Lock()
				if err != nil {
					if firstErr == nil {
						firstErr = err
					}
				} else {
					results = append(results, rec)
				}
				mu.Unlock()
			}
		}()
	}

feed:
	for _, country := range countries {
		for _, year := range years {
			select {
			case jobs <- key{country: country, year: year}:
			case <-ctx.Done():
				break feed
			}
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if firstErr != nil {
		r.metrics.RecordError("refresh_records")
		return nil, fmt.Errorf("compute records: %w", firstErr)
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Country != results[j].Country {
			return results[i].Country < results[j].Country
		}
		return results[i].Year < results[j].Year
	})
	return results, nil
}

// classifyRecords fills DividendStatus in place. Records are sorted by
// (country, year), so each country's history accumulates in one pass.
func (r *Refresher) classifyRecords(records []models.IndicatorRecord) {
	var history []engine.YearValue
	current := ""
	for i := range records {
		rec := &records[i]
		if rec.Country != current {
			current = rec.Country
			history = history[:0]
		}
		rec.DividendStatus = r.classifier.Classify(*rec, history)
		if rec.TotalDependency.Valid {
			history = append(history, engine.YearValue{Year: rec.Year, Value: rec.TotalDependency.Value})
		}
	}
}

// buildPyramids synthesizes the latest-year pyramid per country. Earlier
// years are served on demand from the resolved series.
func (r *Refresher) buildPyramids(countries []string, year int, resolved map[string]*models.ResolvedSeries, records []models.IndicatorRecord) []models.AgePyramidDistribution {
	out := make([]models.AgePyramidDistribution, 0, len(countries))
	for _, country := range countries {
		out = append(out, r.PyramidFor(country, year, resolved, records))
	}
	return out
}

// PyramidFor builds one pyramid from resolved cohort shares, falling back
// to model synthesis from the country's vital rates.
func (r *Refresher) PyramidFor(country string, year int, resolved map[string]*models.ResolvedSeries, records []models.IndicatorRecord) models.AgePyramidDistribution {
	observed := make([]models.Float, len(models.CohortBands))
	for i, band := range models.CohortBands {
		// Only the country's own observations count toward a genuine
		// distribution. Fallback-resolved bands stay missing here so the
		// synthesizer tags the output synthetic.
		if cell := resolved[band.Code].Cell(country, year); cell.Provenance == models.ProvObserved {
			observed[i] = models.F(cell.Value)
		}
	}

	tfr := resolvedFloat(resolved, models.IndFertilityRate, country, year)
	le := resolvedFloat(resolved, models.IndLifeExpectancy, country, year)
	growth := models.MissingFloat
	for _, rec := range records {
		if rec.Country == country && rec.Year == year {
			growth = rec.GrowthRate
			break
		}
	}
	return r.synth.Pyramid(country, year, observed, tfr, le, growth)
}

func resolvedFloat(resolved map[string]*models.ResolvedSeries, indicator, country string, year int) models.Float {
	if v, ok := resolved[indicator].Value(country, year); ok {
		return models.F(v)
	}
	return models.MissingFloat
}
