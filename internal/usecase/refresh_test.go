package usecase

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"

	"AfriPulse/internal/domain/models"
	"AfriPulse/internal/services/engine"
	pkgkafka "AfriPulse/pkg/kafka"
	applogger "AfriPulse/pkg/logger"
)

type fakeStore struct {
	mu        sync.Mutex
	obs       []models.RawObservation
	countries []string

	// gate, when set, blocks Countries until released. Used to hold a
	// cycle open so a second Refresh call lands while one is running.
	gate chan struct{}
	// entered signals that a cycle has reached the store.
	entered chan struct{}
}

func (s *fakeStore) Init(context.Context) error { return nil }

func (s *fakeStore) StoreBatch(_ context.Context, obs []models.RawObservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.obs = append(s.obs, obs...)
	return nil
}

func (s *fakeStore) GetIndicator(_ context.Context, indicator string, fromYear, toYear int) ([]models.RawObservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.RawObservation
	for _, o := range s.obs {
		if o.Indicator == indicator && o.Year >= fromYear && o.Year <= toYear {
			out = append(out, o)
		}
	}
	return out, nil
}

func (s *fakeStore) Countries(context.Context) ([]string, error) {
	if s.entered != nil {
		s.entered <- struct{}{}
	}
	if s.gate != nil {
		<-s.gate
	}
	return s.countries, nil
}

func (s *fakeStore) Health(context.Context) error { return nil }
func (s *fakeStore) Close() error                 { return nil }

type fakeCache struct {
	mu   sync.Mutex
	snap *models.Snapshot
	puts int
}

func (c *fakeCache) Put(_ context.Context, snap *models.Snapshot, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snap = snap
	c.puts++
	return nil
}

func (c *fakeCache) Get(context.Context) (*models.Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snap, nil
}

type fakeMetrics struct {
	mu        sync.Mutex
	errors    map[string]int
	latencies map[string]int
}

func (m *fakeMetrics) RecordIngest(string, int) {}
func (m *fakeMetrics) RecordLatency(op string, _ float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.latencies == nil {
		m.latencies = map[string]int{}
	}
	m.latencies[op]++
}
func (m *fakeMetrics) RecordSnapshot(_, _ int, _ int) {}
func (m *fakeMetrics) RecordError(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.errors == nil {
		m.errors = map[string]int{}
	}
	m.errors[kind]++
}

type fakeNotifier struct {
	mu     sync.Mutex
	events int
}

func (n *fakeNotifier) NotifyRefresh(*models.Snapshot, time.Duration) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events++
}

func (n *fakeNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.events
}

func testLogger(t *testing.T) *applogger.Logger {
	t.Helper()
	l, err := applogger.New(&applogger.Config{Level: "error", Format: "console", Output: "stdout"})
	require.NoError(t, err)
	return l
}

// youngShares / agedShares are cohort-share percentages summing to 100.
var youngShares = []float64{15.5, 14, 12.5, 11, 9.5, 8, 7, 6, 4.5, 3.5, 2.8, 2, 1.5, 1, 0.6, 0.4, 0.2}
var agedShares = []float64{5, 5, 5.5, 5.5, 6, 6, 6.5, 6.5, 7, 7, 7, 6.5, 6, 5.5, 5, 4.5, 5.5}

func observe(store *fakeStore, country string, year int, indicator string, value float64) {
	store.obs = append(store.obs, models.RawObservation{
		Country: country, Year: year, Indicator: indicator,
		Value: value, HasValue: true, IsObserved: true,
	})
}

func seedCountry(store *fakeStore, country string, years []int, pop, tfr, le, gdp float64, shares []float64) {
	for _, year := range years {
		observe(store, country, year, models.IndPopulationTotal, pop*(1+0.02*float64(year-years[0])))
		observe(store, country, year, models.IndFertilityRate, tfr)
		observe(store, country, year, models.IndLifeExpectancy, le)
		observe(store, country, year, models.IndGDPPerCapita, gdp)
		for i, band := range models.CohortBands {
			observe(store, country, year, band.Code, shares[i])
		}
	}
	store.countries = append(store.countries, country)
}

func newTestRefresher(store *fakeStore, cache *fakeCache, notifier *fakeNotifier, t *testing.T) *Refresher {
	return NewRefresher(store, cache, &fakeMetrics{}, notifier, testLogger(t),
		engine.DefaultParams(), RefresherConfig{
			FromYear: 2018, ToYear: 2020, Workers: 2, SnapshotTTL: time.Hour,
		})
}

func TestRefreshPublishesSnapshot(t *testing.T) {
	store := &fakeStore{}
	years := []int{2018, 2019, 2020}
	seedCountry(store, "NER", years, 24_000_000, 6.8, 62, 590, youngShares)
	seedCountry(store, "NGA", years, 213_000_000, 5.1, 55, 2080, youngShares)
	seedCountry(store, "TUN", years, 12_000_000, 2.1, 76, 3720, agedShares)

	cache := &fakeCache{}
	notifier := &fakeNotifier{}
	r := newTestRefresher(store, cache, notifier, t)

	snap, err := r.Refresh(context.Background())
	require.NoError(t, err)
	require.NotNil(t, snap)

	require.Equal(t, 2018, snap.FromYear)
	require.Equal(t, 2020, snap.ToYear)
	require.Len(t, snap.Records, 9) // 3 countries x 3 years
	require.Len(t, snap.Aggregates, 3)
	require.Len(t, snap.Pyramids, 3)
	require.NotNil(t, snap.Clusters)
	require.Equal(t, 1, notifier.count())

	cached, err := cache.Get(context.Background())
	require.NoError(t, err)
	require.Same(t, snap, cached)

	// fully observed cohorts: pyramids pass through, not synthesized
	for _, p := range snap.Pyramids {
		require.False(t, p.Synthetic)
		require.Equal(t, 2020, p.Year)
	}

	rec, ok := snap.Record("NER", 2020)
	require.True(t, ok)
	require.True(t, rec.MedianAge.Valid)
	require.True(t, rec.TotalDependency.Valid)
	require.True(t, rec.GrowthRate.Valid) // two prior population points exist
}

func TestRefreshFailsWithoutObservations(t *testing.T) {
	store := &fakeStore{}
	r := newTestRefresher(store, &fakeCache{}, &fakeNotifier{}, t)

	_, err := r.Refresh(context.Background())
	require.Error(t, err)
}

func TestRefreshCoalescesConcurrentCalls(t *testing.T) {
	store := &fakeStore{
		gate:    make(chan struct{}),
		entered: make(chan struct{}, 2),
	}
	years := []int{2018, 2019, 2020}
	seedCountry(store, "NER", years, 24_000_000, 6.8, 62, 590, youngShares)
	seedCountry(store, "TUN", years, 12_000_000, 2.1, 76, 3720, agedShares)

	cache := &fakeCache{}
	notifier := &fakeNotifier{}
	r := newTestRefresher(store, cache, notifier, t)

	type result struct {
		snap *models.Snapshot
		err  error
	}
	results := make(chan result, 2)

	go func() {
		snap, err := r.Refresh(context.Background())
		results <- result{snap, err}
	}()
	<-store.entered // first cycle is inside the store, still running

	go func() {
		snap, err := r.Refresh(context.Background())
		results <- result{snap, err}
	}()
	// give the second call time to register as a waiter, then release
	time.Sleep(20 * time.Millisecond)
	close(store.gate)

	a := <-results
	b := <-results
	require.NoError(t, a.err)
	require.NoError(t, b.err)
	require.Same(t, a.snap, b.snap)
	require.Equal(t, 1, cache.puts)
	require.Equal(t, 1, notifier.count())
}

func TestRefreshHonorsContextCancellation(t *testing.T) {
	store := &fakeStore{}
	seedCountry(store, "NER", []int{2018, 2019, 2020}, 24_000_000, 6.8, 62, 590, youngShares)
	r := newTestRefresher(store, &fakeCache{}, &fakeNotifier{}, t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := r.Refresh(ctx)
	require.Error(t, err)
}

func TestPyramidForSynthesizesWhenCohortsMissing(t *testing.T) {
	store := &fakeStore{}
	years := []int{2018, 2019, 2020}
	// no cohort shares: only vital rates
	for _, year := range years {
		observe(store, "SSD", year, models.IndPopulationTotal, 11_000_000)
		observe(store, "SSD", year, models.IndFertilityRate, 4.5)
		observe(store, "SSD", year, models.IndLifeExpectancy, 58)
	}
	store.countries = []string{"SSD"}

	r := newTestRefresher(store, &fakeCache{}, &fakeNotifier{}, t)
	snap, err := r.Refresh(context.Background())
	require.NoError(t, err)

	require.Len(t, snap.Pyramids, 1)
	p := snap.Pyramids[0]
	require.True(t, p.Synthetic)
	require.Len(t, p.Cohorts, len(models.CohortBands))

	sum := 0.0
	for _, c := range p.Cohorts {
		sum += c.Share
	}
	require.InDelta(t, 1.0, sum, 1e-6)
}

func TestRefreshTagsRegionalFillPyramidsSynthetic(t *testing.T) {
	store := &fakeStore{}
	years := []int{2018, 2019, 2020}
	seedCountry(store, "NGA", years, 213_000_000, 5.1, 55, 2080, youngShares)
	// GHA shares NGA's region but reports no cohorts of its own, so the
	// resolver fills every band from the regional mean.
	for _, year := range years {
		observe(store, "GHA", year, models.IndPopulationTotal, 31_000_000)
		observe(store, "GHA", year, models.IndFertilityRate, 3.8)
		observe(store, "GHA", year, models.IndLifeExpectancy, 64)
	}
	store.countries = append(store.countries, "GHA")

	r := newTestRefresher(store, &fakeCache{}, &fakeNotifier{}, t)
	snap, err := r.Refresh(context.Background())
	require.NoError(t, err)

	byCountry := map[string]models.AgePyramidDistribution{}
	for _, p := range snap.Pyramids {
		byCountry[p.Country] = p
	}
	require.False(t, byCountry["NGA"].Synthetic)
	require.True(t, byCountry["GHA"].Synthetic,
		"regional-mean fill is imputed data, not an observed distribution")

	// the fill still serves the indicator ladder as designed
	rec, ok := snap.Record("GHA", 2020)
	require.True(t, ok)
	require.True(t, rec.MedianAge.Valid)
}

func TestConsumerTelemetryHookRecordsMetrics(t *testing.T) {
	m := &fakeMetrics{}
	hook := NewConsumerTelemetryHook(m, testLogger(t))

	km := kafkago.Message{Headers: []kafkago.Header{
		{Key: "trace_id", Value: []byte("abc123")},
	}}
	payload := []byte(`{}`)

	ctx, km2, data, err := hook.BeforeHandle(context.Background(), "demographic_observations", km, payload)
	require.NoError(t, err)
	require.Equal(t, payload, data)
	require.Equal(t, "abc123", ctx.Value(pkgkafka.CtxTraceID))

	hook.AfterHandle(ctx, "demographic_observations", km2, data, nil)
	require.Equal(t, 1, m.latencies["kafka_handle_seconds"])

	hook.OnError(ctx, "demographic_observations", km2, data, context.DeadlineExceeded)
	require.Equal(t, 1, m.errors["kafka_consume"])
}

func TestKafkaHandlerStoresValidRows(t *testing.T) {
	store := &fakeStore{}
	h := NewKafkaObservationsHandler("demographic_observations", store, &fakeMetrics{})
	require.Equal(t, "demographic_observations", h.Topic())

	v := 5.9
	msg, err := json.Marshal(map[string]interface{}{
		"indicator": models.IndFertilityRate,
		"rows": []map[string]interface{}{
			{"country": "ner", "year": 2020, "value": v, "observed": true},
			{"country": "XXXX", "year": 2020, "value": v, "observed": true}, // skipped
			{"country": "TCD", "year": 2020, "value": nil, "observed": false},
		},
	})
	require.NoError(t, err)
	require.NoError(t, h.Handle(context.Background(), msg))

	require.Len(t, store.obs, 2)
	require.Equal(t, "NER", store.obs[0].Country)
	require.True(t, store.obs[0].HasValue)
	require.Equal(t, "TCD", store.obs[1].Country)
	require.False(t, store.obs[1].HasValue)
}

func TestKafkaHandlerRejectsUnknownIndicator(t *testing.T) {
	store := &fakeStore{}
	h := NewKafkaObservationsHandler("demographic_observations", store, &fakeMetrics{})

	msg := []byte(`{"indicator":"gdp_total","rows":[{"country":"NER","year":2020,"value":1,"observed":true}]}`)
	require.Error(t, h.Handle(context.Background(), msg))
	require.Empty(t, store.obs)
}
