package engine

import (
	"errors"
	"math"
	"testing"

	"AfriPulse/internal/domain/models"
)

func seriesOf(indicator, country string, vals map[int]float64) *models.ResolvedSeries {
	s := &models.ResolvedSeries{
		Indicator: indicator,
		Cells:     make(map[models.SeriesKey]models.ResolvedValue, len(vals)),
	}
	for year, v := range vals {
		s.Cells[models.SeriesKey{Country: country, Year: year}] = models.ResolvedValue{
			Value: v, Provenance: models.ProvObserved,
		}
	}
	return s
}

// resolvedWithShares builds a resolved map holding one year of cohort
// shares plus any extra indicator series.
func resolvedWithShares(country string, year int, shares []float64, extra map[string]*models.ResolvedSeries) map[string]*models.ResolvedSeries {
	out := make(map[string]*models.ResolvedSeries)
	for i, band := range models.CohortBands {
		out[band.Code] = seriesOf(band.Code, country, map[int]float64{year: shares[i]})
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

// sharesFromPrefix pins the leading bands and spreads the remainder of the
// 100% evenly over the rest.
func sharesFromPrefix(prefix ...float64) []float64 {
	shares := make([]float64, len(models.CohortBands))
	used := 0.0
	for i, p := range prefix {
		shares[i] = p
		used += p
	}
	rest := len(shares) - len(prefix)
	for i := len(prefix); i < len(shares); i++ {
		shares[i] = (100 - used) / float64(rest)
	}
	return shares
}

func TestMedianAgeBoundaryExact(t *testing.T) {
	c := NewCalculator(DefaultParams().Score)
	// Cumulative share reaches exactly 50% at the top of the 10-14 band,
	// so the median must be exactly the band boundary, 15.
	shares := sharesFromPrefix(20, 20, 10)
	rec, err := c.Record("NGA", 2020, resolvedWithShares("NGA", 2020, shares, nil))
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if !rec.MedianAge.Valid {
		t.Fatal("median age missing")
	}
	if math.Abs(rec.MedianAge.Value-15) > 1e-9 {
		t.Fatalf("median age = %v, want exactly 15", rec.MedianAge.Value)
	}
}

func TestMedianAgeInterpolatesWithinBand(t *testing.T) {
	c := NewCalculator(DefaultParams().Score)
	// cum 40% before the 10-14 band, band holds 20%, so the median falls
	// halfway through it: 10 + 5*(50-40)/20 = 12.5.
	shares := sharesFromPrefix(20, 20, 20)
	rec, err := c.Record("NGA", 2020, resolvedWithShares("NGA", 2020, shares, nil))
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if math.Abs(rec.MedianAge.Value-12.5) > 1e-9 {
		t.Fatalf("median age = %v, want 12.5", rec.MedianAge.Value)
	}
}

func TestDependencyRatioIdentity(t *testing.T) {
	c := NewCalculator(DefaultParams().Score)
	shares := sharesFromPrefix(15, 12, 10)
	rec, err := c.Record("KEN", 2020, resolvedWithShares("KEN", 2020, shares, nil))
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if !rec.YouthDependency.Valid || !rec.ElderlyDependency.Valid || !rec.TotalDependency.Valid {
		t.Fatal("dependency ratios missing")
	}
	sum := rec.YouthDependency.Value + rec.ElderlyDependency.Value
	if math.Abs(rec.TotalDependency.Value-sum) > 1e-9 {
		t.Fatalf("total = %v, youth+elderly = %v", rec.TotalDependency.Value, sum)
	}
}

func TestZeroWorkingAgePopulationIsMissing(t *testing.T) {
	c := NewCalculator(DefaultParams().Score)
	shares := make([]float64, len(models.CohortBands))
	// Everything below 15 or at 65+, nothing in between.
	shares[0], shares[1], shares[2] = 30, 30, 20
	shares[len(shares)-1] = 20
	rec, err := c.Record("KEN", 2020, resolvedWithShares("KEN", 2020, shares, nil))
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if rec.TotalDependency.Valid || rec.YouthDependency.Valid || rec.ElderlyDependency.Valid {
		t.Fatalf("ratios should be missing with zero working-age share: %+v", rec)
	}
}

func TestCohortShareOutOfDomainFails(t *testing.T) {
	c := NewCalculator(DefaultParams().Score)
	shares := sharesFromPrefix(120)
	_, err := c.Record("KEN", 2020, resolvedWithShares("KEN", 2020, shares, nil))
	var rangeErr *InvalidRangeError
	if !errors.As(err, &rangeErr) {
		t.Fatalf("err = %v, want InvalidRangeError", err)
	}
}

func TestGrowthRateCAGR(t *testing.T) {
	pop := seriesOf(models.IndPopulationTotal, "GHA", map[int]float64{
		2015: 1000, 2020: 1200,
	})
	got, err := growthRate("GHA", 2020, pop)
	if err != nil {
		t.Fatalf("growth rate: %v", err)
	}
	if !got.Valid {
		t.Fatal("growth rate missing")
	}
	want := (math.Pow(1.2, 1.0/5) - 1) * 100
	if math.Abs(got.Value-want) > 1e-9 {
		t.Fatalf("growth = %v, want %v", got.Value, want)
	}
}

func TestGrowthRateNeedsTwoPoints(t *testing.T) {
	pop := seriesOf(models.IndPopulationTotal, "GHA", map[int]float64{2020: 1200})
	got, err := growthRate("GHA", 2020, pop)
	if got.Valid {
		t.Fatalf("growth = %+v, want missing with a single point", got)
	}
	var sparse *InsufficientHistoryError
	if !errors.As(err, &sparse) {
		t.Fatalf("err = %v, want InsufficientHistoryError", err)
	}
	if sparse.Need != 2 || sparse.Have != 1 {
		t.Fatalf("sparse = %+v, want need 2 have 1", sparse)
	}

	if got, err := growthRate("GHA", 2020, nil); got.Valid || !errors.As(err, &sparse) {
		t.Fatalf("nil series: got %+v err %v, want missing with InsufficientHistoryError", got, err)
	}

	// Record absorbs the sparsity instead of failing the whole computation.
	c := NewCalculator(DefaultParams().Score)
	rec, err := c.Record("GHA", 2020, resolvedWithShares("GHA", 2020, sharesFromPrefix(20, 20, 10), map[string]*models.ResolvedSeries{
		models.IndPopulationTotal: pop,
	}))
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if rec.GrowthRate.Valid {
		t.Fatal("growth rate must stay missing with one population point")
	}
}

func TestGrowthRateIgnoresFutureYears(t *testing.T) {
	pop := seriesOf(models.IndPopulationTotal, "GHA", map[int]float64{
		2018: 1000, 2019: 1100, 2025: 9999,
	})
	got, err := growthRate("GHA", 2019, pop)
	if err != nil {
		t.Fatalf("growth rate: %v", err)
	}
	if !got.Valid {
		t.Fatal("growth rate missing")
	}
	want := 10.0
	if math.Abs(got.Value-want) > 1e-9 {
		t.Fatalf("growth = %v, want %v (2025 value must not leak)", got.Value, want)
	}
}

func TestDividendScoreMidpoint(t *testing.T) {
	c := NewCalculator(DefaultParams().Score)
	rec := models.IndicatorRecord{
		TotalDependency: models.F(75),   // midpoint of [40,110]
		FertilityRate:   models.F(4.75), // midpoint of [1.5,8]
		GrowthRate:      models.F(2),    // midpoint of [-1,5]
	}
	got := c.dividendScore(rec)
	if !got.Valid {
		t.Fatal("score missing")
	}
	if math.Abs(got.Value-0.5) > 1e-9 {
		t.Fatalf("score = %v, want 0.5", got.Value)
	}
}

func TestDividendScoreClipsAndOrders(t *testing.T) {
	c := NewCalculator(DefaultParams().Score)
	low := c.dividendScore(models.IndicatorRecord{
		TotalDependency: models.F(200), FertilityRate: models.F(9), GrowthRate: models.F(-3),
	})
	high := c.dividendScore(models.IndicatorRecord{
		TotalDependency: models.F(30), FertilityRate: models.F(1), GrowthRate: models.F(6),
	})
	if low.Value != 0 || high.Value != 1 {
		t.Fatalf("clipped scores = %v, %v; want 0 and 1", low.Value, high.Value)
	}
	if missing := c.dividendScore(models.IndicatorRecord{TotalDependency: models.F(70)}); missing.Valid {
		t.Fatal("score must be missing when an input is missing")
	}
}
