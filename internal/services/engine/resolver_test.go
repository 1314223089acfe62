package engine

import (
	"errors"
	"math"
	"testing"

	"AfriPulse/internal/domain/models"
)

func obs(country string, year int, indicator string, value float64) models.RawObservation {
	return models.RawObservation{
		Country: country, Year: year, Indicator: indicator,
		Value: value, HasValue: true, IsObserved: true,
	}
}

func TestResolveInterpolatesWithinCountry(t *testing.T) {
	r := NewResolver()
	series, err := r.Resolve(models.IndFertilityRate,
		[]models.RawObservation{
			obs("NGA", 2010, models.IndFertilityRate, 10),
			obs("NGA", 2012, models.IndFertilityRate, 20),
		},
		[]string{"NGA"}, []int{2010, 2011, 2012})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	cell := series.Cell("NGA", 2011)
	if cell.Provenance != models.ProvInterpolated {
		t.Fatalf("provenance = %s, want %s", cell.Provenance, models.ProvInterpolated)
	}
	if math.Abs(cell.Value-15) > 1e-9 {
		t.Fatalf("interpolated value = %v, want 15", cell.Value)
	}
	for _, year := range []int{2010, 2012} {
		if c := series.Cell("NGA", year); c.Provenance != models.ProvObserved {
			t.Fatalf("year %d provenance = %s, want observed", year, c.Provenance)
		}
	}
}

func TestResolveCarriesSingleNeighbor(t *testing.T) {
	r := NewResolver()
	series, err := r.Resolve(models.IndLifeExpectancy,
		[]models.RawObservation{obs("KEN", 2015, models.IndLifeExpectancy, 63)},
		[]string{"KEN"}, []int{2014, 2015, 2016})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	for _, year := range []int{2014, 2016} {
		cell := series.Cell("KEN", year)
		if cell.Provenance != models.ProvInterpolated || cell.Value != 63 {
			t.Fatalf("year %d: got %+v, want carried 63", year, cell)
		}
	}
}

func TestResolveRegionalMeanUsesObservedOnly(t *testing.T) {
	r := NewResolver()
	// GHA and SEN are both Western Africa; GHA's value is itself imputed
	// upstream and must not feed SEN's regional mean.
	imputed := obs("GHA", 2020, models.IndFertilityRate, 99)
	imputed.IsObserved = false
	series, err := r.Resolve(models.IndFertilityRate,
		[]models.RawObservation{
			obs("NGA", 2020, models.IndFertilityRate, 5),
			obs("MLI", 2020, models.IndFertilityRate, 7),
			imputed,
		},
		[]string{"NGA", "MLI", "GHA", "SEN"}, []int{2020})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	cell := series.Cell("SEN", 2020)
	if cell.Provenance != models.ProvRegionalMean {
		t.Fatalf("SEN cell = %+v, want regional mean", cell)
	}
	if math.Abs(cell.Value-6) > 1e-9 {
		t.Fatalf("regional mean = %v, want 6", cell.Value)
	}
}

func TestResolveGlobalMeanThenMissing(t *testing.T) {
	r := NewResolver()
	series, err := r.Resolve(models.IndGDPPerCapita,
		[]models.RawObservation{
			obs("EGY", 2020, models.IndGDPPerCapita, 3000),
			obs("ZAF", 2020, models.IndGDPPerCapita, 6000),
		},
		[]string{"EGY", "ZAF", "TCD"}, []int{2020, 2021})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	// TCD 2020: no Middle Africa observations, falls to the continental mean.
	cell := series.Cell("TCD", 2020)
	if cell.Provenance != models.ProvGlobalMean {
		t.Fatalf("TCD 2020 = %+v, want global mean", cell)
	}
	if math.Abs(cell.Value-4500) > 1e-9 {
		t.Fatalf("global mean = %v, want 4500", cell.Value)
	}

	// TCD 2021: nothing observed anywhere that year and no country history.
	if cell := series.Cell("TCD", 2021); cell.Provenance != models.ProvMissing {
		t.Fatalf("TCD 2021 = %+v, want missing", cell)
	}
	if _, has := series.Value("TCD", 2021); has {
		t.Fatal("missing cell must not report a value")
	}
}

func TestResolveRejectsUnknownIndicator(t *testing.T) {
	r := NewResolver()
	_, err := r.Resolve("gdp_total", nil, []string{"NGA"}, []int{2020})
	var unknown *UnknownIndicatorError
	if !errors.As(err, &unknown) {
		t.Fatalf("err = %v, want UnknownIndicatorError", err)
	}
	if unknown.Code != "gdp_total" {
		t.Fatalf("unknown code = %q", unknown.Code)
	}
}

func TestResolveDoesNotMixIndicators(t *testing.T) {
	r := NewResolver()
	series, err := r.Resolve(models.IndFertilityRate,
		[]models.RawObservation{
			obs("NGA", 2020, models.IndLifeExpectancy, 55),
		},
		[]string{"NGA"}, []int{2020})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cell := series.Cell("NGA", 2020); cell.Provenance != models.ProvMissing {
		t.Fatalf("cell = %+v, want missing (foreign indicator ignored)", cell)
	}
}
