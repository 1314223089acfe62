package engine

import (
	"math"
	"testing"

	"AfriPulse/internal/domain/models"
)

func TestAggregateSingleCountryIsIdentity(t *testing.T) {
	rec := models.IndicatorRecord{
		Country: "NGA", Year: 2020,
		MedianAge:       models.F(18.1),
		TotalDependency: models.F(83.5),
		GrowthRate:      models.F(2.6),
		FertilityRate:   models.F(5.2),
		LifeExpectancy:  models.F(54.7),
		DividendScore:   models.F(0.31),
		PopulationTotal: models.F(206_000_000),
	}
	agg := AggregateYear(2020, []models.IndicatorRecord{rec})

	checks := []struct {
		name string
		got  models.AggregateCell
		want float64
	}{
		{"median age", agg.MedianAge, 18.1},
		{"total dependency", agg.TotalDependency, 83.5},
		{"growth", agg.GrowthRate, 2.6},
		{"fertility", agg.FertilityRate, 5.2},
		{"life expectancy", agg.LifeExpectancy, 54.7},
		{"dividend score", agg.DividendScore, 0.31},
	}
	for _, c := range checks {
		if !c.got.Value.Valid || math.Abs(c.got.Value.Value-c.want) > 1e-9 {
			t.Fatalf("%s = %+v, want %v", c.name, c.got, c.want)
		}
		if c.got.Weight != 206_000_000 {
			t.Fatalf("%s weight = %v", c.name, c.got.Weight)
		}
	}
	if !agg.PopulationTotal.Valid || agg.PopulationTotal.Value != 206_000_000 {
		t.Fatalf("population total = %+v", agg.PopulationTotal)
	}
	if agg.Countries != 1 {
		t.Fatalf("countries = %d, want 1", agg.Countries)
	}
}

func TestAggregateRenormalizesOverNonMissing(t *testing.T) {
	recs := []models.IndicatorRecord{
		{Country: "A", Year: 2020, FertilityRate: models.F(4), PopulationTotal: models.F(100)},
		{Country: "B", Year: 2020, FertilityRate: models.F(6), PopulationTotal: models.F(300)},
		// C has population but no fertility value; it must not pull the
		// fertility mean toward zero.
		{Country: "C", Year: 2020, PopulationTotal: models.F(600)},
	}
	agg := AggregateYear(2020, recs)

	want := (4*100 + 6*300) / 400.0
	if math.Abs(agg.FertilityRate.Value.Value-want) > 1e-9 {
		t.Fatalf("fertility = %v, want %v", agg.FertilityRate.Value.Value, want)
	}
	if agg.FertilityRate.Weight != 400 {
		t.Fatalf("fertility weight = %v, want 400", agg.FertilityRate.Weight)
	}
	// Population itself still counts all three.
	if agg.PopulationTotal.Value != 1000 {
		t.Fatalf("population total = %v, want 1000", agg.PopulationTotal.Value)
	}
	if agg.Countries != 3 {
		t.Fatalf("countries = %d, want 3", agg.Countries)
	}
}

func TestAggregateEmptySubsetIsMissingNotZero(t *testing.T) {
	recs := []models.IndicatorRecord{
		{Country: "A", Year: 2020, PopulationTotal: models.F(100)},
		{Country: "B", Year: 2020, MedianAge: models.F(25)}, // no population weight
	}
	agg := AggregateYear(2020, recs)
	if agg.MedianAge.Value.Valid {
		t.Fatalf("median age = %+v, want missing (no weighted contributors)", agg.MedianAge)
	}
	if agg.MedianAge.Weight != 0 {
		t.Fatalf("weight = %v, want 0", agg.MedianAge.Weight)
	}
}

func TestAggregateSkipsOtherYears(t *testing.T) {
	recs := []models.IndicatorRecord{
		{Country: "A", Year: 2019, MedianAge: models.F(40), PopulationTotal: models.F(100)},
		{Country: "A", Year: 2020, MedianAge: models.F(20), PopulationTotal: models.F(100)},
	}
	agg := AggregateYear(2020, recs)
	if agg.MedianAge.Value.Value != 20 {
		t.Fatalf("median age = %v, want 20 (2019 excluded)", agg.MedianAge.Value.Value)
	}
	if agg.Countries != 1 {
		t.Fatalf("countries = %d, want 1", agg.Countries)
	}
}
