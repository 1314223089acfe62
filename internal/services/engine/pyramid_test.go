package engine

import (
	"math"
	"testing"

	"AfriPulse/internal/domain/models"
)

func floatShares(vals []float64) []models.Float {
	out := make([]models.Float, len(vals))
	for i, v := range vals {
		out[i] = models.F(v)
	}
	return out
}

func TestPyramidObservedPassThrough(t *testing.T) {
	s := NewSynthesizer(DefaultParams().Pyramid)
	observed := floatShares(sharesFromPrefix(14, 13, 12))

	dist := s.Pyramid("NGA", 2020, observed, models.F(5.1), models.F(55), models.F(2.5))
	if dist.Synthetic {
		t.Fatal("full observed coverage must not be synthesized")
	}
	if len(dist.Cohorts) != len(models.CohortBands) {
		t.Fatalf("cohorts = %d, want %d", len(dist.Cohorts), len(models.CohortBands))
	}
	sum := 0.0
	for _, c := range dist.Cohorts {
		sum += c.Share
	}
	if math.Abs(sum-1.0) > 1e-6 {
		t.Fatalf("shares sum = %v, want 1.0", sum)
	}
	// Percent input 14 becomes fraction 0.14.
	if math.Abs(dist.Cohorts[0].Share-0.14) > 1e-9 {
		t.Fatalf("first cohort = %v, want 0.14", dist.Cohorts[0].Share)
	}
}

func TestPyramidSynthesizesOnSparseCoverage(t *testing.T) {
	s := NewSynthesizer(DefaultParams().Pyramid)
	observed := make([]models.Float, len(models.CohortBands))
	observed[0] = models.F(15) // a single observed band is not a distribution

	dist := s.Pyramid("TCD", 2020, observed, models.F(6.2), models.F(53), models.F(3.0))
	if !dist.Synthetic {
		t.Fatal("sparse coverage must trigger synthesis")
	}
	sum := 0.0
	for _, c := range dist.Cohorts {
		if c.Share <= 0 {
			t.Fatalf("cohort %s share = %v, want > 0", c.Label, c.Share)
		}
		sum += c.Share
	}
	if math.Abs(sum-1.0) > 1e-6 {
		t.Fatalf("shares sum = %v, want 1.0", sum)
	}
	// High fertility, high mortality: young cohorts dominate old ones.
	if dist.Cohorts[0].Share <= dist.Cohorts[len(dist.Cohorts)-1].Share {
		t.Fatalf("expected youth-heavy pyramid, got base %v vs top %v",
			dist.Cohorts[0].Share, dist.Cohorts[len(dist.Cohorts)-1].Share)
	}
}

func TestPyramidClipsModelInputs(t *testing.T) {
	s := NewSynthesizer(DefaultParams().Pyramid)
	none := make([]models.Float, len(models.CohortBands))

	// Inputs far outside the plausible demographic range get clipped to the
	// bounds rather than producing a degenerate distribution.
	wild := s.Pyramid("X", 2020, none, models.F(25), models.F(200), models.F(40))
	capped := s.Pyramid("X", 2020, none, models.F(8), models.F(85), models.F(5))
	for i := range wild.Cohorts {
		if math.Abs(wild.Cohorts[i].Share-capped.Cohorts[i].Share) > 1e-12 {
			t.Fatalf("cohort %d: clipped input %v != bound input %v",
				i, wild.Cohorts[i].Share, capped.Cohorts[i].Share)
		}
	}
}

func TestPyramidDefaultsForMissingInputs(t *testing.T) {
	s := NewSynthesizer(DefaultParams().Pyramid)
	none := make([]models.Float, len(models.CohortBands))

	dist := s.Pyramid("X", 2020, none, models.MissingFloat, models.MissingFloat, models.MissingFloat)
	if !dist.Synthetic {
		t.Fatal("expected synthesis")
	}
	sum := 0.0
	for _, c := range dist.Cohorts {
		sum += c.Share
	}
	if math.Abs(sum-1.0) > 1e-6 {
		t.Fatalf("shares sum = %v, want 1.0", sum)
	}
}

func TestNearestRegimeSelection(t *testing.T) {
	s := NewSynthesizer(DefaultParams().Pyramid)
	cases := []struct {
		lifeExp, fertility float64
		want               string
	}{
		{52, 6.2, "high-mortality-high-fertility"},
		{64, 4.0, "transitional"},
		{74, 2.3, "late-transition"},
		{81, 1.6, "aged"},
	}
	for _, c := range cases {
		if got := s.nearestRegime(c.lifeExp, c.fertility); got.Name != c.want {
			t.Fatalf("regime(%v, %v) = %s, want %s", c.lifeExp, c.fertility, got.Name, c.want)
		}
	}
}
