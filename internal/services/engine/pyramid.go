package engine

import (
	"math"

	"AfriPulse/internal/domain/models"
)

// Synthesizer produces a full cohort distribution when observed cohort
// coverage is absent or too sparse. The model is a survivorship curve
// parameterized by fertility, life expectancy and growth, with the old-age
// taper taken from the nearest reference mortality/fertility regime.
// Observed cohort data is never overwritten; synthesis only fills the gap.
type Synthesizer struct {
	p PyramidParams
}

func NewSynthesizer(p PyramidParams) *Synthesizer {
	return &Synthesizer{p: p}
}

// Pyramid returns the (country, year) distribution. observed carries the
// country's directly observed cohort shares in band order (percent, missing
// where the band was imputed or absent); tfr, lifeExp and growth feed the
// model when synthesis is needed. Output shares are fractions summing to
// 1.0 ± 1e-6.
func (s *Synthesizer) Pyramid(country string, year int, observed []models.Float, tfr, lifeExp, growth models.Float) models.AgePyramidDistribution {
	n := len(models.CohortBands)
	covered := 0
	for _, o := range observed {
		if o.Valid {
			covered++
		}
	}

	if len(observed) == n && covered >= s.p.MinObservedCohorts {
		shares := make([]float64, n)
		for i, o := range observed {
			shares[i] = o.Value
		}
		return models.AgePyramidDistribution{
			Country:   country,
			Year:      year,
			Cohorts:   toCohorts(normalize(shares)),
			Synthetic: false,
		}
	}

	return models.AgePyramidDistribution{
		Country:   country,
		Year:      year,
		Cohorts:   toCohorts(s.synthesize(tfr, lifeExp, growth)),
		Synthetic: true,
	}
}

func (s *Synthesizer) synthesize(tfr, lifeExp, growth models.Float) []float64 {
	p := s.p
	f := clip(valueOr(tfr, 4.0), p.FertilityMin, p.FertilityMax)
	le := clip(valueOr(lifeExp, 60), p.LifeExpMin, p.LifeExpMax)
	g := clip(valueOr(growth, 2.5), p.GrowthMin, p.GrowthMax)
	regime := s.nearestRegime(le, f)

	n := len(models.CohortBands)
	survival := make([]float64, n)
	for i := 0; i < n; i++ {
		var v float64
		switch {
		case i < 3:
			v = 0.95 + (le-50)*0.001
		case i < 13:
			v = 0.98 - float64(i-3)*0.005
		default:
			v = math.Max(0.3, 0.85-float64(i-13)*0.1-(85-le)*0.01)
		}
		survival[i] = clip(v, 0.1, 0.99)
	}

	dist := make([]float64, n)
	base := 100000 * (f / 5.0) * 0.048
	for i := 0; i < n; i++ {
		var pop float64
		if i == 0 {
			pop = base * survival[i]
		} else {
			pop = dist[i-1] * survival[i] * math.Pow(1+g/100, -float64(i*5))
			if i >= 15 {
				pop *= regime.OldAgeTaper
			}
		}
		dist[i] = math.Max(100, pop)
	}
	return normalize(dist)
}

// nearestRegime matches on life expectancy and fertility, each scaled by
// its configured domain so neither axis dominates.
func (s *Synthesizer) nearestRegime(lifeExp, fertility float64) Regime {
	p := s.p
	leSpan := p.LifeExpMax - p.LifeExpMin
	fSpan := p.FertilityMax - p.FertilityMin
	best := p.Regimes[0]
	bestDist := math.Inf(1)
	for _, r := range p.Regimes {
		dl := (lifeExp - r.LifeExpectancy) / leSpan
		df := (fertility - r.Fertility) / fSpan
		d := dl*dl + df*df
		if d < bestDist {
			best = r
			bestDist = d
		}
	}
	return best
}

func normalize(xs []float64) []float64 {
	total := 0.0
	for _, x := range xs {
		total += x
	}
	out := make([]float64, len(xs))
	if total <= 0 {
		return out
	}
	for i, x := range xs {
		out[i] = x / total
	}
	return out
}

func toCohorts(shares []float64) []models.CohortShare {
	out := make([]models.CohortShare, len(shares))
	for i, s := range shares {
		out[i] = models.CohortShare{Label: models.CohortBands[i].Label, Share: s}
	}
	return out
}

func valueOr(f models.Float, def float64) float64 {
	if f.Valid {
		return f.Value
	}
	return def
}

func clip(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
