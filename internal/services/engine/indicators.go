package engine

import (
	"errors"
	"math"
	"sort"

	"AfriPulse/internal/domain/models"
)

// Calculator derives per-(country, year) indicators from resolved series.
// Pure and order-independent across (country, year) pairs, so records may
// be computed in any order or in parallel.
type Calculator struct {
	bounds ScoreBounds
}

func NewCalculator(bounds ScoreBounds) *Calculator {
	return &Calculator{bounds: bounds}
}

// Record computes one IndicatorRecord. Data sparsity propagates as missing
// fields; domain violations surface as InvalidRangeError and are never
// clamped into plausible-looking numbers.
func (c *Calculator) Record(country string, year int, resolved map[string]*models.ResolvedSeries) (models.IndicatorRecord, error) {
	rec := models.IndicatorRecord{
		Country:        country,
		Year:           year,
		DividendStatus: models.StatusMissing,
	}

	shares, sharesOK := cohortShares(country, year, resolved)
	if sharesOK {
		for i, s := range shares {
			if s < 0 || s > 100 {
				return rec, &InvalidRangeError{
					Country: country, Year: year,
					What: "cohort share " + models.CohortBands[i].Label,
					Value: s, Min: 0, Max: 100,
				}
			}
		}
		age, err := medianAge(country, year, shares)
		if err != nil {
			return rec, err
		}
		rec.MedianAge = models.F(age)

		youth, elderly, ok, err := c.dependencyRatios(country, year, shares)
		if err != nil {
			return rec, err
		}
		if ok {
			rec.YouthDependency = models.F(youth)
			rec.ElderlyDependency = models.F(elderly)
			rec.TotalDependency = models.F(youth + elderly)
		}
	}

	if v, ok := resolved[models.IndPopulationTotal].Value(country, year); ok {
		rec.PopulationTotal = models.F(v)
	}
	if v, ok := resolved[models.IndFertilityRate].Value(country, year); ok {
		rec.FertilityRate = models.F(v)
	}
	if v, ok := resolved[models.IndLifeExpectancy].Value(country, year); ok {
		rec.LifeExpectancy = models.F(v)
	}

	gr, err := growthRate(country, year, resolved[models.IndPopulationTotal])
	if err != nil {
		var sparse *InsufficientHistoryError
		if !errors.As(err, &sparse) {
			return rec, err
		}
		// sparsity is recoverable; the field stays missing
	}
	rec.GrowthRate = gr
	rec.DividendScore = c.dividendScore(rec)

	return rec, nil
}

// cohortShares gathers all 17 cohort-band shares; incomplete coverage
// counts as missing for every cohort-derived indicator.
func cohortShares(country string, year int, resolved map[string]*models.ResolvedSeries) ([]float64, bool) {
	shares := make([]float64, len(models.CohortBands))
	for i, band := range models.CohortBands {
		v, ok := resolved[band.Code].Value(country, year)
		if !ok {
			return nil, false
		}
		shares[i] = v
	}
	return shares, true
}

// medianAge interpolates within the 5-year band where the cumulative share
// first reaches 50%, Coale-Demeny style. An exact boundary hit returns the
// boundary age exactly.
func medianAge(country string, year int, shares []float64) (float64, error) {
	total := 0.0
	for _, s := range shares {
		total += s
	}
	if total <= 0 {
		return 0, &InvalidRangeError{
			Country: country, Year: year,
			What: "cohort share total", Value: total, Min: 0, Max: math.Inf(1),
		}
	}

	half := total / 2
	cum := 0.0
	age := 100.0
	for i, s := range shares {
		if cum+s >= half && s > 0 {
			age = models.CohortBands[i].LowerAge + 5*(half-cum)/s
			break
		}
		cum += s
	}
	if age < 0 || age > 100 {
		return 0, &InvalidRangeError{
			Country: country, Year: year,
			What: "median age", Value: age, Min: 0, Max: 100,
		}
	}
	return age, nil
}

// dependencyRatios returns (youth, elderly) per 100 working-age. A zero
// working-age share is data sparsity (ok=false), not a domain violation.
func (c *Calculator) dependencyRatios(country string, year int, shares []float64) (youth, elderly float64, ok bool, err error) {
	var young, working, old float64
	for i, band := range models.CohortBands {
		switch {
		case band.LowerAge < 15:
			young += shares[i]
		case band.LowerAge < 65:
			working += shares[i]
		default:
			old += shares[i]
		}
	}
	if working <= 0 {
		return 0, 0, false, nil
	}
	youth = young / working * 100
	elderly = old / working * 100
	for _, r := range [2]float64{youth, elderly} {
		if r < 0 || r > c.bounds.RatioDomainMax {
			return 0, 0, false, &InvalidRangeError{
				Country: country, Year: year,
				What: "dependency ratio", Value: r, Min: 0, Max: c.bounds.RatioDomainMax,
			}
		}
	}
	return youth, elderly, true, nil
}

// growthRate computes compound annual growth between the two most recent
// non-missing total-population values at or before the record year. Fewer
// than two usable points returns InsufficientHistoryError alongside the
// missing marker; Record absorbs it.
func growthRate(country string, year int, pop *models.ResolvedSeries) (models.Float, error) {
	if pop == nil {
		return models.MissingFloat, &InsufficientHistoryError{
			Country: country, Indicator: models.IndPopulationTotal, Need: 2, Have: 0,
		}
	}
	type point struct {
		year  int
		value float64
	}
	var pts []point
	for key, rv := range pop.Cells {
		if key.Country != country || key.Year > year || rv.Provenance == models.ProvMissing {
			continue
		}
		pts = append(pts, point{year: key.Year, value: rv.Value})
	}
	if len(pts) < 2 {
		return models.MissingFloat, &InsufficientHistoryError{
			Country: country, Indicator: models.IndPopulationTotal, Need: 2, Have: len(pts),
		}
	}
	sort.Slice(pts, func(i, j int) bool { return pts[i].year > pts[j].year })
	latest, prior := pts[0], pts[1]
	if prior.value <= 0 || latest.value <= 0 {
		return models.MissingFloat, nil
	}
	yearsBetween := float64(latest.year - prior.year)
	cagr := (math.Pow(latest.value/prior.value, 1/yearsBetween) - 1) * 100
	return models.F(cagr), nil
}

// dividendScore combines inverse dependency, inverse fertility and growth,
// each min-max normalized over the documented bounds, into a [0,1] scalar.
func (c *Calculator) dividendScore(rec models.IndicatorRecord) models.Float {
	if !rec.TotalDependency.Valid || !rec.FertilityRate.Valid || !rec.GrowthRate.Valid {
		return models.MissingFloat
	}
	b := c.bounds
	dep := 1 - normClip(rec.TotalDependency.Value, b.DependencyMin, b.DependencyMax)
	fert := 1 - normClip(rec.FertilityRate.Value, b.FertilityMin, b.FertilityMax)
	growth := normClip(rec.GrowthRate.Value, b.GrowthMin, b.GrowthMax)
	score := b.DependencyWeight*dep + b.FertilityWeight*fert + b.GrowthWeight*growth
	return models.F(score)
}

func normClip(v, min, max float64) float64 {
	if max <= min {
		return 0
	}
	n := (v - min) / (max - min)
	if n < 0 {
		return 0
	}
	if n > 1 {
		return 1
	}
	return n
}
