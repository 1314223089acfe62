package engine

import "AfriPulse/internal/domain/models"

// AggregateYear computes population-weighted continental summaries for one
// year. Each indicator averages over the countries with a non-missing value
// for it, weights renormalized over that subset only. An empty subset
// yields a missing cell (zero weight), never zero.
func AggregateYear(year int, records []models.IndicatorRecord) models.ContinentalAggregate {
	agg := models.ContinentalAggregate{Year: year}

	var popSum float64
	popSeen := false
	contributing := make(map[string]struct{})

	type accum struct {
		weighted float64
		weight   float64
	}
	var medianAge, totalDep, growth, fertility, lifeExp, score accum

	add := func(a *accum, v models.Float, pop models.Float, country string) {
		if !v.Valid || !pop.Valid || pop.Value <= 0 {
			return
		}
		a.weighted += v.Value * pop.Value
		a.weight += pop.Value
		contributing[country] = struct{}{}
	}

	for _, r := range records {
		if r.Year != year {
			continue
		}
		if r.PopulationTotal.Valid {
			popSum += r.PopulationTotal.Value
			popSeen = true
			contributing[r.Country] = struct{}{}
		}
		add(&medianAge, r.MedianAge, r.PopulationTotal, r.Country)
		add(&totalDep, r.TotalDependency, r.PopulationTotal, r.Country)
		add(&growth, r.GrowthRate, r.PopulationTotal, r.Country)
		add(&fertility, r.FertilityRate, r.PopulationTotal, r.Country)
		add(&lifeExp, r.LifeExpectancy, r.PopulationTotal, r.Country)
		add(&score, r.DividendScore, r.PopulationTotal, r.Country)
	}

	cell := func(a accum) models.AggregateCell {
		if a.weight <= 0 {
			return models.AggregateCell{Value: models.MissingFloat}
		}
		return models.AggregateCell{Value: models.F(a.weighted / a.weight), Weight: a.weight}
	}

	agg.MedianAge = cell(medianAge)
	agg.TotalDependency = cell(totalDep)
	agg.GrowthRate = cell(growth)
	agg.FertilityRate = cell(fertility)
	agg.LifeExpectancy = cell(lifeExp)
	agg.DividendScore = cell(score)
	if popSeen {
		agg.PopulationTotal = models.F(popSum)
	}
	agg.Countries = len(contributing)
	return agg
}
