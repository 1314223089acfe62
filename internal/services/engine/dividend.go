package engine

import "AfriPulse/internal/domain/models"

// YearValue is one year of total-dependency history for a country.
type YearValue struct {
	Year  int
	Value float64
}

// Classifier maps a record plus its dependency-ratio history to a dividend
// status through a fixed decision table. Classification is recomputed per
// record; there is no state machine and no transitions.
type Classifier struct {
	th DividendThresholds
}

func NewClassifier(th DividendThresholds) *Classifier {
	return &Classifier{th: th}
}

// Classify evaluates the decision table. history holds the country's
// non-missing total-dependency values for years strictly before the record
// year, ascending. Fewer than MinTrendYears prior years yields missing
// rather than a guessed label.
func (c *Classifier) Classify(rec models.IndicatorRecord, history []YearValue) models.DividendStatus {
	if !rec.TotalDependency.Valid || len(history) < c.th.MinTrendYears {
		return models.StatusMissing
	}

	current := rec.TotalDependency.Value
	lastPrior := history[len(history)-1].Value
	rising := current > lastPrior
	falling := current < lastPrior

	priorMin := history[0].Value
	for _, h := range history[1:] {
		if h.Value < priorMin {
			priorMin = h.Value
		}
	}
	histMin := priorMin
	if current < histMin {
		histMin = current
	}
	nearMin := current <= histMin*(1+c.th.NearMinTolerance)
	// A rebound needs an interior minimum: the series must have fallen below
	// its starting point before turning back up. Rising away from the first
	// observed value is a climb, not a rebound.
	fellFirst := priorMin < history[0].Value
	reboundedFromMin := rising && fellFirst && current > histMin*(1+c.th.NearMinTolerance)

	elderlyDominant := rec.ElderlyDependency.Valid && rec.YouthDependency.Valid &&
		rec.ElderlyDependency.Value > rec.YouthDependency.Value
	youthLow := rec.YouthDependency.Valid && rec.YouthDependency.Value <= c.th.YouthLowMax
	score := 0.0
	if rec.DividendScore.Valid {
		score = rec.DividendScore.Value
	}

	switch {
	case elderlyDominant && rising && youthLow:
		return models.StatusAging
	case elderlyDominant && reboundedFromMin:
		return models.StatusPostDividend
	case rising && current >= c.th.HighDependency:
		// High and still rising: the canonical pre-dividend profile. Sits
		// ahead of the score rows so a generous score never promotes it.
		return models.StatusPreDividend
	case nearMin && score >= c.th.LateScoreMin:
		return models.StatusLateDividend
	case falling && score >= c.th.EarlyScoreMin:
		return models.StatusEarlyDividend
	default:
		// Anything that matched no other row is still on the pre side of
		// the window.
		return models.StatusPreDividend
	}
}
