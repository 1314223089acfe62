package models

// AggregateCell is one population-weighted mean plus the total weight that
// produced it. Weight is zero exactly when the cell is missing.
type AggregateCell struct {
	Value  Float   `json:"value"`
	Weight float64 `json:"weight"`
}

// ContinentalAggregate holds the weighted per-indicator summaries for one
// year across all countries with non-missing values. Weights are
// renormalized over the reporting subset, never over all countries.
type ContinentalAggregate struct {
	Year int `json:"year"`

	MedianAge       AggregateCell `json:"median_age"`
	TotalDependency AggregateCell `json:"total_dependency"`
	GrowthRate      AggregateCell `json:"population_growth"`
	FertilityRate   AggregateCell `json:"fertility_rate"`
	LifeExpectancy  AggregateCell `json:"life_expectancy"`
	DividendScore   AggregateCell `json:"dividend_score"`

	// PopulationTotal is the plain sum over countries reporting population.
	PopulationTotal Float `json:"population_total"`
	// Countries is the number of countries contributing at least one cell.
	Countries int `json:"countries"`
}
