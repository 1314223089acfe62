package models

import "encoding/json"

// Float is a possibly-missing numeric indicator value. It marshals to JSON
// null when missing so downstream rendering never mistakes absence for zero.
type Float struct {
	Value float64
	Valid bool
}

// F wraps a present value.
func F(v float64) Float { return Float{Value: v, Valid: true} }

// MissingFloat is the explicit missing marker.
var MissingFloat = Float{}

func (f Float) MarshalJSON() ([]byte, error) {
	if !f.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(f.Value)
}

func (f *Float) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*f = Float{}
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*f = Float{Value: v, Valid: true}
	return nil
}

// DividendStatus is the demographic-dividend classification of a record.
// Derived from the record, never stored independently of it.
type DividendStatus string

const (
	StatusPreDividend   DividendStatus = "pre-dividend"
	StatusEarlyDividend DividendStatus = "early-dividend"
	StatusLateDividend  DividendStatus = "late-dividend"
	StatusPostDividend  DividendStatus = "post-dividend"
	StatusAging         DividendStatus = "aging"
	StatusMissing       DividendStatus = "missing"
)

// IndicatorRecord holds the derived indicators for one (country, year).
// Any indicator whose required inputs were missing is itself missing.
type IndicatorRecord struct {
	Country string `json:"country"`
	Year    int    `json:"year"`

	MedianAge         Float `json:"median_age"`          // years, [0,100]
	YouthDependency   Float `json:"youth_dependency"`    // per 100 working-age
	ElderlyDependency Float `json:"elderly_dependency"`  // per 100 working-age
	TotalDependency   Float `json:"total_dependency"`    // youth + elderly
	GrowthRate        Float `json:"population_growth"`   // % per year (CAGR)
	FertilityRate     Float `json:"fertility_rate"`      // births per woman
	LifeExpectancy    Float `json:"life_expectancy"`     // years
	PopulationTotal   Float `json:"population_total"`    // persons
	DividendScore     Float `json:"dividend_score"`      // [0,1]

	DividendStatus DividendStatus `json:"dividend_status"`
}
