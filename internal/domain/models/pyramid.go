package models

// CohortShare is one (label, share) pair of an age pyramid. Shares are
// fractions of total population; a full distribution sums to 1.0 ± 1e-6.
type CohortShare struct {
	Label string  `json:"label"`
	Share float64 `json:"share"`
}

// AgePyramidDistribution is the full cohort distribution for one
// (country, year), tagged synthetic when model-generated. Observed cohort
// data is never overwritten; synthesis only fills the gap.
type AgePyramidDistribution struct {
	Country   string        `json:"country"`
	Year      int           `json:"year"`
	Cohorts   []CohortShare `json:"cohorts"`
	Synthetic bool          `json:"synthetic"`
}
