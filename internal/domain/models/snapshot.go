package models

import "time"

// Snapshot is the immutable result of one refresh cycle: the four read-only
// result sets of the engine plus the resolved series they were derived from.
// Handlers serve from the latest snapshot; a new cycle replaces it wholesale.
type Snapshot struct {
	GeneratedAt time.Time `json:"generated_at"`
	FromYear    int       `json:"from_year"`
	ToYear      int       `json:"to_year"`

	Resolved   map[string]*ResolvedSeries `json:"resolved,omitempty"`
	Records    []IndicatorRecord          `json:"records"`
	Aggregates []ContinentalAggregate     `json:"aggregates"`
	Pyramids   []AgePyramidDistribution   `json:"pyramids"`
	Clusters   *ClusterResult             `json:"clusters,omitempty"`
}

// Record returns the record for (country, year), if present.
func (s *Snapshot) Record(country string, year int) (IndicatorRecord, bool) {
	for _, r := range s.Records {
		if r.Country == country && r.Year == year {
			return r, true
		}
	}
	return IndicatorRecord{}, false
}

// BestRecord returns the most recent record for country within
// [year-maxYearsBack, year] that has a non-missing median age or dependency
// ratio, mirroring best-available-year lookups in the reporting layer.
func (s *Snapshot) BestRecord(country string, year, maxYearsBack int) (IndicatorRecord, bool) {
	for off := 0; off <= maxYearsBack; off++ {
		if r, ok := s.Record(country, year-off); ok {
			if r.MedianAge.Valid || r.TotalDependency.Valid || r.PopulationTotal.Valid {
				return r, true
			}
		}
	}
	return IndicatorRecord{}, false
}
