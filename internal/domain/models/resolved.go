package models

import (
	"encoding/json"
	"sort"
)

// Provenance tags how a resolved cell obtained its value.
type Provenance string

const (
	ProvObserved     Provenance = "observed"
	ProvInterpolated Provenance = "country-interpolated"
	ProvRegionalMean Provenance = "regional-mean"
	ProvGlobalMean   Provenance = "global-mean"
	ProvMissing      Provenance = "missing"
)

// SeriesKey addresses one cell of a resolved series.
type SeriesKey struct {
	Country string `json:"country"`
	Year    int    `json:"year"`
}

// ResolvedValue is a numeric value plus its provenance. When Provenance is
// ProvMissing the numeric payload is undefined and must not be used.
type ResolvedValue struct {
	Value      float64    `json:"value"`
	Provenance Provenance `json:"provenance"`
}

// ResolvedSeries maps every requested (country, year) key of one indicator
// to exactly one resolved value. Value objects only; never mutated after
// the resolver returns it.
type ResolvedSeries struct {
	Indicator string                      `json:"indicator"`
	Cells     map[SeriesKey]ResolvedValue `json:"-"`
}

// resolvedCell is the wire form of one cell; map keys with struct type do
// not survive JSON, so the series serializes as a flat cell list.
type resolvedCell struct {
	Country    string     `json:"country"`
	Year       int        `json:"year"`
	Value      float64    `json:"value"`
	Provenance Provenance `json:"provenance"`
}

type resolvedSeriesJSON struct {
	Indicator string         `json:"indicator"`
	Cells     []resolvedCell `json:"cells"`
}

func (s *ResolvedSeries) MarshalJSON() ([]byte, error) {
	out := resolvedSeriesJSON{
		Indicator: s.Indicator,
		Cells:     make([]resolvedCell, 0, len(s.Cells)),
	}
	for key, rv := range s.Cells {
		out.Cells = append(out.Cells, resolvedCell{
			Country:    key.Country,
			Year:       key.Year,
			Value:      rv.Value,
			Provenance: rv.Provenance,
		})
	}
	sort.Slice(out.Cells, func(i, j int) bool {
		if out.Cells[i].Country != out.Cells[j].Country {
			return out.Cells[i].Country < out.Cells[j].Country
		}
		return out.Cells[i].Year < out.Cells[j].Year
	})
	return json.Marshal(out)
}

func (s *ResolvedSeries) UnmarshalJSON(data []byte) error {
	var in resolvedSeriesJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	s.Indicator = in.Indicator
	s.Cells = make(map[SeriesKey]ResolvedValue, len(in.Cells))
	for _, c := range in.Cells {
		s.Cells[SeriesKey{Country: c.Country, Year: c.Year}] = ResolvedValue{
			Value:      c.Value,
			Provenance: c.Provenance,
		}
	}
	return nil
}

// Value returns the cell value and whether it is non-missing.
func (s *ResolvedSeries) Value(country string, year int) (float64, bool) {
	if s == nil {
		return 0, false
	}
	rv, ok := s.Cells[SeriesKey{Country: country, Year: year}]
	if !ok || rv.Provenance == ProvMissing {
		return 0, false
	}
	return rv.Value, true
}

// Cell returns the full resolved cell; missing keys come back as ProvMissing.
func (s *ResolvedSeries) Cell(country string, year int) ResolvedValue {
	if s == nil {
		return ResolvedValue{Provenance: ProvMissing}
	}
	if rv, ok := s.Cells[SeriesKey{Country: country, Year: year}]; ok {
		return rv
	}
	return ResolvedValue{Provenance: ProvMissing}
}
