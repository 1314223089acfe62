package engine

import (
	"sort"

	"AfriPulse/internal/domain/models"
)

// Resolver fills gaps in one indicator's raw series before any derived
// indicator is computed. Resolution order per missing cell:
//
//	(a) same-country temporal interpolation between the two nearest
//	    non-missing years (carry when only one neighbor exists),
//	(b) regional mean of the same indicator/year,
//	(c) continental mean of the same indicator/year,
//	(d) explicit missing marker.
//
// Fallback means are computed over upstream-observed values only, so one
// country's imputation never leaks into another's. Values from different
// indicators are never averaged together.
type Resolver struct{}

func NewResolver() *Resolver { return &Resolver{} }

// Resolve covers the full countries × years key space for one indicator.
// A pure function of its inputs: the raw series is not modified.
func (r *Resolver) Resolve(indicator string, obs []models.RawObservation, countries []string, years []int) (*models.ResolvedSeries, error) {
	if !models.KnownIndicator(indicator) {
		return nil, &UnknownIndicatorError{Code: indicator}
	}

	out := &models.ResolvedSeries{
		Indicator: indicator,
		Cells:     make(map[models.SeriesKey]models.ResolvedValue, len(countries)*len(years)),
	}

	// Observed cells, and the per-country year index for interpolation.
	type point struct {
		year  int
		value float64
	}
	byCountry := make(map[string][]point, len(countries))
	upstreamObserved := make(map[models.SeriesKey]float64)
	for _, o := range obs {
		if o.Indicator != indicator || !o.HasValue {
			continue
		}
		key := models.SeriesKey{Country: o.Country, Year: o.Year}
		out.Cells[key] = models.ResolvedValue{Value: o.Value, Provenance: models.ProvObserved}
		byCountry[o.Country] = append(byCountry[o.Country], point{year: o.Year, value: o.Value})
		if o.IsObserved {
			upstreamObserved[key] = o.Value
		}
	}
	for _, pts := range byCountry {
		sort.Slice(pts, func(i, j int) bool { return pts[i].year < pts[j].year })
	}

	// (a) temporal interpolation within each country.
	for _, country := range countries {
		pts := byCountry[country]
		if len(pts) == 0 {
			continue
		}
		for _, year := range years {
			key := models.SeriesKey{Country: country, Year: year}
			if _, ok := out.Cells[key]; ok {
				continue
			}
			// nearest neighbors below and above
			lo := sort.Search(len(pts), func(i int) bool { return pts[i].year >= year })
			var prev, next *point
			if lo > 0 {
				prev = &pts[lo-1]
			}
			if lo < len(pts) {
				next = &pts[lo]
			}
			switch {
			case prev != nil && next != nil:
				frac := float64(year-prev.year) / float64(next.year-prev.year)
				v := prev.value + frac*(next.value-prev.value)
				out.Cells[key] = models.ResolvedValue{Value: v, Provenance: models.ProvInterpolated}
			case prev != nil:
				out.Cells[key] = models.ResolvedValue{Value: prev.value, Provenance: models.ProvInterpolated}
			case next != nil:
				out.Cells[key] = models.ResolvedValue{Value: next.value, Provenance: models.ProvInterpolated}
			}
		}
	}

	// (b)+(c) regional then continental means per year, observed cells only.
	for _, year := range years {
		regionSum := make(map[string]float64)
		regionN := make(map[string]int)
		var globalSum float64
		var globalN int
		for _, country := range countries {
			if v, ok := upstreamObserved[models.SeriesKey{Country: country, Year: year}]; ok {
				if reg := RegionOf(country); reg != "" {
					regionSum[reg] += v
					regionN[reg]++
				}
				globalSum += v
				globalN++
			}
		}
		for _, country := range countries {
			key := models.SeriesKey{Country: country, Year: year}
			if _, ok := out.Cells[key]; ok {
				continue
			}
			if reg := RegionOf(country); reg != "" && regionN[reg] > 0 {
				out.Cells[key] = models.ResolvedValue{
					Value:      regionSum[reg] / float64(regionN[reg]),
					Provenance: models.ProvRegionalMean,
				}
				continue
			}
			if globalN > 0 {
				out.Cells[key] = models.ResolvedValue{
					Value:      globalSum / float64(globalN),
					Provenance: models.ProvGlobalMean,
				}
				continue
			}
			out.Cells[key] = models.ResolvedValue{Provenance: models.ProvMissing}
		}
	}

	return out, nil
}
