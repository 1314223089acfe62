package models

// RawObservation is one upstream data point keyed by (country, year, indicator).
// HasValue=false marks an explicitly absent value; IsObserved=false marks a
// value the upstream source already imputed. Immutable once fetched.
type RawObservation struct {
	Country    string // ISO3
	Year       int
	Indicator  string
	Value      float64
	HasValue   bool
	IsObserved bool
}

// Indicator codes with stable, documented units.
const (
	IndPopulationTotal = "population_total" // absolute persons
	IndFertilityRate   = "fertility_rate"   // births per woman
	IndLifeExpectancy  = "life_expectancy"  // years at birth
	IndGDPPerCapita    = "gdp_per_capita"   // current US$
)

// CohortBand describes one 5-year age band of the pyramid.
// Cohort-share indicators are percentages of total population (0-100).
type CohortBand struct {
	Code     string
	Label    string
	LowerAge float64
}

// CohortBands lists the 17 bands in ascending age order. The last band is
// open-ended (80+); median-age interpolation treats it as 5 years wide.
var CohortBands = []CohortBand{
	{"pop_share_00_04", "0-4", 0},
	{"pop_share_05_09", "5-9", 5},
	{"pop_share_10_14", "10-14", 10},
	{"pop_share_15_19", "15-19", 15},
	{"pop_share_20_24", "20-24", 20},
	{"pop_share_25_29", "25-29", 25},
	{"pop_share_30_34", "30-34", 30},
	{"pop_share_35_39", "35-39", 35},
	{"pop_share_40_44", "40-44", 40},
	{"pop_share_45_49", "45-49", 45},
	{"pop_share_50_54", "50-54", 50},
	{"pop_share_55_59", "55-59", 55},
	{"pop_share_60_64", "60-64", 60},
	{"pop_share_65_69", "65-69", 65},
	{"pop_share_70_74", "70-74", 70},
	{"pop_share_75_79", "75-79", 75},
	{"pop_share_80_plus", "80+", 80},
}

var knownIndicators = buildIndicatorSet()

func buildIndicatorSet() map[string]struct{} {
	set := map[string]struct{}{
		IndPopulationTotal: {},
		IndFertilityRate:   {},
		IndLifeExpectancy:  {},
		IndGDPPerCapita:    {},
	}
	for _, b := range CohortBands {
		set[b.Code] = struct{}{}
	}
	return set
}

// KnownIndicator reports whether code is part of the indicator contract.
func KnownIndicator(code string) bool {
	_, ok := knownIndicators[code]
	return ok
}

// BaseIndicatorCodes returns the non-cohort indicator codes.
func BaseIndicatorCodes() []string {
	return []string{
		IndPopulationTotal,
		IndFertilityRate,
		IndLifeExpectancy,
		IndGDPPerCapita,
	}
}

// CohortIndicatorCodes returns the cohort-share codes in band order.
func CohortIndicatorCodes() []string {
	codes := make([]string, len(CohortBands))
	for i, b := range CohortBands {
		codes[i] = b.Code
	}
	return codes
}
