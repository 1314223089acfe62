package engine

// Threshold tables are explicit configuration passed into the classifier
// and synthesizer so they stay auditable against their literature sources.
// Defaults derive from the clips used by the source dashboard and World
// Bank demographic-dividend typology practice; see config/config.yaml.

// ScoreBounds are the documented min-max normalization bounds and weights
// for the dividend score. Components are clipped to their bounds before
// normalizing; weights must sum to 1.
type ScoreBounds struct {
	DependencyMin float64 `yaml:"dependency_min"`
	DependencyMax float64 `yaml:"dependency_max"`
	FertilityMin  float64 `yaml:"fertility_min"`
	FertilityMax  float64 `yaml:"fertility_max"`
	GrowthMin     float64 `yaml:"growth_min"`
	GrowthMax     float64 `yaml:"growth_max"`

	DependencyWeight float64 `yaml:"dependency_weight"`
	FertilityWeight  float64 `yaml:"fertility_weight"`
	GrowthWeight     float64 `yaml:"growth_weight"`

	// RatioDomainMax bounds the valid domain of dependency ratios; a
	// computed ratio above it raises InvalidRangeError.
	RatioDomainMax float64 `yaml:"ratio_domain_max"`
}

// DividendThresholds are the decision-table cut points.
type DividendThresholds struct {
	HighDependency   float64 `yaml:"high_dependency"`    // pre-dividend floor
	NearMinTolerance float64 `yaml:"near_min_tolerance"` // fraction above historical min
	EarlyScoreMin    float64 `yaml:"early_score_min"`
	LateScoreMin     float64 `yaml:"late_score_min"`
	YouthLowMax      float64 `yaml:"youth_low_max"` // youth ratio considered "low"
	MinTrendYears    int     `yaml:"min_trend_years"`
}

// Regime is one reference mortality/fertility pattern for pyramid
// synthesis; the nearest regime (by life expectancy and fertility) selects
// the old-age taper applied to the 75+ cohorts.
type Regime struct {
	Name           string  `yaml:"name"`
	LifeExpectancy float64 `yaml:"life_expectancy"`
	Fertility      float64 `yaml:"fertility"`
	OldAgeTaper    float64 `yaml:"old_age_taper"`
}

// PyramidParams bound the synthesis model inputs and carry the regime table.
type PyramidParams struct {
	FertilityMin  float64  `yaml:"fertility_min"`
	FertilityMax  float64  `yaml:"fertility_max"`
	LifeExpMin    float64  `yaml:"life_exp_min"`
	LifeExpMax    float64  `yaml:"life_exp_max"`
	GrowthMin     float64  `yaml:"growth_min"`
	GrowthMax     float64  `yaml:"growth_max"`
	Regimes       []Regime `yaml:"regimes"`
	// MinObservedCohorts is the smallest number of observed cohort bands
	// accepted as a genuine distribution; below it the model fills in.
	MinObservedCohorts int `yaml:"min_observed_cohorts"`
}

// Feature names accepted by ClusterPolicy.Features.
const (
	FeatureMedianAge       = "median_age"
	FeatureFertilityRate   = "fertility_rate"
	FeatureGrowthRate      = "population_growth"
	FeatureTotalDependency = "total_dependency"
)

// ClusterPolicy fixes the k search range, iteration budget and the
// deterministic seed. The seed is explicit because run-to-run
// reproducibility is a contract, not an accident.
type ClusterPolicy struct {
	KMin     int      `yaml:"k_min"`
	KMax     int      `yaml:"k_max"`
	MaxIter  int      `yaml:"max_iter"`
	Seed     int64    `yaml:"seed"`
	Features []string `yaml:"features"`
}

// Params bundles all engine configuration.
type Params struct {
	Score     ScoreBounds        `yaml:"score"`
	Dividend  DividendThresholds `yaml:"dividend"`
	Pyramid   PyramidParams      `yaml:"pyramid"`
	Cluster   ClusterPolicy      `yaml:"clustering"`
}

// DefaultParams returns the documented defaults.
func DefaultParams() Params {
	return Params{
		Score: ScoreBounds{
			DependencyMin: 40, DependencyMax: 110,
			FertilityMin: 1.5, FertilityMax: 8.0,
			GrowthMin: -1.0, GrowthMax: 5.0,
			DependencyWeight: 0.5, FertilityWeight: 0.3, GrowthWeight: 0.2,
			RatioDomainMax: 300,
		},
		Dividend: DividendThresholds{
			HighDependency:   80,
			NearMinTolerance: 0.05,
			EarlyScoreMin:    0.45,
			LateScoreMin:     0.60,
			YouthLowMax:      45,
			MinTrendYears:    2,
		},
		Pyramid: PyramidParams{
			FertilityMin: 1.5, FertilityMax: 8.0,
			LifeExpMin: 40, LifeExpMax: 85,
			GrowthMin: -1.0, GrowthMax: 5.0,
			Regimes: []Regime{
				{Name: "high-mortality-high-fertility", LifeExpectancy: 52, Fertility: 6.2, OldAgeTaper: 0.45},
				{Name: "transitional", LifeExpectancy: 64, Fertility: 4.0, OldAgeTaper: 0.60},
				{Name: "late-transition", LifeExpectancy: 73, Fertility: 2.4, OldAgeTaper: 0.75},
				{Name: "aged", LifeExpectancy: 80, Fertility: 1.7, OldAgeTaper: 0.90},
			},
			MinObservedCohorts: 17,
		},
		Cluster: ClusterPolicy{
			KMin:    2,
			KMax:    6,
			MaxIter: 100,
			Seed:    42,
			Features: []string{
				FeatureMedianAge, FeatureFertilityRate,
				FeatureGrowthRate, FeatureTotalDependency,
			},
		},
	}
}
