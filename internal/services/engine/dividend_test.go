package engine

import (
	"testing"

	"AfriPulse/internal/domain/models"
)

func depRecord(dep, youth, elderly float64, score float64) models.IndicatorRecord {
	return models.IndicatorRecord{
		TotalDependency:   models.F(dep),
		YouthDependency:   models.F(youth),
		ElderlyDependency: models.F(elderly),
		DividendScore:     models.F(score),
	}
}

func history(years []int, vals []float64) []YearValue {
	out := make([]YearValue, len(years))
	for i := range years {
		out[i] = YearValue{Year: years[i], Value: vals[i]}
	}
	return out
}

func TestClassifyRisingHighDependencyStaysPre(t *testing.T) {
	c := NewClassifier(DefaultParams().Dividend)
	// Dependency marching upward (90, 95, 100 -> 105) must never read as
	// late or post dividend, whatever the score says.
	rec := depRecord(105, 95, 10, 0.9)
	got := c.Classify(rec, history([]int{2017, 2018, 2019}, []float64{90, 95, 100}))
	if got == models.StatusLateDividend || got == models.StatusPostDividend {
		t.Fatalf("status = %s; rising dependency can never be late/post", got)
	}
	if got != models.StatusPreDividend {
		t.Fatalf("status = %s, want %s", got, models.StatusPreDividend)
	}
}

func TestClassifyMonotonicRiseNeverPost(t *testing.T) {
	c := NewClassifier(DefaultParams().Dividend)
	// Elderly-dominant with youth above the aging cutoff, but dependency has
	// only ever climbed (90, 95, 100 -> 105). Without an interior minimum
	// there is no rebound, so the post-dividend row must not fire.
	rec := depRecord(105, 50, 55, 0.2)
	got := c.Classify(rec, history([]int{2017, 2018, 2019}, []float64{90, 95, 100}))
	if got == models.StatusPostDividend || got == models.StatusLateDividend {
		t.Fatalf("status = %s; strictly rising dependency can never be late/post", got)
	}
	if got != models.StatusPreDividend {
		t.Fatalf("status = %s, want %s", got, models.StatusPreDividend)
	}
}

func TestClassifyHighRisingDependencyBeatsScore(t *testing.T) {
	c := NewClassifier(DefaultParams().Dividend)
	// Dependency at the high floor and rising; near the historical minimum
	// with a high score, which would otherwise read late-dividend. The
	// high-and-rising row takes precedence.
	rec := depRecord(80, 62, 15, 0.9)
	got := c.Classify(rec, history([]int{2018, 2019}, []float64{100, 78}))
	if got != models.StatusPreDividend {
		t.Fatalf("status = %s, want %s for high and rising dependency", got, models.StatusPreDividend)
	}
}

func TestClassifyInsufficientHistoryIsMissing(t *testing.T) {
	c := NewClassifier(DefaultParams().Dividend)
	rec := depRecord(70, 55, 15, 0.6)
	if got := c.Classify(rec, history([]int{2019}, []float64{72})); got != models.StatusMissing {
		t.Fatalf("status = %s, want missing with one prior year", got)
	}
	if got := c.Classify(rec, nil); got != models.StatusMissing {
		t.Fatalf("status = %s, want missing with no history", got)
	}
}

func TestClassifyMissingDependencyIsMissing(t *testing.T) {
	c := NewClassifier(DefaultParams().Dividend)
	rec := models.IndicatorRecord{DividendScore: models.F(0.8)}
	if got := c.Classify(rec, history([]int{2018, 2019}, []float64{80, 78})); got != models.StatusMissing {
		t.Fatalf("status = %s, want missing", got)
	}
}

func TestClassifyEarlyDividend(t *testing.T) {
	c := NewClassifier(DefaultParams().Dividend)
	// Falling dependency, decent score, still well above the historical
	// window floor: the demographic window is opening.
	rec := depRecord(78, 65, 13, 0.5)
	got := c.Classify(rec, history([]int{2017, 2018, 2019}, []float64{88, 84, 81}))
	if got != models.StatusEarlyDividend {
		t.Fatalf("status = %s, want %s", got, models.StatusEarlyDividend)
	}
}

func TestClassifyLateDividendNearMinimum(t *testing.T) {
	c := NewClassifier(DefaultParams().Dividend)
	// Sitting on the historical dependency minimum with a high score.
	rec := depRecord(52, 38, 14, 0.7)
	got := c.Classify(rec, history([]int{2017, 2018, 2019}, []float64{60, 56, 53}))
	if got != models.StatusLateDividend {
		t.Fatalf("status = %s, want %s", got, models.StatusLateDividend)
	}
}

func TestClassifyPostDividendRebound(t *testing.T) {
	c := NewClassifier(DefaultParams().Dividend)
	// Elderly dominant and dependency rebounding well off its minimum,
	// with the youth ratio still above the aging cutoff.
	rec := depRecord(96, 46, 50, 0.55)
	got := c.Classify(rec, history([]int{2016, 2017, 2018, 2019}, []float64{100, 92, 85, 90}))
	if got != models.StatusPostDividend {
		t.Fatalf("status = %s, want %s", got, models.StatusPostDividend)
	}
}

func TestClassifyAging(t *testing.T) {
	c := NewClassifier(DefaultParams().Dividend)
	// Elderly dominant, dependency rising, youth ratio low.
	rec := depRecord(68, 26, 42, 0.4)
	got := c.Classify(rec, history([]int{2017, 2018, 2019}, []float64{58, 60, 64}))
	if got != models.StatusAging {
		t.Fatalf("status = %s, want %s", got, models.StatusAging)
	}
}
