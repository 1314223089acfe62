package engine

import "fmt"

// UnknownIndicatorError: the indicator code itself is invalid, not just its
// data. Fatal for that indicator's computation path.
type UnknownIndicatorError struct {
	Code string
}

func (e *UnknownIndicatorError) Error() string {
	return fmt.Sprintf("unknown indicator code %q", e.Code)
}

// InsufficientHistoryError: not enough resolved history to derive a value.
// Recoverable; callers absorb it into an explicit missing marker.
type InsufficientHistoryError struct {
	Country   string
	Indicator string
	Need      int
	Have      int
}

func (e *InsufficientHistoryError) Error() string {
	return fmt.Sprintf("insufficient history for %s/%s: need %d, have %d",
		e.Country, e.Indicator, e.Need, e.Have)
}

// InvalidRangeError: a computed value fell outside its defined domain. This
// indicates a formula or input-unit bug and is never clamped or absorbed.
type InvalidRangeError struct {
	Country string
	Year    int
	What    string
	Value   float64
	Min     float64
	Max     float64
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("%s out of range for %s/%d: %g not in [%g, %g]",
		e.What, e.Country, e.Year, e.Value, e.Min, e.Max)
}

// NonConvergenceError: no candidate k stabilized within the iteration
// budget. Individual non-converging candidates are skipped; this error is
// returned only when the whole silhouette search comes up empty.
type NonConvergenceError struct {
	KMin, KMax int
	MaxIter    int
}

func (e *NonConvergenceError) Error() string {
	return fmt.Sprintf("k-means failed to converge for every k in [%d, %d] within %d iterations",
		e.KMin, e.KMax, e.MaxIter)
}
