package simulate

import (
	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"go.viam.com/graphslam/spatialmath"
)

// ErrorSummary aggregates a set of estimation errors.
type ErrorSummary struct {
	Count  int
	Mean   float64
	Median float64
	Max    float64
}

// Summarize reduces errs to its mean, median and maximum. An empty input is an error.
func Summarize(errs []float64) (ErrorSummary, error) {
	if len(errs) == 0 {
		return ErrorSummary{}, errors.New("no errors to summarize")
	}
	mean, err := stats.Mean(errs)
	median, err2 := stats.Median(errs)
	maximum, err3 := stats.Max(errs)
	if err := multierr.Combine(err, err2, err3); err != nil {
		return ErrorSummary{}, err
	}
	return ErrorSummary{Count: len(errs), Mean: mean, Median: median, Max: maximum}, nil
}

// PositionErrors returns the distance between each estimate and its truth. Estimates that are not
// present are skipped.
func PositionErrors(estimates, truth []spatialmath.Pose7, present func(int) bool) []float64 {
	var out []float64
	for i := range truth {
		if i >= len(estimates) || (present != nil && !present(i)) {
			continue
		}
		out = append(out, estimates[i].Point().Sub(truth[i].Point()).Norm())
	}
	return out
}
