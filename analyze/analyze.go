/*package analyze turns the discharge times of finished runs into flow rates
and resistances, and draws the plots used to compare runs.
*/
package analyze

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// ErrTooFewEvents is returned when a fit has fewer than two points.
var ErrTooFewEvents = errors.New("too few discharge events")

// Flow is the result of a linear fit of cumulative discharges against time.
type Flow struct {
	Q         float64 // slope: particles per unit time
	Intercept float64
	Events    int // number of discharges used in the fit
}

// Cumulative returns the step curve of the number of discharges against
// time: counts[i] is the number of discharges at or before ts[i]. times
// does not need to be sorted.
func Cumulative(times []float64) (ts, counts []float64) {
	ts = make([]float64, len(times))
	copy(ts, times)
	sort.Float64s(ts)

	counts = make([]float64, len(ts))
	for i := range counts {
		counts[i] = float64(i + 1)
	}
	return ts, counts
}

// FlowRate fits cumulative discharges against time with least squares,
// ignoring every discharge before steadyStart. The count restarts at one
// for the first discharge that is kept.
func FlowRate(times []float64, steadyStart float64) (Flow, error) {
	steady := make([]float64, 0, len(times))
	for _, t := range times {
		if t >= steadyStart {
			steady = append(steady, t)
		}
	}

	ts, counts := Cumulative(steady)
	if len(ts) < 2 {
		return Flow{Events: len(ts)}, fmt.Errorf(
			"%d discharges after t = %g: %w", len(ts), steadyStart,
			ErrTooFewEvents,
		)
	} else if ts[0] == ts[len(ts)-1] {
		return Flow{Events: len(ts)}, fmt.Errorf(
			"All discharges after t = %g happen at t = %g: %w",
			steadyStart, ts[0], ErrTooFewEvents,
		)
	}

	alpha, beta := stat.LinearRegression(ts, counts, nil, false)
	return Flow{Q: beta, Intercept: alpha, Events: len(ts)}, nil
}

// Resistance is the driving force per particle divided by the flow rate.
func Resistance(mass, accel, q float64) float64 {
	return mass * accel / q
}

// Summarize returns the mean and sample standard deviation of xs. The
// standard deviation of a single value is zero, and an empty xs gives NaNs.
func Summarize(xs []float64) (mean, std float64) {
	switch len(xs) {
	case 0:
		return math.NaN(), math.NaN()
	case 1:
		return xs[0], 0
	}
	return stat.MeanStdDev(xs, nil)
}
