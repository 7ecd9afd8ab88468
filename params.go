package granular

import (
	"fmt"
	"math"

	"github.com/ss-g2/granular/discharge"
)

const (
	// DefaultRelocationRetries bounds the search for a free re-injection
	// slot when Params leaves it unset.
	DefaultRelocationRetries = 1000
)

// Params are the scalar parameters of a run. Lengths, stiffnesses and times
// share whatever consistent unit system the caller chooses.
type Params struct {
	// Channel extents: the flow runs along Length, the walls are Width apart.
	Length, Width float64

	NormalK, TangentialK float64
	Gamma                float64 // normal damping, any sign
	Acceleration         float64 // driving acceleration along x, any sign

	IntegrationStep, SnapshotStep, MaxTime float64

	// Cutoff is the cell size floor of the neighbor index. Zero selects
	// twice the largest radius in the system.
	Cutoff float64

	RelocationRetries int
	Reinjection       discharge.Reinjection
	Exhaustion        discharge.Exhaustion

	// Workers > 1 evaluates forces concurrently. Results are identical to
	// the sequential evaluation.
	Workers int

	// RejectOverlaps makes New fail if any two bodies of the initial
	// configuration interpenetrate. Generated configurations never do.
	RejectOverlaps bool

	// CheckFinite fails the run as soon as a position or velocity stops
	// being finite.
	CheckFinite bool

	// Seed drives the re-injection RNG.
	Seed uint64
}

// Validate returns an error describing the first invalid parameter.
func (p *Params) Validate() error {
	positive := []struct {
		name string
		val  float64
	}{
		{"Length", p.Length}, {"Width", p.Width}, {"NormalK", p.NormalK},
		{"IntegrationStep", p.IntegrationStep},
		{"SnapshotStep", p.SnapshotStep}, {"MaxTime", p.MaxTime},
	}
	for _, x := range positive {
		if !(x.val > 0) || math.IsInf(x.val, 0) {
			return fmt.Errorf(
				"%s must be positive and finite, but is %g.", x.name, x.val,
			)
		}
	}

	finite := []struct {
		name string
		val  float64
	}{
		{"TangentialK", p.TangentialK}, {"Gamma", p.Gamma},
		{"Acceleration", p.Acceleration}, {"Cutoff", p.Cutoff},
	}
	for _, x := range finite {
		if math.IsNaN(x.val) || math.IsInf(x.val, 0) {
			return fmt.Errorf("%s must be finite, but is %g.", x.name, x.val)
		}
	}

	if p.TangentialK < 0 {
		return fmt.Errorf(
			"TangentialK must be non-negative, but is %g.", p.TangentialK,
		)
	} else if p.Cutoff < 0 {
		return fmt.Errorf("Cutoff must be non-negative, but is %g.", p.Cutoff)
	} else if p.RelocationRetries < 0 {
		return fmt.Errorf(
			"RelocationRetries must be non-negative, but is %d.",
			p.RelocationRetries,
		)
	} else if p.Workers < 0 {
		return fmt.Errorf("Workers must be non-negative, but is %d.", p.Workers)
	}

	return nil
}

// Steps returns the number of integration steps needed to reach MaxTime.
func (p *Params) Steps() int {
	return int(math.Ceil(p.MaxTime/p.IntegrationStep - 1e-9))
}

// SnapshotEvery returns the number of steps between two snapshots.
func (p *Params) SnapshotEvery() int {
	n := int(math.Round(p.SnapshotStep / p.IntegrationStep))
	if n < 1 {
		return 1
	}
	return n
}
