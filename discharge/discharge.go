/*package discharge detects particles leaving the channel through its
downstream end, timestamps them, and re-injects them upstream without
creating new overlaps.
*/
package discharge

import (
	"errors"
	"fmt"
	"log"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/ss-g2/granular/particle"
)

// ErrRelocationExhausted is returned under the Abort policy when no
// collision-free re-injection slot is found within the retry budget.
var ErrRelocationExhausted = errors.New("relocation retries exhausted")

// perturbations is the number of failed y draws after which the candidate
// slot is moved one radius further upstream.
const perturbations = 16

// Reinjection decides what happens to the velocity of a relocated particle.
type Reinjection int

const (
	// Keep carries the outgoing momentum over.
	Keep Reinjection = iota
	// Reset puts the particle back at rest.
	Reset
)

// Exhaustion decides what happens when relocation runs out of retries.
type Exhaustion int

const (
	// Warn accepts the last candidate, overlaps and all, and logs it.
	Warn Exhaustion = iota
	// Abort fails the run.
	Abort
)

// State is where a particle stands with respect to the upstream edge.
type State int

const (
	// Flowing particles that drift past x = 0 are wrapped around.
	Flowing State = iota
	// Entering particles were just re-injected at x < 0 and are left alone
	// until they cross into the channel.
	Entering
)

// Config describes the channel and the re-injection policy.
type Config struct {
	Length, Width float64
	MaxRetries    int
	Reinjection   Reinjection
	Exhaustion    Exhaustion
}

// Result describes the transitions made by one call to Apply.
type Result struct {
	Times     []float64 // one discharge time per exit, in index order
	Relocated []int     // indices of the relocated particles
	Wrapped   int       // particles wrapped past the upstream edge
	Residual  int       // relocations accepted with an overlap
}

// Policy holds the per-particle state machine.
type Policy struct {
	Config
	states []State
	gen    *rand.Rand
}

// NewPolicy returns a Policy for n particles, all of them Flowing.
func NewPolicy(n int, c Config, gen *rand.Rand) *Policy {
	if c.MaxRetries < 1 {
		c.MaxRetries = 1
	}
	return &Policy{Config: c, states: make([]State, n), gen: gen}
}

// State returns the state of particle i.
func (pol *Policy) State(i int) State { return pol.states[i] }

// Apply checks every mobile particle against the channel ends at time t,
// in index order.
func (pol *Policy) Apply(
	t float64, mobile, obstacles []particle.Particle,
) (Result, error) {
	res := Result{}
	for i := range mobile {
		p := &mobile[i]
		x := p.X.X

		switch {
		case x > pol.Length:
			res.Times = append(res.Times, t)
			res.Relocated = append(res.Relocated, i)
			ok, err := pol.relocate(i, mobile, obstacles)
			if err != nil {
				return res, err
			} else if !ok {
				res.Residual++
			}
			pol.states[i] = Entering
		case x < 0 && pol.states[i] == Flowing:
			p.X.X = x + pol.Length
			res.Wrapped++
		case x >= 0:
			pol.states[i] = Flowing
		}
	}
	return res, nil
}

// relocate moves mobile[i] just upstream of the channel. It returns false
// if the slot it settled on still overlaps something.
func (pol *Policy) relocate(i int, mobile, obstacles []particle.Particle) (bool, error) {
	p := &mobile[i]
	r := p.Radius
	cand := r2.Vec{X: -r, Y: pol.clampY(p.X.Y, r)}

	for attempt := 1; ; attempt++ {
		if pol.free(i, cand, mobile, obstacles) {
			pol.place(p, cand)
			return true, nil
		}

		if attempt >= pol.MaxRetries {
			break
		}
		cand.Y = pol.drawY(r)
		if attempt%perturbations == 0 {
			cand.X -= r
		}
	}

	if pol.Exhaustion == Abort {
		return false, fmt.Errorf(
			"Could not re-inject particle %d after %d attempts: %w",
			p.ID, pol.MaxRetries, ErrRelocationExhausted,
		)
	}

	log.Printf(
		"Warning: particle %d re-injected at (%.4g, %.4g) with an overlap "+
			"after %d attempts.", p.ID, cand.X, cand.Y, pol.MaxRetries,
	)
	pol.place(p, cand)
	return false, nil
}

func (pol *Policy) place(p *particle.Particle, x r2.Vec) {
	p.X = x
	if pol.Reinjection == Reset {
		p.V = r2.Vec{}
	}
}

// free returns true if mobile[i] placed at x overlaps no other particle and
// no obstacle.
func (pol *Policy) free(
	i int, x r2.Vec, mobile, obstacles []particle.Particle,
) bool {
	p := &mobile[i]
	for j := range mobile {
		if j != i && p.OverlapsAt(x, &mobile[j]) {
			return false
		}
	}
	for j := range obstacles {
		if p.OverlapsAt(x, &obstacles[j]) {
			return false
		}
	}
	return true
}

// clampY restricts y to the band [r, Width - r] in which a disk of radius r
// touches neither wall.
func (pol *Policy) clampY(y, r float64) float64 {
	lo, hi := r, pol.Width-r
	if hi < lo {
		return pol.Width / 2
	} else if y < lo {
		return lo
	} else if y > hi {
		return hi
	}
	return y
}

func (pol *Policy) drawY(r float64) float64 {
	lo, hi := r, pol.Width-r
	if hi < lo {
		return pol.Width / 2
	}
	return lo + pol.gen.Float64()*(hi-lo)
}
