/*package integrator advances particle state with Beeman's predictor-corrector
scheme. Forces are supplied through an Evaluator so that the scheme can be
tested without a contact model.
*/
package integrator

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/ss-g2/granular/particle"
)

// Evaluator computes the force on every mobile particle at the particle
// state as it currently stands and writes it into out.
type Evaluator interface {
	Forces(out []r2.Vec) error
}

// EvaluatorFunc adapts an ordinary function to the Evaluator interface.
type EvaluatorFunc func(out []r2.Vec) error

func (f EvaluatorFunc) Forces(out []r2.Vec) error { return f(out) }

// Beeman is the state carried between steps: the forces at t - dt and t,
// a buffer for the forces at t + dt, and the velocities at t saved across
// the prediction.
type Beeman struct {
	prev, curr, next []r2.Vec
	v0               []r2.Vec

	// Generation counts completed steps.
	Generation int
}

// NewBeeman returns an integrator for n particles. It must be seeded before
// the first step.
func NewBeeman(n int) *Beeman {
	return &Beeman{
		prev: make([]r2.Vec, n),
		curr: make([]r2.Vec, n),
		next: make([]r2.Vec, n),
		v0:   make([]r2.Vec, n),
	}
}

// Seed evaluates the forces at the initial configuration. There is no
// sample at -dt, so the previous forces are set to the ones at t = 0.
func (b *Beeman) Seed(eval Evaluator) error {
	if err := eval.Forces(b.prev); err != nil {
		return err
	}
	if err := eval.Forces(b.curr); err != nil {
		return err
	}
	b.Generation = 0
	return nil
}

// Step advances ps by dt. ps must be the particles eval reads from, in the
// order the integrator was created for.
func (b *Beeman) Step(ps []particle.Particle, dt float64, eval Evaluator) error {
	if !(dt > 0) {
		return fmt.Errorf("Integration step must be positive, but is %g.", dt)
	} else if len(ps) != len(b.curr) {
		return fmt.Errorf(
			"Integrator holds %d particles, but was given %d.",
			len(b.curr), len(ps),
		)
	}

	dt2 := dt * dt
	for i := range ps {
		p := &ps[i]
		a, aPrev := b.accel(i, p)

		b.v0[i] = p.V
		p.X = r2.Add(p.X, r2.Add(r2.Scale(dt, p.V),
			r2.Scale(dt2, r2.Sub(r2.Scale(2.0/3.0, a), r2.Scale(1.0/6.0, aPrev)))))
		p.V = r2.Add(p.V,
			r2.Scale(dt, r2.Sub(r2.Scale(3.0/2.0, a), r2.Scale(1.0/2.0, aPrev))))
	}

	if err := eval.Forces(b.next); err != nil {
		return err
	}

	for i := range ps {
		p := &ps[i]
		a, aPrev := b.accel(i, p)
		aNext := r2.Scale(1/p.Mass, b.next[i])

		p.V = r2.Add(b.v0[i], r2.Scale(dt, r2.Sub(
			r2.Add(r2.Scale(1.0/3.0, aNext), r2.Scale(5.0/6.0, a)),
			r2.Scale(1.0/6.0, aPrev),
		)))
	}

	// The corrected velocities change the damping terms, so the forces at
	// t + dt are evaluated again rather than reusing next.
	b.prev, b.curr = b.curr, b.prev
	if err := eval.Forces(b.curr); err != nil {
		return err
	}

	b.Generation++
	return nil
}

// Reset drops the force history of particle i so that its next step
// behaves as if it had always felt its current force.
func (b *Beeman) Reset(i int) { b.prev[i] = b.curr[i] }

// Current returns the force on particle i at the current time.
func (b *Beeman) Current(i int) r2.Vec { return b.curr[i] }

// Previous returns the force on particle i one step ago.
func (b *Beeman) Previous(i int) r2.Vec { return b.prev[i] }

func (b *Beeman) accel(i int, p *particle.Particle) (a, aPrev r2.Vec) {
	return r2.Scale(1/p.Mass, b.curr[i]), r2.Scale(1/p.Mass, b.prev[i])
}
