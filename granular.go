/*package granular simulates dissipative granular disks driven through a
two-dimensional channel with fixed circular obstacles.

A Simulation owns the particle state and advances it one step at a time:
Beeman prediction, a force pass at the predicted state, velocity correction,
a second force pass, and finally the discharge policy, which re-injects the
particles that left the channel and records when they did.
*/
package granular

import (
	"errors"
	"fmt"
	"log"

	"github.com/dgravesa/go-parallel/parallel"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/ss-g2/granular/cell"
	"github.com/ss-g2/granular/discharge"
	"github.com/ss-g2/granular/force"
	"github.com/ss-g2/granular/integrator"
	"github.com/ss-g2/granular/particle"
)

// ErrNonFinite is returned when a particle's position or velocity stops
// being finite, usually because the step is too large for the stiffness.
var ErrNonFinite = errors.New("non-finite particle state")

// Recorder receives the snapshots of a run in order.
type Recorder interface {
	Record(s *particle.Snapshot) error
}

// MemoryRecorder keeps every snapshot it receives.
type MemoryRecorder struct {
	Snapshots []*particle.Snapshot
}

// Record appends s to Snapshots.
func (m *MemoryRecorder) Record(s *particle.Snapshot) error {
	m.Snapshots = append(m.Snapshots, s)
	return nil
}

// Simulation is a single run. It is not safe for concurrent use.
type Simulation struct {
	Params
	// Log enables progress messages at every snapshot.
	Log bool

	mobile, obstacles []particle.Particle
	xs                []r2.Vec // mobile positions followed by obstacle positions

	index  *cell.Index
	model  force.Model
	beeman *integrator.Beeman
	policy *discharge.Policy

	step       int
	discharges []float64
	relocated  int
	residual   int
}

// New validates p and the initial configuration and returns a Simulation
// with its force history seeded. Overlapping bodies are only an error when
// p.RejectOverlaps is set. mobile and obstacles are copied and sorted
// by ID, so the caller's slices are never modified.
func New(p Params, mobile, obstacles []particle.Particle) (*Simulation, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := particle.Check(mobile, true); err != nil {
		return nil, err
	}
	if err := particle.Check(obstacles, false); err != nil {
		return nil, err
	}

	if p.RelocationRetries == 0 {
		p.RelocationRetries = DefaultRelocationRetries
	}
	max := particle.MaxRadius(mobile)
	if r := particle.MaxRadius(obstacles); r > max {
		max = r
	}
	if p.Cutoff == 0 {
		p.Cutoff = 2 * max
	} else if p.Cutoff < 2*max {
		return nil, fmt.Errorf(
			"Cutoff %g is smaller than the largest contact distance %g.",
			p.Cutoff, 2*max,
		)
	}

	s := &Simulation{
		Params:    p,
		mobile:    particle.Copy(mobile),
		obstacles: particle.Copy(obstacles),
		model: force.Model{
			NormalK: p.NormalK, TangentialK: p.TangentialK, Gamma: p.Gamma,
			Acceleration: p.Acceleration, Width: p.Width,
		},
	}
	particle.SortByID(s.mobile)
	particle.SortByID(s.obstacles)
	for i := range s.obstacles {
		s.obstacles[i].V = r2.Vec{}
	}

	s.xs = make([]r2.Vec, len(s.mobile)+len(s.obstacles))
	for j := range s.obstacles {
		s.xs[len(s.mobile)+j] = s.obstacles[j].X
	}
	s.index = cell.NewIndex(p.Length, p.Width, p.Cutoff)

	if p.RejectOverlaps {
		if err := s.checkOverlaps(); err != nil {
			return nil, err
		}
	}

	s.policy = discharge.NewPolicy(len(s.mobile), discharge.Config{
		Length: p.Length, Width: p.Width,
		MaxRetries:  p.RelocationRetries,
		Reinjection: p.Reinjection, Exhaustion: p.Exhaustion,
	}, rand.New(rand.NewSource(p.Seed)))

	s.beeman = integrator.NewBeeman(len(s.mobile))
	if err := s.beeman.Seed(s); err != nil {
		return nil, err
	}

	return s, nil
}

// checkOverlaps returns an error if any two bodies in the initial
// configuration interpenetrate.
func (s *Simulation) checkOverlaps() error {
	s.updatePositions()
	lists := s.index.Neighbors(s.xs)

	n := len(s.mobile)
	for i, list := range lists {
		for _, j := range list {
			if j <= i {
				continue
			}
			a, b := s.body(i), s.body(j)
			if a.Overlaps(b) {
				return fmt.Errorf(
					"Initial configuration overlaps: %s and %s.",
					s.describe(i, n), s.describe(j, n),
				)
			}
		}
	}
	return nil
}

func (s *Simulation) body(i int) *particle.Particle {
	if i < len(s.mobile) {
		return &s.mobile[i]
	}
	return &s.obstacles[i-len(s.mobile)]
}

func (s *Simulation) describe(i, n int) string {
	if i < n {
		return fmt.Sprintf("particle %d", s.mobile[i].ID)
	}
	return fmt.Sprintf("obstacle %d", s.obstacles[i-n].ID)
}

func (s *Simulation) updatePositions() {
	for i := range s.mobile {
		s.xs[i] = s.mobile[i].X
	}
}

// Forces evaluates the net force on every mobile particle at the current
// state. It implements integrator.Evaluator.
func (s *Simulation) Forces(out []r2.Vec) error {
	s.updatePositions()
	lists := s.index.Neighbors(s.xs)

	body := func(i, _ int) {
		out[i] = s.model.Net(i, s.mobile, s.obstacles, lists[i])
	}

	if s.Workers > 1 {
		parallel.WithNumGoroutines(s.Workers).For(len(s.mobile), body)
	} else {
		for i := range s.mobile {
			body(i, 0)
		}
	}
	return nil
}

// Step advances the simulation by one integration step and applies the
// discharge policy at the new time.
func (s *Simulation) Step() error {
	if err := s.beeman.Step(s.mobile, s.IntegrationStep, s); err != nil {
		return fmt.Errorf("Step %d: %w", s.step+1, err)
	}
	s.step++
	t := s.Time()

	if s.CheckFinite {
		for i := range s.mobile {
			if !s.mobile[i].Finite() {
				return fmt.Errorf(
					"Particle %d at step %d (t = %g): %w",
					s.mobile[i].ID, s.step, t, ErrNonFinite,
				)
			}
		}
	}

	res, err := s.policy.Apply(t, s.mobile, s.obstacles)
	if err != nil {
		return fmt.Errorf("Step %d (t = %g): %w", s.step, t, err)
	}

	s.discharges = append(s.discharges, res.Times...)
	s.relocated += len(res.Relocated)
	s.residual += res.Residual
	if s.Reinjection == discharge.Reset {
		for _, i := range res.Relocated {
			s.beeman.Reset(i)
		}
	}

	return nil
}

// Run steps the simulation until MaxTime, sending a snapshot to rec at the
// start and every SnapshotEvery() steps. The run stops at the first error.
func (s *Simulation) Run(rec Recorder) error {
	every := s.SnapshotEvery()
	total := s.Steps()

	if s.step == 0 {
		if err := rec.Record(s.Snapshot()); err != nil {
			return err
		}
	}

	for s.step < total {
		if err := s.Step(); err != nil {
			return err
		}

		if s.step%every == 0 {
			if err := rec.Record(s.Snapshot()); err != nil {
				return err
			}
			if s.Log {
				log.Printf(
					"t = %.4g (%d/%d steps), %d discharges",
					s.Time(), s.step, total, len(s.discharges),
				)
			}
		}
	}

	if s.residual > 0 {
		log.Printf(
			"%d of %d re-injections were accepted with an overlap.",
			s.residual, s.relocated,
		)
	}
	return nil
}

// Snapshot copies the current state of the mobile particles.
func (s *Simulation) Snapshot() *particle.Snapshot {
	return particle.TakeSnapshot(s.step, s.Time(), s.mobile)
}

// Time returns the current simulation time.
func (s *Simulation) Time() float64 {
	return float64(s.step) * s.IntegrationStep
}

// StepCount returns the number of steps taken so far.
func (s *Simulation) StepCount() int { return s.step }

// Discharges returns a copy of the discharge times recorded so far, in the
// order they happened.
func (s *Simulation) Discharges() []float64 {
	out := make([]float64, len(s.discharges))
	copy(out, s.discharges)
	return out
}

// Residual returns the number of re-injections accepted with an overlap.
func (s *Simulation) Residual() int { return s.residual }

// Particles returns a copy of the mobile particles, sorted by ID.
func (s *Simulation) Particles() []particle.Particle {
	return particle.Copy(s.mobile)
}

// Obstacles returns a copy of the obstacles, sorted by ID.
func (s *Simulation) Obstacles() []particle.Particle {
	return particle.Copy(s.obstacles)
}

// Force returns the force on the i-th mobile particle (in ID order) at the
// current time.
func (s *Simulation) Force(i int) r2.Vec { return s.beeman.Current(i) }
