package integrator

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/ss-g2/granular/particle"
)

// spring is an Evaluator for independent unit-stiffness springs anchored at
// the origin, with an optional constant drive along x.
type spring struct {
	ps    []particle.Particle
	k     float64
	drive float64
	calls int
	seen  []r2.Vec // velocity of particle 0 at every call
}

func (s *spring) Forces(out []r2.Vec) error {
	s.calls++
	if len(s.ps) > 0 {
		s.seen = append(s.seen, s.ps[0].V)
	}
	for i := range s.ps {
		p := &s.ps[i]
		out[i] = r2.Add(r2.Scale(-s.k, p.X), r2.Vec{X: p.Mass * s.drive})
	}
	return nil
}

func TestFreeFall(t *testing.T) {
	const (
		accel = 2.0
		dt    = 1e-3
		steps = 2000
	)
	ps := []particle.Particle{particle.New(0, 0, 1, 3, 0.5)}
	eval := &spring{ps: ps, drive: accel}

	b := NewBeeman(len(ps))
	require.NoError(t, b.Seed(eval))
	for i := 0; i < steps; i++ {
		require.NoError(t, b.Step(ps, dt, eval))
	}

	tf := dt * steps
	assert.InDelta(t, 0.5*accel*tf*tf, ps[0].X.X, 1e-9)
	assert.InDelta(t, accel*tf, ps[0].V.X, 1e-9)
	assert.Equal(t, 1.0, ps[0].X.Y)
	assert.Equal(t, steps, b.Generation)
	assert.Equal(t, 2+2*steps, eval.calls)
}

func TestHarmonicOscillator(t *testing.T) {
	const dt = 1e-3
	ps := []particle.Particle{particle.New(0, 1, 0, 1, 0.5)}
	eval := &spring{ps: ps, k: 1}

	b := NewBeeman(len(ps))
	require.NoError(t, b.Seed(eval))

	steps := int(math.Round(2 * math.Pi / dt))
	for i := 0; i < steps; i++ {
		require.NoError(t, b.Step(ps, dt, eval))
	}

	tf := float64(steps) * dt
	assert.InDelta(t, math.Cos(tf), ps[0].X.X, 1e-4)
	assert.InDelta(t, -math.Sin(tf), ps[0].V.X, 1e-4)

	energy := 0.5*r2.Norm2(ps[0].V) + 0.5*r2.Norm2(ps[0].X)
	assert.InDelta(t, 0.5, energy, 1e-5)
}

func TestPredictedVelocityIsSeen(t *testing.T) {
	const dt = 0.1
	ps := []particle.Particle{particle.New(0, 0, 0, 1, 0.5)}
	eval := &spring{ps: ps, drive: 1}

	b := NewBeeman(len(ps))
	require.NoError(t, b.Seed(eval))
	require.NoError(t, b.Step(ps, dt, eval))

	require.Len(t, eval.seen, 4)
	// a(t) = a(t - dt) = 1: the predictor gives v = 1.5*dt - 0.5*dt.
	assert.InDelta(t, dt, eval.seen[2].X, 1e-15)
	// The corrector starts from v(t) = 0, not from the prediction.
	assert.InDelta(t, dt, ps[0].V.X, 1e-15)
}

func TestReset(t *testing.T) {
	ps := []particle.Particle{particle.New(0, 0, 0, 1, 0.5)}
	eval := &spring{ps: ps, k: 1, drive: 1}

	b := NewBeeman(1)
	require.NoError(t, b.Seed(eval))
	require.NoError(t, b.Step(ps, 0.5, eval))
	assert.NotEqual(t, b.Previous(0), b.Current(0))

	b.Reset(0)
	assert.Equal(t, b.Previous(0), b.Current(0))
}

func TestStepErrors(t *testing.T) {
	ps := []particle.Particle{particle.New(0, 0, 0, 1, 0.5)}
	eval := &spring{ps: ps}
	b := NewBeeman(1)
	require.NoError(t, b.Seed(eval))

	assert.Error(t, b.Step(ps, 0, eval))
	assert.Error(t, b.Step(ps, -1e-3, eval))
	assert.Error(t, b.Step(ps, math.NaN(), eval))
	assert.Error(t, b.Step(append(ps, ps[0]), 1e-3, eval))

	failing := EvaluatorFunc(func(out []r2.Vec) error {
		return assert.AnError
	})
	assert.ErrorIs(t, b.Step(ps, 1e-3, failing), assert.AnError)
}
