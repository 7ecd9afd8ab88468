package granular

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/ss-g2/granular/discharge"
	"github.com/ss-g2/granular/generate"
	"github.com/ss-g2/granular/particle"
)

func baseParams() Params {
	return Params{
		Length: 10, Width: 2,
		NormalK: 100, TangentialK: 0, Gamma: 0, Acceleration: 0,
		IntegrationStep: 1e-4, SnapshotStep: 1e-3, MaxTime: 1e-2,
		CheckFinite: true,
	}
}

func TestTwoParticleSeparation(t *testing.T) {
	mobile := []particle.Particle{
		particle.New(0, 1, 1, 1, 0.5),
		particle.New(1, 1.9, 1, 1, 0.5),
	}
	s, err := New(baseParams(), mobile, nil)
	require.NoError(t, err)

	f0, f1 := s.Force(0), s.Force(1)
	assert.InDelta(t, 10, r2.Norm(f0), 1e-9)
	assert.InDelta(t, 10, r2.Norm(f1), 1e-9)
	assert.InDelta(t, -10, f0.X, 1e-9)
	assert.InDelta(t, 10, f1.X, 1e-9)
	assert.Zero(t, f0.Y)
	assert.Zero(t, f1.Y)

	before := mobile[0].Dist(&mobile[1])
	require.NoError(t, s.Step())
	ps := s.Particles()
	assert.Greater(t, ps[0].Dist(&ps[1]), before)

	// The caller's slice is untouched.
	assert.Equal(t, 1.0, mobile[0].X.X)
}

func TestFreeFallKinematics(t *testing.T) {
	p := baseParams()
	p.Length = 100
	p.Acceleration = 2
	p.IntegrationStep = 1e-3

	s, err := New(p, []particle.Particle{particle.New(0, 0, 1, 1, 0.5)}, nil)
	require.NoError(t, err)

	const steps = 1500
	for i := 0; i < steps; i++ {
		require.NoError(t, s.Step())
	}

	tf := s.Time()
	assert.InDelta(t, 1.5, tf, 1e-12)
	x := s.Particles()[0].X
	assert.InDelta(t, 0.5*2*tf*tf, x.X, 1e-9)
	assert.Equal(t, 1.0, x.Y)
	assert.Empty(t, s.Discharges())
}

func TestCrossingRelocates(t *testing.T) {
	p := baseParams()
	p.Acceleration = 1
	mobile := []particle.Particle{
		particle.New(0, 9.9999, 1, 1, 0.5),
		particle.New(1, 5, 1, 1, 0.5),
	}
	mobile[0].V = r2.Vec{X: 10}

	s, err := New(p, mobile, nil)
	require.NoError(t, err)
	require.NoError(t, s.Step())

	assert.Equal(t, []float64{p.IntegrationStep}, s.Discharges())
	ps := s.Particles()
	assert.True(t, ps[0].X.X < 0, "x = %g", ps[0].X.X)
	assert.True(t, ps[1].X.X > 0 && ps[1].X.X < p.Length)

	require.NoError(t, s.Step())
	assert.Len(t, s.Discharges(), 1)
}

func randomSystem(t *testing.T, seed uint64) (Params, []particle.Particle, []particle.Particle) {
	p := Params{
		Length: 30, Width: 8,
		NormalK: 250, TangentialK: 500, Gamma: 2.5, Acceleration: 5,
		IntegrationStep: 1e-3, SnapshotStep: 1e-2, MaxTime: 1,
		CheckFinite: true, Seed: seed,
	}
	gen := rand.New(rand.NewSource(seed))
	obstacles, err := generate.Obstacles(generate.Config{
		Length: p.Length, Width: p.Width, Count: 6, Radius: 1,
	}, gen)
	require.NoError(t, err)
	mobile, err := generate.Particles(generate.Config{
		Length: p.Length, Width: p.Width, Count: 40, Radius: 0.5, Mass: 1,
	}, obstacles, gen)
	require.NoError(t, err)

	// Give the particles a head start so that some of them leave the
	// channel during the run.
	for i := range mobile {
		mobile[i].V = r2.Vec{X: 4 + gen.Float64()*2, Y: gen.Float64() - 0.5}
	}
	return p, mobile, obstacles
}

func TestRunInvariants(t *testing.T) {
	p, mobile, obstacles := randomSystem(t, 5)
	s, err := New(p, mobile, obstacles)
	require.NoError(t, err)

	rec := &MemoryRecorder{}
	require.NoError(t, s.Run(rec))

	assert.Equal(t, p.Steps(), s.StepCount())
	assert.Len(t, rec.Snapshots, p.Steps()/p.SnapshotEvery()+1)
	for k, snap := range rec.Snapshots {
		assert.Equal(t, len(mobile), snap.Len(), "snapshot %d", k)
		assert.Equal(t, k*p.SnapshotEvery(), snap.Step)
	}

	ds := s.Discharges()
	assert.NotEmpty(t, ds)
	for k := 1; k < len(ds); k++ {
		assert.True(t, ds[k] >= ds[k-1], "discharge %d out of order", k)
	}

	for _, o := range s.Obstacles() {
		assert.Equal(t, r2.Vec{}, o.V)
	}
	for i, o := range s.Obstacles() {
		assert.Equal(t, obstacles[i].X, o.X)
	}

	ps := s.Particles()
	require.Len(t, ps, len(mobile))
	for i := range ps {
		assert.Equal(t, mobile[i].ID, ps[i].ID)
		assert.True(t, ps[i].X.X <= p.Length)
	}
}

func TestDeterministicReplay(t *testing.T) {
	run := func(workers int) ([]*particle.Snapshot, []float64) {
		p, mobile, obstacles := randomSystem(t, 9)
		p.Workers = workers
		s, err := New(p, mobile, obstacles)
		require.NoError(t, err)
		rec := &MemoryRecorder{}
		require.NoError(t, s.Run(rec))
		return rec.Snapshots, s.Discharges()
	}

	snaps1, ds1 := run(1)
	snaps2, ds2 := run(1)
	snaps4, ds4 := run(4)

	assert.Equal(t, snaps1, snaps2)
	assert.Equal(t, ds1, ds2)
	assert.Equal(t, snaps1, snaps4)
	assert.Equal(t, ds1, ds4)
}

func TestResetReinjection(t *testing.T) {
	p := baseParams()
	p.Reinjection = discharge.Reset
	mobile := []particle.Particle{particle.New(0, 9.9999, 1, 1, 0.5)}
	mobile[0].V = r2.Vec{X: 10, Y: 0.5}

	s, err := New(p, mobile, nil)
	require.NoError(t, err)
	require.NoError(t, s.Step())

	ps := s.Particles()
	assert.Equal(t, r2.Vec{}, ps[0].V)
	assert.Equal(t, s.beeman.Current(0), s.beeman.Previous(0))
}

func TestNonFinite(t *testing.T) {
	mobile := []particle.Particle{
		particle.New(0, 1, 1, 1, 0.5),
		particle.New(1, 5, 1, 1, 0.5),
	}
	mobile[1].X.X = math.NaN()

	s, err := New(baseParams(), mobile, nil)
	require.NoError(t, err)
	assert.ErrorIs(t, s.Step(), ErrNonFinite)

	p := baseParams()
	p.CheckFinite = false
	s, err = New(p, mobile, nil)
	require.NoError(t, err)
	assert.NoError(t, s.Step())
}

func TestNewErrors(t *testing.T) {
	ok := []particle.Particle{particle.New(0, 1, 1, 1, 0.5)}

	bad := []func(p *Params){
		func(p *Params) { p.Length = 0 },
		func(p *Params) { p.Width = -1 },
		func(p *Params) { p.NormalK = 0 },
		func(p *Params) { p.TangentialK = -1 },
		func(p *Params) { p.IntegrationStep = 0 },
		func(p *Params) { p.SnapshotStep = -1 },
		func(p *Params) { p.MaxTime = math.Inf(1) },
		func(p *Params) { p.Gamma = math.NaN() },
		func(p *Params) { p.Cutoff = -1 },
		func(p *Params) { p.Workers = -2 },
		func(p *Params) { p.RelocationRetries = -1 },
	}
	for i, f := range bad {
		p := baseParams()
		f(&p)
		if _, err := New(p, ok, nil); err == nil {
			t.Errorf("%d) Expected a configuration error", i)
		}
	}

	p := baseParams()
	p.Acceleration, p.Gamma = -3, -1
	_, err := New(p, ok, nil)
	assert.NoError(t, err)

	strict := baseParams()
	strict.RejectOverlaps = true
	overlapping := []particle.Particle{
		particle.New(0, 1, 1, 1, 0.5),
		particle.New(1, 1.5, 1, 1, 0.5),
	}
	_, err = New(strict, overlapping, nil)
	assert.Error(t, err)
	_, err = New(baseParams(), overlapping, nil)
	assert.NoError(t, err)

	blocked := []particle.Particle{particle.NewObstacle(0, 1.2, 1, 0.5)}
	_, err = New(strict, ok, blocked)
	assert.Error(t, err)
	_, err = New(strict, ok, nil)
	assert.NoError(t, err)

	massless := []particle.Particle{particle.New(0, 1, 1, 0, 0.5)}
	_, err = New(baseParams(), massless, nil)
	assert.Error(t, err)
}

func TestCutoffBelowContactDistance(t *testing.T) {
	mobile := []particle.Particle{
		particle.New(0, 1, 1, 1, 0.5),
		particle.New(1, 1.9, 1, 1, 0.5),
	}
	obstacles := []particle.Particle{particle.NewObstacle(0, 6, 1, 0.75)}

	table := []struct {
		cutoff float64
		ok     bool
	}{
		{0, true}, {0.3, false}, {1, false}, {1.49, false}, {1.5, true}, {4, true},
	}
	for i, test := range table {
		p := baseParams()
		p.Cutoff = test.cutoff
		_, err := New(p, mobile, obstacles)
		if test.ok && err != nil {
			t.Errorf("%d) Cutoff %g rejected: %s", i, test.cutoff, err.Error())
		} else if !test.ok && err == nil {
			t.Errorf("%d) Expected cutoff %g to be rejected", i, test.cutoff)
		}
	}

	// An accepted cutoff sees the contact.
	p := baseParams()
	p.Cutoff = 1.5
	s, err := New(p, mobile, obstacles)
	require.NoError(t, err)
	assert.InDelta(t, 10, r2.Norm(s.Force(0)), 1e-9)
}

func TestParamsSteps(t *testing.T) {
	p := Params{IntegrationStep: 1e-3, SnapshotStep: 1e-2, MaxTime: 10}
	assert.Equal(t, 10000, p.Steps())
	assert.Equal(t, 10, p.SnapshotEvery())

	p.SnapshotStep = 1e-5
	assert.Equal(t, 1, p.SnapshotEvery())
}

func BenchmarkStep(b *testing.B) {
	gen := rand.New(rand.NewSource(1))
	p := Params{
		Length: 140, Width: 40,
		NormalK: 250, TangentialK: 500, Gamma: 2.5, Acceleration: 1,
		IntegrationStep: 1e-3, SnapshotStep: 1e-2, MaxTime: 10,
	}
	obstacles, _ := generate.Obstacles(generate.Config{
		Length: p.Length, Width: p.Width, Count: 80, Radius: 1,
	}, gen)
	mobile, _ := generate.Particles(generate.Config{
		Length: p.Length, Width: p.Width, Count: 200, Radius: 1, Mass: 1,
	}, obstacles, gen)
	s, err := New(p, mobile, obstacles)
	if err != nil {
		b.Fatal(err.Error())
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := s.Step(); err != nil {
			b.Fatal(err.Error())
		}
	}
}
