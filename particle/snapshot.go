package particle

import (
	"gonum.org/v1/gonum/spatial/r2"
)

// Snapshot is an independent copy of the state of every mobile particle at
// one sampled step. Nothing in the engine holds a reference to it once it
// has been made.
type Snapshot struct {
	Step int
	Time float64

	IDs []int
	Xs  []r2.Vec
	Vs  []r2.Vec
}

// TakeSnapshot copies the state of ps.
func TakeSnapshot(step int, t float64, ps []Particle) *Snapshot {
	s := &Snapshot{
		Step: step, Time: t,
		IDs: make([]int, len(ps)),
		Xs:  make([]r2.Vec, len(ps)),
		Vs:  make([]r2.Vec, len(ps)),
	}
	for i := range ps {
		s.IDs[i] = ps[i].ID
		s.Xs[i] = ps[i].X
		s.Vs[i] = ps[i].V
	}
	return s
}

// Len returns the number of particles in the snapshot.
func (s *Snapshot) Len() int { return len(s.IDs) }
