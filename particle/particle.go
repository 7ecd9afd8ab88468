/*package particle contains the state shared by every stage of the granular
engine: mobile disks, static obstacles, and the snapshots taken of them.
*/
package particle

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/r2"
)

// Particle is either a mobile disk or a static obstacle. Obstacles keep a
// zero velocity for their whole lifetime.
type Particle struct {
	ID int
	X  r2.Vec // position
	V  r2.Vec // velocity

	Mass, Radius float64
}

// New returns a mobile particle at rest.
func New(id int, x, y, mass, radius float64) Particle {
	return Particle{ID: id, X: r2.Vec{X: x, Y: y}, Mass: mass, Radius: radius}
}

// NewObstacle returns a static obstacle. Obstacles carry no mass since they
// never respond to force.
func NewObstacle(id int, x, y, radius float64) Particle {
	return Particle{ID: id, X: r2.Vec{X: x, Y: y}, Radius: radius}
}

// Equal returns true if the two particles have the same ID.
func (p *Particle) Equal(q *Particle) bool { return p.ID == q.ID }

// Dist returns the center-to-center distance between p and q.
func (p *Particle) Dist(q *Particle) float64 {
	return r2.Norm(r2.Sub(p.X, q.X))
}

// Overlaps returns true if the disks of p and q interpenetrate. Touching
// disks do not overlap.
func (p *Particle) Overlaps(q *Particle) bool {
	return p.Dist(q) < p.Radius+q.Radius
}

// OverlapsAt is Overlaps with p moved to x.
func (p *Particle) OverlapsAt(x r2.Vec, q *Particle) bool {
	return r2.Norm(r2.Sub(x, q.X)) < p.Radius+q.Radius
}

// Finite returns true if the position and velocity of p are finite.
func (p *Particle) Finite() bool {
	return finite(p.X.X) && finite(p.X.Y) && finite(p.V.X) && finite(p.V.Y)
}

func finite(x float64) bool { return !math.IsNaN(x) && !math.IsInf(x, 0) }

// SortByID sorts ps into ascending ID order in place.
func SortByID(ps []Particle) {
	sort.Slice(ps, func(i, j int) bool { return ps[i].ID < ps[j].ID })
}

// Copy returns an independent copy of ps.
func Copy(ps []Particle) []Particle {
	out := make([]Particle, len(ps))
	copy(out, ps)
	return out
}

// Check returns an error if any particle in ps has a non-positive radius,
// a repeated ID, or (when mobile is true) a non-positive mass.
func Check(ps []Particle, mobile bool) error {
	seen := make(map[int]bool, len(ps))
	for i := range ps {
		p := &ps[i]
		if seen[p.ID] {
			return fmt.Errorf("Particle ID %d appears more than once.", p.ID)
		}
		seen[p.ID] = true

		if !(p.Radius > 0) {
			return fmt.Errorf(
				"Particle %d has non-positive radius %g.", p.ID, p.Radius,
			)
		} else if mobile && !(p.Mass > 0) {
			return fmt.Errorf(
				"Particle %d has non-positive mass %g.", p.ID, p.Mass,
			)
		}
	}
	return nil
}

// MaxRadius returns the largest radius in ps, or 0 if ps is empty.
func MaxRadius(ps []Particle) float64 {
	max := 0.0
	for i := range ps {
		if ps[i].Radius > max {
			max = ps[i].Radius
		}
	}
	return max
}
