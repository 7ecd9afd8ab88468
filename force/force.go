/*package force computes contact forces between granular disks, static
obstacles and the two channel walls using a linear spring-dashpot law along
the line of centers and a velocity-proportional shear law across it.
*/
package force

import (
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/ss-g2/granular/particle"
)

// Model holds the contact constants. The walls are the lines y = 0 and
// y = Width. The driving acceleration acts along +x.
type Model struct {
	NormalK, TangentialK float64
	Gamma                float64 // normal damping
	Acceleration         float64
	Width                float64
}

// Pair returns the force q exerts on p. q may be static, in which case its
// velocity is zero. Disks that do not interpenetrate exert exactly zero
// force on each other.
func (m *Model) Pair(p, q *particle.Particle) r2.Vec {
	dx := r2.Sub(p.X, q.X)
	d := r2.Norm(dx)
	overlap := p.Radius + q.Radius - d
	if overlap <= 0 || d == 0 {
		return r2.Vec{}
	}

	n := r2.Scale(1/d, dx) // from q towards p
	t := r2.Vec{X: -n.Y, Y: n.X}
	v := r2.Sub(p.V, q.V)

	fn := m.normal(overlap, -r2.Dot(v, n))
	ft := -m.TangentialK * overlap * r2.Dot(v, t)

	return r2.Add(r2.Scale(-fn, n), r2.Scale(ft, t))
}

// normal is the signed magnitude of the normal force for a given overlap
// and overlap rate. It is negative under compression.
func (m *Model) normal(overlap, rate float64) float64 {
	return -m.NormalK*overlap - m.Gamma*rate
}

// Wall returns the force the two horizontal walls exert on p. Walls are
// frictionless, so the force has no x component.
func (m *Model) Wall(p *particle.Particle) r2.Vec {
	f := r2.Vec{}

	// y = 0, normal +y.
	if overlap := p.Radius - p.X.Y; overlap > 0 {
		f.Y -= m.normal(overlap, -p.V.Y)
	}
	// y = Width, normal -y.
	if overlap := p.Radius - (m.Width - p.X.Y); overlap > 0 {
		f.Y += m.normal(overlap, p.V.Y)
	}

	return f
}

// Drive returns the constant body force along the flow axis.
func (m *Model) Drive(p *particle.Particle) r2.Vec {
	return r2.Vec{X: p.Mass * m.Acceleration}
}

// Net returns the total force on mobile[i]. nbrs holds candidate indices:
// values below len(mobile) refer to mobile particles and the rest to
// obstacles[j - len(mobile)]. Net does not modify any particle.
func (m *Model) Net(
	i int, mobile, obstacles []particle.Particle, nbrs []int,
) r2.Vec {
	p := &mobile[i]
	f := m.Drive(p)

	n := len(mobile)
	for _, j := range nbrs {
		var q *particle.Particle
		if j == i {
			continue
		} else if j < n {
			q = &mobile[j]
		} else {
			q = &obstacles[j-n]
		}
		f = r2.Add(f, m.Pair(p, q))
	}

	return r2.Add(f, m.Wall(p))
}
