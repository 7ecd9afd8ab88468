/*package generate places obstacles and particles in the channel by rejection
sampling, so that no two bodies of the initial configuration overlap.
*/
package generate

import (
	"errors"
	"fmt"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/ss-g2/granular/particle"
)

// ErrPlacement is returned when the attempt budget runs out before every
// body has been placed.
var ErrPlacement = errors.New("cannot place without overlap")

// DefaultMaxTries is the attempt budget used when Config leaves it unset.
const DefaultMaxTries = 1000000

// Config describes one population of identical disks.
type Config struct {
	Length, Width float64
	Count         int
	Radius, Mass  float64

	// MaxTries bounds the number of candidate positions drawn for the whole
	// population, not for each body.
	MaxTries int
}

func (c *Config) check(kind string) error {
	if c.Count < 0 {
		return fmt.Errorf("%s count must be non-negative, but is %d.", kind, c.Count)
	} else if c.Count > 0 && !(c.Radius > 0) {
		return fmt.Errorf("%s radius must be positive, but is %g.", kind, c.Radius)
	} else if c.Count > 0 && (2*c.Radius > c.Length || 2*c.Radius > c.Width) {
		return fmt.Errorf(
			"%s of radius %g do not fit in a %g x %g channel: %w",
			kind, c.Radius, c.Length, c.Width, ErrPlacement,
		)
	}
	return nil
}

func (c *Config) tries() int {
	if c.MaxTries <= 0 {
		return DefaultMaxTries
	}
	return c.MaxTries
}

// Obstacles places c.Count obstacles uniformly inside the channel, away
// from the walls and from each other.
func Obstacles(c Config, gen *rand.Rand) ([]particle.Particle, error) {
	if err := c.check("Obstacles"); err != nil {
		return nil, err
	}

	obstacles := make([]particle.Particle, 0, c.Count)
	for tries := 0; len(obstacles) < c.Count; tries++ {
		if tries >= c.tries() {
			return nil, fmt.Errorf(
				"Placed %d of %d obstacles in %d attempts: %w",
				len(obstacles), c.Count, tries, ErrPlacement,
			)
		}

		x := draw(gen, &c)
		o := particle.NewObstacle(len(obstacles), x.X, x.Y, c.Radius)
		if !overlapsAny(&o, obstacles) {
			obstacles = append(obstacles, o)
		}
	}

	return obstacles, nil
}

// Particles places c.Count particles at rest inside the channel, away from
// the walls, from each other, and from the given obstacles.
func Particles(
	c Config, obstacles []particle.Particle, gen *rand.Rand,
) ([]particle.Particle, error) {
	if err := c.check("Particles"); err != nil {
		return nil, err
	} else if c.Count > 0 && !(c.Mass > 0) {
		return nil, fmt.Errorf(
			"Particle mass must be positive, but is %g.", c.Mass,
		)
	}

	ps := make([]particle.Particle, 0, c.Count)
	for tries := 0; len(ps) < c.Count; tries++ {
		if tries >= c.tries() {
			return nil, fmt.Errorf(
				"Placed %d of %d particles in %d attempts: %w",
				len(ps), c.Count, tries, ErrPlacement,
			)
		}

		x := draw(gen, &c)
		p := particle.New(len(ps), x.X, x.Y, c.Mass, c.Radius)
		if !overlapsAny(&p, obstacles) && !overlapsAny(&p, ps) {
			ps = append(ps, p)
		}
	}

	return ps, nil
}

// draw returns a uniform position at which a disk of radius c.Radius lies
// inside the channel.
func draw(gen *rand.Rand, c *Config) r2.Vec {
	return r2.Vec{
		X: c.Radius + gen.Float64()*(c.Length-2*c.Radius),
		Y: c.Radius + gen.Float64()*(c.Width-2*c.Radius),
	}
}

func overlapsAny(p *particle.Particle, ps []particle.Particle) bool {
	for i := range ps {
		if p.Overlaps(&ps[i]) {
			return true
		}
	}
	return false
}
