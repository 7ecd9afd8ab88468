package density

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/ss-g2/granular/particle"
)

func almostEq(x, y float64) bool { return math.Abs(x-y) < 1e-12 }

func TestFraction(t *testing.T) {
	grid := New(4, 2, 2, 1)
	grid.AddObstacles([]particle.Particle{particle.NewObstacle(0, 3, 1, 0.5)})

	grid.AddFrame([]r2.Vec{{X: 1, Y: 1}, {X: 1.5, Y: 0.5}}, 0.5)
	grid.AddFrame([]r2.Vec{{X: 1, Y: 1}, {X: 3.5, Y: 0.5}}, 0.5)
	// Waiting upstream, so not counted.
	grid.AddFrame([]r2.Vec{{X: -0.5, Y: 1}, {X: 1, Y: 1}}, 0.5)
	require.Equal(t, 3, grid.Frames())

	disk := math.Pi * 0.25
	frac := grid.Fraction()
	table := []float64{
		(4 * disk / 3) / 4,
		(disk + disk/3) / 4,
	}
	for i := range table {
		if !almostEq(frac[i], table[i]) {
			t.Errorf("%d) Expected packing fraction %g, got %g",
				i, table[i], frac[i])
		}
	}
}

func TestProfile(t *testing.T) {
	grid := New(6, 2, 3, 2)
	grid.AddFrame([]r2.Vec{{X: 0.5, Y: 0.5}, {X: 0.5, Y: 1.5}, {X: 5, Y: 0.2}}, 0.5)

	xs, phis := grid.Profile()
	assert.Equal(t, []float64{1, 3, 5}, xs)

	disk := math.Pi * 0.25
	assert.InDelta(t, disk/2, phis[0], 1e-12)
	assert.Zero(t, phis[1])
	assert.InDelta(t, disk/4, phis[2], 1e-12)

	empty := New(6, 2, 3, 2)
	_, phis = empty.Profile()
	assert.Equal(t, []float64{0, 0, 0}, phis)
}

func BenchmarkAddFrame(b *testing.B) {
	grid := New(140, 40, 70, 20)
	xs := make([]r2.Vec, 1000)
	for i := range xs {
		xs[i] = r2.Vec{X: float64(i%140) + 0.5, Y: float64(i%40) + 0.5}
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		grid.AddFrame(xs, 1)
	}
}
