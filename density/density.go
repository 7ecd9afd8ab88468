/*package density interpolates particle positions onto a packing fraction
grid covering the channel.
*/
package density

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/ss-g2/granular/geom"
	"github.com/ss-g2/granular/particle"
)

// Grid accumulates the area covered by disks in each cell, using
// nearest-grid-point assignment: a disk's whole area goes to the cell that
// contains its center. Mobile particles are averaged over frames while
// obstacles are counted once and apply to every frame.
type Grid struct {
	g geom.Grid

	mobile, static []float64
	frames         int
}

// New returns an empty Grid of cols x rows cells over the channel.
func New(length, width float64, cols, rows int) *Grid {
	g := geom.NewShapedGrid(length, width, cols, rows)
	return &Grid{
		g:      *g,
		mobile: make([]float64, g.Area),
		static: make([]float64, g.Area),
	}
}

// Cols returns the number of cells along the channel.
func (grid *Grid) Cols() int { return grid.g.Cols }

// Rows returns the number of cells across the channel.
func (grid *Grid) Rows() int { return grid.g.Rows }

// AddObstacles deposits the area of each obstacle.
func (grid *Grid) AddObstacles(obstacles []particle.Particle) {
	for i := range obstacles {
		grid.deposit(grid.static, obstacles[i].X, obstacles[i].Radius)
	}
}

// AddFrame deposits one frame of mobile particles of the given radius.
// Particles upstream of x = 0 are waiting to enter and are skipped.
func (grid *Grid) AddFrame(xs []r2.Vec, radius float64) {
	for _, x := range xs {
		grid.deposit(grid.mobile, x, radius)
	}
	grid.frames++
}

// Frames returns the number of frames added so far.
func (grid *Grid) Frames() int { return grid.frames }

func (grid *Grid) deposit(buf []float64, x r2.Vec, r float64) {
	if x.X < 0 || x.X >= grid.g.Length {
		return
	}
	col, row := grid.g.Cell(x.X, x.Y)
	buf[grid.g.Idx(col, row)] += math.Pi * r * r
}

// Fraction returns the packing fraction of every cell, in the order given
// by geom.Grid.Idx.
func (grid *Grid) Fraction() []float64 {
	area := grid.g.CellArea()
	out := make([]float64, grid.g.Area)
	for i := range out {
		out[i] = grid.static[i]
		if grid.frames > 0 {
			out[i] += grid.mobile[i] / float64(grid.frames)
		}
		out[i] /= area
	}
	return out
}

// Profile averages Fraction over the rows of each column and returns the
// column centers along with the packing fraction there.
func (grid *Grid) Profile() (xs, phis []float64) {
	frac := grid.Fraction()
	xs = make([]float64, grid.g.Cols)
	phis = make([]float64, grid.g.Cols)

	dx := grid.g.Length / float64(grid.g.Cols)
	for col := range phis {
		xs[col] = (float64(col) + 0.5) * dx
		for row := 0; row < grid.g.Rows; row++ {
			phis[col] += frac[grid.g.Idx(col, row)]
		}
		phis[col] /= float64(grid.g.Rows)
	}
	return xs, phis
}
