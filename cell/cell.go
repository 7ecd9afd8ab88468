/*package cell implements the cell index method: a uniform grid used to find,
for every particle, the particles whose centers are within a cutoff radius of
it without comparing every pair.
*/
package cell

import (
	"sort"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/ss-g2/granular/geom"
)

// stencil is the half neighborhood of a cell: itself, west, northwest, north
// and northeast. Visiting it from every cell touches each unordered pair of
// adjacent cells exactly once.
var stencil = [5][2]int{{0, 0}, {-1, 0}, {-1, +1}, {0, +1}, {+1, +1}}

// Index buckets positions into a geom.Grid whose cells are at least rc wide.
// The buffers it returns are reused by the next call to Neighbors.
type Index struct {
	grid  geom.Grid
	rc    float64
	cells [][]int
	lists [][]int
}

// NewIndex returns an Index over a length x width channel with cutoff
// radius rc. A non-positive rc or extent degrades the affected axis to a
// single cell, which is equivalent to a brute force search.
func NewIndex(length, width, rc float64) *Index {
	idx := &Index{rc: rc}
	idx.grid.Init(length, width, rc)
	idx.cells = make([][]int, idx.grid.Area)
	return idx
}

// Grid returns the grid used by the index.
func (idx *Index) Grid() *geom.Grid { return &idx.grid }

// Cutoff returns the cutoff radius the index was built for.
func (idx *Index) Cutoff() float64 { return idx.rc }

// Neighbors returns, for every position in xs, the ascending indices of the
// other positions in the same or an adjacent cell. The relation is
// symmetric, never contains i in its own list, and contains every pair
// closer than the cutoff radius.
func (idx *Index) Neighbors(xs []r2.Vec) [][]int {
	idx.bucket(xs)

	if cap(idx.lists) < len(xs) {
		idx.lists = make([][]int, len(xs))
	}
	idx.lists = idx.lists[:len(xs)]
	for i := range idx.lists {
		idx.lists[i] = idx.lists[i][:0]
	}

	g := &idx.grid
	for c := range idx.cells {
		col, row := g.Coords(c)
		for _, off := range stencil {
			nRow := row + off[1]
			if !g.RowCheck(nRow) {
				continue
			}
			n := g.Idx(col+off[0], nRow)
			idx.link(c, n, off[0] == 0 && off[1] == 0)
		}
	}

	for i := range idx.lists {
		idx.lists[i] = compact(idx.lists[i], i)
	}
	return idx.lists
}

// bucket clears every cell and inserts each position into its cell.
func (idx *Index) bucket(xs []r2.Vec) {
	for c := range idx.cells {
		idx.cells[c] = idx.cells[c][:0]
	}
	for i := range xs {
		col, row := idx.grid.Cell(xs[i].X, xs[i].Y)
		c := idx.grid.Idx(col, row)
		idx.cells[c] = append(idx.cells[c], i)
	}
}

// link adds an edge in both directions between every particle of cell c and
// every particle of cell n.
func (idx *Index) link(c, n int, self bool) {
	for _, i := range idx.cells[c] {
		for _, j := range idx.cells[n] {
			if self && j <= i {
				continue
			}
			idx.lists[i] = append(idx.lists[i], j)
			idx.lists[j] = append(idx.lists[j], i)
		}
	}
}

// compact sorts a neighbor list and removes duplicates and self entries.
// Duplicates appear when a narrow grid makes a wrapped stencil cell
// coincide with another one.
func compact(list []int, self int) []int {
	sort.Ints(list)
	out := list[:0]
	for _, j := range list {
		if j == self || (len(out) > 0 && out[len(out)-1] == j) {
			continue
		}
		out = append(out, j)
	}
	return out
}
