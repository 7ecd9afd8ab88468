package geom

import (
	"math"
)

// Grid provides an interface for reasoning over a 1D slice as if it were a
// 2D grid of cells covering a rectangular domain. Columns run along the
// length of the domain and wrap around. Rows run across its width and do
// not.
type Grid struct {
	Cols, Rows int
	Length, Width float64
	Area int
}

// NewGrid returns a Grid covering a length x width domain with square-ish
// cells no smaller than cellWidth along either axis.
func NewGrid(length, width, cellWidth float64) *Grid {
	g := &Grid{}
	g.Init(length, width, cellWidth)
	return g
}

// NewShapedGrid returns a Grid covering a length x width domain with
// exactly cols x rows cells. Non-positive counts become 1.
func NewShapedGrid(length, width float64, cols, rows int) *Grid {
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}
	return &Grid{
		Cols: cols, Rows: rows, Length: length, Width: width,
		Area: cols * rows,
	}
}

// CellArea returns the area of a single cell.
func (g *Grid) CellArea() float64 {
	return (g.Length / float64(g.Cols)) * (g.Width / float64(g.Rows))
}

// Init initializes a Grid instance. Degenerate extents or cell widths
// collapse the affected axis to a single cell.
func (g *Grid) Init(length, width, cellWidth float64) {
	g.Length, g.Width = length, width
	g.Cols = cells(length, cellWidth)
	g.Rows = cells(width, cellWidth)
	g.Area = g.Cols * g.Rows
}

func cells(extent, cellWidth float64) int {
	if !(extent > 0) || !(cellWidth > 0) ||
		math.IsInf(extent, 0) || math.IsInf(cellWidth, 0) {
		return 1
	}
	n := math.Floor(extent / cellWidth)
	if n < 1 || n > math.MaxInt32 {
		return 1
	}
	return int(n)
}

// Idx returns the grid index corresponding to a set of cell coordinates.
// The column is wrapped, the row is not checked.
func (g *Grid) Idx(col, row int) int {
	return g.WrapCol(col) + row*g.Cols
}

// Coords returns the column and row of a cell from its grid index.
func (g *Grid) Coords(idx int) (col, row int) {
	return idx % g.Cols, idx / g.Cols
}

// WrapCol maps any column onto [0, Cols).
func (g *Grid) WrapCol(col int) int { return pMod(col, g.Cols) }

// RowCheck returns true if the row lies inside the grid.
func (g *Grid) RowCheck(row int) bool { return 0 <= row && row < g.Rows }

// Cell returns the column and row of the cell containing the point (x, y).
// Negative coordinates fall into the first column or row, points past the
// far end of the length wrap around, and points past the far wall fall
// into the last row.
func (g *Grid) Cell(x, y float64) (col, row int) {
	col = g.WrapCol(bucket(x, g.Length, g.Cols))
	row = bucket(y, g.Width, g.Rows)
	if row >= g.Rows {
		row = g.Rows - 1
	}
	return col, row
}

func bucket(x, extent float64, n int) int {
	if n == 1 || !(x > 0) {
		return 0
	}
	b := math.Floor(x * float64(n) / extent)
	if b > float64(4*n) {
		return n
	}
	return int(b)
}

// pMod computes the positive modulo x % y.
func pMod(x, y int) int {
	m := x % y
	if m < 0 {
		m += y
	}
	return m
}
