package cell

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/spatial/r2"
)

func randomPositions(gen *rand.Rand, n int, length, width float64) []r2.Vec {
	xs := make([]r2.Vec, n)
	for i := range xs {
		// Spill a little past every boundary to exercise clamping and wrapping.
		xs[i].X = gen.Float64()*(length+2) - 1
		xs[i].Y = gen.Float64()*(width+1) - 0.5
	}
	return xs
}

func bruteForce(xs []r2.Vec, rc float64) [][2]int {
	pairs := [][2]int{}
	for i := range xs {
		for j := i + 1; j < len(xs); j++ {
			if r2.Norm(r2.Sub(xs[i], xs[j])) < rc {
				pairs = append(pairs, [2]int{i, j})
			}
		}
	}
	return pairs
}

func contains(list []int, j int) bool {
	for _, k := range list {
		if k == j {
			return true
		}
	}
	return false
}

func TestNeighborsProperties(t *testing.T) {
	table := []struct {
		length, width, rc float64
		n                 int
	}{
		{20, 10, 1, 300},
		{20, 10, 2.5, 300},
		{3, 3, 1, 50},   // three columns
		{2, 5, 1, 50},   // two columns: wrapped stencil cells coincide
		{5, 5, 10, 50},  // single cell
		{5, 5, 0, 50},   // degenerate cutoff
		{10, 0.5, 1, 30}, // width smaller than the cutoff
	}

	gen := rand.New(rand.NewSource(1))
	for i, test := range table {
		idx := NewIndex(test.length, test.width, test.rc)
		xs := randomPositions(gen, test.n, test.length, test.width)
		lists := idx.Neighbors(xs)

		if len(lists) != len(xs) {
			t.Fatalf("%d) Expected %d lists, got %d", i, len(xs), len(lists))
		}

		for a, list := range lists {
			if contains(list, a) {
				t.Errorf("%d) %d is its own neighbor", i, a)
			}
			for k := 1; k < len(list); k++ {
				if list[k] <= list[k-1] {
					t.Errorf("%d) List of %d is not strictly ascending: %v",
						i, a, list)
					break
				}
			}
			for _, b := range list {
				if !contains(lists[b], a) {
					t.Errorf("%d) %d lists %d but not the reverse", i, a, b)
				}
			}
		}

		rc := test.rc
		if rc <= 0 {
			rc = test.length + test.width
		}
		for _, pair := range bruteForce(xs, rc) {
			if !contains(lists[pair[0]], pair[1]) {
				t.Errorf("%d) Missed pair %v at distance %g", i, pair,
					r2.Norm(r2.Sub(xs[pair[0]], xs[pair[1]])))
			}
		}
	}
}

func TestNeighborsReuse(t *testing.T) {
	idx := NewIndex(10, 10, 1)
	xs := []r2.Vec{{X: 1, Y: 1}, {X: 1.5, Y: 1}, {X: 8, Y: 8}}
	lists := idx.Neighbors(xs)
	assert.Equal(t, []int{1}, lists[0])
	assert.Equal(t, []int{0}, lists[1])
	assert.Empty(t, lists[2])

	// Moving the particles apart must clear the old edges.
	xs[1] = r2.Vec{X: 5, Y: 5}
	lists = idx.Neighbors(xs)
	assert.Empty(t, lists[0])
	assert.Empty(t, lists[1])
	assert.Empty(t, lists[2])

	lists = idx.Neighbors(xs[:2])
	assert.Len(t, lists, 2)
}

func TestNeighborsWrap(t *testing.T) {
	idx := NewIndex(10, 2, 1)
	xs := []r2.Vec{{X: 0.2, Y: 1}, {X: 9.8, Y: 1}, {X: -0.5, Y: 1}}
	lists := idx.Neighbors(xs)

	assert.Equal(t, []int{1, 2}, lists[0])
	assert.Equal(t, []int{0, 2}, lists[1])
	assert.Equal(t, []int{0, 1}, lists[2])
}

func BenchmarkNeighbors(b *testing.B) {
	gen := rand.New(rand.NewSource(2))
	xs := randomPositions(gen, 2000, 140, 40)
	idx := NewIndex(140, 40, 2)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		idx.Neighbors(xs)
	}
}
