/*package io reads and writes the files of a granular run: the gcfg
configuration files, and the whitespace-separated tables written to a run's
output directory.

	config.ini      the effective [Simulation] configuration
	obstacles.txt   x y r
	discharges.txt  t
	snapshots.txt   t id x y vx vy
*/
package io

import (
	"bytes"
	"fmt"
	"os"
	"path"

	"github.com/phil-mansfield/table"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/ss-g2/granular/particle"
)

// readColumns reads the given columns of a table. Empty files give empty
// columns instead of an error.
func readColumns(fname string, colIdxs []int) ([][]float64, error) {
	b, err := os.ReadFile(fname)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(b)) == 0 {
		return make([][]float64, len(colIdxs)), nil
	}

	cols, err := table.ReadTable(fname, colIdxs, nil)
	if err != nil {
		return nil, fmt.Errorf("Could not read '%s': %w", fname, err)
	}
	if len(cols) != len(colIdxs) {
		return nil, fmt.Errorf(
			"Expected %d columns in '%s', got %d.",
			len(colIdxs), fname, len(cols),
		)
	}
	return cols, nil
}

// ReadDischarges reads the discharge times of the run in dir.
func ReadDischarges(dir string) ([]float64, error) {
	cols, err := readColumns(path.Join(dir, DischargesFile), []int{0})
	if err != nil {
		return nil, err
	}
	return cols[0], nil
}

// ReadObstacles reads the obstacles of the run in dir. IDs follow file order.
func ReadObstacles(dir string) ([]particle.Particle, error) {
	cols, err := readColumns(path.Join(dir, ObstaclesFile), []int{0, 1, 2})
	if err != nil {
		return nil, err
	}

	xs, ys, rs := cols[0], cols[1], cols[2]
	obstacles := make([]particle.Particle, len(xs))
	for i := range obstacles {
		obstacles[i] = particle.NewObstacle(i, xs[i], ys[i], rs[i])
	}
	return obstacles, nil
}

// ReadSnapshots reads the snapshots of the run in dir. Consecutive rows with
// the same time belong to the same snapshot. Snapshot steps are numbered
// from zero in file order.
func ReadSnapshots(dir string) ([]*particle.Snapshot, error) {
	cols, err := readColumns(
		path.Join(dir, SnapshotsFile), []int{0, 1, 2, 3, 4, 5},
	)
	if err != nil {
		return nil, err
	}
	return groupSnapshots(cols[0], cols[1], cols[2], cols[3], cols[4], cols[5]), nil
}

func groupSnapshots(ts, ids, xs, ys, vxs, vys []float64) []*particle.Snapshot {
	snaps := []*particle.Snapshot{}
	var s *particle.Snapshot
	for i := range ts {
		if s == nil || ts[i] != s.Time {
			s = &particle.Snapshot{Step: len(snaps), Time: ts[i]}
			snaps = append(snaps, s)
		}
		s.IDs = append(s.IDs, int(ids[i]))
		s.Xs = append(s.Xs, r2.Vec{X: xs[i], Y: ys[i]})
		s.Vs = append(s.Vs, r2.Vec{X: vxs[i], Y: vys[i]})
	}
	return snaps
}
