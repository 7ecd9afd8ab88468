package io

import (
	"bufio"
	"fmt"
	"os"
	"path"

	"github.com/ss-g2/granular/particle"
)

// Names of the files written to a run's output directory.
const (
	ConfigFile     = "config.ini"
	ObstaclesFile  = "obstacles.txt"
	DischargesFile = "discharges.txt"
	SnapshotsFile  = "snapshots.txt"
)

// WriteConfig writes the effective configuration of a run to dir in a form
// that ReadSimulationConfig accepts.
func WriteConfig(dir string, con *SimulationConfig) error {
	f, err := os.Create(path.Join(dir, ConfigFile))
	if err != nil {
		return err
	}
	wr := bufio.NewWriter(f)

	fmt.Fprintln(wr, "[Simulation]")
	fmt.Fprintf(wr, "Length = %.17g\n", con.Length)
	fmt.Fprintf(wr, "Width = %.17g\n", con.Width)
	fmt.Fprintf(wr, "ObstacleCount = %d\n", con.ObstacleCount)
	fmt.Fprintf(wr, "ObstacleRadius = %.17g\n", con.ObstacleRadius)
	fmt.Fprintf(wr, "ParticleCount = %d\n", con.ParticleCount)
	fmt.Fprintf(wr, "ParticleRadius = %.17g\n", con.ParticleRadius)
	fmt.Fprintf(wr, "ParticleMass = %.17g\n", con.ParticleMass)
	fmt.Fprintf(wr, "Acceleration = %.17g\n", con.Acceleration)
	fmt.Fprintf(wr, "NormalK = %.17g\n", con.NormalK)
	fmt.Fprintf(wr, "Gamma = %.17g\n", con.Gamma)
	fmt.Fprintf(wr, "TangentialK = %.17g\n", con.TangentialK)
	fmt.Fprintf(wr, "IntegrationStep = %.17g\n", con.IntegrationStep)
	fmt.Fprintf(wr, "SnapshotStep = %.17g\n", con.SnapshotStep)
	fmt.Fprintf(wr, "MaxTime = %.17g\n", con.MaxTime)
	fmt.Fprintf(wr, "Output = %s\n", con.Output)
	fmt.Fprintf(wr, "Seed = %d\n", con.Seed)
	fmt.Fprintf(wr, "CutoffRadius = %.17g\n", con.CutoffRadius)
	fmt.Fprintf(wr, "RelocationRetries = %d\n", con.RelocationRetries)
	fmt.Fprintf(wr, "RelocationExhaustion = %s\n", con.RelocationExhaustion)
	fmt.Fprintf(wr, "Reinjection = %s\n", con.Reinjection)
	fmt.Fprintf(wr, "Workers = %d\n", con.Workers)
	fmt.Fprintf(wr, "PlacementTries = %d\n", con.PlacementTries)
	fmt.Fprintf(wr, "CheckFinite = %t\n", con.CheckFinite)

	return flushClose(wr, f)
}

// WriteObstacles writes one "x y r" row per obstacle.
func WriteObstacles(dir string, obstacles []particle.Particle) error {
	f, err := os.Create(path.Join(dir, ObstaclesFile))
	if err != nil {
		return err
	}
	wr := bufio.NewWriter(f)
	for i := range obstacles {
		o := &obstacles[i]
		fmt.Fprintf(wr, "%.17g %.17g %.17g\n", o.X.X, o.X.Y, o.Radius)
	}
	return flushClose(wr, f)
}

// WriteDischarges writes one discharge time per line.
func WriteDischarges(dir string, times []float64) error {
	f, err := os.Create(path.Join(dir, DischargesFile))
	if err != nil {
		return err
	}
	wr := bufio.NewWriter(f)
	for _, t := range times {
		fmt.Fprintf(wr, "%.17g\n", t)
	}
	return flushClose(wr, f)
}

func flushClose(wr *bufio.Writer, f *os.File) error {
	if err := wr.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// SnapshotWriter streams snapshots to a run's snapshots.txt as they are
// recorded, one "t id x y vx vy" row per particle. It implements
// granular.Recorder.
type SnapshotWriter struct {
	f  *os.File
	wr *bufio.Writer
	n  int
}

// NewSnapshotWriter creates snapshots.txt in dir.
func NewSnapshotWriter(dir string) (*SnapshotWriter, error) {
	f, err := os.Create(path.Join(dir, SnapshotsFile))
	if err != nil {
		return nil, err
	}
	return &SnapshotWriter{f: f, wr: bufio.NewWriter(f)}, nil
}

// Record writes one row per particle of s.
func (sw *SnapshotWriter) Record(s *particle.Snapshot) error {
	for i := range s.IDs {
		_, err := fmt.Fprintf(
			sw.wr, "%.17g %d %.17g %.17g %.17g %.17g\n", s.Time, s.IDs[i],
			s.Xs[i].X, s.Xs[i].Y, s.Vs[i].X, s.Vs[i].Y,
		)
		if err != nil {
			return err
		}
	}
	sw.n++
	return nil
}

// Count returns the number of snapshots recorded so far.
func (sw *SnapshotWriter) Count() int { return sw.n }

// Close flushes the remaining rows and closes the file.
func (sw *SnapshotWriter) Close() error {
	return flushClose(sw.wr, sw.f)
}
