package io

import (
	"fmt"
	"math"
	"strings"

	"gopkg.in/gcfg.v1"

	"github.com/ss-g2/granular"
	"github.com/ss-g2/granular/discharge"
	"github.com/ss-g2/granular/generate"
)

const (
	ExampleSimulationFile = `[Simulation]

#######################
# Required Parameters #
#######################

# Extents of the channel. Particles flow along Length (x) and are confined
# between two walls that are Width apart (y = 0 and y = Width). The channel
# wraps around along x.
Length = 140
Width = 40

# Number and radius of the fixed obstacles. Obstacles are placed at random
# without overlapping each other or the walls.
ObstacleCount = 80
ObstacleRadius = 1

# Number, radius and mass of the mobile particles. They start at rest.
ParticleCount = 200
ParticleRadius = 1
ParticleMass = 1

# Driving acceleration along x. May be negative.
Acceleration = 1

# Contact model: normal stiffness, normal damping and tangential stiffness.
NormalK = 250
Gamma = 2.5
TangentialK = 500

# Integration step, time between snapshots, and total simulated time.
IntegrationStep = 0.001
SnapshotStep = 0.1
MaxTime = 100

# Directory which output files will be written to.
Output = path/to/output/dir

#######################
# Optional Parameters #
#######################

# Seed for obstacle placement, particle placement and re-injection. Runs with
# the same configuration and Seed are identical.
# Seed = 0

# Cell size floor of the neighbor search. Defaults to the largest diameter
# in the system. Must be at least as large as any contact distance.
# CutoffRadius = 2

# Particles that leave through x = Length are re-injected upstream of x = 0
# at a free spot. RelocationRetries bounds the search for that spot, and
# RelocationExhaustion chooses what happens when it runs out: Warn accepts
# the last candidate and logs, Abort stops the run.
# RelocationRetries = 1000
# RelocationExhaustion = Warn

# Velocity of re-injected particles: Keep preserves it, Reset zeroes it.
# Reinjection = Keep

# Number of goroutines used to compute forces. Results do not depend on it.
# Workers = 1

# Attempt budget for the random placement of each population.
# PlacementTries = 1000000

# Stop the run as soon as a position or velocity is no longer finite.
# CheckFinite = true

# Output files which are useful for profiling and debugging. Generally, there
# isn't a reason to use these unless something goes wrong.
# ProfileFile = prof.out
# LogFile = log.out`

	ExampleAnalyzeFile = `[Analyze]

#######################
# Required Parameters #
#######################

# Output directories of finished runs. Repeat the line to average over
# several runs.
Input = path/to/run/one
Input = path/to/run/two

# Discharges before this time are treated as transient and ignored by the
# flow rate fit.
SteadyStart = 10

#######################
# Optional Parameters #
#######################

# Number of cells along the channel used for the packing fraction profile.
# The profile is skipped if this is not set.
# ProfileCells = 70

# Directory where plots are written. Plots are skipped if this is not set.
# Plots = path/to/plot/dir

# Driving acceleration and particle mass used to turn the flow rate into a
# resistance. Both default to the values found in each run's config.ini.
# Acceleration = 1
# Mass = 1

# ProfileFile = prof.out
# LogFile = log.out`
)

type SharedConfig struct {
	// Optional
	LogFile, ProfileFile string
}

func (con *SharedConfig) ValidLogFile() bool {
	return con.LogFile != ""
}
func (con *SharedConfig) ValidProfileFile() bool {
	return con.ProfileFile != ""
}

type SimulationConfig struct {
	SharedConfig

	// Required
	Length, Width                 float64
	ObstacleCount, ParticleCount  int
	ObstacleRadius, ParticleRadius float64
	ParticleMass                  float64
	Acceleration                  float64
	NormalK, Gamma, TangentialK   float64
	IntegrationStep, SnapshotStep float64
	MaxTime                       float64
	Output                        string

	// Optional
	Seed                 uint64
	CutoffRadius         float64
	RelocationRetries    int
	RelocationExhaustion string
	Reinjection          string
	Workers              int
	PlacementTries       int
	CheckFinite          bool
}

type SimulationWrapper struct {
	Simulation SimulationConfig
}

func DefaultSimulationWrapper() *SimulationWrapper {
	con := SimulationConfig{}
	con.RelocationRetries = granular.DefaultRelocationRetries
	con.RelocationExhaustion = "Warn"
	con.Reinjection = "Keep"
	con.Workers = 1
	con.PlacementTries = generate.DefaultMaxTries
	con.CheckFinite = true
	return &SimulationWrapper{con}
}

// ReadSimulationConfig reads a [Simulation] file on top of the defaults and
// validates it.
func ReadSimulationConfig(fname string) (*SimulationConfig, error) {
	wrap := DefaultSimulationWrapper()
	if err := gcfg.ReadFileInto(wrap, fname); err != nil {
		return nil, err
	}
	if err := wrap.Simulation.Validate(); err != nil {
		return nil, err
	}
	return &wrap.Simulation, nil
}

func (con *SimulationConfig) ValidOutput() bool {
	return con.Output != ""
}
func (con *SimulationConfig) ValidCounts() bool {
	return con.ObstacleCount >= 0 && con.ParticleCount >= 0
}
func (con *SimulationConfig) ValidRelocationExhaustion() bool {
	_, err := ParseExhaustion(con.RelocationExhaustion)
	return err == nil
}
func (con *SimulationConfig) ValidReinjection() bool {
	_, err := ParseReinjection(con.Reinjection)
	return err == nil
}
func (con *SimulationConfig) ValidPlacementTries() bool {
	return con.PlacementTries > 0
}

// Validate returns an error naming the first invalid value in con.
func (con *SimulationConfig) Validate() error {
	positive := []struct {
		name string
		val  float64
	}{
		{"Length", con.Length}, {"Width", con.Width},
		{"ObstacleRadius", con.ObstacleRadius},
		{"ParticleRadius", con.ParticleRadius},
		{"ParticleMass", con.ParticleMass},
		{"NormalK", con.NormalK},
		{"IntegrationStep", con.IntegrationStep},
		{"SnapshotStep", con.SnapshotStep}, {"MaxTime", con.MaxTime},
	}
	for _, x := range positive {
		if !(x.val > 0) || math.IsInf(x.val, 0) {
			return fmt.Errorf(
				"Invalid/non-existent '%s' value: must be positive, but is %g.",
				x.name, x.val,
			)
		}
	}

	switch {
	case !con.ValidOutput():
		return fmt.Errorf("Invalid/non-existent 'Output' value.")
	case !con.ValidCounts():
		return fmt.Errorf(
			"'ObstacleCount' and 'ParticleCount' must be non-negative, "+
				"but are %d and %d.", con.ObstacleCount, con.ParticleCount,
		)
	case con.TangentialK < 0:
		return fmt.Errorf(
			"'TangentialK' must be non-negative, but is %g.", con.TangentialK,
		)
	case con.CutoffRadius < 0:
		return fmt.Errorf(
			"'CutoffRadius' must be non-negative, but is %g.", con.CutoffRadius,
		)
	case con.RelocationRetries <= 0:
		return fmt.Errorf(
			"'RelocationRetries' must be positive, but is %d.",
			con.RelocationRetries,
		)
	case !con.ValidRelocationExhaustion():
		return fmt.Errorf(
			"Unrecognized 'RelocationExhaustion' value '%s'. Accepted values "+
				"are 'Warn' and 'Abort'.", con.RelocationExhaustion,
		)
	case !con.ValidReinjection():
		return fmt.Errorf(
			"Unrecognized 'Reinjection' value '%s'. Accepted values are "+
				"'Keep' and 'Reset'.", con.Reinjection,
		)
	case con.Workers <= 0:
		return fmt.Errorf("'Workers' must be positive, but is %d.", con.Workers)
	case !con.ValidPlacementTries():
		return fmt.Errorf(
			"'PlacementTries' must be positive, but is %d.", con.PlacementTries,
		)
	}

	p, err := con.Params()
	if err != nil {
		return err
	}
	return p.Validate()
}

// Params converts con into the parameters of a granular.Simulation.
func (con *SimulationConfig) Params() (granular.Params, error) {
	ex, err := ParseExhaustion(con.RelocationExhaustion)
	if err != nil {
		return granular.Params{}, err
	}
	re, err := ParseReinjection(con.Reinjection)
	if err != nil {
		return granular.Params{}, err
	}

	return granular.Params{
		Length: con.Length, Width: con.Width,
		NormalK: con.NormalK, TangentialK: con.TangentialK,
		Gamma: con.Gamma, Acceleration: con.Acceleration,
		IntegrationStep: con.IntegrationStep,
		SnapshotStep:    con.SnapshotStep,
		MaxTime:         con.MaxTime,
		Cutoff:          con.CutoffRadius,

		RelocationRetries: con.RelocationRetries,
		Reinjection:       re,
		Exhaustion:        ex,

		Workers:        con.Workers,
		CheckFinite:    con.CheckFinite,
		RejectOverlaps: true,
		Seed:           con.Seed,
	}, nil
}

// Obstacles returns the placement configuration of the obstacles.
func (con *SimulationConfig) Obstacles() generate.Config {
	return generate.Config{
		Length: con.Length, Width: con.Width,
		Count: con.ObstacleCount, Radius: con.ObstacleRadius,
		MaxTries: con.PlacementTries,
	}
}

// Particles returns the placement configuration of the mobile particles.
func (con *SimulationConfig) Particles() generate.Config {
	return generate.Config{
		Length: con.Length, Width: con.Width,
		Count: con.ParticleCount, Radius: con.ParticleRadius,
		Mass: con.ParticleMass, MaxTries: con.PlacementTries,
	}
}

// ParseExhaustion reads a RelocationExhaustion value. Case is ignored.
func ParseExhaustion(s string) (discharge.Exhaustion, error) {
	switch strings.ToLower(s) {
	case "warn":
		return discharge.Warn, nil
	case "abort":
		return discharge.Abort, nil
	}
	return 0, fmt.Errorf("Unrecognized relocation exhaustion policy '%s'.", s)
}

// ParseReinjection reads a Reinjection value. Case is ignored.
func ParseReinjection(s string) (discharge.Reinjection, error) {
	switch strings.ToLower(s) {
	case "keep":
		return discharge.Keep, nil
	case "reset":
		return discharge.Reset, nil
	}
	return 0, fmt.Errorf("Unrecognized reinjection policy '%s'.", s)
}

type AnalyzeConfig struct {
	SharedConfig

	// Required
	Input       []string
	SteadyStart float64

	// Optional
	ProfileCells       int
	Plots              string
	Acceleration, Mass float64
}

type AnalyzeWrapper struct {
	Analyze AnalyzeConfig
}

func DefaultAnalyzeWrapper() *AnalyzeWrapper {
	return &AnalyzeWrapper{AnalyzeConfig{}}
}

// ReadAnalyzeConfig reads an [Analyze] file and validates it.
func ReadAnalyzeConfig(fname string) (*AnalyzeConfig, error) {
	wrap := DefaultAnalyzeWrapper()
	if err := gcfg.ReadFileInto(wrap, fname); err != nil {
		return nil, err
	}
	if err := wrap.Analyze.Validate(); err != nil {
		return nil, err
	}
	return &wrap.Analyze, nil
}

func (con *AnalyzeConfig) ValidInput() bool {
	for _, in := range con.Input {
		if in == "" {
			return false
		}
	}
	return len(con.Input) > 0
}
func (con *AnalyzeConfig) ValidProfileCells() bool {
	return con.ProfileCells > 0
}
func (con *AnalyzeConfig) ValidPlots() bool {
	return con.Plots != ""
}
func (con *AnalyzeConfig) ValidAcceleration() bool {
	return con.Acceleration != 0
}
func (con *AnalyzeConfig) ValidMass() bool {
	return con.Mass > 0
}

func (con *AnalyzeConfig) Validate() error {
	if !con.ValidInput() {
		return fmt.Errorf("Invalid/non-existent 'Input' value.")
	} else if con.SteadyStart < 0 || math.IsNaN(con.SteadyStart) {
		return fmt.Errorf(
			"'SteadyStart' must be non-negative, but is %g.", con.SteadyStart,
		)
	} else if con.ProfileCells < 0 {
		return fmt.Errorf(
			"'ProfileCells' must be non-negative, but is %d.", con.ProfileCells,
		)
	} else if con.Mass < 0 {
		return fmt.Errorf("'Mass' must be non-negative, but is %g.", con.Mass)
	}
	return nil
}
