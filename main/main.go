package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path"
	"runtime/pprof"
	"strings"

	plt "github.com/phil-mansfield/pyplot"
	"golang.org/x/exp/rand"

	"github.com/ss-g2/granular"
	"github.com/ss-g2/granular/analyze"
	"github.com/ss-g2/granular/density"
	"github.com/ss-g2/granular/generate"
	"github.com/ss-g2/granular/io"
	"github.com/ss-g2/granular/view"
)

type fileGroup struct {
	log, prof *os.File
}

// openFiles redirects the log and starts CPU profiling as requested by con.
func openFiles(con *io.SharedConfig) *fileGroup {
	fg := &fileGroup{}
	var err error

	if con.ValidLogFile() {
		fg.log, err = os.Create(con.LogFile)
		if err != nil {
			log.Fatal(err.Error())
		}
		log.SetOutput(fg.log)
	}

	if con.ValidProfileFile() {
		fg.prof, err = os.Create(con.ProfileFile)
		if err != nil {
			log.Fatal(err.Error())
		}
		if err = pprof.StartCPUProfile(fg.prof); err != nil {
			log.Fatal(err.Error())
		}
	}

	return fg
}

func (fg *fileGroup) Close() {
	if fg.prof != nil {
		pprof.StopCPUProfile()
		if err := fg.prof.Close(); err != nil {
			log.Fatal(err.Error())
		}
	}

	if fg.log != nil {
		log.SetOutput(os.Stderr)
		if err := fg.log.Close(); err != nil {
			log.Fatal(err.Error())
		}
	}
}

func main() {
	var (
		simulate, analyzeRuns, viewRun string
		exampleConfig                  string
	)
	vars := map[string]*string{
		"Simulate":      &simulate,
		"Analyze":       &analyzeRuns,
		"View":          &viewRun,
		"ExampleConfig": &exampleConfig,
	}

	flag.StringVar(
		&simulate, "Simulate", "",
		"Configuration file for [Simulation] mode.",
	)
	flag.StringVar(
		&analyzeRuns, "Analyze", "",
		"Configuration file for [Analyze] mode.",
	)
	flag.StringVar(
		&viewRun, "View", "",
		"Output directory of a finished run to replay in the terminal.",
	)
	flag.StringVar(
		&exampleConfig,
		"ExampleConfig", "", "Prints an example configuration file of the "+
			"specified type to stdout. Accepted arguments are 'Simulation' "+
			"and 'Analyze'.",
	)

	flag.Parse()

	modeName, err := getModeName(vars)
	if err != nil {
		log.Fatal(err.Error())
	}

	switch modeName {
	case "Simulate":
		con, err := io.ReadSimulationConfig(simulate)
		if err != nil {
			log.Fatal(err.Error())
		}
		fg := openFiles(&con.SharedConfig)
		err = simulateMain(con)
		fg.Close()
		if err != nil {
			log.Fatal(err.Error())
		}

	case "Analyze":
		con, err := io.ReadAnalyzeConfig(analyzeRuns)
		if err != nil {
			log.Fatal(err.Error())
		}
		fg := openFiles(&con.SharedConfig)
		err = analyzeMain(con)
		fg.Close()
		if err != nil {
			log.Fatal(err.Error())
		}

	case "View":
		if err := viewMain(viewRun); err != nil {
			log.Fatal(err.Error())
		}

	case "ExampleConfig":
		switch exampleConfig {
		case "Simulation":
			fmt.Println(io.ExampleSimulationFile)
		case "Analyze":
			fmt.Println(io.ExampleAnalyzeFile)
		default:
			log.Fatal(
				"Unrecognized 'ExampleConfig' argument. Only recognized " +
					"arguments are 'Simulation' and 'Analyze'.",
			)
		}
	default:
		panic("Impossible")
	}
}

func getModeName(vars map[string]*string) (string, error) {
	setNames := []string{}

	for name, varPtr := range vars {
		if *varPtr != "" {
			setNames = append(setNames, name)
		}
	}

	if len(setNames) == 0 {
		return "", fmt.Errorf("No flags have been set.")
	}

	if len(setNames) > 1 {
		return "", fmt.Errorf(
			"The following flags were set: %s, but granular "+
				"only accepts one flag at a time.",
			strings.Join(setNames, ", "),
		)
	}

	return setNames[0], nil
}

func simulateMain(con *io.SimulationConfig) error {
	p, err := con.Params()
	if err != nil {
		return err
	}

	gen := rand.New(rand.NewSource(con.Seed))
	obstacles, err := generate.Obstacles(con.Obstacles(), gen)
	if err != nil {
		return err
	}
	mobile, err := generate.Particles(con.Particles(), obstacles, gen)
	if err != nil {
		return err
	}
	log.Printf(
		"Placed %d obstacles and %d particles in a %g x %g channel.",
		len(obstacles), len(mobile), con.Length, con.Width,
	)

	// Re-injection draws from its own stream so that it does not depend on
	// how many attempts placement needed.
	p.Seed = gen.Uint64()
	sim, err := granular.New(p, mobile, obstacles)
	if err != nil {
		return err
	}
	sim.Log = true

	if err = os.MkdirAll(con.Output, 0777); err != nil {
		return err
	}
	if err = io.WriteConfig(con.Output, con); err != nil {
		return err
	}
	if err = io.WriteObstacles(con.Output, obstacles); err != nil {
		return err
	}

	sw, err := io.NewSnapshotWriter(con.Output)
	if err != nil {
		return err
	}
	runErr := sim.Run(sw)
	if err = sw.Close(); err != nil && runErr == nil {
		runErr = err
	}

	// Discharges are written even if the run failed part way through.
	if err = io.WriteDischarges(con.Output, sim.Discharges()); err != nil {
		return err
	}
	if runErr != nil {
		return runErr
	}

	log.Printf(
		"Finished %d steps: %d snapshots, %d discharges written to %s.",
		sim.StepCount(), sw.Count(), len(sim.Discharges()), con.Output,
	)
	return nil
}

func analyzeMain(con *io.AnalyzeConfig) error {
	runs := make([][]float64, len(con.Input))
	qs := []float64{}
	rs := []float64{}

	for i, dir := range con.Input {
		sim, err := io.ReadSimulationConfig(path.Join(dir, io.ConfigFile))
		if err != nil {
			return err
		}
		runs[i], err = io.ReadDischarges(dir)
		if err != nil {
			return err
		}

		flow, err := analyze.FlowRate(runs[i], con.SteadyStart)
		if err != nil {
			log.Printf("Skipping flow rate of %s: %s", dir, err.Error())
			continue
		}

		mass, accel := sim.ParticleMass, sim.Acceleration
		if con.ValidMass() {
			mass = con.Mass
		}
		if con.ValidAcceleration() {
			accel = con.Acceleration
		}
		r := analyze.Resistance(mass, accel, flow.Q)

		fmt.Printf("%s: Q = %.5g (%d events), R = %.5g\n",
			dir, flow.Q, flow.Events, r)
		qs, rs = append(qs, flow.Q), append(rs, r)
	}

	if len(qs) > 0 {
		qMean, qStd := analyze.Summarize(qs)
		rMean, rStd := analyze.Summarize(rs)
		fmt.Printf("Q = %.5g +/- %.5g\n", qMean, qStd)
		fmt.Printf("R = %.5g +/- %.5g\n", rMean, rStd)
	}

	var xs, phis []float64
	if con.ValidProfileCells() {
		var err error
		xs, phis, err = packingProfile(con)
		if err != nil {
			return err
		}
		for i := range xs {
			fmt.Printf("%8.4g %8.4g\n", xs[i], phis[i])
		}
	}

	if con.ValidPlots() {
		if err := os.MkdirAll(con.Plots, 0777); err != nil {
			return err
		}
		analyze.PlotCumulative(runs, path.Join(con.Plots, "cumulative.png"))
		if con.ValidProfileCells() {
			analyze.PlotProfile(xs, phis, path.Join(con.Plots, "profile.png"))
		}
		plt.Execute()
	}

	return nil
}

// packingProfile averages the packing fraction profile over the steady
// snapshots of each input run, then over the runs.
func packingProfile(con *io.AnalyzeConfig) (xs, phis []float64, err error) {
	for _, dir := range con.Input {
		sim, err := io.ReadSimulationConfig(path.Join(dir, io.ConfigFile))
		if err != nil {
			return nil, nil, err
		}
		snaps, err := io.ReadSnapshots(dir)
		if err != nil {
			return nil, nil, err
		}
		obstacles, err := io.ReadObstacles(dir)
		if err != nil {
			return nil, nil, err
		}

		grid := density.New(sim.Length, sim.Width, con.ProfileCells, 1)
		grid.AddObstacles(obstacles)
		for _, snap := range snaps {
			if snap.Time >= con.SteadyStart {
				grid.AddFrame(snap.Xs, sim.ParticleRadius)
			}
		}

		runXs, runPhis := grid.Profile()
		if phis == nil {
			xs, phis = runXs, make([]float64, len(runPhis))
		}
		for i := range phis {
			phis[i] += runPhis[i] / float64(len(con.Input))
		}
	}

	return xs, phis, nil
}

func viewMain(dir string) error {
	con, err := io.ReadSimulationConfig(path.Join(dir, io.ConfigFile))
	if err != nil {
		return err
	}
	obstacles, err := io.ReadObstacles(dir)
	if err != nil {
		return err
	}
	snaps, err := io.ReadSnapshots(dir)
	if err != nil {
		return err
	}
	return view.Run(snaps, obstacles, con.Length, con.Width)
}
