// Package main runs the pose-graph estimators over a simulated circular trajectory and reports how
// far their estimates end up from the ground truth.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
	"gopkg.in/natefinch/lumberjack.v2"

	"go.viam.com/graphslam/logging"
	"go.viam.com/graphslam/simulate"
	"go.viam.com/graphslam/slam"
	"go.viam.com/graphslam/spatialmath"
)

const (
	// Flags.
	flagConfig    = "config"
	flagPoses     = "poses"
	flagLandmarks = "landmarks"
	flagRadius    = "radius"
	flagRange     = "range"
	flagNoise     = "noise"
	flagSeed      = "seed"
	flagMode      = "mode"
	flagDebug     = "debug"
	flagLogFile   = "log-file"

	modeStep = "step"
	modeRun  = "run"
	modeBoth = "both"
)

func main() {
	if err := newApp(nil).Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newApp builds the command. A nil logger is replaced by a stdout logger whose level follows the
// debug flag.
func newApp(logger logging.Logger) *cli.App {
	var logFile *lumberjack.Logger
	return &cli.App{
		Name:  "slamsim",
		Usage: "solve a simulated pose graph incrementally and in batch",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    flagConfig,
				Aliases: []string{"c"},
				Usage:   "load estimator configuration from `FILE` (yaml or json)",
			},
			&cli.IntFlag{
				Name:  flagPoses,
				Value: 20,
				Usage: "number of poses on the trajectory",
			},
			&cli.IntFlag{
				Name:  flagLandmarks,
				Value: 8,
				Usage: "number of landmarks around the trajectory",
			},
			&cli.Float64Flag{
				Name:  flagRadius,
				Value: 5,
				Usage: "radius of the circular trajectory",
			},
			&cli.Float64Flag{
				Name:  flagRange,
				Usage: "maximum sighting distance, 0 for unlimited",
			},
			&cli.Float64Flag{
				Name:  flagNoise,
				Usage: "standard deviation of the translation noise; rotation noise is a tenth of it",
			},
			&cli.Uint64Flag{
				Name:  flagSeed,
				Value: 1,
				Usage: "seed for the landmark layout and the noise",
			},
			&cli.StringFlag{
				Name:  flagMode,
				Value: modeBoth,
				Usage: "estimator to run: step, run or both",
			},
			&cli.BoolFlag{
				Name:    flagDebug,
				Aliases: []string{"vvv"},
				Usage:   "enable debug logging",
			},
			&cli.StringFlag{
				Name:  flagLogFile,
				Usage: "also write logs to the rotated file `PATH`",
			},
		},
		Before: func(c *cli.Context) error {
			if logger == nil {
				if c.Bool(flagDebug) {
					logger = logging.NewDebugLogger("slamsim")
				} else {
					logger = logging.NewLogger("slamsim")
				}
			}
			if path := c.String(flagLogFile); path != "" {
				logFile = &lumberjack.Logger{
					Filename:   path,
					MaxSize:    64,
					MaxBackups: 2,
					Compress:   true,
				}
				logger.AddAppender(logging.NewWriterAppender(logFile))
			}
			return nil
		},
		After: func(c *cli.Context) error {
			var err error
			if logger != nil {
				//nolint:errcheck
				logger.Sync()
			}
			if logFile != nil {
				err = logFile.Close()
			}
			return err
		},
		Action: func(c *cli.Context) error {
			return simulateAction(c, logger)
		},
	}
}

// report is the outcome of one estimator over a scenario.
type report struct {
	estimator  string
	iterations int
	poses      []float64
	landmarks  []float64
}

func simulateAction(c *cli.Context, logger logging.Logger) error {
	mode := c.String(flagMode)
	if mode != modeStep && mode != modeRun && mode != modeBoth {
		return errors.Errorf("unknown mode %q, expected one of %s, %s or %s", mode, modeStep, modeRun, modeBoth)
	}
	if c.Int(flagPoses) < 2 {
		return errors.Errorf("need at least 2 poses, got %d", c.Int(flagPoses))
	}

	conf := &slam.Config{}
	if path := c.String(flagConfig); path != "" {
		var err error
		if conf, err = slam.LoadConfig(path); err != nil {
			return err
		}
	}
	conf.NumLandmarks = c.Int(flagLandmarks)
	conf.Debug = conf.Debug || c.Bool(flagDebug)

	scenario := simulate.NewCircle(c.Int(flagPoses), c.Int(flagLandmarks), c.Float64(flagRadius), c.Uint64(flagSeed))
	scenario.Range = c.Float64(flagRange)
	if noise := c.Float64(flagNoise); noise > 0 {
		scenario.WithNoise(noise, noise/10, c.Uint64(flagSeed))
	}

	poseInfo := slam.NewIsotropicInformation(1, 1)
	landmarkInfo := slam.NewIsotropicInformation(1, 0)

	// Measurements are drawn up front since the noise source is not safe to share. Each estimator
	// then owns its graph, so they can solve side by side.
	var stepReport, runReport *report
	var eg errgroup.Group
	if mode == modeStep || mode == modeBoth {
		inputs := scenario.StepInputs(landmarkInfo)
		eg.Go(func() error {
			var err error
			stepReport, err = runIncremental(*conf, scenario, inputs, logger.Sublogger("step"))
			return err
		})
	}
	if mode == modeRun || mode == modeBoth {
		obs := scenario.BatchObservations(poseInfo, landmarkInfo)
		eg.Go(func() error {
			var err error
			runReport, err = runBatch(*conf, scenario, obs, logger.Sublogger("run"))
			return err
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}
	return writeSummary(c.App.Writer, stepReport, runReport)
}

func runIncremental(
	conf slam.Config,
	s *simulate.Scenario,
	inputs []simulate.StepInput,
	logger logging.Logger,
) (*report, error) {
	g, err := slam.NewGraphState(conf, logger)
	if err != nil {
		return nil, err
	}
	g.Initialize(s.Poses[0])

	out := &report{estimator: modeStep}
	var current []spatialmath.Pose7
	for i, in := range inputs {
		nodes, err := g.Step(&in.Motion, in.Observations)
		if err != nil {
			return nil, errors.Wrapf(err, "step %d", i+1)
		}
		out.iterations++
		current = append(current, nodes[0])
		logger.Infow("pose", "index", i+1,
			"position_error", nodes[0].Point().Sub(s.Poses[i+1].Point()).Norm(),
			"heading_error", simulate.HeadingError(nodes[0], s.Poses[i+1]))
	}
	out.poses = simulate.PositionErrors(current, s.Poses[1:], nil)
	for k, l := range s.Landmarks {
		x, ok := g.Node(k + 2)
		if !ok {
			logger.Infow("landmark never seen", "index", k)
			continue
		}
		posErr := x.Point().Sub(l).Norm()
		out.landmarks = append(out.landmarks, posErr)
		logger.Infow("landmark", "index", k, "position_error", posErr)
	}
	return out, nil
}

func runBatch(
	conf slam.Config,
	s *simulate.Scenario,
	obs []slam.Observation,
	logger logging.Logger,
) (*report, error) {
	g, err := slam.NewGraphState(conf, logger)
	if err != nil {
		return nil, err
	}
	g.Initialize(s.Poses[0])

	res, err := g.Run(obs, s.MaxNodes())
	if err != nil {
		return nil, err
	}
	logger.Infow("batch solve", "iterations", res.Iterations, "converged", res.Converged, "elapsed", res.Elapsed)

	truth := s.Truth()
	out := &report{estimator: modeRun, iterations: res.Iterations}
	for i := 0; i < s.MaxNodes(); i++ {
		x, ok := g.Node(i)
		if !ok {
			logger.Infow("node never seen", "index", i)
			continue
		}
		posErr := x.Point().Sub(truth[i].Point()).Norm()
		if i < len(s.Poses) {
			out.poses = append(out.poses, posErr)
			logger.Infow("pose", "index", i,
				"position_error", posErr,
				"heading_error", simulate.HeadingError(x, truth[i]))
			continue
		}
		out.landmarks = append(out.landmarks, posErr)
		logger.Infow("landmark", "index", i-len(s.Poses), "position_error", posErr)
	}
	return out, nil
}

// writeSummary renders one row per estimator and node kind with the spread of position errors.
func writeSummary(w io.Writer, reports ...*report) error {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Estimator", "Nodes", "Count", "Mean", "Median", "Max", "Iterations"})
	for _, r := range reports {
		if r == nil {
			continue
		}
		for _, kind := range []struct {
			name string
			errs []float64
		}{{"poses", r.poses}, {"landmarks", r.landmarks}} {
			if len(kind.errs) == 0 {
				continue
			}
			sum, err := simulate.Summarize(kind.errs)
			if err != nil {
				return err
			}
			t.AppendRow(table.Row{
				r.estimator,
				kind.name,
				sum.Count,
				fmt.Sprintf("%.4f", sum.Mean),
				fmt.Sprintf("%.4f", sum.Median),
				fmt.Sprintf("%.4f", sum.Max),
				r.iterations,
			})
		}
	}
	_, err := fmt.Fprintln(w, t.Render())
	return err
}
