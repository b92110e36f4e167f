package slam

import (
	"time"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/graphslam/blockmat"
	"go.viam.com/graphslam/spatialmath"
)

type runOptions struct {
	iterations int
	tolerance  float64
	debug      bool
}

// RunOption configures a batch solve.
type RunOption func(*runOptions)

// WithIterations caps the number of Gauss-Newton iterations.
func WithIterations(n int) RunOption {
	return func(o *runOptions) {
		o.iterations = n
	}
}

// WithTolerance sets the mean squared correction below which the solve stops.
func WithTolerance(tol float64) RunOption {
	return func(o *runOptions) {
		o.tolerance = tol
	}
}

// WithDebug logs the correction of every iteration at info level.
func WithDebug(debug bool) RunOption {
	return func(o *runOptions) {
		o.debug = debug
	}
}

// RunResult is the outcome of a batch solve.
type RunResult struct {
	// Nodes are the estimates of all populated nodes in index order.
	Nodes []spatialmath.Pose7
	// Iterations is the number of Gauss-Newton iterations performed.
	Iterations int
	// Deltas holds the mean squared correction of each iteration.
	Deltas []float64
	// Converged reports whether the last delta fell below the tolerance.
	Converged bool
	// H and B are the information matrix and vector of the last iteration.
	H *blockmat.Blocks
	B *blockmat.Blocks
	// Elapsed is the time spent iterating.
	Elapsed time.Duration
}

// Run solves the whole graph over nodes 0..maxNodes-1 by Gauss-Newton. Each iteration rebuilds H
// and b from every observation at the current estimates, seeding unknown targets from their source
// first. Node 0 is anchored by an identity prior. The correction of the undamped system is applied
// to every populated node until its mean square drops below the tolerance or the iteration cap is
// reached. Running out of iterations is reported through RunResult.Converged, not as an error.
func (g *GraphState) Run(obs []Observation, maxNodes int, opts ...RunOption) (*RunResult, error) {
	o := runOptions{
		iterations: g.cfg.iterations(),
		tolerance:  g.cfg.tolerance(),
		debug:      g.cfg.Debug,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if maxNodes < 1 {
		return nil, errors.Wrapf(ErrDimension, "batch solve needs at least one node, got %d", maxNodes)
	}
	if err := checkObservations(obs, maxNodes, g.knownNodes(maxNodes)); err != nil {
		return nil, err
	}
	if len(g.nodes) < maxNodes {
		g.nodes = append(g.nodes, make([]nodeSlot, maxNodes-len(g.nodes))...)
	}

	start := g.clock.Now()
	res := &RunResult{}
	for it := 0; it < o.iterations; it++ {
		h := blockmat.New(maxNodes, maxNodes, dof, dof)
		b := blockmat.New(maxNodes, 1, dof, 1)

		var seeded int
		for _, ob := range obs {
			if _, ok := g.Node(ob.To); !ok {
				g.seed(ob)
				seeded++
			}
			if err := g.accumulate(h, b, ob); err != nil {
				return nil, err
			}
		}
		g.metrics.seeded(seeded)
		h.AddTo(0, 0, identity6())

		var rhs mat.Dense
		rhs.Scale(-1, blockmat.Block(b))
		dx, err := blockmat.LeastSquares(blockmat.Block(h), &rhs)
		if err != nil {
			return nil, err
		}
		for i := 0; i < maxNodes; i++ {
			if x, ok := g.Node(i); ok {
				g.setNode(i, spatialmath.ApplyCorrection(x, correctionAt(dx, i)))
			}
		}

		delta := meanSquare(dx)
		res.Iterations++
		res.Deltas = append(res.Deltas, delta)
		res.H, res.B = h, b
		g.metrics.iterated(delta)
		if o.debug {
			g.logger.Infow("batch iteration", "iteration", it, "delta", delta)
		}
		if delta < o.tolerance {
			res.Converged = true
			break
		}
	}
	if !res.Converged {
		g.logger.Warnw("batch solve did not converge", "iterations", res.Iterations, "tolerance", o.tolerance)
	}
	res.Elapsed = g.clock.Since(start)
	g.logger.Debugw("batch solve finished", "iterations", res.Iterations, "converged", res.Converged, "elapsed", res.Elapsed)
	res.Nodes = g.Nodes()
	return res, nil
}

// RunNodes is Run returning only the final estimates.
func (g *GraphState) RunNodes(obs []Observation, maxNodes, iterations int, tolerance float64, debug bool) (
	[]spatialmath.Pose7, error,
) {
	res, err := g.Run(obs, maxNodes, WithIterations(iterations), WithTolerance(tolerance), WithDebug(debug))
	if err != nil {
		return nil, err
	}
	return res.Nodes, nil
}

func meanSquare(dx *mat.Dense) float64 {
	raw := dx.RawMatrix()
	if raw.Rows == 0 {
		return 0
	}
	v := make([]float64, 0, raw.Rows*raw.Cols)
	for i := 0; i < raw.Rows; i++ {
		v = append(v, raw.Data[i*raw.Stride:i*raw.Stride+raw.Cols]...)
	}
	return floats.Dot(v, v) / float64(len(v))
}
