package slam

import (
	"gonum.org/v1/gonum/mat"

	"go.viam.com/graphslam/blockmat"
	"go.viam.com/graphslam/spatialmath"
)

// Step advances the sliding-window estimator by one timestep. A non-nil motion, expressed in the
// frame of the previous pose, seeds the current pose (node 1). Observations whose target has no
// estimate seed it and contribute nothing else; the rest are linearized into H and b. The previous
// pose is then marginalized out, the damped reduced system is solved, and the correction is applied
// to the current pose (when a motion was given) and to every observed target. Finally the current
// pose becomes the previous one and the reduced information is written back in its place.
//
// Node 0 is held at its marginalized value and is never corrected by Step. Observations are
// validated before anything is modified, so an error leaves the state untouched.
func (g *GraphState) Step(motion *spatialmath.Pose7, obs []Observation) ([]spatialmath.Pose7, error) {
	if !g.initialized {
		return nil, ErrNotInitialized
	}
	start := g.clock.Now()
	n := g.windowSize()
	known := g.knownNodes(n)
	if motion != nil {
		known[1] = true
	}
	if err := checkObservations(obs, n, known); err != nil {
		return nil, err
	}

	g.h.ZeroRow(1)
	g.h.ZeroCol(1)
	g.b.ZeroRow(1)

	var updated []int
	seen := make([]bool, n)
	touch := func(i int) {
		if i != 0 && !seen[i] {
			seen[i] = true
			updated = append(updated, i)
		}
	}

	if motion != nil {
		x0, _ := g.Node(0)
		g.setNode(1, spatialmath.ComposeRelative(x0, *motion, false))
		touch(1)
	}

	var seeded int
	for _, o := range obs {
		touch(o.To)
		if _, ok := g.Node(o.To); !ok {
			g.seed(o)
			seeded++
			continue
		}
		if err := g.accumulate(g.h, g.b, o); err != nil {
			return nil, err
		}
	}

	hr, br, err := g.marginalize()
	if err != nil {
		return nil, err
	}

	damped := mat.DenseCopyOf(hr)
	if g.cfg.Lambda != 0 {
		rows, _ := damped.Dims()
		for i := 0; i < rows; i++ {
			damped.Set(i, i, damped.At(i, i)+g.cfg.Lambda)
		}
	}
	var rhs mat.Dense
	rhs.Scale(-1, br)
	dx, err := blockmat.LeastSquares(damped, &rhs)
	if err != nil {
		return nil, err
	}
	for _, i := range updated {
		x, _ := g.Node(i)
		g.setNode(i, spatialmath.ApplyCorrection(x, correctionAt(dx, i-1)))
	}

	if x1, ok := g.Node(1); ok {
		g.setNode(0, x1)
	} else {
		g.logger.Debug("no current pose estimate, keeping previous pose")
	}

	if err := g.writeBack(hr, br); err != nil {
		return nil, err
	}

	g.metrics.stepped(g.clock.Since(start))
	g.metrics.seeded(seeded)
	g.logger.Debugw("step solved", "observations", len(obs), "seeded", seeded, "updated", len(updated))
	return g.Nodes(), nil
}

// marginalize eliminates node 0 from the current system with a Schur complement, returning the
// reduced matrix and vector over nodes 1..n-1.
func (g *GraphState) marginalize() (*mat.Dense, *mat.Dense, error) {
	h := blockmat.Block(g.h)
	b := blockmat.Block(g.b)
	size, _ := h.Dims()

	h00 := h.Slice(0, dof, 0, dof)
	h01 := h.Slice(0, dof, dof, size)
	h10 := h.Slice(dof, size, 0, dof)
	h11 := h.Slice(dof, size, dof, size)
	b00 := b.Slice(0, dof, 0, 1)
	b10 := b.Slice(dof, size, 0, 1)

	inv, err := blockmat.PseudoInverse(h00)
	if err != nil {
		return nil, nil, err
	}
	var gain mat.Dense
	gain.Mul(h10, inv)

	var hr, fold mat.Dense
	fold.Mul(&gain, h01)
	hr.Sub(h11, &fold)
	blockmat.Symmetrize(&hr)

	var br, foldB mat.Dense
	foldB.Mul(&gain, b00)
	br.Sub(b10, &foldB)
	return &hr, &br, nil
}

// writeBack stores the reduced system in place of the old one: the current pose takes slot 0 and
// the landmarks keep slots 2 onward. Slot 1 is left cleared.
func (g *GraphState) writeBack(hr, br *mat.Dense) error {
	h, err := blockmat.Unblock(hr, dof, dof)
	if err != nil {
		return err
	}
	b, err := blockmat.Unblock(br, dof, 1)
	if err != nil {
		return err
	}
	rows, _ := h.Dims()

	g.h.Set(0, 0, h.At(0, 0))
	g.b.Set(0, 0, b.At(0, 0))
	if rows > 1 {
		g.h.SetSlice(0, 2, h.Slice(0, 1, 1, rows))
		g.h.SetSlice(2, 0, h.Slice(1, rows, 0, 1))
		g.h.SetSlice(2, 2, h.Slice(1, rows, 1, rows))
		g.b.SetSlice(2, 0, b.Slice(1, rows, 0, 1))
	}
	g.h.ZeroRow(1)
	g.h.ZeroCol(1)
	g.b.ZeroRow(1)
	return nil
}

func correctionAt(dx mat.Matrix, i int) spatialmath.Delta6 {
	var d spatialmath.Delta6
	for k := range d {
		d[k] = dx.At(i*dof+k, 0)
	}
	return d
}
