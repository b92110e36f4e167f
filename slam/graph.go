// Package slam implements a pose-graph SLAM back-end in SE(3). A GraphState keeps node estimates
// along with the information matrix H and vector b of the linearized least-squares problem, and
// solves it either incrementally over a sliding window (Step) or in batch (Run).
package slam

import (
	"github.com/benbjohnson/clock"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/graphslam/blockmat"
	"go.viam.com/graphslam/logging"
	"go.viam.com/graphslam/spatialmath"
)

// dof is the dimension of the local correction of a node.
const dof = 6

type nodeSlot struct {
	pose spatialmath.Pose7
	ok   bool
}

// Option configures a GraphState.
type Option func(*GraphState)

// WithMetrics records estimator activity in m.
func WithMetrics(m *Metrics) Option {
	return func(g *GraphState) {
		g.metrics = m
	}
}

// WithClock times solves with clk instead of the wall clock.
func WithClock(clk clock.Clock) Option {
	return func(g *GraphState) {
		g.clock = clk
	}
}

// GraphState holds the node estimates and the accumulated information of a pose graph.
//
// In incremental mode slot 0 is the previous pose, slot 1 the current pose and slots
// 2..1+NumLandmarks the landmarks. In batch mode slot 0 is the anchor.
//
// A GraphState is not safe for concurrent use; all calls must come from a single goroutine.
type GraphState struct {
	cfg     Config
	logger  logging.Logger
	metrics *Metrics
	clock   clock.Clock

	nodes       []nodeSlot
	h           *blockmat.Blocks
	b           *blockmat.Blocks
	initialized bool
}

// NewGraphState returns an empty GraphState after validating cfg.
func NewGraphState(cfg Config, logger logging.Logger, opts ...Option) (*GraphState, error) {
	if err := cfg.Validate("slam"); err != nil {
		return nil, err
	}
	g := &GraphState{
		cfg:    cfg,
		logger: logger,
		clock:  clock.New(),
		nodes:  make([]nodeSlot, cfg.NumLandmarks+2),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

func (g *GraphState) windowSize() int {
	return g.cfg.NumLandmarks + 2
}

// Initialize anchors the graph at x0: H and b are reset for the sliding window, H[0,0] becomes the
// identity and node 0 is set to x0. Other estimates are kept.
func (g *GraphState) Initialize(x0 spatialmath.Pose7) {
	n := g.windowSize()
	g.h = blockmat.New(n, n, dof, dof)
	g.b = blockmat.New(n, 1, dof, 1)
	g.h.Set(0, 0, identity6())
	g.setNode(0, x0)
	g.initialized = true
}

// InitializeN sets estimates for the given nodes without touching H or b. Once Initialize has been
// called the indices must fit the sliding window.
func (g *GraphState) InitializeN(seeds []Seed) error {
	for _, s := range seeds {
		if s.Index < 0 || (g.initialized && s.Index >= g.windowSize()) {
			return NewIndexOutOfRangeError(s.Index, g.windowSize())
		}
	}
	for _, s := range seeds {
		g.setNode(s.Index, s.Pose)
	}
	return nil
}

// Nodes returns the estimates of all populated nodes in index order.
func (g *GraphState) Nodes() []spatialmath.Pose7 {
	out := make([]spatialmath.Pose7, 0, len(g.nodes))
	for _, slot := range g.nodes {
		if slot.ok {
			out = append(out, slot.pose)
		}
	}
	return out
}

// Node returns the estimate of node i, if it has one.
func (g *GraphState) Node(i int) (spatialmath.Pose7, bool) {
	if i < 0 || i >= len(g.nodes) || !g.nodes[i].ok {
		return spatialmath.Pose7{}, false
	}
	return g.nodes[i].pose, true
}

// Information returns copies of the incremental information matrix H and vector b, or nils before
// Initialize.
func (g *GraphState) Information() (*blockmat.Blocks, *blockmat.Blocks) {
	if !g.initialized {
		return nil, nil
	}
	return g.h.Clone(), g.b.Clone()
}

func (g *GraphState) setNode(i int, x spatialmath.Pose7) {
	if i >= len(g.nodes) {
		g.nodes = append(g.nodes, make([]nodeSlot, i+1-len(g.nodes))...)
	}
	g.nodes[i] = nodeSlot{pose: x, ok: true}
}

func (g *GraphState) knownNodes(n int) []bool {
	known := make([]bool, n)
	for i := range known {
		_, known[i] = g.Node(i)
	}
	return known
}

// seed sets the estimate of the target of o from its source and the measurement.
func (g *GraphState) seed(o Observation) {
	from, _ := g.Node(o.From)
	g.setNode(o.To, spatialmath.ComposeRelative(from, o.Z, false))
}

// AddEdge linearizes the measurement z of node i1 as seen from node i0 at the current estimates. It
// returns the Jacobians of the residual with respect to corrections of i0 (A) and i1 (B) and the
// residual itself (e).
func (g *GraphState) AddEdge(z spatialmath.Pose7, i0, i1 int) (*mat.Dense, *mat.Dense, *mat.VecDense, error) {
	x0, ok := g.Node(i0)
	if !ok {
		return nil, nil, nil, NewUnknownNodeError(i0)
	}
	x1, ok := g.Node(i1)
	if !ok {
		return nil, nil, nil, NewUnknownNodeError(i1)
	}
	p0, q0 := spatialmath.Decompose(x0)
	p1, q1 := spatialmath.Decompose(x1)
	dp, dq := spatialmath.Decompose(z)
	A, B, e := spatialmath.LinearizeEdge(p0, p1, dp, q0, q1, dq)
	return A, B, e, nil
}

// accumulate linearizes o and adds its weighted normal equations to h and b.
func (g *GraphState) accumulate(h, b *blockmat.Blocks, o Observation) error {
	A, B, e, err := g.AddEdge(o.Z, o.From, o.To)
	if err != nil {
		return err
	}
	var infoA, infoB, hab, tmp mat.Dense
	infoA.Mul(o.Info, A)
	infoB.Mul(o.Info, B)

	tmp.Mul(A.T(), &infoA)
	h.AddTo(o.From, o.From, &tmp)
	hab.Mul(A.T(), &infoB)
	h.AddTo(o.From, o.To, &hab)
	h.AddTo(o.To, o.From, hab.T())
	tmp.Reset()
	tmp.Mul(B.T(), &infoB)
	h.AddTo(o.To, o.To, &tmp)

	var infoE, ba, bb mat.VecDense
	infoE.MulVec(o.Info, e)
	ba.MulVec(A.T(), &infoE)
	bb.MulVec(B.T(), &infoE)
	b.AddTo(o.From, 0, &ba)
	b.AddTo(o.To, 0, &bb)
	return nil
}

func identity6() *mat.DiagDense {
	eye := mat.NewDiagDense(dof, nil)
	for i := 0; i < dof; i++ {
		eye.SetDiag(i, 1)
	}
	return eye
}
