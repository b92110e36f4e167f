package slam

import "github.com/pkg/errors"

var (
	// ErrUnknownNode is returned when an edge is linearized from a node that has no estimate.
	ErrUnknownNode = errors.New("node has no estimate")
	// ErrDimension is returned for malformed observations and node indices outside the graph.
	ErrDimension = errors.New("dimension mismatch")
	// ErrNotInitialized is returned when Step is called before Initialize.
	ErrNotInitialized = errors.New("graph state is not initialized")
)

// NewUnknownNodeError is used when node idx is referenced before it has an estimate.
func NewUnknownNodeError(idx int) error {
	return errors.Wrapf(ErrUnknownNode, "node %d", idx)
}

// NewIndexOutOfRangeError is used when node idx does not fit a graph of n nodes.
func NewIndexOutOfRangeError(idx, n int) error {
	return errors.Wrapf(ErrDimension, "node index %d outside [0, %d)", idx, n)
}

// NewInformationShapeError is used when an observation weight is not 6x6.
func NewInformationShapeError(r, c int) error {
	return errors.Wrapf(ErrDimension, "information matrix must be 6x6, got %dx%d", r, c)
}

// NewSelfEdgeError is used when an observation connects a node to itself.
func NewSelfEdgeError(idx int) error {
	return errors.Wrapf(ErrDimension, "edge from node %d to itself", idx)
}

func newConfigValidationError(path, field, msg string) error {
	return errors.Errorf("error validating %q: %s %s", path, field, msg)
}
