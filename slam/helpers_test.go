package slam

import (
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"go.viam.com/graphslam/logging"
	"go.viam.com/graphslam/spatialmath"
)

var (
	fullInfo     = NewIsotropicInformation(1, 1)
	landmarkInfo = NewIsotropicInformation(1, 0)
)

func pose(x, y, z, rx, ry, rz float64) spatialmath.Pose7 {
	return spatialmath.NewPose7(r3.Vector{X: x, Y: y, Z: z}, spatialmath.R3ToQuat(r3.Vector{X: rx, Y: ry, Z: rz}))
}

func landmark(x, y, z float64) spatialmath.Pose7 {
	return spatialmath.NewLandmark(r3.Vector{X: x, Y: y, Z: z})
}

// observe returns the exact measurement of pose x1 from pose x0.
func observe(from, to int, x0, x1 spatialmath.Pose7) Observation {
	return Observation{From: from, To: to, Z: spatialmath.Relative(x0, x1), Info: fullInfo}
}

// sight returns the exact position-only measurement of landmark l from pose x.
func sight(from, to int, x, l spatialmath.Pose7) Observation {
	return Observation{From: from, To: to, Z: spatialmath.Relative(x, l), Info: landmarkInfo}
}

func newTestGraph(t *testing.T, cfg Config) *GraphState {
	t.Helper()
	g, err := NewGraphState(cfg, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	return g
}

func positionError(a, b spatialmath.Pose7) float64 {
	return a.Point().Sub(b.Point()).Norm()
}

// transform places x in the frame of t.
func transform(t, x spatialmath.Pose7) spatialmath.Pose7 {
	return spatialmath.ComposeRelative(t, x, false)
}
