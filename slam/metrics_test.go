package slam

import (
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.viam.com/test"

	"go.viam.com/graphslam/logging"
	"go.viam.com/graphslam/spatialmath"
)

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	clk := clock.NewMock()
	g, err := NewGraphState(Config{NumLandmarks: 1}, logging.NewTestLogger(t), WithMetrics(m), WithClock(clk))
	test.That(t, err, test.ShouldBeNil)

	g.Initialize(batchAnchor)
	motion := spatialmath.Relative(batchAnchor, batchPose)
	_, err = g.Step(&motion, []Observation{sight(1, 2, batchPose, batchLandmark)})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, testutil.ToFloat64(m.Steps), test.ShouldEqual, 1.0)
	test.That(t, testutil.ToFloat64(m.SeededNodes), test.ShouldEqual, 1.0)
	test.That(t, testutil.CollectAndCount(m.StepSeconds), test.ShouldEqual, 1)

	g.Initialize(batchAnchor)
	res, err := g.Run(batchObservations(), 3, WithTolerance(1e-14))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, testutil.ToFloat64(m.BatchIterations), test.ShouldEqual, float64(res.Iterations))
	test.That(t, testutil.ToFloat64(m.LastBatchDelta), test.ShouldEqual, res.Deltas[len(res.Deltas)-1])
	test.That(t, res.Elapsed, test.ShouldEqual, time.Duration(0))

	count, err := testutil.GatherAndCount(reg)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, count, test.ShouldEqual, 5)
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	m.stepped(time.Millisecond)
	m.iterated(1)
	m.seeded(3)

	unregistered := NewMetrics(nil)
	unregistered.seeded(2)
	test.That(t, testutil.ToFloat64(unregistered.SeededNodes), test.ShouldEqual, 2.0)
}
