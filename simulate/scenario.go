// Package simulate generates synthetic pose-graph scenarios with known ground truth and produces
// the measurements a robot would collect while moving through them.
package simulate

import (
	"math"
	"math/rand/v2"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/stat/distuv"

	"go.viam.com/graphslam/slam"
	"go.viam.com/graphslam/spatialmath"
)

// Scenario is a ground truth trajectory and landmark field.
type Scenario struct {
	Poses     []spatialmath.Pose7
	Landmarks []r3.Vector
	// Range limits landmark sightings to landmarks within this distance of the pose. Zero means
	// every landmark is seen from every pose.
	Range float64

	noise *noise
}

// StepInput is what the incremental estimator consumes at one timestep: the motion from the
// previous pose and the sightings from the current one, in sliding-window indices.
type StepInput struct {
	Motion       spatialmath.Pose7
	Observations []slam.Observation
}

type noise struct {
	translation distuv.Normal
	rotation    distuv.Normal
}

func (n *noise) perturb(z spatialmath.Pose7) spatialmath.Pose7 {
	if n == nil {
		return z
	}
	var d spatialmath.Delta6
	for i := 0; i < 3; i++ {
		d[i] = n.translation.Rand()
		d[i+3] = n.rotation.Rand()
	}
	return spatialmath.ApplyCorrection(z, d)
}

// NewCircle returns nPoses poses evenly spaced on a horizontal circle of the given radius, each
// heading along the circle, and nLandmarks landmarks scattered around it. The landmark layout is
// fully determined by seed.
func NewCircle(nPoses, nLandmarks int, radius float64, seed uint64) *Scenario {
	s := &Scenario{
		Poses:     make([]spatialmath.Pose7, 0, nPoses),
		Landmarks: make([]r3.Vector, 0, nLandmarks),
	}
	for i := 0; i < nPoses; i++ {
		theta := 2 * math.Pi * float64(i) / float64(max(nPoses, 1))
		p := r3.Vector{X: radius * math.Cos(theta), Y: radius * math.Sin(theta)}
		yaw := spatialmath.R3ToQuat(r3.Vector{Z: theta + math.Pi/2})
		s.Poses = append(s.Poses, spatialmath.NewPose7(p, yaw))
	}

	src := rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)
	ring := distuv.Uniform{Min: 0.5 * radius, Max: 1.5 * radius, Src: src}
	angle := distuv.Uniform{Min: 0, Max: 2 * math.Pi, Src: src}
	height := distuv.Uniform{Min: -1, Max: 1, Src: src}
	for i := 0; i < nLandmarks; i++ {
		r, a := ring.Rand(), angle.Rand()
		s.Landmarks = append(s.Landmarks, r3.Vector{X: r * math.Cos(a), Y: r * math.Sin(a), Z: height.Rand()})
	}
	return s
}

// WithNoise makes every subsequent measurement noisy: each is perturbed by a correction drawn from
// zero-mean normal distributions with the given translation and rotation standard deviations.
func (s *Scenario) WithNoise(translation, rotation float64, seed uint64) *Scenario {
	src := rand.NewPCG(seed, ^seed)
	s.noise = &noise{
		translation: distuv.Normal{Mu: 0, Sigma: translation, Src: src},
		rotation:    distuv.Normal{Mu: 0, Sigma: rotation, Src: src},
	}
	return s
}

// MaxNodes is the number of nodes of the batch problem: every pose followed by every landmark.
func (s *Scenario) MaxNodes() int {
	return len(s.Poses) + len(s.Landmarks)
}

// Truth returns the ground truth of every batch node. Landmarks carry the identity orientation.
func (s *Scenario) Truth() []spatialmath.Pose7 {
	out := make([]spatialmath.Pose7, 0, s.MaxNodes())
	out = append(out, s.Poses...)
	for _, l := range s.Landmarks {
		out = append(out, spatialmath.NewLandmark(l))
	}
	return out
}

func (s *Scenario) visible(x spatialmath.Pose7, l r3.Vector) bool {
	return s.Range == 0 || x.Point().Sub(l).Norm() <= s.Range
}

func (s *Scenario) sight(from, to int, x spatialmath.Pose7, l r3.Vector, info mat.Matrix) slam.Observation {
	z := spatialmath.Relative(x, spatialmath.NewLandmark(l))
	return slam.Observation{From: from, To: to, Z: s.noise.perturb(z), Info: info}
}

// BatchObservations returns the measurements of the whole scenario in batch indices: odometry
// between consecutive poses weighted by poseInfo, and the sightings from every pose weighted by
// landmarkInfo. Pose i is node i and landmark k is node len(Poses)+k.
func (s *Scenario) BatchObservations(poseInfo, landmarkInfo mat.Matrix) []slam.Observation {
	var obs []slam.Observation
	for i, x := range s.Poses {
		if i > 0 {
			z := spatialmath.Relative(s.Poses[i-1], x)
			obs = append(obs, slam.Observation{From: i - 1, To: i, Z: s.noise.perturb(z), Info: poseInfo})
		}
		for k, l := range s.Landmarks {
			if s.visible(x, l) {
				obs = append(obs, s.sight(i, len(s.Poses)+k, x, l, landmarkInfo))
			}
		}
	}
	return obs
}

// StepInputs returns the input of every incremental step after the first pose: the motion from
// the previous pose, and the sightings from the current pose (node 1) of landmark k (node 2+k).
// The estimator is expected to be initialized at Poses[0].
func (s *Scenario) StepInputs(landmarkInfo mat.Matrix) []StepInput {
	steps := make([]StepInput, 0, max(len(s.Poses)-1, 0))
	for i := 1; i < len(s.Poses); i++ {
		x := s.Poses[i]
		in := StepInput{Motion: s.noise.perturb(spatialmath.Relative(s.Poses[i-1], x))}
		for k, l := range s.Landmarks {
			if s.visible(x, l) {
				in.Observations = append(in.Observations, s.sight(1, 2+k, x, l, landmarkInfo))
			}
		}
		steps = append(steps, in)
	}
	return steps
}

// Transform returns a noiseless copy of the scenario with every pose and landmark moved by the
// rigid transform t. Relative measurements are unchanged by it.
func (s *Scenario) Transform(t spatialmath.Pose7) *Scenario {
	out := &Scenario{Range: s.Range}
	for _, x := range s.Poses {
		out.Poses = append(out.Poses, spatialmath.ComposeRelative(t, x, false))
	}
	p, q := spatialmath.Decompose(t)
	for _, l := range s.Landmarks {
		out.Landmarks = append(out.Landmarks, p.Add(spatialmath.RotateVector(q, l)))
	}
	return out
}

// HeadingError returns the rotation angle, in radians, between the orientations of a and b.
func HeadingError(a, b spatialmath.Pose7) float64 {
	between := quat.Mul(quat.Conj(a.Orientation()), b.Orientation())
	return spatialmath.QuatToR3(between).Norm()
}
