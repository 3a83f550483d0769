package ik

import (
	"go.viam.com/graspplan/spatial"
)

// orientationDistanceScaling weights radians of orientation error against meters of
// position error in the combined metric.
const orientationDistanceScaling = 1.

// StateMetric scores a pose against some goal criterion. Lower is better; zero is exact.
type StateMetric func(spatial.Pose) float64

// NewSquaredNormMetric returns a metric which scores poses by their squared positional and
// angular distance from the goal pose. This is used for gradient descent to converge upon
// the goal.
func NewSquaredNormMetric(goal spatial.Pose) StateMetric {
	return func(p spatial.Pose) float64 {
		ptDelta := goal.Point().Sub(p.Point())
		aa := spatial.QuatToR4AA(spatial.OrientationBetween(p.Orientation(), goal.Orientation()).Quaternion())
		orientDelta := aa.Theta * orientationDistanceScaling
		return ptDelta.Norm2() + orientDelta*orientDelta
	}
}
