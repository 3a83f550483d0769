package grasp

import (
	"math"

	"go.viam.com/graspplan/spatial"
)

// SelectionPolicy chooses how the best solution is picked from the survivors of collision
// pruning.
type SelectionPolicy int

const (
	// SelectQualityScore picks the solution whose candidate scored closest to the ideal
	// grasp orientation at generation time.
	SelectQualityScore SelectionPolicy = iota

	// SelectOrientationProxy picks the solution whose grasp orientation has the largest
	// pitch component, preferring approaches tilted toward the vertical.
	SelectOrientationProxy
)

func (sp SelectionPolicy) String() string {
	if sp == SelectOrientationProxy {
		return "orientation proxy"
	}
	return "quality score"
}

// chooseBest returns the highest ranked solution under the configured policy. Ties keep
// the earliest solution.
func (p *Pipeline) chooseBest(solutions []Solution) (*Solution, error) {
	if len(solutions) == 0 {
		return nil, ErrSelectionEmpty
	}
	best := 0
	bestQuality := math.Inf(-1)
	for i, sol := range solutions {
		var quality float64
		switch p.cfg.Policy {
		case SelectOrientationProxy:
			quality = orientationProxy(sol.Candidate.Pose.Orientation())
		default:
			quality = sol.Candidate.Score
		}
		if quality > bestQuality {
			bestQuality = quality
			best = i
		}
	}
	p.logger.Infof("chose grasp %s by %s with quality %.4f", solutions[best].Candidate.Tag, p.cfg.Policy, bestQuality)
	chosen := solutions[best]
	return &chosen, nil
}

// orientationProxy ranks an orientation by the pitch of its frame, asin(-2(xz - wy)).
func orientationProxy(o spatial.Orientation) float64 {
	q := o.Quaternion()
	sinPitch := -2 * (q.Imag*q.Kmag - q.Real*q.Jmag)
	if sinPitch > 1 {
		sinPitch = 1
	}
	if sinPitch < -1 {
		sinPitch = -1
	}
	return math.Asin(sinPitch)
}
