package grasp

import (
	"go.viam.com/graspplan/spatial"
)

// scoreOrientation rates how closely an orientation matches the ideal grasp orientation.
// The score is 1 for a perfect match and decays toward 0 as the angular distance grows.
func scoreOrientation(o, ideal spatial.Orientation) float64 {
	return 1 / (1 + spatial.AngleBetween(ideal, o))
}
