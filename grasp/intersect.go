package grasp

import (
	"github.com/golang/geo/r3"

	"go.viam.com/graspplan/spatial"
)

// intersectEpsilon shrinks the upper end of the segment parameter so that a segment ending
// exactly on the box surface, as every zero-standoff face candidate does, is not rejected.
const intersectEpsilon = 1e-9

// approachIntersects reports whether the straight-line approach from the candidate's
// pre-grasp point to its grasp point would pass through the box. The pose is in the box's
// local frame, so the box is axis aligned here.
func (g *Generator) approachIntersects(obj *spatial.Box, local spatial.Pose) bool {
	p1 := local.Point()
	dir := spatial.RotateVector(local.Orientation(), g.profile.ApproachDirection)
	p0 := p1.Sub(dir.Mul(g.profile.ApproachDistance))
	return segmentEntersBox(p0, p1, obj.HalfSize())
}

// segmentEntersBox tests the segment p0->p1 against all six faces of an axis-aligned box
// centered at the origin. A crossing at the very end of the segment does not count.
func segmentEntersBox(p0, p1 r3.Vector, half [3]float64) bool {
	for i := 0; i < 3; i++ {
		denom := component(p1, i) - component(p0, i)
		if denom == 0 {
			continue
		}
		u, v := (i+1)%3, (i+2)%3
		for _, plane := range []float64{half[i], -half[i]} {
			t := (plane - component(p0, i)) / denom
			if t < 0 || t >= 1-intersectEpsilon {
				continue
			}
			cu := component(p0, u) + t*(component(p1, u)-component(p0, u))
			cv := component(p0, v) + t*(component(p1, v)-component(p0, v))
			if cu >= -half[u] && cu <= half[u] && cv >= -half[v] && cv <= half[v] {
				return true
			}
		}
	}
	return false
}

func component(v r3.Vector, i int) float64 {
	switch i {
	case 0:
		return v.X
	case 1:
		return v.Y
	default:
		return v.Z
	}
}
