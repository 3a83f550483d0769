package grasp

import (
	"testing"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"go.viam.com/graspplan/spatial"
)

func TestSegmentEntersBox(t *testing.T) {
	half := [3]float64{0.5, 0.5, 0.5}

	// straight through the top face
	test.That(t, segmentEntersBox(r3.Vector{Z: 1}, r3.Vector{Z: -1}, half), test.ShouldBeTrue)

	// ending exactly on the surface does not count as entering
	test.That(t, segmentEntersBox(r3.Vector{Z: 1}, r3.Vector{Z: 0.5}, half), test.ShouldBeFalse)

	// stopping short of the surface
	test.That(t, segmentEntersBox(r3.Vector{Z: 1}, r3.Vector{Z: 0.6}, half), test.ShouldBeFalse)

	// passing beside the box
	test.That(t, segmentEntersBox(r3.Vector{X: 2, Z: 1}, r3.Vector{X: 2, Z: -1}, half), test.ShouldBeFalse)

	// oblique crossing through a side face
	test.That(t, segmentEntersBox(r3.Vector{X: 1, Y: 0.1}, r3.Vector{X: -1, Y: -0.1}, half), test.ShouldBeTrue)

	// parallel to a face, outside it
	test.That(t, segmentEntersBox(r3.Vector{X: -1, Z: 0.6}, r3.Vector{X: 1, Z: 0.6}, half), test.ShouldBeFalse)
}

func TestApproachIntersects(t *testing.T) {
	logger := golog.NewTestLogger(t)
	g, err := NewGenerator(testProfile(), faceOnlyConfig(), logger)
	test.That(t, err, test.ShouldBeNil)
	box := testBox(t, spatial.NewZeroPose())

	// a top-face candidate approaches along -z and stops at the surface
	top := spatial.NewPose(r3.Vector{Z: 0.02}, spatial.NewOrientationFromQuaternion(
		(&spatial.R4AA{Theta: 3.14159265358979, RX: 1, RY: 0, RZ: 0}).Quaternion()))
	test.That(t, g.approachIntersects(box, top), test.ShouldBeFalse)

	// the same point with an upward approach would have come through the box
	through := spatial.NewPose(r3.Vector{Z: 0.03}, spatial.NewZeroOrientation())
	test.That(t, g.approachIntersects(box, through), test.ShouldBeTrue)
}
