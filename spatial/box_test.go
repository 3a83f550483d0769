package spatial

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
)

func makeTestBox(t *testing.T, pt r3.Vector, o Orientation, dims r3.Vector) *Box {
	t.Helper()
	b, err := NewBox(NewPose(pt, o), dims, "")
	test.That(t, err, test.ShouldBeNil)
	return b
}

func TestNewBoxValidation(t *testing.T) {
	_, err := NewBox(NewZeroPose(), r3.Vector{X: 1, Y: 0, Z: 1}, "")
	test.That(t, err, test.ShouldNotBeNil)
	_, err = NewBox(NewZeroPose(), r3.Vector{X: -1, Y: 1, Z: 1}, "")
	test.That(t, err, test.ShouldNotBeNil)
	b, err := NewBox(NewZeroPose(), r3.Vector{X: 1, Y: 2, Z: 3}, "labeled")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, b.Label(), test.ShouldEqual, "labeled")
	test.That(t, b.Dims().Sub(r3.Vector{X: 1, Y: 2, Z: 3}).Norm(), test.ShouldBeLessThan, 1e-8)
}

func TestBoxVsBoxCollision(t *testing.T) {
	zero := NewZeroOrientation()
	unit := r3.Vector{X: 1, Y: 1, Z: 1}
	deg45 := &R4AA{Theta: math.Pi / 4, RX: 0, RY: 0, RZ: 1}

	cases := []struct {
		name     string
		a, b     *Box
		expected bool
	}{
		{
			"coincident",
			makeTestBox(t, r3.Vector{}, zero, unit),
			makeTestBox(t, r3.Vector{}, zero, unit),
			true,
		},
		{
			"separated along x",
			makeTestBox(t, r3.Vector{}, zero, unit),
			makeTestBox(t, r3.Vector{X: 2}, zero, unit),
			false,
		},
		{
			"face touching",
			makeTestBox(t, r3.Vector{}, zero, unit),
			makeTestBox(t, r3.Vector{X: 1}, zero, unit),
			true,
		},
		{
			"rotated 45 degrees, corner reaching in",
			makeTestBox(t, r3.Vector{}, zero, unit),
			makeTestBox(t, r3.Vector{X: 1.1}, deg45, unit),
			true,
		},
		{
			"rotated 45 degrees, corner just short",
			makeTestBox(t, r3.Vector{}, zero, unit),
			makeTestBox(t, r3.Vector{X: 1.3}, deg45, unit),
			false,
		},
		{
			"small box inscribed in large box",
			makeTestBox(t, r3.Vector{}, zero, r3.Vector{X: 2, Y: 2, Z: 2}),
			makeTestBox(t, r3.Vector{}, deg45, r3.Vector{X: 0.1, Y: 0.1, Z: 0.1}),
			true,
		},
		{
			"diagonally separated",
			makeTestBox(t, r3.Vector{}, zero, unit),
			makeTestBox(t, r3.Vector{X: 1.1, Y: 1.1, Z: 1.1}, zero, unit),
			false,
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			test.That(t, c.a.CollidesWith(c.b, 1e-9), test.ShouldEqual, c.expected)
			test.That(t, c.b.CollidesWith(c.a, 1e-9), test.ShouldEqual, c.expected)
			if c.expected {
				test.That(t, c.a.DistanceFrom(c.b), test.ShouldBeLessThanOrEqualTo, 1e-9)
			} else {
				test.That(t, c.a.DistanceFrom(c.b), test.ShouldBeGreaterThan, 0)
			}
		})
	}
}

func TestCollisionBuffer(t *testing.T) {
	a := makeTestBox(t, r3.Vector{}, NewZeroOrientation(), r3.Vector{X: 1, Y: 1, Z: 1})
	// gap of 0.05 between the faces
	b := makeTestBox(t, r3.Vector{X: 1.05}, NewZeroOrientation(), r3.Vector{X: 1, Y: 1, Z: 1})
	test.That(t, a.CollidesWith(b, 0.1), test.ShouldBeTrue)
	test.That(t, a.CollidesWith(b, 0.01), test.ShouldBeFalse)
	test.That(t, a.DistanceFrom(b), test.ShouldAlmostEqual, 0.05, 1e-8)
}

func TestBoxTransform(t *testing.T) {
	b := makeTestBox(t, r3.Vector{X: 1}, NewZeroOrientation(), r3.Vector{X: 1, Y: 1, Z: 1})
	moved := b.Transform(NewPoseFromPoint(r3.Vector{Y: 2}))
	test.That(t, moved.Pose().Point().Sub(r3.Vector{X: 1, Y: 2}).Norm(), test.ShouldBeLessThan, 1e-8)
	test.That(t, b.Pose().Point().Sub(r3.Vector{X: 1}).Norm(), test.ShouldBeLessThan, 1e-8)
}

func TestBoxAlmostEqual(t *testing.T) {
	a := makeTestBox(t, r3.Vector{}, NewZeroOrientation(), r3.Vector{X: 1, Y: 1, Z: 1})
	b := makeTestBox(t, r3.Vector{}, NewZeroOrientation(), r3.Vector{X: 1, Y: 1, Z: 1})
	c := makeTestBox(t, r3.Vector{}, NewZeroOrientation(), r3.Vector{X: 1, Y: 1, Z: 1.5})
	test.That(t, a.AlmostEqual(b), test.ShouldBeTrue)
	test.That(t, a.AlmostEqual(c), test.ShouldBeFalse)
}
