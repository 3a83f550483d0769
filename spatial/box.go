package spatial

import (
	"fmt"
	"math"
	"sync"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/graspplan/utils"
)

// floatEpsilon is the tolerance below which two axes are considered parallel.
const floatEpsilon = 1e-6

// Box is an oriented rectangular prism. It has a pose and three positive extents that
// fully define it. All dimensions are in meters.
type Box struct {
	pose            Pose
	halfSize        [3]float64
	boundingSphereR float64
	label           string
	rotMatrix       *RotationMatrix
	once            sync.Once
}

// NewBox instantiates a new Box. All three extents must be positive.
func NewBox(pose Pose, dims r3.Vector, label string) (*Box, error) {
	if dims.X <= 0 || dims.Y <= 0 || dims.Z <= 0 {
		return nil, errors.Errorf("box dimensions must be positive, got %.4f %.4f %.4f", dims.X, dims.Y, dims.Z)
	}
	halfSize := dims.Mul(0.5)
	return &Box{
		pose:            pose,
		halfSize:        [3]float64{halfSize.X, halfSize.Y, halfSize.Z},
		boundingSphereR: halfSize.Norm(),
		label:           label,
	}, nil
}

// Pose returns the pose of the box.
func (b *Box) Pose() Pose {
	return b.pose
}

// Dims returns the three full extents of the box along its local axes.
func (b *Box) Dims() r3.Vector {
	return r3.Vector{X: 2 * b.halfSize[0], Y: 2 * b.halfSize[1], Z: 2 * b.halfSize[2]}
}

// HalfSize returns the box half extents along its local axes.
func (b *Box) HalfSize() [3]float64 {
	return b.halfSize
}

// Label returns the label of this box.
func (b *Box) Label() string {
	return b.label
}

// String returns a human readable string that represents the box.
func (b *Box) String() string {
	pt := b.pose.Point()
	return fmt.Sprintf("Type: Box | Position: X:%.3f, Y:%.3f, Z:%.3f | Dims: X:%.3f, Y:%.3f, Z:%.3f",
		pt.X, pt.Y, pt.Z, 2*b.halfSize[0], 2*b.halfSize[1], 2*b.halfSize[2])
}

// Transform premultiplies the box pose with a transform, allowing the box to be moved in space.
func (b *Box) Transform(toPremultiply Pose) *Box {
	return &Box{
		pose:            Compose(toPremultiply, b.pose),
		halfSize:        b.halfSize,
		boundingSphereR: b.boundingSphereR,
		label:           b.label,
	}
}

// AlmostEqual compares the box with another box and checks if they are equivalent.
func (b *Box) AlmostEqual(other *Box) bool {
	for i := 0; i < 3; i++ {
		if !utils.Float64AlmostEqual(b.halfSize[i], other.halfSize[i], 1e-8) {
			return false
		}
	}
	return PoseAlmostEqual(b.pose, other.pose)
}

// CollidesWith checks if the given box collides with the other box, with collisions closer
// than the given buffer counted as collisions.
func (b *Box) CollidesWith(other *Box, collisionBuffer float64) bool {
	collides, _ := boxVsBoxCollision(b, other, collisionBuffer)
	return collides
}

// DistanceFrom returns a lower bound on the separation distance between the two boxes, or a
// nonpositive number if they collide.
func (b *Box) DistanceFrom(other *Box) float64 {
	_, dist := boxVsBoxCollision(b, other, 0)
	return dist
}

// rotationMatrix returns the cached matrix if it exists, and generates it if not.
func (b *Box) rotationMatrix() *RotationMatrix {
	b.once.Do(func() { b.rotMatrix = b.pose.Orientation().RotationMatrix() })
	return b.rotMatrix
}

// boxVsBoxCollision takes two boxes as arguments and returns a bool describing if they are in collision.
// Since the separating axis test can exit early if no collision is found, the maximum separation found
// so far is also returned for diagnostics.
func boxVsBoxCollision(a, b *Box, collisionBuffer float64) (bool, float64) {
	centerDist := b.pose.Point().Sub(a.pose.Point())

	// check if there is a distance between bounding spheres to potentially exit early
	dist := centerDist.Norm() - (a.boundingSphereR + b.boundingSphereR)
	if dist > collisionBuffer {
		return false, dist
	}

	rmA := a.rotationMatrix()
	rmB := b.rotationMatrix()

	for i := 0; i < 3; i++ {
		dist = separatingAxisTest(centerDist, rmA.Row(i), a.halfSize, b.halfSize, rmA, rmB)
		if dist > collisionBuffer {
			return false, dist
		}
		dist = separatingAxisTest(centerDist, rmB.Row(i), a.halfSize, b.halfSize, rmA, rmB)
		if dist > collisionBuffer {
			return false, dist
		}
		for j := 0; j < 3; j++ {
			crossProductPlane := rmA.Row(i).Cross(rmB.Row(j))

			// if edges are parallel, this check is already accounted for by one of the face projections
			if !utils.Float64AlmostEqual(crossProductPlane.Norm(), 0, floatEpsilon) {
				dist = separatingAxisTest(centerDist, crossProductPlane.Normalize(), a.halfSize, b.halfSize, rmA, rmB)
				if dist > collisionBuffer {
					return false, dist
				}
			}
		}
	}
	return true, -1
}

// separatingAxisTest projects two boxes onto the given plane and computes how much distance is
// between them along this plane. Per the separating hyperplane theorem, if such a plane exists
// (and a positive number is returned) this proves that there is no collision between the boxes.
func separatingAxisTest(positionDelta, plane r3.Vector, halfSizeA, halfSizeB [3]float64, rmA, rmB *RotationMatrix) float64 {
	sum := math.Abs(positionDelta.Dot(plane))
	for i := 0; i < 3; i++ {
		sum -= math.Abs(rmA.Row(i).Mul(halfSizeA[i]).Dot(plane))
		sum -= math.Abs(rmB.Row(i).Mul(halfSizeB[i]).Dot(plane))
	}
	return sum
}
