package spatial

import (
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/dualquat"
	"gonum.org/v1/gonum/num/quat"
)

// Pose represents a 6-DOF rigid transform: a position in 3D space and an orientation.
type Pose interface {
	Point() r3.Vector
	Orientation() Orientation
}

// dualQuaternion is the pose implementation. The real part carries the rotation and the
// dual part carries half the translation, rotated.
type dualQuaternion struct {
	dualquat.Number
}

func newDualQuaternion() *dualQuaternion {
	return &dualQuaternion{dualquat.Number{
		Real: quat.Number{Real: 1},
		Dual: quat.Number{},
	}}
}

func newDualQuaternionFromPose(p Pose) *dualQuaternion {
	if q, ok := p.(*dualQuaternion); ok {
		return q
	}
	q := &dualQuaternion{dualquat.Number{Real: p.Orientation().Quaternion()}}
	q.setTranslation(p.Point())
	return q
}

// NewZeroPose returns a pose at the origin with no rotation.
func NewZeroPose() Pose {
	return newDualQuaternion()
}

// NewPose creates a pose at the given point with the given orientation.
func NewPose(pt r3.Vector, o Orientation) Pose {
	q := &dualQuaternion{dualquat.Number{Real: o.Quaternion()}}
	q.setTranslation(pt)
	return q
}

// NewPoseFromPoint creates a pose at the given point with no rotation.
func NewPoseFromPoint(pt r3.Vector) Pose {
	q := newDualQuaternion()
	q.setTranslation(pt)
	return q
}

// NewPoseFromOrientation creates a pose at the origin with the given orientation.
func NewPoseFromOrientation(o Orientation) Pose {
	return &dualQuaternion{dualquat.Number{Real: o.Quaternion()}}
}

// Point returns the position of the pose.
func (q *dualQuaternion) Point() r3.Vector {
	tQuat := quat.Mul(q.Dual, quat.Conj(q.Real))
	return r3.Vector{X: 2 * tQuat.Imag, Y: 2 * tQuat.Jmag, Z: 2 * tQuat.Kmag}
}

// Orientation returns the orientation of the pose.
func (q *dualQuaternion) Orientation() Orientation {
	o := quaternion(q.Real)
	return &o
}

// setTranslation correctly sets the translation quaternion against the rotation.
func (q *dualQuaternion) setTranslation(pt r3.Vector) {
	q.Dual = quat.Scale(0.5, quat.Mul(quat.Number{Imag: pt.X, Jmag: pt.Y, Kmag: pt.Z}, q.Real))
}

// Compose returns the pose which is the composition of the two given poses, equivalent to
// applying b in the frame defined by a.
func Compose(a, b Pose) Pose {
	result := &dualQuaternion{dualquat.Mul(newDualQuaternionFromPose(a).Number, newDualQuaternionFromPose(b).Number)}
	// Mul may introduce drift away from a unit real part; normalize so Point() stays correct.
	if vecLen := quat.Abs(result.Real); vecLen != 1 {
		result.Real = quat.Scale(1/vecLen, result.Real)
		result.Dual = quat.Scale(1/vecLen, result.Dual)
	}
	return result
}

// PoseInverse returns the pose which undoes the given pose, i.e. Compose(p, PoseInverse(p))
// is the zero pose.
func PoseInverse(p Pose) Pose {
	return &dualQuaternion{dualquat.Conj(newDualQuaternionFromPose(p).Number)}
}

// PoseBetween returns the difference between two poses, i.e. the pose that transforms a into b.
func PoseBetween(a, b Pose) Pose {
	return Compose(PoseInverse(a), b)
}

// PoseAlmostEqual checks whether two poses are approximately the same.
func PoseAlmostEqual(a, b Pose) bool {
	return PoseAlmostEqualEps(a, b, 1e-6)
}

// PoseAlmostEqualEps checks whether two poses are within epsilon of each other in position,
// and approximately the same in orientation.
func PoseAlmostEqualEps(a, b Pose, epsilon float64) bool {
	return a.Point().Sub(b.Point()).Norm() < epsilon && OrientationAlmostEqual(a.Orientation(), b.Orientation())
}

// RotateVector rotates the given vector by the given orientation.
func RotateVector(o Orientation, v r3.Vector) r3.Vector {
	q := o.Quaternion()
	vq := quat.Number{Imag: v.X, Jmag: v.Y, Kmag: v.Z}
	rq := quat.Mul(quat.Mul(q, vq), quat.Conj(q))
	return r3.Vector{X: rq.Imag, Y: rq.Jmag, Z: rq.Kmag}
}
