package spatial

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
)

// RotationMatrix is a 3x3 rotation matrix stored such that Row(i) is the direction of the
// i-th body axis expressed in the reference frame.
type RotationMatrix struct {
	mat [9]float64
}

// Row returns the requested row of the matrix as a vector. For a body-to-reference rotation
// this is the reference-frame direction of the corresponding body axis.
func (rm *RotationMatrix) Row(row int) r3.Vector {
	return r3.Vector{X: rm.mat[3*row], Y: rm.mat[3*row+1], Z: rm.mat[3*row+2]}
}

// Mul rotates the given body-frame vector into the reference frame.
func (rm *RotationMatrix) Mul(v r3.Vector) r3.Vector {
	return rm.Row(0).Mul(v.X).Add(rm.Row(1).Mul(v.Y)).Add(rm.Row(2).Mul(v.Z))
}

// Quaternion returns the orientation in quaternion representation, using Shepperd's method.
func (rm *RotationMatrix) Quaternion() quat.Number {
	// Standard matrix entries; stored rows are the columns of the conventional
	// body-to-reference matrix.
	m00, m11, m22 := rm.mat[0], rm.mat[4], rm.mat[8]
	m10, m20, m21 := rm.mat[1], rm.mat[2], rm.mat[5]
	m01, m02, m12 := rm.mat[3], rm.mat[6], rm.mat[7]

	var w, x, y, z float64
	switch tr := m00 + m11 + m22; {
	case tr > 0:
		s := 2 * math.Sqrt(tr+1)
		w = s / 4
		x = (m21 - m12) / s
		y = (m02 - m20) / s
		z = (m10 - m01) / s
	case m00 > m11 && m00 > m22:
		s := 2 * math.Sqrt(1 + m00 - m11 - m22)
		w = (m21 - m12) / s
		x = s / 4
		y = (m01 + m10) / s
		z = (m02 + m20) / s
	case m11 > m22:
		s := 2 * math.Sqrt(1 + m11 - m00 - m22)
		w = (m02 - m20) / s
		x = (m01 + m10) / s
		y = s / 4
		z = (m12 + m21) / s
	default:
		s := 2 * math.Sqrt(1 + m22 - m00 - m11)
		w = (m10 - m01) / s
		x = (m02 + m20) / s
		y = (m12 + m21) / s
		z = s / 4
	}
	return quat.Number{Real: w, Imag: x, Jmag: y, Kmag: z}
}

// AxisAngles returns the orientation in axis angle representation.
func (rm *RotationMatrix) AxisAngles() *R4AA {
	aa := QuatToR4AA(rm.Quaternion())
	return &aa
}

// EulerAngles returns the orientation in Euler angle representation.
func (rm *RotationMatrix) EulerAngles() *EulerAngles {
	return QuatToEulerAngles(rm.Quaternion())
}

// RotationMatrix returns the orientation in rotation matrix representation.
func (rm *RotationMatrix) RotationMatrix() *RotationMatrix {
	return rm
}

// NewRotationMatrixFromRows builds a rotation matrix from three orthonormal body axes
// expressed in the reference frame. The rows are not re-orthogonalized.
func NewRotationMatrixFromRows(rx, ry, rz r3.Vector) *RotationMatrix {
	return &RotationMatrix{[9]float64{
		rx.X, rx.Y, rx.Z,
		ry.X, ry.Y, ry.Z,
		rz.X, rz.Y, rz.Z,
	}}
}

// QuatToRotationMatrix converts a unit quaternion to a rotation matrix.
func QuatToRotationMatrix(q quat.Number) *RotationMatrix {
	w, x, y, z := q.Real, q.Imag, q.Jmag, q.Kmag
	return &RotationMatrix{[9]float64{
		1 - 2*(y*y+z*z), 2 * (x*y + z*w), 2 * (x*z - y*w),
		2 * (x*y - z*w), 1 - 2*(x*x+z*z), 2 * (y*z + x*w),
		2 * (x*z + y*w), 2 * (y*z - x*w), 1 - 2*(x*x+y*y),
	}}
}
