package grasp

import (
	"fmt"

	"github.com/golang/geo/r3"

	"go.viam.com/graspplan/spatial"
)

// Axis enumerates the three local axes of a bounding box.
type Axis int

// The three box axes.
const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

func (a Axis) String() string {
	switch a {
	case AxisX:
		return "x"
	case AxisY:
		return "y"
	default:
		return "z"
	}
}

func (a Axis) vector() r3.Vector {
	switch a {
	case AxisX:
		return r3.Vector{X: 1}
	case AxisY:
		return r3.Vector{Y: 1}
	default:
		return r3.Vector{Z: 1}
	}
}

// TagKind distinguishes the enumeration family a candidate came from.
type TagKind int

// Candidate families.
const (
	// TagFace marks a candidate generated from a fan over one of the box's six faces.
	TagFace TagKind = iota
	// TagCorner marks a candidate generated from a radial fan around one of the box's edges.
	TagCorner
)

func (k TagKind) String() string {
	if k == TagCorner {
		return "corner"
	}
	return "face"
}

// Tag identifies which face or corner fan generated a candidate and its position within
// that fan. For face candidates, Rotation indexes the rotation about the approach axis and
// Depth the standoff distance. For corner candidates, Rotation indexes the edge around the
// axis and Step the intermediate angle between the two adjacent face orientations.
type Tag struct {
	Kind     TagKind
	Axis     Axis
	Positive bool
	Rotation int
	Depth    int
	Step     int
}

func (t Tag) String() string {
	sign := "-"
	if t.Positive {
		sign = "+"
	}
	if t.Kind == TagCorner {
		return fmt.Sprintf("corner:%s:edge=%d:step=%d", t.Axis, t.Rotation, t.Step)
	}
	return fmt.Sprintf("face:%s%s:rot=%d:depth=%d", sign, t.Axis, t.Rotation, t.Depth)
}

// Candidate is a proposed 6-DOF end-effector pose for grasping, prior to feasibility
// testing. Candidates are immutable once created.
type Candidate struct {
	// Pose is the grasp pose in the same reference frame as the bounding box it was
	// generated around.
	Pose spatial.Pose

	// Tag identifies the fan that generated this candidate.
	Tag Tag

	// Score is the candidate's quality relative to the ideal grasp orientation; larger
	// is better.
	Score float64
}
