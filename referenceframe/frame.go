package referenceframe

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/graspplan/spatial"
)

// Frame represents a reference frame whose pose is a function of some number of inputs,
// e.g. the end of a kinematic chain of joints.
type Frame interface {
	// Name returns the name of the frame.
	Name() string

	// DoF returns the number of degrees of freedom of the frame and their motion limits.
	DoF() []Limit

	// Transform returns the pose of the frame given a set of inputs, one per degree of freedom.
	Transform([]Input) (spatial.Pose, error)
}

// NewIncorrectInputLengthError returns an error describing a degree-of-freedom mismatch.
func NewIncorrectInputLengthError(actual, expected int) error {
	return errors.Errorf("number of inputs does not match frame DoF, expected %d but got %d", expected, actual)
}

// StaticFrame is a frame with no degrees of freedom and a fixed pose.
type StaticFrame struct {
	name string
	pose spatial.Pose
}

// NewStaticFrame creates a frame with a fixed pose and no degrees of freedom.
func NewStaticFrame(name string, pose spatial.Pose) *StaticFrame {
	if pose == nil {
		pose = spatial.NewZeroPose()
	}
	return &StaticFrame{name: name, pose: pose}
}

// Name returns the name of the frame.
func (sf *StaticFrame) Name() string {
	return sf.name
}

// DoF returns an empty slice; a static frame has no degrees of freedom.
func (sf *StaticFrame) DoF() []Limit {
	return []Limit{}
}

// Transform returns the fixed pose of the frame. It accepts no inputs.
func (sf *StaticFrame) Transform(inputs []Input) (spatial.Pose, error) {
	if len(inputs) != 0 {
		return nil, NewIncorrectInputLengthError(len(inputs), 0)
	}
	return sf.pose, nil
}

// Joint describes one revolute joint in a serial chain: a static offset from the previous
// joint frame, a unit rotation axis, and a motion limit.
type Joint struct {
	Offset spatial.Pose
	Axis   r3.Vector
	Limit  Limit
}

// SerialFrame is a serial chain of revolute joints. Its Transform is the composition of each
// joint's static offset followed by a rotation about that joint's axis.
type SerialFrame struct {
	name   string
	joints []Joint
}

// NewSerialFrame creates a serial chain frame from the given joints. Joint axes are
// normalized; a zero axis is rejected.
func NewSerialFrame(name string, joints []Joint) (*SerialFrame, error) {
	if len(joints) == 0 {
		return nil, errors.New("serial frame must have at least one joint")
	}
	normalized := make([]Joint, len(joints))
	for i, j := range joints {
		if j.Axis.Norm() == 0 {
			return nil, errors.Errorf("joint %d has a zero rotation axis", i)
		}
		j.Axis = j.Axis.Normalize()
		if j.Offset == nil {
			j.Offset = spatial.NewZeroPose()
		}
		normalized[i] = j
	}
	return &SerialFrame{name: name, joints: normalized}, nil
}

// Name returns the name of the frame.
func (sf *SerialFrame) Name() string {
	return sf.name
}

// DoF returns the limits of each joint in the chain.
func (sf *SerialFrame) DoF() []Limit {
	limits := make([]Limit, len(sf.joints))
	for i, j := range sf.joints {
		limits[i] = j.Limit
	}
	return limits
}

// Transform returns the pose of the end of the chain given one input per joint.
func (sf *SerialFrame) Transform(inputs []Input) (spatial.Pose, error) {
	if len(inputs) != len(sf.joints) {
		return nil, NewIncorrectInputLengthError(len(inputs), len(sf.joints))
	}
	pose := spatial.NewZeroPose()
	for i, j := range sf.joints {
		rot := &spatial.R4AA{Theta: inputs[i].Value, RX: j.Axis.X, RY: j.Axis.Y, RZ: j.Axis.Z}
		pose = spatial.Compose(pose, spatial.Compose(j.Offset, spatial.NewPoseFromOrientation(rot)))
	}
	return pose, nil
}
