// Package robot describes the arm metadata and scratch joint state the grasp pipeline
// operates against.
package robot

import (
	"time"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/graspplan/referenceframe"
	"go.viam.com/graspplan/spatial"
)

// defaultIKTimeout bounds a single IK solve when a group does not configure its own.
const defaultIKTimeout = 50 * time.Millisecond

// Group is a named set of joints on a robot, e.g. an arm or an end effector. End effector
// groups typically have no joints of their own here and instead carry the geometry used
// for collision checking.
type Group struct {
	// Name uniquely identifies the group within its model.
	Name string

	// Limits are the motion limits of each joint in the group, one per degree of freedom.
	Limits []referenceframe.Limit

	// Frame computes the pose of the group's tool point from its joint inputs.
	Frame referenceframe.Frame

	// AttachedEndEffectors names the end effector groups mounted on this group. The grasp
	// pipeline requires exactly one on the arm group it filters for.
	AttachedEndEffectors []string

	// DefaultIKTimeout bounds a single IK solve for this group; zero selects a default.
	DefaultIKTimeout time.Duration

	// EndEffectorDims is the bounding box of an end effector group's body, posed at the
	// parent group's tool point during collision checking.
	EndEffectorDims r3.Vector
}

// VariableCount returns the number of joint variables in the group.
func (g *Group) VariableCount() int {
	return len(g.Limits)
}

// IKTimeout returns the configured IK timeout for this group, or the default if unset.
func (g *Group) IKTimeout() time.Duration {
	if g.DefaultIKTimeout <= 0 {
		return defaultIKTimeout
	}
	return g.DefaultIKTimeout
}

// Model is the static description of a robot: its named joint groups and named frames.
type Model struct {
	name       string
	frameName  string
	groups     map[string]*Group
	framePoses map[string]spatial.Pose
}

// NewModel creates a robot model from the given groups. Group names must be unique and
// non-empty.
func NewModel(name, frameName string, groups ...*Group) (*Model, error) {
	m := &Model{
		name:       name,
		frameName:  frameName,
		groups:     make(map[string]*Group, len(groups)),
		framePoses: map[string]spatial.Pose{},
	}
	for _, g := range groups {
		if g.Name == "" {
			return nil, errors.New("group name must not be empty")
		}
		if _, ok := m.groups[g.Name]; ok {
			return nil, errors.Errorf("duplicate group name %q", g.Name)
		}
		m.groups[g.Name] = g
	}
	return m, nil
}

// Name returns the name of the robot.
func (m *Model) Name() string {
	return m.name
}

// ModelFrame returns the name of the root reference frame of the robot.
func (m *Model) ModelFrame() string {
	return m.frameName
}

// Group returns the named joint group.
func (m *Model) Group(name string) (*Group, error) {
	g, ok := m.groups[name]
	if !ok {
		return nil, errors.Errorf("robot %q has no group named %q", m.name, name)
	}
	return g, nil
}

// RegisterFramePose records the static pose of a named frame in the model frame, e.g. the
// base frame of an IK solver that is not the model root.
func (m *Model) RegisterFramePose(name string, pose spatial.Pose) {
	m.framePoses[name] = pose
}

// FramePose returns the pose of the named frame in the model frame. The model frame itself
// resolves to the zero pose.
func (m *Model) FramePose(name string) (spatial.Pose, error) {
	if name == "" || name == m.frameName {
		return spatial.NewZeroPose(), nil
	}
	pose, ok := m.framePoses[name]
	if !ok {
		return nil, errors.Errorf("robot %q has no frame named %q", m.name, name)
	}
	return pose, nil
}
