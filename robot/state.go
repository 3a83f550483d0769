package robot

import (
	"go.viam.com/graspplan/referenceframe"
)

// State is scratch joint storage for a model. It is owned by a single caller at a time;
// the grasp pipeline fully overwrites it before every collision pruning run so no joint
// values leak across invocations.
type State struct {
	model     *Model
	positions map[string][]referenceframe.Input
}

// NewState creates a zeroed state for the given model.
func NewState(m *Model) *State {
	s := &State{model: m, positions: map[string][]referenceframe.Input{}}
	s.Zero()
	return s
}

// Model returns the model this state belongs to.
func (s *State) Model() *Model {
	return s.model
}

// Zero overwrites every group's positions with zeros.
func (s *State) Zero() {
	for name, g := range s.model.groups {
		s.positions[name] = referenceframe.ZeroInputs(g.VariableCount())
	}
}

// SetGroupPositions overwrites the positions of the named group. The input length must
// match the group's variable count.
func (s *State) SetGroupPositions(group string, inputs []referenceframe.Input) error {
	g, err := s.model.Group(group)
	if err != nil {
		return err
	}
	if len(inputs) != g.VariableCount() {
		return referenceframe.NewIncorrectInputLengthError(len(inputs), g.VariableCount())
	}
	s.positions[group] = append([]referenceframe.Input(nil), inputs...)
	return nil
}

// GroupPositions returns a copy of the positions of the named group.
func (s *State) GroupPositions(group string) ([]referenceframe.Input, error) {
	if _, err := s.model.Group(group); err != nil {
		return nil, err
	}
	return append([]referenceframe.Input(nil), s.positions[group]...), nil
}
