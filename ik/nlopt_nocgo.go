//go:build windows || no_cgo

package ik

import (
	"context"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"

	"go.viam.com/graspplan/referenceframe"
	"go.viam.com/graspplan/spatial"
)

// NloptIK mimics the type in the cgo compiled code.
type NloptIK struct{}

// NewNloptSolver is not supported on builds without cgo.
func NewNloptSolver(model referenceframe.Frame, baseFrame string, logger golog.Logger) (*NloptIK, error) {
	return nil, errors.New("nlopt is not supported on this build")
}

// Solve refuses to solve problems without cgo.
func (ik *NloptIK) Solve(ctx context.Context, goal spatial.Pose, seed []referenceframe.Input) ([]referenceframe.Input, error) {
	return nil, errors.New("cannot solve without cgo")
}

// BaseFrame returns the empty string. The solver isn't real.
func (ik *NloptIK) BaseFrame() string {
	return ""
}

// DoF returns nil. The solver isn't real.
func (ik *NloptIK) DoF() []referenceframe.Limit {
	return []referenceframe.Limit{}
}
