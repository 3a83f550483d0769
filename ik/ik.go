// Package ik provides the inverse kinematics solver contract used by the grasp pipeline,
// along with an nlopt-backed implementation.
package ik

import (
	"context"

	"github.com/pkg/errors"

	"go.viam.com/graspplan/referenceframe"
	"go.viam.com/graspplan/spatial"
)

// ErrNoSolution is returned when a solver finishes its search without reaching the goal pose.
var ErrNoSolution = errors.New("kinematics could not solve for position")

// Solver searches for joint configurations that place a kinematic chain at a target pose.
// Implementations carry internal mutable search state and are not safe for concurrent use;
// callers wanting parallelism must instantiate one solver per goroutine.
type Solver interface {
	// Solve searches for a configuration placing the chain at the goal pose, warm-started
	// from the given seed. The context deadline bounds the search; a deadline expiry is
	// reported via the context error.
	Solve(ctx context.Context, goal spatial.Pose, seed []referenceframe.Input) ([]referenceframe.Input, error)

	// BaseFrame returns the name of the reference frame in which goal poses must be expressed.
	BaseFrame() string

	// DoF returns the limits of each degree of freedom the solver operates over.
	DoF() []referenceframe.Limit
}
