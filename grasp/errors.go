package grasp

import "github.com/pkg/errors"

var (
	// ErrNoCandidates is returned when the pipeline is invoked with an empty candidate
	// list. No solver is instantiated in this case.
	ErrNoCandidates = errors.New("no grasp candidates to filter")

	// ErrNoEndEffector is returned when the arm group has no attached end effector.
	ErrNoEndEffector = errors.New("no end effector attached to the arm group")

	// ErrMultipleEndEffectors is returned when the arm group has more than one attached
	// end effector.
	ErrMultipleEndEffectors = errors.New("more than one end effector attached to the arm group")

	// ErrSolverUnavailable is returned when a kinematics solver cannot be instantiated;
	// this is a configuration error and is not retried.
	ErrSolverUnavailable = errors.New("kinematics solver unavailable")

	// ErrNoFeasibleGrasp is returned when no candidate passes IK filtering, even after
	// the single-worker diagnostic re-run.
	ErrNoFeasibleGrasp = errors.New("no kinematically feasible grasp found")

	// ErrSelectionEmpty is returned when no solution survives collision pruning, even
	// after the diagnostic re-run; no grasp is available.
	ErrSelectionEmpty = errors.New("no grasp available after collision pruning")
)
