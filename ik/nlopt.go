//go:build !windows && !no_cgo

package ik

import (
	"context"
	"math"
	"math/rand"
	"sync"

	"github.com/edaniels/golog"
	"github.com/go-nlopt/nlopt"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.viam.com/utils"

	"go.viam.com/graspplan/referenceframe"
	"go.viam.com/graspplan/spatial"
)

var errBadBounds = errors.New("cannot set upper or lower bounds for nlopt, slice is empty")

const (
	defaultMaxIterations = 5000
	nloptStepsPerIter    = 4001
	defaultJump          = 1e-8
	defaultEpsilon       = 1e-3
)

// NloptIK performs gradient descent on the squared-norm pose metric of a Frame using the
// SLSQP algorithm, with random restarts within the joint limits.
type NloptIK struct {
	model         referenceframe.Frame
	baseFrame     string
	lowerBound    []float64
	upperBound    []float64
	maxIterations int
	epsilon       float64
	logger        golog.Logger
	randSeed      *rand.Rand
}

type optimizeReturn struct {
	solution []float64
	score    float64
	err      error
}

// NewNloptSolver creates an NloptIK object that can perform gradient descent on the given
// frame. Goal poses passed to Solve must be expressed in the named base frame.
func NewNloptSolver(model referenceframe.Frame, baseFrame string, logger golog.Logger) (*NloptIK, error) {
	ik := &NloptIK{
		model:         model,
		baseFrame:     baseFrame,
		maxIterations: defaultMaxIterations,
		// Stop optimizing when iterations change by less than this much. The metric is a
		// squared distance, so square the tolerance to match.
		epsilon: defaultEpsilon * defaultEpsilon,
		logger:  logger,
		//nolint:gosec
		randSeed: rand.New(rand.NewSource(1)),
	}
	ik.lowerBound, ik.upperBound = limitsToArrays(model.DoF())
	if len(ik.lowerBound) == 0 || len(ik.upperBound) == 0 {
		return nil, errBadBounds
	}
	return ik, nil
}

// BaseFrame returns the name of the reference frame in which goal poses must be expressed.
func (ik *NloptIK) BaseFrame() string {
	return ik.baseFrame
}

// DoF returns the limits of each degree of freedom the solver operates over.
func (ik *NloptIK) DoF() []referenceframe.Limit {
	return ik.model.DoF()
}

// Solve runs the solver and returns the first configuration found that reaches the goal
// pose within tolerance. It returns ErrNoSolution when the iteration budget is exhausted
// and the context error when the deadline expires first.
func (ik *NloptIK) Solve(ctx context.Context, goal spatial.Pose, seed []referenceframe.Input) ([]referenceframe.Input, error) {
	dof := len(ik.model.DoF())
	if len(seed) != dof {
		return nil, referenceframe.NewIncorrectInputLengthError(len(seed), dof)
	}
	solveMetric := NewSquaredNormMetric(goal)

	opt, err := nlopt.NewNLopt(nlopt.LD_SLSQP, uint(dof))
	if err != nil {
		return nil, errors.Wrap(err, "nlopt creation error")
	}
	defer opt.Destroy()

	iterations := 0
	var activeSolvers sync.WaitGroup

	// x is our set of inputs.
	// Gradient is, under the hood, an unsafe C structure that we are meant to mutate in place.
	nloptMinFunc := func(x, gradient []float64) float64 {
		iterations++

		inputs := referenceframe.FloatsToInputs(x)
		eePos, err := ik.model.Transform(inputs)
		if err != nil {
			ik.logger.Errorw("error calculating pose in nlopt", "error", err)
			if stopErr := opt.ForceStop(); stopErr != nil {
				ik.logger.Errorw("forcestop error", "error", stopErr)
			}
			return 0
		}
		dist := solveMetric(eePos)

		for i := range gradient {
			flip := false
			inputs[i].Value += defaultJump
			if inputs[i].Value >= ik.upperBound[i] {
				flip = true
				inputs[i].Value -= 2 * defaultJump
			}

			eePos, err := ik.model.Transform(inputs)
			if err != nil {
				ik.logger.Errorw("error calculating pose in nlopt", "error", err)
				if stopErr := opt.ForceStop(); stopErr != nil {
					ik.logger.Errorw("forcestop error", "error", stopErr)
				}
				return 0
			}
			dist2 := solveMetric(eePos)
			gradient[i] = (dist2 - dist) / defaultJump
			if flip {
				inputs[i].Value += defaultJump
				gradient[i] *= -1
			} else {
				inputs[i].Value -= defaultJump
			}
		}
		return dist
	}

	err = multierr.Combine(
		opt.SetFtolRel(ik.epsilon),
		opt.SetFtolAbs(ik.epsilon),
		opt.SetLowerBounds(ik.lowerBound),
		opt.SetStopVal(ik.epsilon),
		opt.SetUpperBounds(ik.upperBound),
		opt.SetXtolRel(ik.epsilon),
		opt.SetXtolAbs1(ik.epsilon),
		opt.SetMinObjective(nloptMinFunc),
		opt.SetMaxEval(nloptStepsPerIter),
	)
	if err != nil {
		return nil, err
	}

	startingPos := referenceframe.InputsToFloats(seed)
	solveChan := make(chan *optimizeReturn, 1)
	defer close(solveChan)

	var solveErrors error
	for iterations < ik.maxIterations {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		iterations++
		tryPos := startingPos
		activeSolvers.Add(1)
		utils.PanicCapturingGo(func() {
			defer activeSolvers.Done()
			solutionRaw, result, nloptErr := opt.Optimize(tryPos)
			solveChan <- &optimizeReturn{solutionRaw, result, nloptErr}
		})

		var solution *optimizeReturn
		select {
		case <-ctx.Done():
			solveErrors = multierr.Combine(solveErrors, opt.ForceStop())
			activeSolvers.Wait()
			return nil, multierr.Combine(ctx.Err(), solveErrors)
		case solution = <-solveChan:
		}
		if solution.err != nil {
			// This just *happens* sometimes due to weirdnesses in nonlinear randomized
			// problems; a restart from a new seed may still converge.
			solveErrors = multierr.Combine(solveErrors, solution.err)
		}

		if solution.solution != nil && solution.score < ik.epsilon {
			return referenceframe.FloatsToInputs(solution.solution), nil
		}
		startingPos = ik.generateRandomPositions()
	}
	return nil, multierr.Combine(ErrNoSolution, solveErrors)
}

// generateRandomPositions generates a random restart position within the limits of the frame.
func (ik *NloptIK) generateRandomPositions() []float64 {
	pos := make([]float64, len(ik.lowerBound))
	for i, l := range ik.lowerBound {
		u := ik.upperBound[i]

		// Default to [-999,999] as range if limits are infinite
		if l == math.Inf(-1) {
			l = -999
		}
		if u == math.Inf(1) {
			u = 999
		}
		jRange := math.Abs(u - l)
		pos[i] = ik.randSeed.Float64()*jRange + l
	}
	return pos
}

func limitsToArrays(limits []referenceframe.Limit) ([]float64, []float64) {
	var min, max []float64
	for _, limit := range limits {
		min = append(min, limit.Min)
		max = append(max, limit.Max)
	}
	return min, max
}
