package grasp

import (
	"context"
	"math"
	"runtime"
	"time"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"go.viam.com/graspplan/ik"
	"go.viam.com/graspplan/referenceframe"
	"go.viam.com/graspplan/robot"
	"go.viam.com/graspplan/spatial"
)

// SolverFactory produces a fresh, independent kinematics solver. Solvers are not safe for
// concurrent use, so the pipeline invokes the factory once per worker on every filtering
// run rather than sharing solver instances across goroutines.
type SolverFactory func() (ik.Solver, error)

// CollisionSnapshot is an immutable view of the world that robot states can be tested
// against. A snapshot taken before a pruning run guarantees the run never observes a world
// that mutates partway through.
type CollisionSnapshot interface {
	// StateColliding reports whether the named group's end effector collides with any
	// obstacle at the state's joint positions. Verbose mode logs each colliding pair.
	StateColliding(st *robot.State, group string, verbose bool) (bool, error)
}

// WorldModel provides collision snapshots of a possibly mutating environment.
type WorldModel interface {
	Snapshot() CollisionSnapshot
}

// Hooks receives visualization callbacks during verbose diagnostic runs. All methods may
// be called from the single diagnostic worker goroutine.
type Hooks interface {
	// ShowGrasp is called for each candidate as it is attempted.
	ShowGrasp(pose spatial.Pose, tag Tag)
	// ShowCollision is called with the robot state of each solution pruned for collision.
	ShowCollision(st *robot.State)
}

// Solution is a candidate that passed IK filtering, together with the joint configurations
// that reach it.
type Solution struct {
	Candidate Candidate
	Grasp     []referenceframe.Input
	// Pregrasp is nil when pre-grasp filtering is disabled.
	Pregrasp []referenceframe.Input
}

// PipelineConfig controls filtering and selection behavior.
type PipelineConfig struct {
	// FilterPregrasp additionally requires an IK solution for each candidate's pre-grasp
	// pose, seeded from the grasp solution.
	FilterPregrasp bool `json:"filter_pregrasp"`

	// PregraspCollision additionally collision-checks the pre-grasp configuration during
	// pruning. Off by default: the pre-grasp pose backs away from the object and is
	// usually clear whenever the grasp pose is.
	PregraspCollision bool `json:"pregrasp_collision"`

	// Policy selects how the best surviving solution is chosen.
	Policy SelectionPolicy `json:"selection_policy"`

	// Diagnostic forces single-worker verbose runs from the start instead of only on the
	// automatic re-run after an empty result.
	Diagnostic bool `json:"diagnostic"`

	// IKTimeout bounds each individual solve. Zero means the arm group's default.
	IKTimeout time.Duration `json:"ik_timeout"`
}

// DefaultPipelineConfig returns the standard two-stage configuration.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{FilterPregrasp: true}
}

// Pipeline runs grasp candidates through IK filtering and collision pruning, then selects
// the best survivor. A pipeline is safe to reuse across calls but not concurrently.
type Pipeline struct {
	model     *robot.Model
	armGroup  string
	profile   *Profile
	newSolver SolverFactory
	world     WorldModel
	cfg       PipelineConfig
	state     *robot.State
	logger    golog.Logger
	hooks     Hooks
}

// NewPipeline creates a pipeline for the given arm group of the model.
func NewPipeline(
	model *robot.Model,
	armGroup string,
	profile *Profile,
	factory SolverFactory,
	world WorldModel,
	cfg PipelineConfig,
	logger golog.Logger,
) (*Pipeline, error) {
	if model == nil {
		return nil, errors.New("model must not be nil")
	}
	if _, err := model.Group(armGroup); err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, errors.New("profile must not be nil")
	}
	if err := profile.Validate(); err != nil {
		return nil, err
	}
	if factory == nil {
		return nil, errors.New("solver factory must not be nil")
	}
	if world == nil {
		return nil, errors.New("world model must not be nil")
	}
	return &Pipeline{
		model:     model,
		armGroup:  armGroup,
		profile:   profile,
		newSolver: factory,
		world:     world,
		cfg:       cfg,
		state:     robot.NewState(model),
		logger:    logger,
	}, nil
}

// SetHooks installs visualization hooks for diagnostic runs.
func (p *Pipeline) SetHooks(h Hooks) {
	p.hooks = h
}

// SelectGrasp filters the candidates for kinematic feasibility, prunes the feasible ones
// against the current world, and returns the best survivor. When a stage comes up empty it
// is re-run once with a single worker and verbose diagnostics before giving up.
func (p *Pipeline) SelectGrasp(ctx context.Context, candidates []Candidate) (*Solution, error) {
	solutions, err := p.filterIK(ctx, candidates, p.cfg.Diagnostic)
	if err != nil {
		return nil, err
	}
	if len(solutions) == 0 && !p.cfg.Diagnostic {
		p.logger.Warn("IK filtering removed all grasps; re-running with one worker and verbose diagnostics")
		if solutions, err = p.filterIK(ctx, candidates, true); err != nil {
			return nil, err
		}
	}
	if len(solutions) == 0 {
		return nil, ErrNoFeasibleGrasp
	}

	kept, err := p.pruneCollisions(solutions, p.cfg.Diagnostic)
	if err != nil {
		return nil, err
	}
	if len(kept) == 0 && !p.cfg.Diagnostic {
		p.logger.Warn("collision pruning removed all grasps, possible planning scene error; re-running with verbose diagnostics")
		if kept, err = p.pruneCollisions(solutions, true); err != nil {
			return nil, err
		}
	}
	if len(kept) == 0 {
		return nil, ErrSelectionEmpty
	}

	return p.chooseBest(kept)
}

// filterStats aggregates solve outcomes across workers.
type filterStats struct {
	noSolution int
	timedOut   int
	failed     int
}

func (s *filterStats) add(other filterStats) {
	s.noSolution += other.noSolution
	s.timedOut += other.timedOut
	s.failed += other.failed
}

// filterIK solves IK for every candidate, in parallel across workers holding private
// solvers, and returns the candidates that were reached together with their
// configurations. Verbose mode runs everything on a single worker.
func (p *Pipeline) filterIK(ctx context.Context, candidates []Candidate, verbose bool) ([]Solution, error) {
	if len(candidates) == 0 {
		return nil, ErrNoCandidates
	}
	arm, err := p.model.Group(p.armGroup)
	if err != nil {
		return nil, err
	}
	switch n := len(arm.AttachedEndEffectors); {
	case n == 0:
		return nil, ErrNoEndEffector
	case n > 1:
		return nil, ErrMultipleEndEffectors
	}

	timeout := p.cfg.IKTimeout
	if timeout <= 0 {
		timeout = arm.IKTimeout()
	}

	numWorkers := runtime.NumCPU()
	if numWorkers > len(candidates) {
		numWorkers = len(candidates)
	}
	if verbose {
		p.logger.Warn("running verbose, using only one worker")
		numWorkers = 1
	}

	solvers := make([]ik.Solver, numWorkers)
	for i := range solvers {
		solver, err := p.newSolver()
		if err != nil {
			return nil, multierr.Combine(ErrSolverUnavailable, err)
		}
		if solver == nil {
			return nil, ErrSolverUnavailable
		}
		solvers[i] = solver
	}

	// If the solver plans in a frame other than the model frame, move every target into
	// the solver's frame up front.
	linkTransform := spatial.NewZeroPose()
	if base := solvers[0].BaseFrame(); base != "" && base != p.model.ModelFrame() {
		framePose, err := p.model.FramePose(base)
		if err != nil {
			return nil, err
		}
		linkTransform = spatial.PoseInverse(framePose)
	}

	// Each worker gets a contiguous partition of the candidates and its own result slice,
	// so nothing is shared between goroutines until the final merge.
	partitions := partition(len(candidates), numWorkers)
	results := make([][]Solution, len(partitions))
	stats := make([]filterStats, len(partitions))
	var group errgroup.Group
	for i, part := range partitions {
		i, part := i, part
		solver := solvers[i]
		group.Go(func() error {
			results[i], stats[i] = p.solvePartition(ctx, solver, candidates[part.start:part.end], part.start, linkTransform, timeout, verbose)
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	solutions := []Solution{}
	total := filterStats{}
	for i := range results {
		solutions = append(solutions, results[i]...)
		total.add(stats[i])
	}
	p.logger.Infof("grasp filtering complete, found %d IK solutions out of %d candidates (no solution: %d, timed out: %d, errors: %d)",
		len(solutions), len(candidates), total.noSolution, total.timedOut, total.failed)
	return solutions, nil
}

// span is a half-open index range of candidates owned by one worker.
type span struct {
	start, end int
}

// partition splits n items into at most workers contiguous spans using ceiling division,
// covering every index exactly once.
func partition(n, workers int) []span {
	perWorker := float64(n) / float64(workers)
	spans := make([]span, 0, workers)
	end := 0
	for i := 0; i < workers; i++ {
		start := end
		end = int(math.Ceil(perWorker * float64(i+1)))
		if end > n {
			end = n
		}
		if start == end {
			continue
		}
		spans = append(spans, span{start, end})
	}
	return spans
}

// solvePartition runs IK over one worker's share of the candidates. The seed starts at
// zero and is replaced by each successful solve so nearby candidates converge faster.
func (p *Pipeline) solvePartition(
	ctx context.Context,
	solver ik.Solver,
	candidates []Candidate,
	offset int,
	linkTransform spatial.Pose,
	timeout time.Duration,
	verbose bool,
) ([]Solution, filterStats) {
	var solutions []Solution
	var stats filterStats
	seed := referenceframe.ZeroInputs(len(solver.DoF()))
	for i, candidate := range candidates {
		select {
		case <-ctx.Done():
			p.logger.Debugf("context done, abandoning %d remaining candidates", len(candidates)-i)
			return solutions, stats
		default:
		}
		if verbose {
			p.logger.Debugf("attempting candidate %d of %d: %s", offset+i+1, offset+len(candidates), candidate.Tag)
			if p.hooks != nil {
				p.hooks.ShowGrasp(candidate.Pose, candidate.Tag)
			}
		}

		target := spatial.Compose(linkTransform, spatial.Compose(candidate.Pose, p.profile.ParentLinkOffset))
		conf, ok := p.solveOne(ctx, solver, target, seed, timeout, &stats, verbose, candidate, "grasp")
		if !ok {
			continue
		}
		seed = conf

		var pregraspConf []referenceframe.Input
		if p.cfg.FilterPregrasp {
			pregrasp := p.profile.PregraspPose(candidate.Pose)
			pregraspTarget := spatial.Compose(linkTransform, spatial.Compose(pregrasp, p.profile.ParentLinkOffset))
			if pregraspConf, ok = p.solveOne(ctx, solver, pregraspTarget, seed, timeout, &stats, verbose, candidate, "pregrasp"); !ok {
				continue
			}
		} else if verbose {
			p.logger.Warn("not filtering pre-grasp poses; solutions will carry no pre-grasp configuration")
		}

		solutions = append(solutions, Solution{Candidate: candidate, Grasp: conf, Pregrasp: pregraspConf})
	}
	return solutions, stats
}

// solveOne attempts a single IK solve with its own deadline, classifying any failure into
// the stats.
func (p *Pipeline) solveOne(
	ctx context.Context,
	solver ik.Solver,
	target spatial.Pose,
	seed []referenceframe.Input,
	timeout time.Duration,
	stats *filterStats,
	verbose bool,
	candidate Candidate,
	stage string,
) ([]referenceframe.Input, bool) {
	solveCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	conf, err := solver.Solve(solveCtx, target, seed)
	switch {
	case err == nil:
		return conf, true
	case errors.Is(err, ik.ErrNoSolution):
		stats.noSolution++
		if verbose {
			p.logger.Debugf("no IK solution for %s pose of candidate %s", stage, candidate.Tag)
		}
	case errors.Is(err, context.DeadlineExceeded):
		stats.timedOut++
		if verbose {
			p.logger.Debugf("IK timed out for %s pose of candidate %s", stage, candidate.Tag)
		}
	default:
		stats.failed++
		p.logger.Infow("IK solver error", "candidate", candidate.Tag.String(), "stage", stage, "error", err)
	}
	return nil, false
}
