package grasp

import (
	"context"
	"math"
	"runtime"
	"sync/atomic"
	"testing"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/test"

	"go.viam.com/graspplan/ik"
	"go.viam.com/graspplan/referenceframe"
	"go.viam.com/graspplan/robot"
	"go.viam.com/graspplan/spatial"
)

func pipelineModel(t *testing.T, endEffectors ...string) *robot.Model {
	t.Helper()
	frame, err := referenceframe.NewSerialFrame("arm", []referenceframe.Joint{
		{Axis: r3.Vector{Z: 1}, Limit: referenceframe.Limit{Min: -math.Pi, Max: math.Pi}},
		{
			Offset: spatial.NewPoseFromPoint(r3.Vector{X: 0.3}),
			Axis:   r3.Vector{Z: 1},
			Limit:  referenceframe.Limit{Min: -math.Pi, Max: math.Pi},
		},
	})
	test.That(t, err, test.ShouldBeNil)
	groups := []*robot.Group{{
		Name:                 "arm",
		Limits:               frame.DoF(),
		Frame:                frame,
		AttachedEndEffectors: endEffectors,
	}}
	for _, name := range endEffectors {
		groups = append(groups, &robot.Group{Name: name, EndEffectorDims: r3.Vector{X: 0.05, Y: 0.05, Z: 0.05}})
	}
	m, err := robot.NewModel("bot", "base", groups...)
	test.That(t, err, test.ShouldBeNil)
	return m
}

type fakeSolver struct {
	dof   []referenceframe.Limit
	solve func(goal spatial.Pose, seed []referenceframe.Input) ([]referenceframe.Input, error)
}

func (f *fakeSolver) Solve(ctx context.Context, goal spatial.Pose, seed []referenceframe.Input) ([]referenceframe.Input, error) {
	return f.solve(goal, seed)
}

func (f *fakeSolver) BaseFrame() string { return "" }

func (f *fakeSolver) DoF() []referenceframe.Limit { return f.dof }

func countingFactory(calls *int32, solve func(spatial.Pose, []referenceframe.Input) ([]referenceframe.Input, error)) SolverFactory {
	return func() (ik.Solver, error) {
		atomic.AddInt32(calls, 1)
		return &fakeSolver{dof: make([]referenceframe.Limit, 2), solve: solve}, nil
	}
}

func solveFixed(values ...float64) func(spatial.Pose, []referenceframe.Input) ([]referenceframe.Input, error) {
	return func(spatial.Pose, []referenceframe.Input) ([]referenceframe.Input, error) {
		return referenceframe.FloatsToInputs(values), nil
	}
}

type fakeWorld struct {
	snapshots int32
	colliding func(st *robot.State) bool
}

func (w *fakeWorld) Snapshot() CollisionSnapshot {
	atomic.AddInt32(&w.snapshots, 1)
	return &fakeSnapshot{w.colliding}
}

type fakeSnapshot struct {
	colliding func(st *robot.State) bool
}

func (s *fakeSnapshot) StateColliding(st *robot.State, group string, verbose bool) (bool, error) {
	if s.colliding == nil {
		return false, nil
	}
	return s.colliding(st), nil
}

func makeCandidates(n int) []Candidate {
	out := make([]Candidate, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, Candidate{
			Pose:  spatial.NewPoseFromPoint(r3.Vector{X: float64(i) * 0.01}),
			Tag:   Tag{Kind: TagFace, Axis: AxisZ, Positive: true, Rotation: i},
			Score: float64(i+1) / float64(n),
		})
	}
	return out
}

func newTestPipeline(t *testing.T, factory SolverFactory, world WorldModel, cfg PipelineConfig) *Pipeline {
	t.Helper()
	p, err := NewPipeline(pipelineModel(t, "gripper"), "arm", testProfile(), factory, world, cfg, golog.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	return p
}

func TestNewPipelineValidation(t *testing.T) {
	logger := golog.NewTestLogger(t)
	model := pipelineModel(t, "gripper")
	factory := countingFactory(new(int32), solveFixed(0, 0))
	world := &fakeWorld{}
	cfg := DefaultPipelineConfig()

	_, err := NewPipeline(nil, "arm", testProfile(), factory, world, cfg, logger)
	test.That(t, err, test.ShouldNotBeNil)
	_, err = NewPipeline(model, "legs", testProfile(), factory, world, cfg, logger)
	test.That(t, err, test.ShouldNotBeNil)
	_, err = NewPipeline(model, "arm", nil, factory, world, cfg, logger)
	test.That(t, err, test.ShouldNotBeNil)
	_, err = NewPipeline(model, "arm", &Profile{MaxAperture: -1}, factory, world, cfg, logger)
	test.That(t, err, test.ShouldNotBeNil)
	_, err = NewPipeline(model, "arm", testProfile(), nil, world, cfg, logger)
	test.That(t, err, test.ShouldNotBeNil)
	_, err = NewPipeline(model, "arm", testProfile(), factory, nil, cfg, logger)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestSelectGraspEmptyCandidates(t *testing.T) {
	var calls int32
	p := newTestPipeline(t, countingFactory(&calls, solveFixed(0, 0)), &fakeWorld{}, DefaultPipelineConfig())

	_, err := p.SelectGrasp(context.Background(), nil)
	test.That(t, errors.Is(err, ErrNoCandidates), test.ShouldBeTrue)
	// no solver may be instantiated for an empty candidate list
	test.That(t, atomic.LoadInt32(&calls), test.ShouldEqual, 0)
}

func TestEndEffectorValidation(t *testing.T) {
	logger := golog.NewTestLogger(t)
	factory := countingFactory(new(int32), solveFixed(0, 0))
	cfg := DefaultPipelineConfig()

	p, err := NewPipeline(pipelineModel(t), "arm", testProfile(), factory, &fakeWorld{}, cfg, logger)
	test.That(t, err, test.ShouldBeNil)
	_, err = p.SelectGrasp(context.Background(), makeCandidates(3))
	test.That(t, errors.Is(err, ErrNoEndEffector), test.ShouldBeTrue)

	p, err = NewPipeline(pipelineModel(t, "left", "right"), "arm", testProfile(), factory, &fakeWorld{}, cfg, logger)
	test.That(t, err, test.ShouldBeNil)
	_, err = p.SelectGrasp(context.Background(), makeCandidates(3))
	test.That(t, errors.Is(err, ErrMultipleEndEffectors), test.ShouldBeTrue)
}

func TestSolverFactoryError(t *testing.T) {
	boom := errors.New("no solver for you")
	factory := func() (ik.Solver, error) { return nil, boom }
	p := newTestPipeline(t, factory, &fakeWorld{}, DefaultPipelineConfig())

	_, err := p.SelectGrasp(context.Background(), makeCandidates(3))
	test.That(t, errors.Is(err, ErrSolverUnavailable), test.ShouldBeTrue)
	test.That(t, errors.Is(err, boom), test.ShouldBeTrue)
}

func TestSelectGraspSuccess(t *testing.T) {
	var calls int32
	world := &fakeWorld{}
	p := newTestPipeline(t, countingFactory(&calls, solveFixed(0.4, -0.2)), world, DefaultPipelineConfig())

	sol, err := p.SelectGrasp(context.Background(), makeCandidates(5))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, sol, test.ShouldNotBeNil)
	// the quality score policy picks the best scored candidate
	test.That(t, sol.Candidate.Score, test.ShouldEqual, 1.0)
	test.That(t, sol.Candidate.Tag.Rotation, test.ShouldEqual, 4)
	test.That(t, referenceframe.InputsToFloats(sol.Grasp), test.ShouldResemble, []float64{0.4, -0.2})
	test.That(t, sol.Pregrasp, test.ShouldNotBeNil)
	// one snapshot serves the whole pruning run
	test.That(t, atomic.LoadInt32(&world.snapshots), test.ShouldEqual, 1)
}

func TestNoFeasibleGraspDiagnosticRerun(t *testing.T) {
	var calls int32
	var solves int32
	factory := countingFactory(&calls, func(spatial.Pose, []referenceframe.Input) ([]referenceframe.Input, error) {
		atomic.AddInt32(&solves, 1)
		return nil, ik.ErrNoSolution
	})
	world := &fakeWorld{}
	p := newTestPipeline(t, factory, world, DefaultPipelineConfig())

	candidates := makeCandidates(8)
	_, err := p.SelectGrasp(context.Background(), candidates)
	test.That(t, errors.Is(err, ErrNoFeasibleGrasp), test.ShouldBeTrue)

	// every candidate is attempted twice: the parallel run, then exactly one verbose
	// single-worker re-run
	test.That(t, atomic.LoadInt32(&solves), test.ShouldEqual, 16)
	firstRunWorkers := runtime.NumCPU()
	if firstRunWorkers > len(candidates) {
		firstRunWorkers = len(candidates)
	}
	test.That(t, atomic.LoadInt32(&calls), test.ShouldEqual, int32(firstRunWorkers+1))
	// failing before collision pruning takes no snapshot
	test.That(t, atomic.LoadInt32(&world.snapshots), test.ShouldEqual, 0)
}

func TestAllCollidingDiagnosticRerun(t *testing.T) {
	world := &fakeWorld{colliding: func(*robot.State) bool { return true }}
	p := newTestPipeline(t, countingFactory(new(int32), solveFixed(0.1, 0.1)), world, DefaultPipelineConfig())

	_, err := p.SelectGrasp(context.Background(), makeCandidates(5))
	test.That(t, errors.Is(err, ErrSelectionEmpty), test.ShouldBeTrue)
	// the verbose re-run prunes against a fresh snapshot
	test.That(t, atomic.LoadInt32(&world.snapshots), test.ShouldEqual, 2)
}

func TestPregraspFiltering(t *testing.T) {
	// pre-grasp targets sit 0.1m back along the approach axis; refuse only those
	solve := func(goal spatial.Pose, _ []referenceframe.Input) ([]referenceframe.Input, error) {
		if goal.Point().Z < -0.05 {
			return nil, ik.ErrNoSolution
		}
		return referenceframe.FloatsToInputs([]float64{0.1, 0.1}), nil
	}

	p := newTestPipeline(t, countingFactory(new(int32), solve), &fakeWorld{}, DefaultPipelineConfig())
	_, err := p.SelectGrasp(context.Background(), makeCandidates(4))
	test.That(t, errors.Is(err, ErrNoFeasibleGrasp), test.ShouldBeTrue)

	cfg := DefaultPipelineConfig()
	cfg.FilterPregrasp = false
	p = newTestPipeline(t, countingFactory(new(int32), solve), &fakeWorld{}, cfg)
	sol, err := p.SelectGrasp(context.Background(), makeCandidates(4))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, sol.Pregrasp, test.ShouldBeNil)
}

func TestPartitionCoverage(t *testing.T) {
	for n := 1; n <= 20; n++ {
		for workers := 1; workers <= 8; workers++ {
			spans := partition(n, workers)
			expected := workers
			if n < workers {
				expected = n
			}
			test.That(t, len(spans), test.ShouldEqual, expected)
			next := 0
			for _, s := range spans {
				test.That(t, s.start, test.ShouldEqual, next)
				test.That(t, s.end, test.ShouldBeGreaterThan, s.start)
				next = s.end
			}
			test.That(t, next, test.ShouldEqual, n)
		}
	}
}

func TestSeedWarmStart(t *testing.T) {
	var seeds [][]float64
	solve := func(_ spatial.Pose, seed []referenceframe.Input) ([]referenceframe.Input, error) {
		seeds = append(seeds, referenceframe.InputsToFloats(seed))
		return referenceframe.FloatsToInputs([]float64{0.7, 0.7}), nil
	}

	cfg := DefaultPipelineConfig()
	cfg.Diagnostic = true
	cfg.FilterPregrasp = false
	p := newTestPipeline(t, countingFactory(new(int32), solve), &fakeWorld{}, cfg)

	_, err := p.SelectGrasp(context.Background(), makeCandidates(3))
	test.That(t, err, test.ShouldBeNil)
	// the first solve starts from zero; later ones start from the previous solution
	test.That(t, seeds, test.ShouldResemble, [][]float64{{0, 0}, {0.7, 0.7}, {0.7, 0.7}})
}

type countingHooks struct {
	grasps     int32
	collisions int32
}

func (h *countingHooks) ShowGrasp(pose spatial.Pose, tag Tag) { atomic.AddInt32(&h.grasps, 1) }

func (h *countingHooks) ShowCollision(st *robot.State) { atomic.AddInt32(&h.collisions, 1) }

func TestDiagnosticHooks(t *testing.T) {
	world := &fakeWorld{colliding: func(*robot.State) bool { return true }}
	cfg := DefaultPipelineConfig()
	cfg.Diagnostic = true
	cfg.FilterPregrasp = false
	p := newTestPipeline(t, countingFactory(new(int32), solveFixed(0.1, 0.1)), world, cfg)

	hooks := &countingHooks{}
	p.SetHooks(hooks)
	_, err := p.SelectGrasp(context.Background(), makeCandidates(4))
	test.That(t, errors.Is(err, ErrSelectionEmpty), test.ShouldBeTrue)
	test.That(t, atomic.LoadInt32(&hooks.grasps), test.ShouldEqual, 4)
	test.That(t, atomic.LoadInt32(&hooks.collisions), test.ShouldEqual, 4)
	// diagnostic mode never re-runs, so exactly one snapshot is taken
	test.That(t, atomic.LoadInt32(&world.snapshots), test.ShouldEqual, 1)
}
