package world

import (
	"github.com/edaniels/golog"
	"github.com/pkg/errors"

	"go.viam.com/graspplan/grasp"
	"go.viam.com/graspplan/robot"
	"go.viam.com/graspplan/spatial"
)

// defaultCollisionBuffer is how close, in meters, the end effector may come to an obstacle
// before it counts as colliding.
const defaultCollisionBuffer = 1e-4

// Checker produces collision snapshots of a world for a particular robot model.
type Checker struct {
	world  *World
	model  *robot.Model
	buffer float64
	logger golog.Logger
}

// NewChecker creates a checker over the given world and model. A nonpositive buffer
// selects the default.
func NewChecker(w *World, m *robot.Model, buffer float64, logger golog.Logger) *Checker {
	if buffer <= 0 {
		buffer = defaultCollisionBuffer
	}
	return &Checker{world: w, model: m, buffer: buffer, logger: logger}
}

// Snapshot copies the current obstacle set under the world's read lock. The returned
// snapshot never changes, so a pruning run over it is self-consistent even while the world
// keeps mutating.
func (c *Checker) Snapshot() grasp.CollisionSnapshot {
	return &snapshot{
		obstacles: c.world.snapshotObstacles(),
		model:     c.model,
		buffer:    c.buffer,
		logger:    c.logger,
	}
}

type snapshot struct {
	obstacles []*spatial.Box
	model     *robot.Model
	buffer    float64
	logger    golog.Logger
}

// StateColliding poses the group's attached end effector at the state's joint positions
// and tests it against every obstacle in the snapshot.
func (s *snapshot) StateColliding(st *robot.State, group string, verbose bool) (bool, error) {
	g, err := s.model.Group(group)
	if err != nil {
		return false, err
	}
	if g.Frame == nil {
		return false, errors.Errorf("group %q has no kinematic frame", group)
	}
	if len(g.AttachedEndEffectors) != 1 {
		return false, errors.Errorf("group %q must have exactly one attached end effector, has %d", group, len(g.AttachedEndEffectors))
	}
	ee, err := s.model.Group(g.AttachedEndEffectors[0])
	if err != nil {
		return false, err
	}

	inputs, err := st.GroupPositions(group)
	if err != nil {
		return false, err
	}
	toolPose, err := g.Frame.Transform(inputs)
	if err != nil {
		return false, err
	}
	eeBox, err := spatial.NewBox(toolPose, ee.EndEffectorDims, ee.Name)
	if err != nil {
		return false, err
	}

	for _, obstacle := range s.obstacles {
		if eeBox.CollidesWith(obstacle, s.buffer) {
			if verbose {
				s.logger.Infow("end effector in collision", "group", group, "obstacle", obstacle.Label(), "pose", toolPose.Point())
			}
			return true, nil
		}
	}
	return false, nil
}
