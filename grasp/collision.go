package grasp

import (
	"go.viam.com/graspplan/referenceframe"
)

// pruneCollisions removes solutions whose grasp configuration, and optionally whose
// pre-grasp configuration, collides with the world. The whole run is checked against a
// single snapshot taken up front, and the pipeline's scratch state is fully overwritten
// before use so no joint values leak across invocations. The input slice is not modified.
func (p *Pipeline) pruneCollisions(solutions []Solution, verbose bool) ([]Solution, error) {
	if len(solutions) == 0 {
		return nil, nil
	}
	snapshot := p.world.Snapshot()
	p.state.Zero()

	kept := make([]Solution, 0, len(solutions))
	for _, sol := range solutions {
		colliding, err := p.stateCollides(snapshot, sol.Grasp, verbose)
		if err != nil {
			return nil, err
		}
		if !colliding && p.cfg.PregraspCollision && sol.Pregrasp != nil {
			if colliding, err = p.stateCollides(snapshot, sol.Pregrasp, verbose); err != nil {
				return nil, err
			}
		}
		if colliding {
			if verbose {
				p.logger.Infof("grasp solution %s pruned for collision", sol.Candidate.Tag)
			}
			continue
		}
		kept = append(kept, sol)
	}
	p.logger.Infof("after collision checking, %d of %d grasps were found valid", len(kept), len(solutions))
	return kept, nil
}

func (p *Pipeline) stateCollides(snapshot CollisionSnapshot, conf []referenceframe.Input, verbose bool) (bool, error) {
	if err := p.state.SetGroupPositions(p.armGroup, conf); err != nil {
		return false, err
	}
	colliding, err := snapshot.StateColliding(p.state, p.armGroup, verbose)
	if err != nil {
		return false, err
	}
	if colliding && verbose && p.hooks != nil {
		p.hooks.ShowCollision(p.state)
	}
	return colliding, nil
}
