// Package world models the obstacle set that grasp solutions are pruned against, along
// with a concrete collision checker over it.
package world

import (
	"sync"

	"github.com/pkg/errors"

	"go.viam.com/graspplan/spatial"
)

// World is a mutable set of labeled obstacles. It may be mutated concurrently with
// pipeline runs; consumers work from read-locked snapshots so pruning never observes a
// world that changes mid-run. Obstacles must not be mutated after being added.
type World struct {
	mu        sync.RWMutex
	obstacles map[string]*spatial.Box
}

// NewWorld creates an empty world.
func NewWorld() *World {
	return &World{obstacles: map[string]*spatial.Box{}}
}

// AddObstacle adds or replaces the named obstacle.
func (w *World) AddObstacle(name string, b *spatial.Box) error {
	if b == nil {
		return errors.New("obstacle must not be nil")
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.obstacles[name] = b
	return nil
}

// RemoveObstacle removes the named obstacle if present.
func (w *World) RemoveObstacle(name string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.obstacles, name)
}

// ObstacleCount returns the number of obstacles currently in the world.
func (w *World) ObstacleCount() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.obstacles)
}

// snapshotObstacles copies the obstacle set under the read lock. The lock is held only for
// the duration of the copy.
func (w *World) snapshotObstacles() []*spatial.Box {
	w.mu.RLock()
	defer w.mu.RUnlock()
	obstacles := make([]*spatial.Box, 0, len(w.obstacles))
	for _, b := range w.obstacles {
		obstacles = append(obstacles, b)
	}
	return obstacles
}
