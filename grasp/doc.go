// Package grasp generates parallel-jaw grasp candidates around bounding boxes and runs
// them through a two-stage feasibility pipeline.
//
// A Generator enumerates pose fans over each face and edge of a box, excludes poses the
// jaws cannot span or whose approach would pass through the object, and scores the rest
// against an ideal orientation. A Pipeline then filters candidates for kinematic
// feasibility with parallel IK solves, prunes the feasible ones against a snapshot of the
// world, and returns the best survivor under the configured selection policy. Stages that
// come up empty are automatically re-run once in a single-worker verbose mode to aid
// debugging before an error is returned.
package grasp
