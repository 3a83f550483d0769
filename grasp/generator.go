package grasp

import (
	"math"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/num/quat"

	"go.viam.com/graspplan/spatial"
)

const (
	// minGraspDistance is the smallest allowed spacing between standoff depths, in meters.
	// Finer spacings produce near-duplicate candidates that waste solver time.
	minGraspDistance = 0.001

	// minAngleStep is the smallest allowed angular spacing between fan poses, in radians.
	minAngleStep = 0.01
)

// GeneratorConfig controls how densely candidates are enumerated around a box.
type GeneratorConfig struct {
	// FaceRotations is the number of rotations about the approach axis generated per face.
	FaceRotations int `json:"face_rotations"`

	// AngleStep is the angular spacing between face rotations, in radians.
	AngleStep float64 `json:"angle_step"`

	// DepthCount is the number of standoff depths generated per face rotation.
	DepthCount int `json:"depth_count"`

	// DepthStep is the spacing between standoff depths, in meters.
	DepthStep float64 `json:"depth_step"`

	// CornerSteps is the number of intermediate angles generated per edge fan, stepping
	// between the orientations of the two adjacent faces. Zero disables corner grasps.
	CornerSteps int `json:"corner_steps"`
}

// DefaultGeneratorConfig returns a moderate candidate density suitable for tabletop boxes.
func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		FaceRotations: 4,
		AngleStep:     math.Pi / 2,
		DepthCount:    3,
		DepthStep:     0.005,
		CornerSteps:   2,
	}
}

// Validate checks the config for consistency.
func (cfg *GeneratorConfig) Validate() error {
	if cfg.FaceRotations < 1 {
		return errors.New("face rotation count must be at least 1")
	}
	if cfg.FaceRotations > 1 && cfg.AngleStep < minAngleStep {
		return errors.Errorf("angle step %f is below the minimum %f", cfg.AngleStep, minAngleStep)
	}
	if cfg.DepthCount < 1 {
		return errors.New("depth count must be at least 1")
	}
	if cfg.DepthCount > 1 && cfg.DepthStep < minGraspDistance {
		return errors.Errorf("depth step %f is below the minimum %f", cfg.DepthStep, minGraspDistance)
	}
	if cfg.CornerSteps < 0 {
		return errors.New("corner step count must not be negative")
	}
	return nil
}

// Generator enumerates grasp candidates around axis-aligned bounding boxes for a single
// end-effector profile.
type Generator struct {
	cfg     GeneratorConfig
	profile *Profile
	logger  golog.Logger
}

// NewGenerator creates a generator for the given profile.
func NewGenerator(profile *Profile, cfg GeneratorConfig, logger golog.Logger) (*Generator, error) {
	if profile == nil {
		return nil, errors.New("profile must not be nil")
	}
	if err := profile.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if deepest := float64(cfg.DepthCount-1) * cfg.DepthStep; deepest > profile.FingerDepth {
		logger.Warnf("deepest standoff %.4f exceeds finger depth %.4f; deep candidates will not overlap the object", deepest, profile.FingerDepth)
	}
	return &Generator{cfg: cfg, profile: profile, logger: logger}, nil
}

// rawCandidate is an enumerated pose in the box's local frame, before intersection
// filtering and scoring.
type rawCandidate struct {
	pose spatial.Pose
	tag  Tag
}

// Generate enumerates candidates around the box, removes those whose approach segment
// would pass through the box, and scores the survivors against the profile's ideal
// orientation. Candidate poses are expressed in the box's reference frame.
func (g *Generator) Generate(obj *spatial.Box) ([]Candidate, error) {
	if obj == nil {
		return nil, errors.New("object must not be nil")
	}
	raw, apertureRejected := g.enumerate(obj)

	candidates := make([]Candidate, 0, len(raw))
	intersectRejected := 0
	for _, rc := range raw {
		if g.approachIntersects(obj, rc.pose) {
			intersectRejected++
			continue
		}
		pose := spatial.Compose(obj.Pose(), rc.pose)
		candidates = append(candidates, Candidate{
			Pose:  pose,
			Tag:   rc.tag,
			Score: scoreOrientation(pose.Orientation(), g.profile.IdealOrientation),
		})
	}
	g.logger.Debugf("generated %d grasp candidates for %q (%d rejected by aperture, %d by approach intersection)",
		len(candidates), obj.Label(), apertureRejected, intersectRejected)
	return candidates, nil
}

// enumerate produces the full candidate fans for all faces and edges, excluding only poses
// whose required jaw opening exceeds the profile's maximum aperture.
func (g *Generator) enumerate(obj *spatial.Box) ([]rawCandidate, int) {
	half := obj.HalfSize()
	var raw []rawCandidate
	apertureRejected := 0

	for axis := AxisX; axis <= AxisZ; axis++ {
		u := Axis((axis + 1) % 3).vector()
		for _, positive := range []bool{true, false} {
			n := axis.vector()
			if !positive {
				n = n.Mul(-1)
			}
			d := n.Mul(-1)
			base := g.orientationTo(u, d.Cross(u), d)
			faceCenter := n.Mul(half[axis])

			for r := 0; r < g.cfg.FaceRotations; r++ {
				theta := float64(r) * g.cfg.AngleStep
				spin := spatial.R4AA{Theta: theta, RX: d.X, RY: d.Y, RZ: d.Z}
				orient := spatial.NewOrientationFromQuaternion(quat.Mul(spin.Quaternion(), base))

				jaw := spatial.RotateVector(orient, g.profile.JawDirection)
				if requiredAperture(jaw, half) > g.profile.MaxAperture {
					apertureRejected += g.cfg.DepthCount
					continue
				}
				for depth := 0; depth < g.cfg.DepthCount; depth++ {
					raw = append(raw, rawCandidate{
						pose: spatial.NewPose(faceCenter.Add(n.Mul(float64(depth)*g.cfg.DepthStep)), orient),
						tag:  Tag{Kind: TagFace, Axis: axis, Positive: positive, Rotation: r, Depth: depth},
					})
				}
			}
		}
	}

	if g.cfg.CornerSteps > 0 {
		for axis := AxisX; axis <= AxisZ; axis++ {
			u := axis.vector()
			a1 := Axis((axis + 1) % 3)
			a2 := Axis((axis + 2) % 3)
			edge := 0
			for _, s1 := range []float64{1, -1} {
				for _, s2 := range []float64{1, -1} {
					n1 := a1.vector().Mul(s1)
					n2 := a2.vector().Mul(s2)
					corner := n1.Mul(half[a1]).Add(n2.Mul(half[a2]))
					for step := 1; step <= g.cfg.CornerSteps; step++ {
						// phi sweeps the outward direction between the two face normals.
						phi := float64(step) * (math.Pi / 2) / float64(g.cfg.CornerSteps+1)
						d := n1.Mul(math.Cos(phi)).Add(n2.Mul(math.Sin(phi))).Mul(-1)
						orient := spatial.NewOrientationFromQuaternion(g.orientationTo(u, d.Cross(u), d))

						jaw := spatial.RotateVector(orient, g.profile.JawDirection)
						if requiredAperture(jaw, half) > g.profile.MaxAperture {
							apertureRejected++
							continue
						}
						raw = append(raw, rawCandidate{
							pose: spatial.NewPose(corner, orient),
							tag:  Tag{Kind: TagCorner, Axis: axis, Positive: s1 > 0, Rotation: edge, Step: step},
						})
					}
					edge++
				}
			}
		}
	}
	return raw, apertureRejected
}

// orientationTo returns the box-local orientation that maps the profile's jaw direction
// onto v and its approach direction onto d; u completes the right-handed frame.
func (g *Generator) orientationTo(u, v, d r3.Vector) quat.Number {
	target := spatial.NewRotationMatrixFromRows(u, v, d).Quaternion()
	a := g.profile.ApproachDirection
	j := g.profile.JawDirection
	effector := spatial.NewRotationMatrixFromRows(j.Cross(a), j, a).Quaternion()
	return quat.Mul(target, quat.Conj(effector))
}

// requiredAperture returns how wide the jaws must open to straddle the box when opening
// along the given box-local direction. This projects the full box onto the jaw axis, which
// overestimates for oblique grasps but never underestimates.
func requiredAperture(jaw r3.Vector, half [3]float64) float64 {
	return 2 * (math.Abs(jaw.X)*half[0] + math.Abs(jaw.Y)*half[1] + math.Abs(jaw.Z)*half[2])
}
