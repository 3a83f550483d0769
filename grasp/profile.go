package grasp

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/graspplan/spatial"
	"go.viam.com/graspplan/utils"
)

// Profile describes the geometry of a parallel-jaw end effector as needed for grasp
// generation and feasibility testing. It is immutable during a pipeline run.
type Profile struct {
	// Name identifies the effector.
	Name string `json:"name"`

	// ApproachDirection is the unit vector in the grasp frame along which the effector
	// approaches its grasp pose. Defaults to +Z.
	ApproachDirection r3.Vector `json:"approach_direction"`

	// JawDirection is the unit vector in the grasp frame along which the jaws open. It
	// must be orthogonal to ApproachDirection. Defaults to +Y.
	JawDirection r3.Vector `json:"jaw_direction"`

	// MaxAperture is the widest jaw opening in meters. Candidates requiring a wider
	// grasp are excluded at generation time.
	MaxAperture float64 `json:"max_aperture"`

	// FingerDepth is how far the fingers extend past the grasp origin along the
	// approach direction, in meters.
	FingerDepth float64 `json:"finger_depth"`

	// ApproachDistance is the standoff of the pre-grasp pose from the grasp pose along
	// the approach direction, in meters.
	ApproachDistance float64 `json:"approach_distance"`

	// ParentLinkOffset is the transform from the grasp frame to the effector's parent
	// link, applied before poses are handed to the IK solver. Nil means identity.
	ParentLinkOffset spatial.Pose `json:"-"`

	// IdealOrientation is the orientation candidates are scored against. Nil means the
	// zero orientation.
	IdealOrientation spatial.Orientation `json:"-"`
}

// Validate checks the profile for consistency and fills zero-valued fields with their
// defaults.
func (p *Profile) Validate() error {
	if p.ApproachDirection == (r3.Vector{}) {
		p.ApproachDirection = r3.Vector{Z: 1}
	}
	if p.JawDirection == (r3.Vector{}) {
		p.JawDirection = r3.Vector{Y: 1}
	}
	if !utils.Float64AlmostEqual(p.ApproachDirection.Norm(), 1, 1e-6) {
		return errors.New("profile approach direction must be a unit vector")
	}
	if !utils.Float64AlmostEqual(p.JawDirection.Norm(), 1, 1e-6) {
		return errors.New("profile jaw direction must be a unit vector")
	}
	if !utils.Float64AlmostEqual(p.ApproachDirection.Dot(p.JawDirection), 0, 1e-6) {
		return errors.New("profile jaw direction must be orthogonal to the approach direction")
	}
	if p.MaxAperture <= 0 {
		return errors.New("profile max aperture must be positive")
	}
	if p.FingerDepth <= 0 {
		return errors.New("profile finger depth must be positive")
	}
	if p.ApproachDistance <= 0 {
		return errors.New("profile approach distance must be positive")
	}
	if p.ParentLinkOffset == nil {
		p.ParentLinkOffset = spatial.NewZeroPose()
	}
	if p.IdealOrientation == nil {
		p.IdealOrientation = spatial.NewZeroOrientation()
	}
	return nil
}

// PregraspPose returns the pre-grasp pose for the given grasp pose: the same orientation,
// backed off along the approach direction by the profile's approach distance.
func (p *Profile) PregraspPose(grasp spatial.Pose) spatial.Pose {
	return spatial.Compose(grasp, spatial.NewPoseFromPoint(p.ApproachDirection.Mul(-p.ApproachDistance)))
}
