package ports

import (
	"context"

	"github.com/aretw0/manipd/pkg/kinematics"
)

// ModelRequest names a model description to load and graft.
type ModelRequest struct {
	// Name is the identifier of the grafted subtree. Joints, bodies and
	// frames of the model are prefixed with Name + "/".
	Name          string `json:"name" mapstructure:"name"`
	RootJointType string `json:"root_joint_type" mapstructure:"root_joint_type"`
	Package       string `json:"package" mapstructure:"package"`
	Model         string `json:"model" mapstructure:"model"`
	URDFSuffix    string `json:"urdf_suffix,omitempty" mapstructure:"urdf_suffix"`
	SRDFSuffix    string `json:"srdf_suffix,omitempty" mapstructure:"srdf_suffix"`
}

// EnvironmentRequest names an environment description and the prefix under
// which its obstacles are injected.
type EnvironmentRequest struct {
	Package    string `json:"package" mapstructure:"package"`
	Model      string `json:"model" mapstructure:"model"`
	URDFSuffix string `json:"urdf_suffix,omitempty" mapstructure:"urdf_suffix"`
	SRDFSuffix string `json:"srdf_suffix,omitempty" mapstructure:"srdf_suffix"`
	Prefix     string `json:"prefix" mapstructure:"prefix"`
}

// ModelLoader parses model descriptions. Both methods build detached
// structures: nothing is attached to a live device, which makes a failed
// load free of side effects.
type ModelLoader interface {
	// LoadModel builds the fragment for a robot, humanoid or object model.
	LoadModel(ctx context.Context, kind kinematics.ModelKind, req ModelRequest) (*kinematics.Fragment, error)

	// LoadEnvironment builds a standalone device for an environment model.
	// Names are not prefixed; the caller applies EnvironmentRequest.Prefix.
	LoadEnvironment(ctx context.Context, req EnvironmentRequest) (*kinematics.Device, error)
}
