package yamlmodel

// StructureFile is the kinematic part of a model description
// (<package>/urdf/<model><suffix>.yaml).
type StructureFile struct {
	Root   string      `mapstructure:"root"`
	Links  []LinkSpec  `mapstructure:"links"`
	Joints []JointSpec `mapstructure:"joints"`
}

// LinkSpec is a rigid body and its collision geometry.
type LinkSpec struct {
	Name      string          `mapstructure:"name"`
	Collision []CollisionSpec `mapstructure:"collision"`
}

// CollisionSpec places one shape relative to its link.
type CollisionSpec struct {
	Name     string       `mapstructure:"name"`
	Geometry GeometrySpec `mapstructure:"geometry"`
	Origin   []float64    `mapstructure:"origin"`
}

// GeometrySpec mirrors kinematics.Geometry.
type GeometrySpec struct {
	Type   string    `mapstructure:"type"`
	Params []float64 `mapstructure:"params"`
	Source string    `mapstructure:"source"`
}

// JointSpec connects a parent link to a child link.
type JointSpec struct {
	Name   string    `mapstructure:"name"`
	Type   string    `mapstructure:"type"`
	Parent string    `mapstructure:"parent"`
	Child  string    `mapstructure:"child"`
	Origin []float64 `mapstructure:"origin"`
}

// SemanticFile is the optional frame part of a model description
// (<package>/srdf/<model><suffix>.yaml).
type SemanticFile struct {
	Handles  []HandleSpec  `mapstructure:"handles"`
	Grippers []GripperSpec `mapstructure:"grippers"`
	Contacts []ContactSpec `mapstructure:"contacts"`
}

// HandleSpec declares a grasp frame on a link.
type HandleSpec struct {
	Name   string    `mapstructure:"name"`
	Link   string    `mapstructure:"link"`
	Origin []float64 `mapstructure:"origin"`
	Axial  bool      `mapstructure:"axial"`
}

// GripperSpec declares a tool frame on a link.
type GripperSpec struct {
	Name              string    `mapstructure:"name"`
	Link              string    `mapstructure:"link"`
	Origin            []float64 `mapstructure:"origin"`
	DisableCollisions []string  `mapstructure:"disable_collisions"`
}

// ContactSpec is a triangle list expressed in its link frame.
type ContactSpec struct {
	Name      string           `mapstructure:"name"`
	Link      string           `mapstructure:"link"`
	Triangles [][3][3]float64 `mapstructure:"triangles"`
}
