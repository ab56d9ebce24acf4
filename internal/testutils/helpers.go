package testutils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// WritePackage creates <root>/<pkg>/<file> for every entry of files, where
// file is a path relative to the package such as "urdf/table.yaml".
// It fails the test immediately on error.
func WritePackage(t *testing.T, root, pkg string, files map[string]string) {
	t.Helper()

	for rel, content := range files {
		path := filepath.Join(root, pkg, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755), "Failed to create %s", filepath.Dir(path))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644), "Failed to write %s", path)
	}
}

// SetupModelRoot creates a temporary model root holding the fixture packages
// used across manipd tests and returns its absolute path.
//
//   - fixtures/urdf/arm.yaml + srdf/arm.yaml: two-link arm with a gripper
//   - fixtures/urdf/box.yaml + srdf/box.yaml: graspable box with a handle and a contact
//   - fixtures/urdf/kitchen.yaml + srdf/kitchen.yaml: table and shelf environment
func SetupModelRoot(t *testing.T) string {
	t.Helper()

	root, err := filepath.Abs(t.TempDir())
	require.NoError(t, err, "Failed to get absolute path for temp dir")

	WritePackage(t, root, "fixtures", map[string]string{
		"urdf/arm.yaml":     ArmStructure,
		"srdf/arm.yaml":     ArmSemantic,
		"urdf/box.yaml":     BoxStructure,
		"srdf/box.yaml":     BoxSemantic,
		"urdf/kitchen.yaml": KitchenStructure,
		"srdf/kitchen.yaml": KitchenSemantic,
	})
	return root
}

// ArmStructure is a base link carrying a revolute upper arm and a wrist.
const ArmStructure = `
links:
  - name: base_link
    collision:
      - geometry: {type: cylinder, params: [0.1, 0.2]}
  - name: upper_arm
    collision:
      - geometry: {type: box, params: [0.1, 0.1, 0.5]}
        origin: [0, 0, 0.25, 0, 0, 0, 1]
  - name: wrist
joints:
  - name: elbow
    type: revolute
    parent: upper_arm
    child: wrist
    origin: [0, 0, 0.5, 0, 0, 0, 1]
  - name: shoulder
    type: revolute
    parent: base_link
    child: upper_arm
    origin: [0, 0, 0.2, 0, 0, 0, 1]
`

// ArmSemantic declares the arm gripper.
const ArmSemantic = `
grippers:
  - name: hand
    link: wrist
    origin: [0, 0, 0.1, 0, 0, 0, 1]
    disable_collisions: [wrist]
`

// BoxStructure is a single-link object.
const BoxStructure = `
links:
  - name: base_link
    collision:
      - name: shell
        geometry: {type: box, params: [0.05, 0.05, 0.05]}
`

// BoxSemantic declares the box handle and its bottom face as a contact.
const BoxSemantic = `
handles:
  - name: handle
    link: base_link
    origin: [0, 0, 0.025, 0, 0, 0, 1]
contacts:
  - name: bottom
    link: base_link
    triangles:
      - [[-0.025, -0.025, -0.025], [0.025, -0.025, -0.025], [0.025, 0.025, -0.025]]
`

// KitchenStructure is a table with a shelf mounted one metre above it.
const KitchenStructure = `
root: floor
links:
  - name: floor
  - name: table_link
    collision:
      - name: table
        geometry: {type: box, params: [1.0, 0.6, 0.05]}
        origin: [0, 0, 0.75, 0, 0, 0, 1]
  - name: shelf_link
    collision:
      - name: shelf
        geometry: {type: box, params: [0.8, 0.3, 0.02]}
joints:
  - name: table_joint
    type: anchor
    parent: floor
    child: table_link
    origin: [2, 0, 0, 0, 0, 0, 1]
  - name: shelf_joint
    type: anchor
    parent: table_link
    child: shelf_link
    origin: [0, 0, 1, 0, 0, 0, 1]
`

// KitchenSemantic declares a contact surface on top of the table.
const KitchenSemantic = `
contacts:
  - name: table_top
    link: table_link
    triangles:
      - [[-0.5, -0.3, 0.775], [0.5, -0.3, 0.775], [0.5, 0.3, 0.775]]
      - [[-0.5, -0.3, 0.775], [0.5, 0.3, 0.775], [-0.5, 0.3, 0.775]]
`
