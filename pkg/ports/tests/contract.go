package tests

import (
	"context"
	"strings"
	"testing"

	"github.com/aretw0/manipd/pkg/kinematics"
	"github.com/aretw0/manipd/pkg/ports"
)

// LoaderFixture tells the contract which requests the loader under test can serve.
type LoaderFixture struct {
	Robot       ports.ModelRequest
	Environment ports.EnvironmentRequest
	Missing     ports.ModelRequest
}

// ModelLoaderContractTest is a reusable test suite that verifies if an adapter complies with ports.ModelLoader.
func ModelLoaderContractTest(t *testing.T, loader ports.ModelLoader, fx LoaderFixture) {
	t.Helper()
	ctx := context.Background()

	t.Run("LoadModel_Detached", func(t *testing.T) {
		f, err := loader.LoadModel(ctx, kinematics.KindRobot, fx.Robot)
		if err != nil {
			t.Fatalf("unexpected error loading %s/%s: %v", fx.Robot.Package, fx.Robot.Model, err)
		}
		if f.Root == nil {
			t.Fatal("fragment has no root joint")
		}
		if f.Root.Parent() != nil {
			t.Error("fragment root must be detached")
		}
		if f.Name != fx.Robot.Name {
			t.Errorf("fragment name mismatch. got %q, want %q", f.Name, fx.Robot.Name)
		}
		if string(f.Root.Type) != fx.Robot.RootJointType {
			t.Errorf("root joint type mismatch. got %q, want %q", f.Root.Type, fx.Robot.RootJointType)
		}
		f.Root.Walk(func(j *kinematics.Joint) {
			if !strings.HasPrefix(j.Name, fx.Robot.Name+"/") {
				t.Errorf("joint %q is not prefixed with %q", j.Name, fx.Robot.Name+"/")
			}
		})
	})

	t.Run("LoadModel_FreshCopies", func(t *testing.T) {
		a, err := loader.LoadModel(ctx, kinematics.KindRobot, fx.Robot)
		if err != nil {
			t.Fatal(err)
		}
		b, err := loader.LoadModel(ctx, kinematics.KindRobot, fx.Robot)
		if err != nil {
			t.Fatal(err)
		}
		if a.Root == b.Root {
			t.Error("two loads must not share joints")
		}
	})

	t.Run("LoadModel_NotFound", func(t *testing.T) {
		if _, err := loader.LoadModel(ctx, kinematics.KindRobot, fx.Missing); err == nil {
			t.Error("expected error for missing model, got nil")
		}
	})

	t.Run("LoadEnvironment_Standalone", func(t *testing.T) {
		d, err := loader.LoadEnvironment(ctx, fx.Environment)
		if err != nil {
			t.Fatalf("unexpected error loading environment: %v", err)
		}
		if d.Root() == nil {
			t.Fatal("environment has no root joint")
		}
		if len(d.CollisionObjects()) == 0 {
			t.Error("environment fixture should carry collision objects")
		}
		for _, o := range d.CollisionObjects() {
			if fx.Environment.Prefix != "" && strings.HasPrefix(o.Name, fx.Environment.Prefix) {
				t.Errorf("loader must not apply the prefix, got %q", o.Name)
			}
		}
	})
}
