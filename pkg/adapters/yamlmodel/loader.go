// Package yamlmodel loads model descriptions from YAML files laid out like
// ROS packages:
//
//	<root>/<package>/urdf/<model><urdf suffix>.yaml   links and joints
//	<root>/<package>/srdf/<model><srdf suffix>.yaml   handles, grippers, contacts (optional)
//
// Transforms are written as 7-float arrays [x y z qx qy qz qw].
package yamlmodel

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/manipd/internal/logging"
	"github.com/aretw0/manipd/pkg/domain"
	"github.com/aretw0/manipd/pkg/kinematics"
	"github.com/aretw0/manipd/pkg/ports"
	"github.com/aretw0/manipd/pkg/spatial"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Loader implements ports.ModelLoader over a directory of packages.
type Loader struct {
	root   string
	logger *slog.Logger
}

var _ ports.ModelLoader = (*Loader)(nil)

// Option configures the Loader.
type Option func(*Loader)

// WithLogger configures a logger for the Loader.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) {
		l.logger = logger
	}
}

// NewLoader creates a loader reading packages under root.
func NewLoader(root string, opts ...Option) *Loader {
	l := &Loader{
		root:   root,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// LoadModel builds a detached fragment. Every name is prefixed with req.Name + "/".
func (l *Loader) LoadModel(ctx context.Context, kind kinematics.ModelKind, req ports.ModelRequest) (*kinematics.Fragment, error) {
	if req.Name == "" {
		return nil, domain.Errorf(domain.ErrInvalidArgument, "model name is empty")
	}
	if strings.Contains(req.Name, "/") {
		return nil, domain.Errorf(domain.ErrInvalidArgument, "model name %q contains '/'", req.Name)
	}
	rootType := kinematics.JointType(req.RootJointType)
	if !kinematics.ValidJointType(rootType) {
		return nil, domain.Errorf(domain.ErrInvalidArgument, "unknown root joint type %q", req.RootJointType)
	}

	st, sem, err := l.read(ctx, req.Package, req.Model, req.URDFSuffix, req.SRDFSuffix)
	if err != nil {
		return nil, err
	}

	b := &builder{prefix: req.Name + "/"}
	root, err := b.tree(st, rootType)
	if err != nil {
		return nil, fmt.Errorf("%s/%s: %w", req.Package, req.Model, err)
	}
	f := &kinematics.Fragment{Name: req.Name, Kind: kind, Root: root}
	if err := b.frames(sem, f); err != nil {
		return nil, fmt.Errorf("%s/%s: %w", req.Package, req.Model, err)
	}

	l.logger.Debug("Model loaded",
		"name", req.Name,
		"kind", kind,
		"package", req.Package,
		"model", req.Model,
		"joints", len(b.joints),
	)
	return f, nil
}

// LoadEnvironment builds a standalone device with an anchored root. Names are
// kept as written in the files.
func (l *Loader) LoadEnvironment(ctx context.Context, req ports.EnvironmentRequest) (*kinematics.Device, error) {
	st, sem, err := l.read(ctx, req.Package, req.Model, req.URDFSuffix, req.SRDFSuffix)
	if err != nil {
		return nil, err
	}

	b := &builder{}
	root, err := b.tree(st, kinematics.JointAnchor)
	if err != nil {
		return nil, fmt.Errorf("%s/%s: %w", req.Package, req.Model, err)
	}
	f := &kinematics.Fragment{Name: req.Model, Kind: kinematics.KindEnvironment, Root: root}
	if err := b.frames(sem, f); err != nil {
		return nil, fmt.Errorf("%s/%s: %w", req.Package, req.Model, err)
	}

	d := kinematics.NewDevice(req.Model)
	anchor := kinematics.NewJoint("base_joint", kinematics.JointAnchor, spatial.Identity())
	if err := d.SetRoot(anchor); err != nil {
		return nil, err
	}
	if err := d.Graft(anchor, f); err != nil {
		return nil, err
	}

	l.logger.Debug("Environment loaded", "package", req.Package, "model", req.Model, "joints", len(b.joints))
	return d, nil
}

func (l *Loader) read(ctx context.Context, pkg, model, urdfSuffix, srdfSuffix string) (*StructureFile, *SemanticFile, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	for _, part := range []string{pkg, model + urdfSuffix, model + srdfSuffix} {
		if part == "" || !filepath.IsLocal(part) || filepath.Base(part) != part {
			return nil, nil, domain.Errorf(domain.ErrInvalidArgument, "invalid package or model name %q", part)
		}
	}

	var st StructureFile
	structurePath := filepath.Join(l.root, pkg, "urdf", model+urdfSuffix+".yaml")
	if err := decodeFile(structurePath, &st); err != nil {
		return nil, nil, err
	}

	var sem SemanticFile
	semanticPath := filepath.Join(l.root, pkg, "srdf", model+srdfSuffix+".yaml")
	if err := decodeFile(semanticPath, &sem); err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, nil, err
		}
		l.logger.Debug("No semantic file", "path", semanticPath)
	}
	return &st, &sem, nil
}

// decodeFile parses YAML into a generic document and decodes it strictly,
// so that misspelled keys are reported instead of ignored.
func decodeFile(path string, target any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.Errorf(domain.ErrNotFound, "model file %s", path)
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      target,
		ErrorUnused: true,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(raw); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
