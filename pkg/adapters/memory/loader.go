package memory

import (
	"context"
	"fmt"

	"github.com/aretw0/manipd/pkg/domain"
	"github.com/aretw0/manipd/pkg/kinematics"
	"github.com/aretw0/manipd/pkg/ports"
)

// ModelBuilder builds a fresh fragment for a request. It is called on every
// load, so it must not return shared joints.
type ModelBuilder func(req ports.ModelRequest) (*kinematics.Fragment, error)

// EnvironmentBuilder builds a fresh standalone device.
type EnvironmentBuilder func() (*kinematics.Device, error)

// Loader implements ports.ModelLoader using in-memory builders keyed by
// "package/model". It is meant for tests and embedding; loads are expected
// to be serialized by the caller.
type Loader struct {
	models       map[string]ModelBuilder
	environments map[string]EnvironmentBuilder
}

var _ ports.ModelLoader = (*Loader)(nil)

// NewLoader creates an empty Loader.
func NewLoader() *Loader {
	return &Loader{
		models:       make(map[string]ModelBuilder),
		environments: make(map[string]EnvironmentBuilder),
	}
}

// AddModel registers a model builder.
func (l *Loader) AddModel(pkg, model string, b ModelBuilder) *Loader {
	l.models[pkg+"/"+model] = b
	return l
}

// AddEnvironment registers an environment builder.
func (l *Loader) AddEnvironment(pkg, model string, b EnvironmentBuilder) *Loader {
	l.environments[pkg+"/"+model] = b
	return l
}

// LoadModel looks up the builder for req.Package/req.Model.
func (l *Loader) LoadModel(ctx context.Context, kind kinematics.ModelKind, req ports.ModelRequest) (*kinematics.Fragment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b, ok := l.models[req.Package+"/"+req.Model]
	if !ok {
		return nil, domain.Errorf(domain.ErrNotFound, "model %s/%s", req.Package, req.Model)
	}
	f, err := b(req)
	if err != nil {
		return nil, fmt.Errorf("build %s/%s: %w", req.Package, req.Model, err)
	}
	f.Kind = kind
	return f, nil
}

// LoadEnvironment looks up the builder for req.Package/req.Model.
func (l *Loader) LoadEnvironment(ctx context.Context, req ports.EnvironmentRequest) (*kinematics.Device, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b, ok := l.environments[req.Package+"/"+req.Model]
	if !ok {
		return nil, domain.Errorf(domain.ErrNotFound, "environment %s/%s", req.Package, req.Model)
	}
	return b()
}
