// Package frontend describes the network front-ends of manipd and the
// registry of factories that builds them from configuration.
package frontend

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/aretw0/manipd/pkg/assembler"
	"github.com/aretw0/manipd/pkg/domain"
	"github.com/aretw0/manipd/pkg/metrics"
	"github.com/aretw0/manipd/pkg/problem"
	"github.com/aretw0/manipd/pkg/session"
	"github.com/mitchellh/mapstructure"
)

const (
	// Namespace is the first element of every service name.
	Namespace = "hpp"
	// Context is the second element of every service name.
	Context = "corbaserver"
)

// ServiceName is the namespace/context/service triple a front-end is
// published under.
type ServiceName struct {
	Namespace string `json:"namespace"`
	Context   string `json:"context"`
	Service   string `json:"service"`
}

// NewServiceName returns the triple for service in the default namespace and context.
func NewServiceName(service string) ServiceName {
	return ServiceName{Namespace: Namespace, Context: Context, Service: service}
}

func (n ServiceName) String() string {
	return n.Namespace + "/" + n.Context + "/" + n.Service
}

// Frontend is a listener serving remote calls.
type Frontend interface {
	// Name returns the published service name.
	Name() ServiceName
	// Listen binds the network resources. It does not block.
	Listen() error
	// Addr returns the bound address, empty before Listen.
	Addr() string
	// Serve handles calls until Shutdown. It returns nil after a graceful stop.
	Serve() error
	// Shutdown stops serving, waiting for in-flight calls until ctx is done.
	Shutdown(ctx context.Context) error
}

// Sharing tells how an extension accesses the problem registry.
type Sharing int

const (
	// Shared extensions follow the selected problem of the registry.
	Shared Sharing = iota
	// Dedicated extensions are bound to one problem created for them under
	// a well-known key, which is not selected.
	Dedicated
)

func (s Sharing) String() string {
	if s == Dedicated {
		return "dedicated"
	}
	return "shared"
}

// Spec configures one extension front-end.
type Spec struct {
	Kind    string         `yaml:"kind" json:"kind"`
	Addr    string         `yaml:"addr" json:"addr"`
	Service string         `yaml:"service,omitempty" json:"service,omitempty"`
	Key     string         `yaml:"key,omitempty" json:"key,omitempty"`
	Options map[string]any `yaml:"options,omitempty" json:"options,omitempty"`
}

// Deps are the collaborators handed to a factory.
type Deps struct {
	Manager   *session.Manager
	Assembler *assembler.Assembler
	// Problem is set for dedicated extensions only.
	Problem *problem.Problem
	Metrics *metrics.Recorder
	Logger  *slog.Logger
	Version string
}

// Factory builds the front-end of one extension kind.
type Factory struct {
	Kind    string
	Sharing Sharing
	// DefaultKey is the problem key of a dedicated extension when the
	// spec does not name one.
	DefaultKey string
	New        func(name ServiceName, spec Spec, deps Deps) (Frontend, error)
}

// Registry holds factories by kind.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds f. Kinds are unique.
func (r *Registry) Register(f Factory) error {
	if f.Kind == "" || f.New == nil {
		return domain.Errorf(domain.ErrInvalidArgument, "factory needs a kind and a constructor")
	}
	if _, ok := r.factories[f.Kind]; ok {
		return domain.Errorf(domain.ErrDuplicateName, "front-end kind %q", f.Kind)
	}
	if f.Sharing == Dedicated && f.DefaultKey == "" {
		f.DefaultKey = f.Kind
	}
	r.factories[f.Kind] = f
	return nil
}

// Lookup returns the factory for kind.
func (r *Registry) Lookup(kind string) (Factory, error) {
	f, ok := r.factories[kind]
	if !ok {
		return Factory{}, domain.Errorf(domain.ErrNotFound, "front-end kind %q (known: %s)", kind, strings.Join(r.Kinds(), ", "))
	}
	return f, nil
}

// Kinds returns the registered kinds, sorted.
func (r *Registry) Kinds() []string {
	kinds := make([]string, 0, len(r.factories))
	for k := range r.factories {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// ServiceNameFor returns the name an extension is published under: the
// spec's service, or its kind.
func ServiceNameFor(spec Spec) ServiceName {
	if spec.Service != "" {
		return NewServiceName(spec.Service)
	}
	return NewServiceName(spec.Kind)
}

// DecodeOptions decodes free-form extension options into target. Unknown
// keys are rejected.
func DecodeOptions(options map[string]any, target any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		ErrorUnused:      true,
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(options); err != nil {
		return domain.Errorf(domain.ErrInvalidArgument, "options: %v", err)
	}
	return nil
}

// Build looks up the factory of spec and builds the front-end. For a
// dedicated extension, deps.Problem must already be set.
func (r *Registry) Build(spec Spec, deps Deps) (Frontend, error) {
	f, err := r.Lookup(spec.Kind)
	if err != nil {
		return nil, err
	}
	if f.Sharing == Dedicated && deps.Problem == nil {
		return nil, fmt.Errorf("front-end %q is dedicated but no problem was provided", spec.Kind)
	}
	return f.New(ServiceNameFor(spec), spec, deps)
}
