package server

import (
	httpAdapter "github.com/aretw0/manipd/pkg/adapters/http"
	mcpAdapter "github.com/aretw0/manipd/pkg/adapters/mcp"
	"github.com/aretw0/manipd/pkg/frontend"
	"github.com/aretw0/manipd/pkg/manipulation"
)

const (
	// KindMCP serves the manipulation tools to MCP clients over SSE.
	KindMCP = "mcp"
	// KindPinned serves the manipulation API bound to its own problem.
	KindPinned = "pinned"
)

type mcpOptions struct {
	BaseURL string `mapstructure:"base_url"`
}

type noOptions struct{}

// Builtins returns a registry holding the bundled extension kinds.
func Builtins() *frontend.Registry {
	reg := frontend.NewRegistry()
	for _, f := range []frontend.Factory{
		{Kind: KindMCP, Sharing: frontend.Shared, New: newMCP},
		{Kind: KindPinned, Sharing: frontend.Dedicated, DefaultKey: KindPinned, New: newPinned},
	} {
		if err := reg.Register(f); err != nil {
			panic(err)
		}
	}
	return reg
}

func newMCP(name frontend.ServiceName, spec frontend.Spec, deps frontend.Deps) (frontend.Frontend, error) {
	var opts mcpOptions
	if err := frontend.DecodeOptions(spec.Options, &opts); err != nil {
		return nil, err
	}
	svc := manipulation.NewService(deps.Manager, deps.Assembler,
		manipulation.WithName(name.Service),
		manipulation.WithMetrics(deps.Metrics),
		manipulation.WithLogger(deps.Logger),
	)
	srv := mcpAdapter.NewServer(svc, deps.Version, mcpAdapter.WithLogger(deps.Logger))
	return frontend.NewHTTP(name, spec.Addr, srv.SSEHandler(opts.BaseURL), deps.Logger), nil
}

func newPinned(name frontend.ServiceName, spec frontend.Spec, deps frontend.Deps) (frontend.Frontend, error) {
	if err := frontend.DecodeOptions(spec.Options, &noOptions{}); err != nil {
		return nil, err
	}
	svc := manipulation.NewService(deps.Manager, deps.Assembler,
		manipulation.WithName(name.Service),
		manipulation.WithProblem(deps.Problem),
		manipulation.WithMetrics(deps.Metrics),
		manipulation.WithLogger(deps.Logger),
	)
	handler := httpAdapter.NewManipulationHandler(svc,
		httpAdapter.WithVersion(deps.Version),
		httpAdapter.WithServiceName(name.String()),
		httpAdapter.WithLogger(deps.Logger),
	)
	return frontend.NewHTTP(name, spec.Addr, handler, deps.Logger), nil
}
