// Package server is the composition root of manipd: it builds the shared
// problem registry, wraps it in one session manager and starts every
// front-end on top of it.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/manipd/internal/config"
	"github.com/aretw0/manipd/internal/logging"
	httpAdapter "github.com/aretw0/manipd/pkg/adapters/http"
	redisAdapter "github.com/aretw0/manipd/pkg/adapters/redis"
	"github.com/aretw0/manipd/pkg/adapters/yamlmodel"
	"github.com/aretw0/manipd/pkg/assembler"
	"github.com/aretw0/manipd/pkg/core"
	"github.com/aretw0/manipd/pkg/domain"
	"github.com/aretw0/manipd/pkg/frontend"
	"github.com/aretw0/manipd/pkg/manipulation"
	"github.com/aretw0/manipd/pkg/metrics"
	"github.com/aretw0/manipd/pkg/ports"
	"github.com/aretw0/manipd/pkg/problem"
	"github.com/aretw0/manipd/pkg/session"
	"golang.org/x/sync/errgroup"
)

// Server owns the front-ends of one process.
type Server struct {
	cfg        config.Config
	version    string
	logger     *slog.Logger
	loader     ports.ModelLoader
	locker     ports.DistributedLocker
	extensions *frontend.Registry

	metrics   *metrics.Recorder
	registry  *problem.Registry
	manager   *session.Manager
	assembler *assembler.Assembler

	core         frontend.Frontend
	manipulation frontend.Frontend
	extra        []frontend.Frontend
	bound        []frontend.Frontend
	closers      []func() error
}

// Option configures the Server.
type Option func(*Server)

// WithLogger configures a logger for the Server and everything it builds.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithVersion sets the version reported by the front-ends.
func WithVersion(v string) Option {
	return func(s *Server) {
		s.version = v
	}
}

// WithLoader replaces the YAML loader rooted at the configured model root.
func WithLoader(l ports.ModelLoader) Option {
	return func(s *Server) {
		s.loader = l
	}
}

// WithLocker replaces the Redis locker built from the configuration.
func WithLocker(l ports.DistributedLocker) Option {
	return func(s *Server) {
		s.locker = l
	}
}

// WithExtensions replaces the built-in extension factories.
func WithExtensions(reg *frontend.Registry) Option {
	return func(s *Server) {
		s.extensions = reg
	}
}

// New wires the registry, the session manager and the core and
// manipulation front-ends. Nothing is bound yet.
func New(cfg config.Config, opts ...Option) (*Server, error) {
	s := &Server{
		cfg:     cfg,
		version: "dev",
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.loader == nil {
		s.loader = yamlmodel.NewLoader(cfg.ModelRoot, yamlmodel.WithLogger(s.logger))
	}
	if s.extensions == nil {
		s.extensions = Builtins()
	}
	if s.locker == nil && cfg.Redis.Enabled() {
		client := redisAdapter.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		s.locker = redisAdapter.NewLocker(client, cfg.Redis.Prefix)
		s.closers = append(s.closers, client.Close)
		s.logger.Info("Distributed locking enabled", "redis", cfg.Redis.Addr)
	}

	s.registry = problem.NewRegistry()
	s.registry.Create(problem.DefaultKey)
	if err := s.registry.Select(problem.DefaultKey); err != nil {
		return nil, err
	}

	s.metrics = metrics.New()
	mgrOpts := []session.Option{
		session.WithLogger(s.logger),
		session.WithMetrics(s.metrics),
	}
	if s.locker != nil {
		mgrOpts = append(mgrOpts, session.WithLocker(s.locker), session.WithLockTTL(cfg.Redis.LockTTL))
	}
	s.manager = session.NewManager(s.registry, mgrOpts...)
	s.assembler = assembler.New(s.loader, assembler.WithLogger(s.logger))

	coreName := frontend.NewServiceName(core.ServiceName)
	coreSvc := core.NewService(s.manager, core.WithMetrics(s.metrics), core.WithLogger(s.logger))
	s.core = frontend.NewHTTP(coreName, cfg.CoreAddr, httpAdapter.NewCoreHandler(coreSvc,
		httpAdapter.WithVersion(s.version),
		httpAdapter.WithServiceName(coreName.String()),
		httpAdapter.WithLogger(s.logger),
		httpAdapter.WithMetricsHandler(s.metrics.Handler()),
		httpAdapter.WithEvents(s.manager),
	), s.logger)

	manipName := frontend.NewServiceName(manipulation.DefaultName)
	manipSvc := s.NewManipulation()
	s.manipulation = frontend.NewHTTP(manipName, cfg.ManipulationAddr, httpAdapter.NewManipulationHandler(manipSvc,
		httpAdapter.WithVersion(s.version),
		httpAdapter.WithServiceName(manipName.String()),
		httpAdapter.WithLogger(s.logger),
	), s.logger)

	return s, nil
}

// Start binds the core listener, builds the configured extensions and
// binds the manipulation and extension listeners, in that order. On
// failure, listeners already bound stay bound; call Shutdown to release
// them.
func (s *Server) Start(ctx context.Context) error {
	if err := s.listen(s.core); err != nil {
		return err
	}

	for _, spec := range s.cfg.Extensions {
		f, err := s.buildExtension(ctx, spec)
		if err != nil {
			return fmt.Errorf("extension %s: %w", spec.Kind, err)
		}
		s.extra = append(s.extra, f)
	}

	if err := s.listen(s.manipulation); err != nil {
		return err
	}
	for _, f := range s.extra {
		if err := s.listen(f); err != nil {
			return err
		}
	}
	return nil
}

func (s *Server) listen(f frontend.Frontend) error {
	if err := f.Listen(); err != nil {
		return fmt.Errorf("start %s: %w", f.Name(), err)
	}
	s.bound = append(s.bound, f)
	return nil
}

func (s *Server) buildExtension(ctx context.Context, spec frontend.Spec) (frontend.Frontend, error) {
	factory, err := s.extensions.Lookup(spec.Kind)
	if err != nil {
		return nil, err
	}
	deps := frontend.Deps{
		Manager:   s.manager,
		Assembler: s.assembler,
		Metrics:   s.metrics,
		Logger:    s.logger.With("extension", spec.Kind),
		Version:   s.version,
	}
	if factory.Sharing == frontend.Dedicated {
		key := spec.Key
		if key == "" {
			key = factory.DefaultKey
		}
		err := s.manager.Mutate(ctx, "create "+key, func(_ context.Context, r *problem.Registry) error {
			if r.Has(key) {
				return domain.Errorf(domain.ErrDuplicateName, "problem %q", key)
			}
			deps.Problem = r.Create(key)
			return nil
		})
		if err != nil {
			return nil, err
		}
		s.logger.Info("Created dedicated problem", "extension", spec.Kind, "key", key)
	}
	return s.extensions.Build(spec, deps)
}

// Serve blocks until ctx is canceled or a front-end fails, then shuts
// every bound front-end down within the configured timeout.
func (s *Server) Serve(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, f := range s.bound {
		g.Go(func() error {
			if err := f.Serve(); err != nil {
				return fmt.Errorf("serve %s: %w", f.Name(), err)
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		return s.Shutdown(shutdownCtx)
	})

	err := g.Wait()
	if err != nil {
		s.logger.Error("Server stopped", "err", err)
		return err
	}
	s.logger.Info("Server stopped gracefully")
	return nil
}

// Shutdown stops every bound front-end and releases owned clients.
func (s *Server) Shutdown(ctx context.Context) error {
	var errs []error
	for i := len(s.bound) - 1; i >= 0; i-- {
		if err := s.bound[i].Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown %s: %w", s.bound[i].Name(), err))
		}
	}
	s.bound = nil
	for _, c := range s.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}

// Frontends returns the front-ends in start order: core, manipulation,
// then extensions.
func (s *Server) Frontends() []frontend.Frontend {
	out := []frontend.Frontend{s.core, s.manipulation}
	return append(out, s.extra...)
}

// Manager returns the session manager shared by every front-end.
func (s *Server) Manager() *session.Manager { return s.manager }

// NewManipulation returns a manipulation service on the shared registry,
// for front-ends driven outside the serve loop such as MCP over stdio.
func (s *Server) NewManipulation(opts ...manipulation.Option) *manipulation.Service {
	base := []manipulation.Option{
		manipulation.WithMetrics(s.metrics),
		manipulation.WithLogger(s.logger),
	}
	return manipulation.NewService(s.manager, s.assembler, append(base, opts...)...)
}

// Run builds, starts and serves until ctx is canceled.
func Run(ctx context.Context, cfg config.Config, opts ...Option) error {
	s, err := New(cfg, opts...)
	if err != nil {
		return err
	}
	if err := s.Start(ctx); err != nil {
		return err
	}
	for _, f := range s.Frontends() {
		s.logger.Info("Serving", "service", f.Name().String(), "addr", f.Addr())
	}
	return s.Serve(ctx)
}
