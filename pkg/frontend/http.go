package frontend

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/aretw0/manipd/internal/logging"
)

// HTTPFrontend serves an http.Handler under a service name.
type HTTPFrontend struct {
	name   ServiceName
	addr   string
	server *http.Server
	logger *slog.Logger

	mu       sync.Mutex
	listener net.Listener
}

var _ Frontend = (*HTTPFrontend)(nil)

// NewHTTP creates an HTTP front-end listening on addr.
func NewHTTP(name ServiceName, addr string, handler http.Handler, logger *slog.Logger) *HTTPFrontend {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &HTTPFrontend{
		name: name,
		addr: addr,
		server: &http.Server{
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: logger.With("service", name.String()),
	}
}

// Name implements Frontend.
func (f *HTTPFrontend) Name() ServiceName { return f.name }

// Listen implements Frontend.
func (f *HTTPFrontend) Listen() error {
	ln, err := net.Listen("tcp", f.addr)
	if err != nil {
		return err
	}
	f.mu.Lock()
	f.listener = ln
	f.mu.Unlock()
	f.logger.Info("Listening", "addr", ln.Addr().String())
	return nil
}

// Addr implements Frontend.
func (f *HTTPFrontend) Addr() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listener == nil {
		return ""
	}
	return f.listener.Addr().String()
}

// Serve implements Frontend.
func (f *HTTPFrontend) Serve() error {
	f.mu.Lock()
	ln := f.listener
	f.mu.Unlock()
	if ln == nil {
		return errors.New("serve called before listen")
	}
	if err := f.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown implements Frontend.
func (f *HTTPFrontend) Shutdown(ctx context.Context) error {
	f.logger.Info("Shutting down")
	defer func() {
		// A listener never handed to Serve is not closed by the server.
		f.mu.Lock()
		if f.listener != nil {
			_ = f.listener.Close()
		}
		f.mu.Unlock()
	}()
	if err := f.server.Shutdown(ctx); err != nil {
		f.logger.Warn("Graceful shutdown did not complete", "err", err)
		return f.server.Close()
	}
	return nil
}
