// Package server runs the HTTP listener with readiness tracking and graceful shutdown.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/samber/oops"
	"go.uber.org/atomic"
)

const (
	readHeaderTimeout      = 10 * time.Second
	idleTimeout            = 120 * time.Second
	defaultShutdownTimeout = 15 * time.Second
)

// Config controls listening and shutdown.
type Config struct {
	Addr            string
	ShutdownTimeout time.Duration
	// DrainDelay is how long requests are still served after readiness is withdrawn.
	DrainDelay time.Duration
}

type Server struct {
	cfg    Config
	ready  *atomic.Bool
	logger *slog.Logger
}

func New(cfg Config, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}
	return &Server{cfg: cfg, ready: atomic.NewBool(false), logger: logger}
}

// Ready reports whether the server is accepting traffic. It backs /readyz.
func (s *Server) Ready() bool {
	return s.ready.Load()
}

// Run listens on cfg.Addr and serves h until ctx is canceled.
func (s *Server) Run(ctx context.Context, h http.Handler) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return oops.Code("listen_failed").With("addr", s.cfg.Addr).Wrap(err)
	}
	return s.Serve(ctx, ln, h)
}

// Serve serves h on ln. When ctx is canceled readiness is withdrawn, the drain
// delay elapses and in-flight requests get ShutdownTimeout to finish.
func (s *Server) Serve(ctx context.Context, ln net.Listener, h http.Handler) error {
	srv := &http.Server{
		Handler:           h,
		ReadHeaderTimeout: readHeaderTimeout,
		IdleTimeout:       idleTimeout,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	s.ready.Store(true)
	s.logger.Info("server listening", "addr", ln.Addr().String())

	select {
	case err := <-errCh:
		s.ready.Store(false)
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return oops.Code("serve_failed").Wrap(err)
	case <-ctx.Done():
	}

	s.ready.Store(false)
	s.logger.Info("shutting down", "drain_delay", s.cfg.DrainDelay, "timeout", s.cfg.ShutdownTimeout)
	if s.cfg.DrainDelay > 0 {
		time.Sleep(s.cfg.DrainDelay)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		_ = srv.Close()
		return oops.Code("shutdown_failed").Wrap(err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return oops.Code("serve_failed").Wrap(err)
	}
	s.logger.Info("server stopped")
	return nil
}
