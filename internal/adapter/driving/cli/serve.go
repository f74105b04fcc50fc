package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	httphandler "github.com/ericfisherdev/keycausa/internal/adapter/driving/http"
	"github.com/ericfisherdev/keycausa/internal/application"
	"github.com/ericfisherdev/keycausa/internal/config"
	"github.com/ericfisherdev/keycausa/internal/vault"
)

// Server runs the HTTP API over a vault runtime. After a backup import it
// tears the runtime and listener down and brings both back up from the
// restored files.
type Server struct {
	cfg    *config.Config
	logger *slog.Logger

	// listen opens the listener for each serve cycle.
	listen func(network, addr string) (net.Listener, error)
	// onReady, if set, is called with the bound address once a cycle is serving.
	onReady func(addr net.Addr)
}

// NewServer creates a Server for cfg.
func NewServer(cfg *config.Config, logger *slog.Logger) *Server {
	return &Server{
		cfg:    cfg,
		logger: logger,
		listen: net.Listen,
	}
}

// Run serves until ctx is cancelled or a cycle fails.
func (s *Server) Run(ctx context.Context) error {
	for cycle := 1; ; cycle++ {
		restart, err := s.serveOnce(ctx)
		if err != nil {
			return err
		}
		if !restart {
			s.logger.Info("shutdown complete")
			return nil
		}
		s.logger.Info("restarting vault runtime", "cycle", cycle+1)
	}
}

// serveOnce opens a runtime, serves it, and reports whether a restart was
// requested.
func (s *Server) serveOnce(ctx context.Context) (restart bool, err error) {
	rt, err := vault.Open(ctx, s.cfg.Files(), s.logger)
	if err != nil {
		return false, err
	}
	defer func() {
		if closeErr := rt.Close(); closeErr != nil {
			s.logger.Error("error closing vault runtime", "error", closeErr)
		}
	}()

	restartCh := make(chan struct{}, 1)
	restarter := application.RestarterFunc(func(context.Context) error {
		select {
		case restartCh <- struct{}{}:
		default:
		}
		return nil
	})

	sessions := httphandler.NewSessions(s.cfg.SessionIdleTimeout)
	h := httphandler.NewHandler(rt.Vault, rt.Questions, rt.Backup(restarter), rt.Gate, sessions, s.logger)
	srv := &http.Server{
		Handler:           httphandler.NewServeMux(h, s.cfg.ListenAddr, s.logger),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	ln, err := s.listen("tcp", s.cfg.ListenAddr)
	if err != nil {
		return false, fmt.Errorf("listen on %s: %w", s.cfg.ListenAddr, err)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("http server starting", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		select {
		case <-gctx.Done():
			s.logger.Info("shutting down")
		case <-restartCh:
			restart = true
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http server shutdown: %w", err)
		}
		return nil
	})

	if s.onReady != nil {
		s.onReady(ln.Addr())
	}

	if err := g.Wait(); err != nil {
		return false, err
	}
	return restart && ctx.Err() == nil, nil
}

// serve is the RunE of the root and serve commands.
func (a *app) serve(ctx context.Context) error {
	a.logger.Info("keycausa starting", "data_dir", a.cfg.DataDir, "listen_addr", a.cfg.ListenAddr)
	return NewServer(a.cfg, a.logger).Run(ctx)
}
