// Package server runs the HTTP listener with graceful shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
)

const readHeaderTimeout = 5 * time.Second

type Options struct {
	Addr    string
	Handler http.Handler
	// ShutdownTimeout bounds how long in-flight requests may drain.
	ShutdownTimeout time.Duration
	Logger          *slog.Logger
}

type Server struct {
	srv             *http.Server
	shutdownTimeout time.Duration
	logger          *slog.Logger
}

func New(opts Options) (*Server, error) {
	if opts.Handler == nil {
		return nil, errors.New("server needs a handler")
	}
	if opts.Addr == "" {
		return nil, errors.New("server needs an address")
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 10 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	srv := &http.Server{
		Addr:              opts.Addr,
		Handler:           opts.Handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}
	return &Server{srv: srv, shutdownTimeout: opts.ShutdownTimeout, logger: opts.Logger}, nil
}

// Run listens on the configured address until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is done, then shuts down.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	eg, ctx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.shutdownTimeout)
		defer cancel()

		s.logger.Info("shutting down http server")
		return s.srv.Shutdown(shutdownCtx)
	})

	eg.Go(func() error {
		s.logger.Info("listen and serve", slog.String("addr", ln.Addr().String()))

		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})

	return eg.Wait()
}
