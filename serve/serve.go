// Package serve provides the gRPC serving harness for provider runtimes.
//
// A runtime process creates a Server, registers its provider services on the
// underlying gRPC server, and calls Serve. The harness handles the standard
// gRPC health service, graceful shutdown on SIGINT/SIGTERM, optional TLS,
// and registry registration so dispatchers can discover the instance.
//
// Example:
//
//	srv, err := serve.NewServer(serve.DefaultConfig(),
//	    serve.WithLogger(logger),
//	    serve.WithRegistry(reg, info),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := srv.Serve(ctx); err != nil {
//	    log.Fatal(err)
//	}
package serve

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"

	"github.com/modelkit-ai/sdk/registry"
	"github.com/modelkit-ai/sdk/types"
)

// Config holds serve configuration: network settings, graceful shutdown
// behavior, and optional TLS.
type Config struct {
	// Port is the TCP port on which the gRPC server listens.
	// Default: 50051. Use 0 to pick a free port.
	Port int

	// GracefulTimeout is the maximum duration to wait for active requests
	// to complete during graceful shutdown.
	// Default: 30 seconds
	GracefulTimeout time.Duration

	// TLSCertFile is the path to the TLS certificate file.
	// If empty, TLS is disabled.
	TLSCertFile string

	// TLSKeyFile is the path to the TLS private key file.
	// If empty, TLS is disabled.
	TLSKeyFile string
}

// DefaultConfig returns defaults suitable for local development.
func DefaultConfig() *Config {
	return &Config{
		Port:            50051,
		GracefulTimeout: 30 * time.Second,
	}
}

// Server wraps a gRPC server with lifecycle management for a provider
// runtime: health reporting, graceful shutdown, and registry presence.
type Server struct {
	grpcServer   *grpc.Server
	listener     net.Listener
	config       *Config
	healthServer *health.Server
	logger       *slog.Logger

	reg         registry.Registry
	runtimeInfo registry.RuntimeInfo
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// WithRegistry enables registry presence: the runtime registers info on
// Serve and deregisters on shutdown. The Endpoint field is filled in from
// the bound listener when empty.
func WithRegistry(reg registry.Registry, info registry.RuntimeInfo) Option {
	return func(s *Server) {
		s.reg = reg
		s.runtimeInfo = info
	}
}

// NewServer creates a gRPC server with the provided configuration and
// registers the standard health check service.
func NewServer(cfg *Config, opts ...Option) (*Server, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.Port))
	if err != nil {
		return nil, fmt.Errorf("failed to listen on port %d: %w", cfg.Port, err)
	}

	var grpcOpts []grpc.ServerOption

	if cfg.TLSCertFile != "" && cfg.TLSKeyFile != "" {
		creds, err := credentials.NewServerTLSFromFile(cfg.TLSCertFile, cfg.TLSKeyFile)
		if err != nil {
			listener.Close()
			return nil, fmt.Errorf("failed to load TLS credentials: %w", err)
		}
		grpcOpts = append(grpcOpts, grpc.Creds(creds))
	}

	grpcServer := grpc.NewServer(grpcOpts...)

	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)

	s := &Server{
		grpcServer:   grpcServer,
		listener:     listener,
		config:       cfg,
		healthServer: healthServer,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// GRPCServer returns the underlying gRPC server so callers can register
// their provider services before Serve.
func (s *Server) GRPCServer() *grpc.Server {
	return s.grpcServer
}

// SetHealth maps a runtime health status onto the gRPC health service.
// Healthy and degraded runtimes report SERVING (a degraded runtime still
// answers requests); unhealthy runtimes report NOT_SERVING.
func (s *Server) SetHealth(status types.HealthStatus) {
	serving := grpc_health_v1.HealthCheckResponse_SERVING
	if status.IsUnhealthy() {
		serving = grpc_health_v1.HealthCheckResponse_NOT_SERVING
	}
	s.healthServer.SetServingStatus("", serving)

	if !status.IsHealthy() {
		s.logger.Warn("runtime health changed",
			"status", status.Status,
			"message", status.Message)
	}
}

// Serve starts the gRPC server and blocks until shutdown.
//
// If a registry was configured, the runtime registers before accepting
// traffic and deregisters during shutdown. Shutdown triggers on SIGINT,
// SIGTERM, or context cancellation.
func (s *Server) Serve(ctx context.Context) error {
	if s.reg != nil {
		if s.runtimeInfo.Endpoint == "" {
			s.runtimeInfo.Endpoint = s.listener.Addr().String()
		}
		if err := s.reg.Register(ctx, s.runtimeInfo); err != nil {
			return fmt.Errorf("failed to register runtime: %w", err)
		}
		defer s.deregister()
	}

	errCh := make(chan error, 1)

	go func() {
		if err := s.grpcServer.Serve(s.listener); err != nil {
			errCh <- fmt.Errorf("gRPC server error: %w", err)
		}
	}()

	s.logger.Info("runtime serving",
		"addr", s.listener.Addr().String(),
		"provider", s.runtimeInfo.Provider)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case <-ctx.Done():
		s.GracefulStop()
		return ctx.Err()
	case sig := <-sigCh:
		s.logger.Info("received signal, shutting down gracefully", "signal", sig.String())
		s.GracefulStop()
		return nil
	case err := <-errCh:
		return err
	}
}

// deregister removes the runtime from the registry with a short deadline so
// shutdown cannot hang on an unreachable registry.
func (s *Server) deregister() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.reg.Deregister(ctx, s.runtimeInfo); err != nil {
		s.logger.Warn("failed to deregister runtime", "error", err)
	}
}

// Stop immediately stops the gRPC server, terminating active RPCs.
// Use only when graceful shutdown is not required.
func (s *Server) Stop() {
	s.grpcServer.Stop()
}

// GracefulStop stops accepting new connections and waits for active RPCs to
// complete within the configured timeout, then forces a stop.
func (s *Server) GracefulStop() {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.GracefulTimeout)
	defer cancel()

	done := make(chan struct{})

	go func() {
		s.grpcServer.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("server stopped gracefully")
	case <-ctx.Done():
		s.logger.Warn("graceful shutdown timeout, forcing stop")
		s.grpcServer.Stop()
	}
}

// Port returns the port the server is listening on.
// Useful when using port 0 to get an available port.
func (s *Server) Port() int {
	if s.listener != nil {
		if addr, ok := s.listener.Addr().(*net.TCPAddr); ok {
			return addr.Port
		}
	}
	return s.config.Port
}
