package health

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ServiceName is the health service key reported alongside the overall "" entry.
const ServiceName = "storefront"

// Server exposes the standard gRPC health protocol.
type Server struct {
	grpc   *grpc.Server
	health *health.Server
	logger *zerolog.Logger
}

// NewServer starts NOT_SERVING until SetServing(true) is called.
func NewServer(logger *zerolog.Logger) *Server {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	hs := health.NewServer()
	gs := grpc.NewServer()
	healthpb.RegisterHealthServer(gs, hs)
	reflection.Register(gs)

	s := &Server{grpc: gs, health: hs, logger: logger}
	s.SetServing(false)
	return s
}

// SetServing flips both the overall and the named service status.
func (s *Server) SetServing(serving bool) {
	st := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		st = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", st)
	s.health.SetServingStatus(ServiceName, st)
}

// Track polls ready every interval and mirrors it into the health status until ctx ends.
func (s *Server) Track(ctx context.Context, ready func() bool, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	s.SetServing(ready())

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.SetServing(ready())
		}
	}
}

// Serve listens on port and blocks until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, port int) error {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return fmt.Errorf("grpc health listen: %w", err)
	}
	return s.ServeListener(ctx, lis)
}

// ServeListener serves on lis and stops gracefully when ctx is cancelled.
func (s *Server) ServeListener(ctx context.Context, lis net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", lis.Addr().String()).Msg("gRPC health server listening")
		errCh <- s.grpc.Serve(lis)
	}()

	select {
	case <-ctx.Done():
		s.health.Shutdown()
		s.grpc.GracefulStop()
		s.logger.Info().Msg("gRPC health server stopped")
		return nil
	case err := <-errCh:
		return err
	}
}
