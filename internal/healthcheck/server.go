// Package healthcheck exposes backend reachability over the standard gRPC
// health protocol and provides a client to query it.
package healthcheck

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ServiceName is the service reported alongside the overall ("") status.
const ServiceName = "framegrab.Jobs"

const pingTimeout = 3 * time.Second

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server is a gRPC server carrying only health and reflection.
type Server struct {
	grpcServer *grpc.Server
	health     *health.Server
	backend    Pinger
	interval   time.Duration
	logger     *logrus.Logger
}

func NewServer(backend Pinger, interval time.Duration, logger *logrus.Logger) *Server {
	grpcServer := grpc.NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, hs)
	// Reflection for grpcurl
	reflection.Register(grpcServer)

	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &Server{
		grpcServer: grpcServer,
		health:     hs,
		backend:    backend,
		interval:   interval,
		logger:     logger,
	}
}

// Probe pings the backend once and publishes the result.
func (s *Server) Probe(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	status := healthpb.HealthCheckResponse_SERVING
	if err := s.backend.Ping(ctx); err != nil {
		s.logger.WithField("error", err.Error()).Warn("Backend ping failed")
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
	return status
}

// Serve checks the backend periodically and serves gRPC on lis until ctx
// is cancelled.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	s.Probe(ctx)

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.grpcServer.Serve(lis)
	}()
	s.logger.WithField("addr", lis.Addr().String()).Info("gRPC health serving")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.health.Shutdown()
			s.grpcServer.GracefulStop()
			if err := <-errCh; err != nil && !errors.Is(err, grpc.ErrServerStopped) {
				return err
			}
			return nil
		case err := <-errCh:
			return err
		case <-ticker.C:
			s.Probe(ctx)
		}
	}
}
