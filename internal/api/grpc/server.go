// Package grpc serves the gRPC health and reflection endpoints used by
// load balancers and grpcurl. The portal API itself is HTTP.
package grpc

import (
	"context"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"service-portal-backend/internal/api/grpc/interceptor"
	"service-portal-backend/internal/logger"
	"service-portal-backend/internal/security"
)

// ServiceName is the health service name reported alongside the overall
// ("") status.
const ServiceName = "portal.ledger"

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Server struct {
	srv    *grpc.Server
	health *health.Server
}

func NewServer(tm security.TokenManager) *Server {
	auth := interceptor.NewAuthInterceptor(tm)
	srv := grpc.NewServer(
		grpc.UnaryInterceptor(auth.Unary()),
		grpc.StreamInterceptor(auth.Stream()),
	)

	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)

	// Register reflection service for grpcurl
	reflection.Register(srv)

	s := &Server{srv: srv, health: hs}
	s.SetServing(true)
	return s
}

// SetServing flips both the overall and the named service status.
func (s *Server) SetServing(ok bool) {
	st := healthpb.HealthCheckResponse_NOT_SERVING
	if ok {
		st = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", st)
	s.health.SetServingStatus(ServiceName, st)
}

// WatchHealth pings p every interval until ctx is done and mirrors the
// result into the health service.
func (s *Server) WatchHealth(ctx context.Context, p Pinger, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	serving := true
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, interval)
			err := p.Ping(pingCtx)
			cancel()
			if ok := err == nil; ok != serving {
				serving = ok
				s.SetServing(ok)
				logger.Warn("Health status changed", "serving", ok, "error", err)
			}
		}
	}
}

func (s *Server) Serve(lis net.Listener) error {
	logger.Info("gRPC server listening", "address", lis.Addr().String())
	return s.srv.Serve(lis)
}

// GracefulStop marks the service as not serving and drains connections.
func (s *Server) GracefulStop() {
	s.health.Shutdown()
	s.srv.GracefulStop()
}
