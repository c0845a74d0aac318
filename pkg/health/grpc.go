package health

import (
	"context"
	"time"

	"communities/messages/pkg/logger"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
)

// GRPCServer answers grpc.health.v1 checks by probing the store on each call
type GRPCServer struct {
	healthpb.UnimplementedHealthServer

	service string
	prober  Prober
	timeout time.Duration
	log     *logger.Logger
}

// NewGRPCServer creates a health server for the named service.
// Checks for "" or the service name are answered, anything else is NotFound.
func NewGRPCServer(service string, prober Prober, timeout time.Duration, log *logger.Logger) *GRPCServer {
	return &GRPCServer{
		service: service,
		prober:  prober,
		timeout: timeout,
		log:     log,
	}
}

// Register adds the health service to a gRPC server
func (s *GRPCServer) Register(server *grpc.Server) {
	healthpb.RegisterHealthServer(server, s)
}

// Check implements grpc_health_v1.HealthServer
func (s *GRPCServer) Check(ctx context.Context, req *healthpb.HealthCheckRequest) (*healthpb.HealthCheckResponse, error) {
	if name := req.GetService(); name != "" && name != s.service {
		return nil, status.Errorf(codes.NotFound, "unknown service %q", name)
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	if err := s.prober.CheckHealth(ctx); err != nil {
		s.log.Warn("gRPC health check failed", "error", err.Error())
		return &healthpb.HealthCheckResponse{Status: healthpb.HealthCheckResponse_NOT_SERVING}, nil
	}
	return &healthpb.HealthCheckResponse{Status: healthpb.HealthCheckResponse_SERVING}, nil
}
