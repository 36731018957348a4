package grpc

import (
	"context"
	"net"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

const ServiceName = "backtest"

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// GRPCServer serves the standard health protocol, reporting SERVING while
// every dependency answers its ping.
type GRPCServer struct {
	srv    *grpc.Server
	health *health.Server
	deps   map[string]Pinger
	logger *zap.SugaredLogger
}

func NewGRPCServer(logger *zap.SugaredLogger, deps map[string]Pinger) *GRPCServer {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	s := &GRPCServer{
		srv:    grpc.NewServer(),
		health: health.NewServer(),
		deps:   deps,
		logger: logger,
	}
	healthpb.RegisterHealthServer(s.srv, s.health)
	reflection.Register(s.srv)
	s.health.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	return s
}

// Check pings every dependency and publishes the result.
func (s *GRPCServer) Check(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	status := healthpb.HealthCheckResponse_SERVING
	for name, d := range s.deps {
		if err := d.Ping(ctx); err != nil {
			s.logger.Warnw("dependency unhealthy", "dependency", name, "error", err)
			status = healthpb.HealthCheckResponse_NOT_SERVING
		}
	}
	s.health.SetServingStatus(ServiceName, status)
	s.health.SetServingStatus("", status)
	return status
}

func (s *GRPCServer) Serve(lis net.Listener) error {
	s.logger.Infow("grpc server listening", "addr", lis.Addr().String())
	return s.srv.Serve(lis)
}

func (s *GRPCServer) Stop() {
	s.health.Shutdown()
	s.srv.GracefulStop()
}
