package grpc

import (
	"context"
	"fmt"
	"net"

	"github.com/DRSN-tech/storefront/internal/cfg"
	"github.com/DRSN-tech/storefront/pkg/logger"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

type GRPCServer struct {
	server *grpc.Server
	health *health.Server
	cfg    *cfg.GRPCConfig
	logger logger.Logger
}

// NewGRPCServer создаёт сервер со стандартным grpc.health.v1.
// До первой проверки хранилища статус NOT_SERVING.
func NewGRPCServer(cfg *cfg.GRPCConfig, logger logger.Logger) *GRPCServer {
	srv := grpc.NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)

	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	hs.SetServingStatus(CartServiceName, healthpb.HealthCheckResponse_NOT_SERVING)

	return &GRPCServer{
		server: srv,
		health: hs,
		cfg:    cfg,
		logger: logger,
	}
}

// Health возвращает health-сервер для HealthWatcher.
func (s *GRPCServer) Health() *health.Server {
	return s.health
}

func (s *GRPCServer) Start() error {
	addr := fmt.Sprintf(":%s", s.cfg.Port)
	lis, err := net.Listen(s.cfg.NetworkMode, addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	return s.Serve(lis)
}

func (s *GRPCServer) Serve(lis net.Listener) error {
	return s.server.Serve(lis)
}

func (s *GRPCServer) Stop(ctx context.Context) error {
	s.health.Shutdown()

	done := make(chan struct{})
	go func() {
		s.server.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Infof("gRPC server stopped gracefully")
		return nil
	case <-ctx.Done():
		s.server.Stop()
		s.logger.Warnf("gRPC server forced to stop after timeout")
		return ctx.Err()
	}
}
