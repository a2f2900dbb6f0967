package api

import (
	"context"
	"fmt"
	"net"
	"time"

	"yogastudio/internal/config"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ServiceName is the health service entry that follows database readiness.
const ServiceName = "yogastudio.api"

// GRPCServer exposes the standard health service for orchestrators.
type GRPCServer struct {
	cfg      *config.APIConfig
	db       Pinger
	server   *grpc.Server
	health   *health.Server
	listener net.Listener
	log      zerolog.Logger
}

func NewGRPCServer(cfg *config.APIConfig, db Pinger, logger *zerolog.Logger) (*GRPCServer, error) {
	addr := fmt.Sprintf(":%d", cfg.GRPC.Port)
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("grpc listen %s: %w", addr, err)
	}
	return newGRPCServer(cfg, db, lis, logger), nil
}

func newGRPCServer(cfg *config.APIConfig, db Pinger, lis net.Listener, logger *zerolog.Logger) *GRPCServer {
	unary := ChainUnaryInterceptors(
		RecoveryUnaryInterceptor(logger),
		LoggingUnaryInterceptor(logger),
	)
	grpcServer := grpc.NewServer(grpc.UnaryInterceptor(unary))

	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	healthpb.RegisterHealthServer(grpcServer, hs)

	if cfg.GRPC.Reflection {
		reflection.Register(grpcServer)
	}

	serverLogger := zerolog.Nop()
	if logger != nil {
		serverLogger = logger.With().Str("component", "grpc").Logger()
	}

	return &GRPCServer{
		cfg:      cfg,
		db:       db,
		server:   grpcServer,
		health:   hs,
		listener: lis,
		log:      serverLogger,
	}
}

func (s *GRPCServer) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// CheckReadiness pings the database and publishes the result on the health service.
func (s *GRPCServer) CheckReadiness(ctx context.Context) bool {
	status := healthpb.HealthCheckResponse_SERVING
	if s.db != nil {
		if err := s.db.PingContext(ctx); err != nil {
			s.log.Warn().Err(err).Msg("database ping failed")
			status = healthpb.HealthCheckResponse_NOT_SERVING
		}
	}
	s.health.SetServingStatus(ServiceName, status)
	return status == healthpb.HealthCheckResponse_SERVING
}

// WatchReadiness refreshes the health status until ctx is done.
func (s *GRPCServer) WatchReadiness(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	s.CheckReadiness(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.CheckReadiness(ctx)
		}
	}
}

func (s *GRPCServer) Serve() error {
	s.log.Info().Str("addr", s.Addr()).Msg("gRPC health server listening")
	return s.server.Serve(s.listener)
}

func (s *GRPCServer) Shutdown(ctx context.Context) {
	if s.server == nil {
		return
	}
	s.health.Shutdown()

	done := make(chan struct{})
	go func() {
		s.server.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		s.log.Warn().Msg("gRPC graceful shutdown timed out; forcing stop")
		s.server.Stop()
	}
}
