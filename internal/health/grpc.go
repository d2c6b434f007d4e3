package health

import (
	"fmt"
	"net"
	"time"

	"google.golang.org/grpc"
	grpchealth "google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"

	"github.com/wayfarerhq/datacore/internal/core/domain"
)

// GRPCServer serves the standard gRPC health protocol, mirroring the
// aggregate status on the empty service name and per-replica status
// on each replica id.
type GRPCServer struct {
	source   HealthSource
	server   *grpc.Server
	health   *grpchealth.Server
	port     int
	interval time.Duration
	stop     chan struct{}
	done     chan struct{}
}

// NewGRPCServer creates a gRPC health server refreshing its statuses
// at the given interval.
func NewGRPCServer(source HealthSource, port int, interval time.Duration) *GRPCServer {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	hs := grpchealth.NewServer()
	gs := grpc.NewServer()
	grpc_health_v1.RegisterHealthServer(gs, hs)

	return &GRPCServer{
		source:   source,
		server:   gs,
		health:   hs,
		port:     port,
		interval: interval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start listens and serves until Stop is called. The refresh loop is
// started first so Stop can always join it, even when listening fails.
func (s *GRPCServer) Start() error {
	go s.refreshLoop()

	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", s.port))
	if err != nil {
		return fmt.Errorf("failed to listen on grpc port: %w", err)
	}
	return s.server.Serve(lis)
}

// Stop halts the refresh loop and gracefully stops the server.
func (s *GRPCServer) Stop() {
	close(s.stop)
	<-s.done
	s.server.GracefulStop()
}

func (s *GRPCServer) refreshLoop() {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.refresh()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.refresh()
		}
	}
}

func (s *GRPCServer) refresh() {
	replicas := s.source.Health()

	aggregate := grpc_health_v1.HealthCheckResponse_SERVING
	if Aggregate(replicas) == StatusCritical {
		aggregate = grpc_health_v1.HealthCheckResponse_NOT_SERVING
	}
	s.health.SetServingStatus("", aggregate)

	for id, h := range replicas {
		status := grpc_health_v1.HealthCheckResponse_SERVING
		if h.Status != domain.StatusHealthy {
			status = grpc_health_v1.HealthCheckResponse_NOT_SERVING
		}
		s.health.SetServingStatus(id, status)
	}
}
