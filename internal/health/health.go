// Package health serves the standard grpc.health.v1 service and keeps its
// status in line with the readiness of the API's dependencies.
package health

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the service name reported alongside the overall ("") status.
const ServiceName = "fieldops.JobLifecycle"

// Check probes one dependency.
type Check func(ctx context.Context) error

// Server wraps a gRPC server exposing the health service.
type Server struct {
	grpc   *grpc.Server
	health *health.Server
	checks map[string]Check
	logger logrus.FieldLogger

	mu     sync.RWMutex
	failed map[string]error
}

// NewServer creates a Server. Both services start as NOT_SERVING until the
// first round of checks has run.
func NewServer(checks map[string]Check, logger logrus.FieldLogger) *Server {
	s := &Server{
		grpc:   grpc.NewServer(),
		health: health.NewServer(),
		checks: checks,
		logger: logger,
		failed: map[string]error{},
	}
	healthpb.RegisterHealthServer(s.grpc, s.health)
	s.setStatus(healthpb.HealthCheckResponse_NOT_SERVING)
	return s
}

// Serve accepts connections on lis until Stop is called.
func (s *Server) Serve(lis net.Listener) error {
	s.logger.WithField("addr", lis.Addr().String()).Info("gRPC health server listening")
	if err := s.grpc.Serve(lis); err != nil && err != grpc.ErrServerStopped {
		return fmt.Errorf("grpc health server: %w", err)
	}
	return nil
}

// RunChecks runs every check once and updates the serving status.
func (s *Server) RunChecks(ctx context.Context) {
	failed := map[string]error{}
	for name, check := range s.checks {
		cctx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err := check(cctx)
		cancel()
		if err != nil {
			failed[name] = err
			s.logger.WithError(err).WithField("dependency", name).Warn("Dependency check failed")
		}
	}

	s.mu.Lock()
	s.failed = failed
	s.mu.Unlock()

	if len(failed) == 0 {
		s.setStatus(healthpb.HealthCheckResponse_SERVING)
		return
	}
	s.setStatus(healthpb.HealthCheckResponse_NOT_SERVING)
}

// Watch runs the checks every interval until ctx is done. A non-positive
// interval runs them once.
func (s *Server) Watch(ctx context.Context, interval time.Duration) {
	s.RunChecks(ctx)
	if interval <= 0 {
		s.logger.WithField("interval", interval).Warn("Health check interval is not positive, checks will not repeat")
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.RunChecks(ctx)
		}
	}
}

// Failures returns the dependencies that failed the last round of checks.
func (s *Server) Failures() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.failed))
	for name, err := range s.failed {
		out[name] = err.Error()
	}
	return out
}

// Stop marks the services NOT_SERVING and stops the gRPC server gracefully.
func (s *Server) Stop() {
	s.health.Shutdown()
	s.grpc.GracefulStop()
}

func (s *Server) setStatus(status healthpb.HealthCheckResponse_ServingStatus) {
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
}
