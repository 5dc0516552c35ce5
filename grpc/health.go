package grpc

import (
	"context"
	"net"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Service is the name reported by the health service besides ""
const Service = "forum"

// Pinger is anything able to tell whether it still answers,
// the graph database in production
type Pinger interface {
	Ping(ctx context.Context) error
}

// Health serves grpc.health.v1 and reflects the state of the store
type Health struct {
	Server *grpc.Server

	status *health.Server
	store  Pinger
	logger *zap.Logger
}

// NewHealth registers the health service on a new gRPC server
func NewHealth(store Pinger, logger *zap.Logger) *Health {
	h := &Health{
		Server: grpc.NewServer(),
		status: health.NewServer(),
		store:  store,
		logger: logger,
	}
	healthpb.RegisterHealthServer(h.Server, h.status)

	return h
}

// Check pings the store once and updates the served status
func (h *Health) Check(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	// If no response in 3 seconds, the store is considered down
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	status := healthpb.HealthCheckResponse_SERVING
	if err := h.store.Ping(ctx); err != nil {
		h.logger.Warn("store did not answer", zap.Error(err))
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}

	h.status.SetServingStatus("", status)
	h.status.SetServingStatus(Service, status)

	return status
}

// Watch runs Check every interval until ctx is done
func (h *Health) Watch(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	h.Check(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.Check(ctx)
		}
	}
}

// Serve blocks serving gRPC on lis
func (h *Health) Serve(lis net.Listener) error {
	return h.Server.Serve(lis)
}

// Stop marks every service as not serving and stops the server
func (h *Health) Stop() {
	h.status.Shutdown()
	h.Server.GracefulStop()
}
