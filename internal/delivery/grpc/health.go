package grpc

import (
	"sync"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// UpstreamService is the health service name tracking the remote catalog.
const UpstreamService = "catalog.upstream"

// HealthReporter publishes upstream availability over grpc_health_v1. It is
// fed by the product cache after each completed fetch.
type HealthReporter struct {
	server *health.Server
	log    *logrus.Logger

	mu      sync.Mutex
	serving bool
}

func NewHealthReporter(logger *logrus.Logger) *HealthReporter {
	server := health.NewServer()
	server.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	server.SetServingStatus(UpstreamService, healthpb.HealthCheckResponse_SERVING)
	return &HealthReporter{
		server:  server,
		log:     logger,
		serving: true,
	}
}

func (h *HealthReporter) Register(s *grpc.Server) {
	healthpb.RegisterHealthServer(s, h.server)
}

func (h *HealthReporter) ObserveFetch(key string, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	serving := err == nil
	if serving == h.serving {
		return
	}
	h.serving = serving

	if serving {
		h.log.Infof("gRPC Health: Upstream recovered on %s", key)
		h.server.SetServingStatus(UpstreamService, healthpb.HealthCheckResponse_SERVING)
		return
	}
	h.log.Warnf("gRPC Health: Upstream marked NOT_SERVING after %s failed: %v", key, err)
	h.server.SetServingStatus(UpstreamService, healthpb.HealthCheckResponse_NOT_SERVING)
}

func (h *HealthReporter) Serving() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.serving
}

// Shutdown flips every service to NOT_SERVING ahead of a graceful stop.
func (h *HealthReporter) Shutdown() {
	h.server.Shutdown()
}
