package utilities

import (
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
)

// HealthCheckMethod is the full method name of the health probe. Auth
// interceptors should exempt it.
const HealthCheckMethod = "/grpc.health.v1.Health/Check"

// RegisterHealthServer registers the gRPC health check service and marks the
// server and every named service as serving. Callers use the returned server
// to report NOT_SERVING while shutting down.
func RegisterHealthServer(grpcServer *grpc.Server, services ...string) *health.Server {
	healthServer := health.NewServer()
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	for _, service := range services {
		healthServer.SetServingStatus(service, grpc_health_v1.HealthCheckResponse_SERVING)
	}
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)

	return healthServer
}
