package grpc

import (
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func servingStatus(err error) healthpb.HealthCheckResponse_ServingStatus {
	if err != nil {
		return healthpb.HealthCheckResponse_NOT_SERVING
	}
	return healthpb.HealthCheckResponse_SERVING
}
