package grpc

import (
	"context"
	"time"

	"github.com/DRSN-tech/storefront/pkg/logger"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// CartServiceName - имя сервиса, под которым публикуется статус хранилища корзин.
const CartServiceName = "storefront.v1.Cart"

// HealthCheck проверяет хранилище корзин.
type HealthCheck func(ctx context.Context) error

// HealthWatcher периодически опрашивает check и выставляет статус в health-сервере.
type HealthWatcher struct {
	server   *health.Server
	check    HealthCheck
	interval time.Duration
	timeout  time.Duration
	logger   logger.Logger

	last healthpb.HealthCheckResponse_ServingStatus
}

func NewHealthWatcher(server *health.Server, check HealthCheck, interval time.Duration, logger logger.Logger) *HealthWatcher {
	const defaultInterval = 10 * time.Second

	if interval <= 0 {
		interval = defaultInterval
	}

	return &HealthWatcher{
		server:   server,
		check:    check,
		interval: interval,
		timeout:  interval / 2,
		logger:   logger,
		last:     healthpb.HealthCheckResponse_UNKNOWN,
	}
}

// Run опрашивает хранилище до отмены ctx. Первая проверка выполняется сразу.
func (w *HealthWatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		w.Probe(ctx)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Probe выполняет одну проверку и возвращает выставленный статус.
func (w *HealthWatcher) Probe(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	probeCtx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	err := w.check(probeCtx)
	status := servingStatus(err)

	if status != w.last {
		if err != nil {
			w.logger.Errorf(err, "cart storage health: %s", status)
		} else {
			w.logger.Infof("cart storage health: %s", status)
		}
		w.last = status
	}

	w.server.SetServingStatus("", status)
	w.server.SetServingStatus(CartServiceName, status)
	return status
}
