package grpc

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/DRSN-tech/storefront/internal/cfg"
	"github.com/DRSN-tech/storefront/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/test/bufconn"
)

func startServer(t *testing.T) (*GRPCServer, healthpb.HealthClient) {
	t.Helper()

	srv := NewGRPCServer(&cfg.GRPCConfig{NetworkMode: "tcp"}, logger.Discard())
	lis := bufconn.Listen(1 << 20)
	go func() { _ = srv.Serve(lis) }()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		conn.Close()
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Stop(ctx)
	})

	return srv, healthpb.NewHealthClient(conn)
}

func checkStatus(t *testing.T, client healthpb.HealthClient, service string) healthpb.HealthCheckResponse_ServingStatus {
	t.Helper()
	resp, err := client.Check(context.Background(), &healthpb.HealthCheckRequest{Service: service})
	require.NoError(t, err)
	return resp.GetStatus()
}

func TestHealthStartsNotServing(t *testing.T) {
	_, client := startServer(t)

	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, checkStatus(t, client, ""))
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, checkStatus(t, client, CartServiceName))
}

func TestHealthFollowsStorage(t *testing.T) {
	srv, client := startServer(t)

	var storageErr error
	w := NewHealthWatcher(srv.Health(), func(context.Context) error { return storageErr }, time.Second, logger.Discard())

	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, w.Probe(context.Background()))
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, checkStatus(t, client, CartServiceName))

	storageErr = errors.New("redis: connection refused")
	w.Probe(context.Background())
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, checkStatus(t, client, ""))
}

func TestHealthWatcherRunStopsOnCancel(t *testing.T) {
	srv, client := startServer(t)
	w := NewHealthWatcher(srv.Health(), func(context.Context) error { return nil }, 5*time.Millisecond, logger.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		resp, err := client.Check(context.Background(), &healthpb.HealthCheckRequest{Service: CartServiceName})
		return err == nil && resp.GetStatus() == healthpb.HealthCheckResponse_SERVING
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("watcher did not stop")
	}
}
