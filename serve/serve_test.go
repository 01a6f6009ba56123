package serve

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health/grpc_health_v1"

	"github.com/modelkit-ai/sdk/registry"
	"github.com/modelkit-ai/sdk/types"
)

// fakeRegistry records register/deregister calls for assertions.
type fakeRegistry struct {
	mu           sync.Mutex
	registered   []registry.RuntimeInfo
	deregistered []registry.RuntimeInfo
	failRegister bool
}

func (f *fakeRegistry) Register(ctx context.Context, info registry.RuntimeInfo) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failRegister {
		return fmt.Errorf("registry unavailable")
	}
	f.registered = append(f.registered, info)
	return nil
}

func (f *fakeRegistry) Deregister(ctx context.Context, info registry.RuntimeInfo) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deregistered = append(f.deregistered, info)
	return nil
}

func (f *fakeRegistry) Discover(ctx context.Context, provider string) ([]registry.RuntimeInfo, error) {
	return nil, nil
}

func (f *fakeRegistry) DiscoverAll(ctx context.Context) ([]registry.RuntimeInfo, error) {
	return nil, nil
}

func (f *fakeRegistry) DiscoverByModelType(ctx context.Context, mt types.ModelType) ([]registry.RuntimeInfo, error) {
	return nil, nil
}

func (f *fakeRegistry) Watch(ctx context.Context, provider string) (<-chan []registry.RuntimeInfo, error) {
	return nil, nil
}

func (f *fakeRegistry) Close() error { return nil }

func testConfig() *Config {
	return &Config{
		Port:            0,
		GracefulTimeout: 5 * time.Second,
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// dialHealth connects to the server and returns a health client.
func dialHealth(t *testing.T, port int) grpc_health_v1.HealthClient {
	t.Helper()

	conn, err := grpc.NewClient(fmt.Sprintf("localhost:%d", port),
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("failed to dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	return grpc_health_v1.NewHealthClient(conn)
}

func TestServeHealthService(t *testing.T) {
	srv, err := NewServer(testConfig(), WithLogger(discardLogger()))
	if err != nil {
		t.Fatalf("NewServer() error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.Serve(ctx) }()

	client := dialHealth(t, srv.Port())

	checkCtx, checkCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer checkCancel()

	resp, err := client.Check(checkCtx, &grpc_health_v1.HealthCheckRequest{})
	if err != nil {
		t.Fatalf("health check error: %v", err)
	}
	if resp.Status != grpc_health_v1.HealthCheckResponse_SERVING {
		t.Errorf("status = %v, want SERVING", resp.Status)
	}

	cancel()
	if err := <-serveErr; err != context.Canceled {
		t.Errorf("Serve() returned %v, want context.Canceled", err)
	}
}

func TestSetHealth(t *testing.T) {
	srv, err := NewServer(testConfig(), WithLogger(discardLogger()))
	if err != nil {
		t.Fatalf("NewServer() error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go srv.Serve(ctx)

	client := dialHealth(t, srv.Port())
	checkCtx, checkCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer checkCancel()

	tests := []struct {
		name   string
		status types.HealthStatus
		want   grpc_health_v1.HealthCheckResponse_ServingStatus
	}{
		{
			name:   "healthy serves",
			status: types.NewHealthyStatus("ok"),
			want:   grpc_health_v1.HealthCheckResponse_SERVING,
		},
		{
			name:   "degraded still serves",
			status: types.NewDegradedStatus("mock mode", nil),
			want:   grpc_health_v1.HealthCheckResponse_SERVING,
		},
		{
			name:   "unhealthy stops serving",
			status: types.NewUnhealthyStatus("endpoint down", nil),
			want:   grpc_health_v1.HealthCheckResponse_NOT_SERVING,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv.SetHealth(tt.status)

			resp, err := client.Check(checkCtx, &grpc_health_v1.HealthCheckRequest{})
			if err != nil {
				t.Fatalf("health check error: %v", err)
			}
			if resp.Status != tt.want {
				t.Errorf("status = %v, want %v", resp.Status, tt.want)
			}
		})
	}
}

func TestServeRegistersRuntime(t *testing.T) {
	reg := &fakeRegistry{}
	info := registry.NewRuntimeInfo("azure_openai", "1.0.0", "",
		types.ModelTypeTextEmbedding)

	srv, err := NewServer(testConfig(),
		WithLogger(discardLogger()),
		WithRegistry(reg, info))
	if err != nil {
		t.Fatalf("NewServer() error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.Serve(ctx) }()

	// Wait for registration
	deadline := time.After(5 * time.Second)
	for {
		reg.mu.Lock()
		n := len(reg.registered)
		reg.mu.Unlock()
		if n > 0 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("runtime never registered")
		case <-time.After(10 * time.Millisecond):
		}
	}

	reg.mu.Lock()
	got := reg.registered[0]
	reg.mu.Unlock()

	if got.Provider != "azure_openai" {
		t.Errorf("registered provider = %q", got.Provider)
	}
	if got.Endpoint == "" {
		t.Error("endpoint was not filled in from the listener")
	}

	cancel()
	<-serveErr

	reg.mu.Lock()
	defer reg.mu.Unlock()
	if len(reg.deregistered) != 1 {
		t.Errorf("deregistered %d times, want 1", len(reg.deregistered))
	}
}

func TestServeRegistryFailure(t *testing.T) {
	reg := &fakeRegistry{failRegister: true}
	info := registry.NewRuntimeInfo("azure_openai", "1.0.0", "", types.ModelTypeLLM)

	srv, err := NewServer(testConfig(),
		WithLogger(discardLogger()),
		WithRegistry(reg, info))
	if err != nil {
		t.Fatalf("NewServer() error: %v", err)
	}

	if err := srv.Serve(context.Background()); err == nil {
		t.Error("Serve() should fail when registration fails")
	}
	srv.Stop()
}

func TestPortAssignment(t *testing.T) {
	srv, err := NewServer(testConfig(), WithLogger(discardLogger()))
	if err != nil {
		t.Fatalf("NewServer() error: %v", err)
	}
	defer srv.Stop()

	if srv.Port() == 0 {
		t.Error("Port() = 0, want assigned port")
	}
}

func TestNewServerPortInUse(t *testing.T) {
	first, err := NewServer(testConfig(), WithLogger(discardLogger()))
	if err != nil {
		t.Fatalf("NewServer() error: %v", err)
	}
	defer first.Stop()

	cfg := testConfig()
	cfg.Port = first.Port()

	if _, err := NewServer(cfg, WithLogger(discardLogger())); err == nil {
		t.Error("NewServer() should fail when the port is taken")
	}
}
