package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/modelkit-ai/sdk/types"
)

// EndpointsEnvVar names the environment variable NewClientFromEnv reads for
// a comma-separated etcd endpoint list.
const EndpointsEnvVar = "MODELKIT_REGISTRY_ENDPOINTS"

// Client implements Registry backed by an etcd cluster.
//
// It handles lease management automatically, renewing leases every TTL/3 to
// maintain runtime presence. All methods are safe for concurrent use.
//
// Example usage:
//
//	cfg := registry.Config{
//	    Endpoints: []string{"localhost:2379"},
//	    Namespace: "modelkit",
//	    TTL:       30,
//	}
//	client, err := registry.NewClient(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
type Client struct {
	client    *clientv3.Client
	namespace string
	ttl       int

	// Lease tracking for keepalive
	mu         sync.RWMutex
	leases     map[string]clientv3.LeaseID // instance ID -> lease ID
	cancelFns  map[string]context.CancelFunc
	wg         sync.WaitGroup
	closed     bool
	closedChan chan struct{}
}

// NewClient creates a registry client from the provided configuration.
//
// This establishes a connection to the etcd cluster and verifies
// connectivity. The client must be closed with Close() to release resources
// and stop background keepalive goroutines.
func NewClient(cfg Config) (*Client, error) {
	if len(cfg.Endpoints) == 0 {
		return nil, fmt.Errorf("registry endpoints cannot be empty")
	}

	namespace := cfg.Namespace
	if namespace == "" {
		namespace = "modelkit"
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 30
	}

	clientCfg := clientv3.Config{
		Endpoints:   cfg.Endpoints,
		DialTimeout: 5 * time.Second,
	}

	if cfg.TLS != nil && cfg.TLS.Enabled {
		tlsConfig, err := clientTLSConfig(cfg.TLS)
		if err != nil {
			return nil, fmt.Errorf("failed to configure TLS: %w", err)
		}
		clientCfg.TLS = tlsConfig
	}

	cli, err := clientv3.New(clientCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create etcd client: %w", err)
	}

	// Verify connectivity with a quick probe
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	_, err = cli.Get(ctx, "health-check")
	if err != nil && err != context.DeadlineExceeded {
		cli.Close()
		return nil, fmt.Errorf("etcd health check failed: %w", err)
	}

	return &Client{
		client:     cli,
		namespace:  namespace,
		ttl:        ttl,
		leases:     make(map[string]clientv3.LeaseID),
		cancelFns:  make(map[string]context.CancelFunc),
		closedChan: make(chan struct{}),
	}, nil
}

// NewClientFromEnv creates a registry client using the
// MODELKIT_REGISTRY_ENDPOINTS environment variable:
//
//	MODELKIT_REGISTRY_ENDPOINTS=localhost:2379,localhost:2380
//
// If the variable is not set, this returns (nil, nil) so runtimes work
// without registry integration. They function but are not discoverable.
func NewClientFromEnv() (*Client, error) {
	endpoints := os.Getenv(EndpointsEnvVar)
	if endpoints == "" {
		// Not an error, the runtime just won't be registered
		return nil, nil
	}

	endpointList := strings.Split(endpoints, ",")
	for i, ep := range endpointList {
		endpointList[i] = strings.TrimSpace(ep)
	}

	return NewClient(Config{
		Endpoints: endpointList,
		Namespace: "modelkit",
		TTL:       30,
	})
}

// Register adds this runtime instance to the registry.
//
// The runtime is discoverable immediately and remains registered as long as
// the lease is kept alive. A background goroutine renews the lease every
// TTL/3 seconds. Re-registering the same InstanceID updates the existing
// entry and restarts the keepalive goroutine.
func (c *Client) Register(ctx context.Context, info RuntimeInfo) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return fmt.Errorf("registry client is closed")
	}

	// Cancel existing keepalive if re-registering
	if cancelFn, exists := c.cancelFns[info.InstanceID]; exists {
		cancelFn()
		delete(c.cancelFns, info.InstanceID)
	}

	leaseResp, err := c.client.Grant(ctx, int64(c.ttl))
	if err != nil {
		return fmt.Errorf("failed to create lease: %w", err)
	}

	data, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("failed to marshal runtime info: %w", err)
	}

	key := c.buildKey(info.Provider, info.InstanceID)

	_, err = c.client.Put(ctx, key, string(data), clientv3.WithLease(leaseResp.ID))
	if err != nil {
		return fmt.Errorf("failed to register runtime: %w", err)
	}

	c.leases[info.InstanceID] = leaseResp.ID

	keepaliveCtx, cancel := context.WithCancel(context.Background())
	c.cancelFns[info.InstanceID] = cancel

	c.wg.Add(1)
	go c.keepalive(keepaliveCtx, leaseResp.ID, info.InstanceID)

	return nil
}

// Deregister removes this runtime instance from the registry.
//
// Revokes the etcd lease, which immediately deletes the entry, and stops
// the keepalive goroutine. Deregistering an unknown instance is a no-op.
func (c *Client) Deregister(ctx context.Context, info RuntimeInfo) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return fmt.Errorf("registry client is closed")
	}

	if cancelFn, exists := c.cancelFns[info.InstanceID]; exists {
		cancelFn()
		delete(c.cancelFns, info.InstanceID)
	}

	leaseID, exists := c.leases[info.InstanceID]
	if !exists {
		return nil
	}

	_, err := c.client.Revoke(ctx, leaseID)
	if err != nil {
		return fmt.Errorf("failed to revoke lease: %w", err)
	}

	delete(c.leases, info.InstanceID)

	return nil
}

// Discover finds all live instances serving the given provider.
func (c *Client) Discover(ctx context.Context, provider string) ([]RuntimeInfo, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return nil, fmt.Errorf("registry client is closed")
	}

	prefix := fmt.Sprintf("/%s/runtimes/%s/", c.namespace, provider)
	return c.query(ctx, prefix)
}

// DiscoverAll finds all registered runtime instances across providers.
func (c *Client) DiscoverAll(ctx context.Context) ([]RuntimeInfo, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return nil, fmt.Errorf("registry client is closed")
	}

	prefix := fmt.Sprintf("/%s/runtimes/", c.namespace)
	return c.query(ctx, prefix)
}

// DiscoverByModelType finds all instances serving the given model type.
func (c *Client) DiscoverByModelType(ctx context.Context, modelType types.ModelType) ([]RuntimeInfo, error) {
	all, err := c.DiscoverAll(ctx)
	if err != nil {
		return nil, err
	}

	matched := make([]RuntimeInfo, 0, len(all))
	for _, info := range all {
		if info.Serves(modelType) {
			matched = append(matched, info)
		}
	}
	return matched, nil
}

// query fetches and decodes all runtime entries under prefix.
func (c *Client) query(ctx context.Context, prefix string) ([]RuntimeInfo, error) {
	resp, err := c.client.Get(ctx, prefix, clientv3.WithPrefix())
	if err != nil {
		return nil, fmt.Errorf("failed to discover runtimes: %w", err)
	}

	instances := make([]RuntimeInfo, 0, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		var info RuntimeInfo
		if err := json.Unmarshal(kv.Value, &info); err != nil {
			// Skip invalid entries
			continue
		}
		instances = append(instances, info)
	}

	return instances, nil
}

// Watch returns a channel that receives the provider's instance list
// whenever membership changes. The initial state is sent immediately.
//
// The channel is closed when the context is cancelled or Close() is called.
func (c *Client) Watch(ctx context.Context, provider string) (<-chan []RuntimeInfo, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return nil, fmt.Errorf("registry client is closed")
	}

	ch := make(chan []RuntimeInfo, 1)

	prefix := fmt.Sprintf("/%s/runtimes/%s/", c.namespace, provider)

	// Send initial state
	instances, err := c.query(ctx, prefix)
	if err != nil {
		return nil, err
	}
	ch <- instances

	watchChan := c.client.Watch(ctx, prefix, clientv3.WithPrefix())

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer close(ch)

		for {
			select {
			case <-ctx.Done():
				return
			case <-c.closedChan:
				return
			case watchResp, ok := <-watchChan:
				if !ok {
					return
				}
				if watchResp.Err() != nil {
					return
				}

				// Re-fetch the full state after any change
				instances, err := c.query(context.Background(), prefix)
				if err != nil {
					continue
				}

				select {
				case ch <- instances:
				case <-ctx.Done():
					return
				case <-c.closedChan:
					return
				}
			}
		}
	}()

	return ch, nil
}

// Close releases all resources and stops background goroutines.
//
// After Close() is called, all other methods return errors. Active watches
// terminate and their channels close.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true

	for _, cancel := range c.cancelFns {
		cancel()
	}
	c.cancelFns = make(map[string]context.CancelFunc)

	close(c.closedChan)
	c.mu.Unlock()

	c.wg.Wait()

	return c.client.Close()
}

// keepalive renews the lease every TTL/3 seconds to maintain presence.
//
// Runs in a background goroutine started by Register(). Stops when the
// context is cancelled, the client closes, or the lease becomes invalid.
func (c *Client) keepalive(ctx context.Context, leaseID clientv3.LeaseID, instanceID string) {
	defer c.wg.Done()

	interval := time.Duration(c.ttl) * time.Second / 3
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.closedChan:
			return
		case <-ticker.C:
			_, err := c.client.KeepAliveOnce(context.Background(), leaseID)
			if err != nil {
				// Lease is invalid, stop keepalive
				c.mu.Lock()
				delete(c.leases, instanceID)
				delete(c.cancelFns, instanceID)
				c.mu.Unlock()
				return
			}
		}
	}
}

// buildKey constructs the etcd key for a runtime instance.
//
// Format: /namespace/runtimes/provider/instance-id
func (c *Client) buildKey(provider, instanceID string) string {
	return fmt.Sprintf("/%s/runtimes/%s/%s", c.namespace, provider, instanceID)
}
