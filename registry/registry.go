// Package registry provides etcd-backed discovery for provider runtimes.
//
// A provider runtime registers itself on startup, maintains presence via
// lease keepalives, and deregisters on graceful shutdown. Dispatchers query
// the registry to find live runtime instances for a provider or a model
// type, and can watch for membership changes. Lease TTLs remove entries for
// crashed runtimes automatically.
package registry

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/modelkit-ai/sdk/types"
)

// RuntimeInfo describes a registered provider runtime instance.
//
// Multiple instances of the same provider can run concurrently, each with a
// unique InstanceID.
type RuntimeInfo struct {
	// Provider is the provider identifier the runtime serves (e.g., "azure_openai")
	Provider string `json:"provider"`

	// Version is the semantic version of the runtime (e.g., "1.2.3")
	Version string `json:"version"`

	// InstanceID is a unique identifier for this specific instance (a UUID)
	InstanceID string `json:"instance_id"`

	// Endpoint is the network address where the runtime can be reached
	// Format: "host:port" for TCP (e.g., "localhost:50051")
	Endpoint string `json:"endpoint"`

	// ModelTypes lists the capabilities this runtime serves
	ModelTypes []types.ModelType `json:"model_types"`

	// Metadata carries runtime-specific attributes, such as the region a
	// deployment lives in or the configurate methods it supports
	Metadata map[string]string `json:"metadata,omitempty"`

	// StartedAt is the timestamp when this instance started
	StartedAt time.Time `json:"started_at"`
}

// NewRuntimeInfo creates a RuntimeInfo with a fresh instance UUID and the
// current start time.
func NewRuntimeInfo(provider, version, endpoint string, modelTypes ...types.ModelType) RuntimeInfo {
	return RuntimeInfo{
		Provider:   provider,
		Version:    version,
		InstanceID: uuid.NewString(),
		Endpoint:   endpoint,
		ModelTypes: modelTypes,
		StartedAt:  time.Now(),
	}
}

// Serves checks whether this runtime serves the given model type.
func (r RuntimeInfo) Serves(modelType types.ModelType) bool {
	for _, mt := range r.ModelTypes {
		if mt == modelType {
			return true
		}
	}
	return false
}

// Registry defines the runtime registration and discovery interface.
//
// Implementations must be safe for concurrent use. Entries are tied to etcd
// leases with a TTL, so stale runtimes disappear without manual cleanup.
//
// Example usage:
//
//	reg, _ := registry.NewClient(cfg)
//	defer reg.Close()
//
//	info := registry.NewRuntimeInfo("azure_openai", "1.0.0", "localhost:50051",
//	    types.ModelTypeLLM, types.ModelTypeTextEmbedding)
//
//	reg.Register(ctx, info)
//	defer reg.Deregister(ctx, info)
type Registry interface {
	// Register adds this runtime instance to the registry.
	//
	// The runtime is discoverable immediately. The implementation creates an
	// etcd lease with the configured TTL and renews it in the background
	// (typically every TTL/3). Re-registering the same InstanceID updates
	// the existing entry.
	Register(ctx context.Context, info RuntimeInfo) error

	// Deregister removes this runtime instance from the registry.
	//
	// Called during graceful shutdown. Revokes the associated lease, which
	// deletes the entry. Deregistering an unknown instance is a no-op.
	Deregister(ctx context.Context, info RuntimeInfo) error

	// Discover finds all live instances serving the given provider.
	// The slice may be empty; instances come back in arbitrary order.
	Discover(ctx context.Context, provider string) ([]RuntimeInfo, error)

	// DiscoverAll finds all registered runtime instances across providers.
	DiscoverAll(ctx context.Context) ([]RuntimeInfo, error)

	// DiscoverByModelType finds all instances serving the given model type,
	// across providers.
	DiscoverByModelType(ctx context.Context, modelType types.ModelType) ([]RuntimeInfo, error)

	// Watch returns a channel emitting the current instance list for a
	// provider whenever membership changes: an instance registers,
	// deregisters, or its lease expires. The initial state is sent
	// immediately. The channel closes when the context is cancelled or the
	// registry is closed.
	Watch(ctx context.Context, provider string) (<-chan []RuntimeInfo, error)

	// Close releases resources and stops background goroutines. After
	// Close, all other methods return errors.
	Close() error
}

// Config holds registry connection configuration.
type Config struct {
	// Endpoints is the list of etcd endpoints
	// Format: ["host1:2379", "host2:2379"]
	Endpoints []string `json:"endpoints"`

	// Namespace is the etcd key prefix for all runtime entries.
	// Entries are stored under /{namespace}/runtimes/{provider}/{instance-id}
	// Default: "modelkit"
	Namespace string `json:"namespace"`

	// TTL is the lease time-to-live in seconds. Runtimes must renew their
	// lease within this interval or be removed.
	// Default: 30
	TTL int `json:"ttl"`

	// TLS holds TLS configuration for secure etcd communication.
	// If nil, TLS is disabled.
	TLS *TLSConfig `json:"tls"`
}

// TLSConfig holds TLS certificate configuration for secure registry
// communication. When enabled, etcd traffic uses mutual TLS.
type TLSConfig struct {
	// Enabled determines whether TLS is active.
	// If false, all other fields are ignored.
	Enabled bool `json:"enabled"`

	// CertFile is the path to the client certificate file (PEM format).
	CertFile string `json:"cert_file"`

	// KeyFile is the path to the client private key file (PEM format).
	KeyFile string `json:"key_file"`

	// CAFile is the path to the certificate authority file (PEM format),
	// used to verify the etcd server's certificate.
	CAFile string `json:"ca_file"`
}
