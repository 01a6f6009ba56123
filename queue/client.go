package queue

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/modelkit-ai/sdk/types"
)

// Client defines the interface for interacting with Redis-based
// invocation queues.
type Client interface {
	// Push adds a job to the end of a queue (LPUSH).
	Push(ctx context.Context, queue string, job *Job) error

	// Pop removes and returns a job from the front of a queue (BRPOP).
	// Blocks until a job is available or the context is cancelled.
	Pop(ctx context.Context, queue string) (*Job, error)

	// Publish sends a result to a pub/sub channel.
	Publish(ctx context.Context, channel string, result Result) error

	// Subscribe creates a subscription to a pub/sub channel.
	// Returns a channel that receives results until the subscription is closed.
	Subscribe(ctx context.Context, channel string) (<-chan Result, error)

	// RegisterRuntime writes runtime metadata to Redis and adds the
	// provider to the available set.
	RegisterRuntime(ctx context.Context, meta RuntimeMeta) error

	// ListRuntimes returns metadata for all registered provider runtimes.
	ListRuntimes(ctx context.Context) ([]RuntimeMeta, error)

	// Heartbeat refreshes the health key for a provider runtime with a 30s TTL.
	Heartbeat(ctx context.Context, provider string) error

	// GetWorkerCount returns the current worker count for a provider runtime.
	GetWorkerCount(ctx context.Context, provider string) (int, error)

	// IncrementWorkerCount increments the worker count for a provider runtime.
	IncrementWorkerCount(ctx context.Context, provider string) error

	// DecrementWorkerCount decrements the worker count for a provider runtime.
	DecrementWorkerCount(ctx context.Context, provider string) error

	// Close closes the Redis connection.
	Close() error
}

// RedisOptions configures the Redis connection.
type RedisOptions struct {
	// URL is the Redis connection string (e.g., "redis://localhost:6379")
	URL string

	// TLS configuration for secure connections
	TLS *tls.Config

	// ConnectTimeout is the maximum time to wait for connection establishment
	ConnectTimeout time.Duration

	// ReadTimeout is the maximum time to wait for read operations
	ReadTimeout time.Duration

	// WriteTimeout is the maximum time to wait for write operations
	WriteTimeout time.Duration
}

// RedisClient implements the Client interface using go-redis/v9.
type RedisClient struct {
	client *redis.Client
}

// NewRedisClient creates a new Redis queue client with the given options.
func NewRedisClient(opts RedisOptions) (*RedisClient, error) {
	if opts.URL == "" {
		opts.URL = "redis://localhost:6379"
	}

	if opts.ConnectTimeout == 0 {
		opts.ConnectTimeout = 5 * time.Second
	}

	if opts.ReadTimeout == 0 {
		opts.ReadTimeout = 30 * time.Second
	}

	if opts.WriteTimeout == 0 {
		opts.WriteTimeout = 5 * time.Second
	}

	redisOpts, err := redis.ParseURL(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	redisOpts.TLSConfig = opts.TLS
	redisOpts.DialTimeout = opts.ConnectTimeout
	redisOpts.ReadTimeout = opts.ReadTimeout
	redisOpts.WriteTimeout = opts.WriteTimeout

	client := redis.NewClient(redisOpts)

	ctx, cancel := context.WithTimeout(context.Background(), opts.ConnectTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisClient{client: client}, nil
}

// Push adds a job to the end of a queue.
func (c *RedisClient) Push(ctx context.Context, queue string, job *Job) error {
	if err := job.IsValid(); err != nil {
		return fmt.Errorf("invalid job: %w", err)
	}

	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	if err := c.client.LPush(ctx, queue, data).Err(); err != nil {
		return fmt.Errorf("failed to push to queue %s: %w", queue, err)
	}

	return nil
}

// Pop removes and returns a job from the front of a queue.
// Blocks until a job is available or the context is cancelled.
func (c *RedisClient) Pop(ctx context.Context, queue string) (*Job, error) {
	// BRPOP returns [queue_name, value] or redis.Nil on timeout
	result, err := c.client.BRPop(ctx, 0, queue).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to pop from queue %s: %w", queue, err)
	}

	if len(result) != 2 {
		return nil, fmt.Errorf("unexpected BRPOP result length: %d", len(result))
	}

	var job Job
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job: %w", err)
	}

	return &job, nil
}

// Publish sends a result to a pub/sub channel.
func (c *RedisClient) Publish(ctx context.Context, channel string, result Result) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	if err := c.client.Publish(ctx, channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish to channel %s: %w", channel, err)
	}

	return nil
}

// Subscribe creates a subscription to a pub/sub channel.
func (c *RedisClient) Subscribe(ctx context.Context, channel string) (<-chan Result, error) {
	pubsub := c.client.Subscribe(ctx, channel)

	// Wait for subscription confirmation
	if _, err := pubsub.Receive(ctx); err != nil {
		return nil, fmt.Errorf("failed to subscribe to channel %s: %w", channel, err)
	}

	resultChan := make(chan Result)

	go func() {
		defer close(resultChan)
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}

				var result Result
				if err := json.Unmarshal([]byte(msg.Payload), &result); err != nil {
					// Skip malformed messages, keep the subscription alive
					continue
				}

				select {
				case resultChan <- result:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return resultChan, nil
}

// RegisterRuntime writes runtime metadata to Redis and adds the provider
// to the available set.
func (c *RedisClient) RegisterRuntime(ctx context.Context, meta RuntimeMeta) error {
	if err := meta.IsValid(); err != nil {
		return fmt.Errorf("invalid runtime metadata: %w", err)
	}

	typesJSON, err := json.Marshal(meta.ModelTypes)
	if err != nil {
		return fmt.Errorf("failed to marshal model types: %w", err)
	}

	// HSET wants flat string pairs
	metaMap := map[string]string{
		"provider":     meta.Provider,
		"version":      meta.Version,
		"endpoint":     meta.Endpoint,
		"model_types":  string(typesJSON),
		"worker_count": strconv.Itoa(meta.WorkerCount),
	}

	metaKey := runtimeKey(meta.Provider, "meta")
	args := make([]interface{}, 0, len(metaMap)*2)
	for k, v := range metaMap {
		args = append(args, k, v)
	}
	if err := c.client.HSet(ctx, metaKey, args...).Err(); err != nil {
		return fmt.Errorf("failed to set runtime metadata: %w", err)
	}

	if err := c.client.SAdd(ctx, "runtimes:available", meta.Provider).Err(); err != nil {
		return fmt.Errorf("failed to add runtime to available set: %w", err)
	}

	return nil
}

// ListRuntimes returns metadata for all registered provider runtimes.
func (c *RedisClient) ListRuntimes(ctx context.Context) ([]RuntimeMeta, error) {
	providers, err := c.client.SMembers(ctx, "runtimes:available").Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get available runtimes: %w", err)
	}

	runtimes := make([]RuntimeMeta, 0, len(providers))

	for _, provider := range providers {
		metaMap, err := c.client.HGetAll(ctx, runtimeKey(provider, "meta")).Result()
		if err != nil || len(metaMap) == 0 {
			// Skip runtimes with missing metadata
			continue
		}

		meta := RuntimeMeta{
			Provider: metaMap["provider"],
			Version:  metaMap["version"],
			Endpoint: metaMap["endpoint"],
		}

		if typesStr, ok := metaMap["model_types"]; ok {
			var modelTypes []types.ModelType
			if err := json.Unmarshal([]byte(typesStr), &modelTypes); err == nil {
				meta.ModelTypes = modelTypes
			}
		}

		if countStr, ok := metaMap["worker_count"]; ok {
			if count, err := strconv.Atoi(countStr); err == nil {
				meta.WorkerCount = count
			}
		}

		runtimes = append(runtimes, meta)
	}

	return runtimes, nil
}

// Heartbeat refreshes the health key for a provider runtime with a 30s TTL.
func (c *RedisClient) Heartbeat(ctx context.Context, provider string) error {
	healthKey := runtimeKey(provider, "health")
	if err := c.client.Set(ctx, healthKey, "ok", 30*time.Second).Err(); err != nil {
		return fmt.Errorf("failed to set heartbeat for runtime %s: %w", provider, err)
	}
	return nil
}

// GetWorkerCount returns the current worker count for a provider runtime.
func (c *RedisClient) GetWorkerCount(ctx context.Context, provider string) (int, error) {
	countStr, err := c.client.Get(ctx, runtimeKey(provider, "workers")).Result()
	if err != nil {
		if err == redis.Nil {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get worker count for runtime %s: %w", provider, err)
	}

	count, err := strconv.Atoi(countStr)
	if err != nil {
		return 0, fmt.Errorf("invalid worker count value: %w", err)
	}

	return count, nil
}

// IncrementWorkerCount increments the worker count for a provider runtime.
func (c *RedisClient) IncrementWorkerCount(ctx context.Context, provider string) error {
	if err := c.client.Incr(ctx, runtimeKey(provider, "workers")).Err(); err != nil {
		return fmt.Errorf("failed to increment worker count for runtime %s: %w", provider, err)
	}
	return nil
}

// DecrementWorkerCount decrements the worker count for a provider runtime.
func (c *RedisClient) DecrementWorkerCount(ctx context.Context, provider string) error {
	if err := c.client.Decr(ctx, runtimeKey(provider, "workers")).Err(); err != nil {
		return fmt.Errorf("failed to decrement worker count for runtime %s: %w", provider, err)
	}
	return nil
}

// Close closes the Redis connection.
func (c *RedisClient) Close() error {
	return c.client.Close()
}

// runtimeKey builds the runtime:<provider>:<suffix> key.
func runtimeKey(provider, suffix string) string {
	return "runtime:" + provider + ":" + suffix
}
