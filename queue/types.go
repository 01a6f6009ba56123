package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/modelkit-ai/sdk/types"
)

// Job is a single provider invocation submitted to a runtime's queue.
type Job struct {
	// ID is a UUID that correlates all jobs in a batch.
	ID string `json:"id"`

	// Index is the position of this job in the batch (0-based).
	Index int `json:"index"`

	// Total is the total number of jobs in the batch.
	Total int `json:"total"`

	// Provider names the provider runtime that should execute the job.
	Provider string `json:"provider"`

	// Model is the model name to invoke.
	Model string `json:"model"`

	// ModelType is the capability the job exercises (llm, text-embedding, ...).
	ModelType types.ModelType `json:"model_type"`

	// Payload is the invocation input as a protojson-encoded Struct.
	// Use SetPayload and Payload to work with structured values.
	PayloadJSON json.RawMessage `json:"payload,omitempty"`

	// TraceID and SpanID link the job into the submitter's trace.
	TraceID string `json:"trace_id,omitempty"`
	SpanID  string `json:"span_id,omitempty"`

	// SubmittedAt is the Unix timestamp in milliseconds when the job was submitted.
	SubmittedAt int64 `json:"submitted_at"`
}

// NewJob creates a job for provider/model with a fresh UUID and the current
// submission time. Index and Total default to a single-job batch.
func NewJob(provider, model string, modelType types.ModelType) *Job {
	return &Job{
		ID:          uuid.NewString(),
		Index:       0,
		Total:       1,
		Provider:    provider,
		Model:       model,
		ModelType:   modelType,
		SubmittedAt: time.Now().UnixMilli(),
	}
}

// SetPayload encodes v as the job payload. v must be representable as a
// Protobuf Struct (maps, slices, strings, numbers, bools, nil).
func (j *Job) SetPayload(v map[string]any) error {
	s, err := structpb.NewStruct(v)
	if err != nil {
		return fmt.Errorf("failed to build payload struct: %w", err)
	}

	data, err := protojson.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode payload: %w", err)
	}

	j.PayloadJSON = data
	return nil
}

// Payload decodes the job payload into a Protobuf Struct.
// A job without a payload returns an empty Struct.
func (j *Job) Payload() (*structpb.Struct, error) {
	s := &structpb.Struct{}
	if len(j.PayloadJSON) == 0 {
		return s, nil
	}
	if err := protojson.Unmarshal(j.PayloadJSON, s); err != nil {
		return nil, fmt.Errorf("failed to decode payload: %w", err)
	}
	return s, nil
}

// ResultChannel returns the pub/sub channel results for this job's batch
// are published on.
func (j *Job) ResultChannel() string {
	return "invoke:" + j.ID + ":results"
}

// QueueName returns the Redis list jobs for this provider are pushed to.
func (j *Job) QueueName() string {
	return "invoke:" + j.Provider + ":jobs"
}

// IsValid checks that the job has all required fields populated correctly.
func (j *Job) IsValid() error {
	if j.ID == "" {
		return fmt.Errorf("id is required")
	}
	if j.Index < 0 {
		return fmt.Errorf("index must be non-negative, got %d", j.Index)
	}
	if j.Total <= 0 {
		return fmt.Errorf("total must be positive, got %d", j.Total)
	}
	if j.Index >= j.Total {
		return fmt.Errorf("index %d is out of bounds for total %d", j.Index, j.Total)
	}
	if j.Provider == "" {
		return fmt.Errorf("provider is required")
	}
	if j.Model == "" {
		return fmt.Errorf("model is required")
	}
	if !j.ModelType.IsValid() {
		return fmt.Errorf("invalid model type %q", j.ModelType)
	}
	if j.SubmittedAt <= 0 {
		return fmt.Errorf("submitted_at must be positive, got %d", j.SubmittedAt)
	}
	return nil
}

// Age returns the duration since the job was submitted. Dispatchers use it
// to detect stale jobs and measure queue wait time.
func (j *Job) Age() time.Duration {
	if j.SubmittedAt <= 0 {
		return 0
	}
	now := time.Now().UnixMilli()
	return time.Duration(now-j.SubmittedAt) * time.Millisecond
}

// Result is the outcome of executing a Job. It is published to the job's
// result channel for the dispatcher to collect.
type Result struct {
	// JobID correlates this result with the original job.
	JobID string `json:"job_id"`

	// Index is the position of this result in the batch.
	Index int `json:"index"`

	// OutputJSON is the invocation output, protojson-encoded.
	// Empty if ErrorKind is set.
	OutputJSON json.RawMessage `json:"output,omitempty"`

	// TotalTokens is the provider-reported token usage.
	TotalTokens int `json:"total_tokens,omitempty"`

	// ErrorKind categorizes a failed invocation (connection, authorization,
	// rate_limit, server_unavailable, bad_request). Empty on success.
	ErrorKind string `json:"error_kind,omitempty"`

	// Error is the error message if execution failed.
	Error string `json:"error,omitempty"`

	// WorkerID identifies the runtime worker that processed the job.
	WorkerID string `json:"worker_id"`

	// StartedAt and CompletedAt are Unix timestamps in milliseconds.
	StartedAt   int64 `json:"started_at"`
	CompletedAt int64 `json:"completed_at"`
}

// HasError returns true if the result represents a failed invocation.
func (r *Result) HasError() bool {
	return r.ErrorKind != "" || r.Error != ""
}

// Duration returns the wall-clock time the worker spent on the job.
func (r *Result) Duration() time.Duration {
	if r.StartedAt <= 0 || r.CompletedAt <= 0 {
		return 0
	}
	return time.Duration(r.CompletedAt-r.StartedAt) * time.Millisecond
}

// IsValid checks that the result has all required fields populated correctly.
func (r *Result) IsValid() error {
	if r.JobID == "" {
		return fmt.Errorf("job_id is required")
	}
	if r.Index < 0 {
		return fmt.Errorf("index must be non-negative, got %d", r.Index)
	}
	if r.WorkerID == "" {
		return fmt.Errorf("worker_id is required")
	}
	if r.StartedAt <= 0 {
		return fmt.Errorf("started_at must be positive, got %d", r.StartedAt)
	}
	if r.CompletedAt < r.StartedAt {
		return fmt.Errorf("completed_at (%d) cannot be before started_at (%d)", r.CompletedAt, r.StartedAt)
	}
	if !r.HasError() && len(r.OutputJSON) == 0 {
		return fmt.Errorf("output is required when error is empty")
	}
	return nil
}

// RuntimeMeta describes a registered provider runtime.
// It is stored as a Redis hash and used for runtime discovery.
type RuntimeMeta struct {
	// Provider is the unique provider identifier (e.g., "azure_openai").
	Provider string `json:"provider"`

	// Version is the semantic version of the runtime implementation.
	Version string `json:"version"`

	// Endpoint is the address the runtime's gRPC server listens on.
	Endpoint string `json:"endpoint"`

	// ModelTypes are the capabilities the runtime serves.
	ModelTypes []types.ModelType `json:"model_types"`

	// WorkerCount is the number of active workers for this runtime.
	// Updated by IncrementWorkerCount/DecrementWorkerCount.
	WorkerCount int `json:"worker_count"`
}

// IsValid checks that the runtime metadata has all required fields.
func (m *RuntimeMeta) IsValid() error {
	if m.Provider == "" {
		return fmt.Errorf("provider is required")
	}
	if m.Version == "" {
		return fmt.Errorf("version is required")
	}
	if len(m.ModelTypes) == 0 {
		return fmt.Errorf("at least one model type is required")
	}
	for _, mt := range m.ModelTypes {
		if !mt.IsValid() {
			return fmt.Errorf("invalid model type %q", mt)
		}
	}
	if m.WorkerCount < 0 {
		return fmt.Errorf("worker_count must be non-negative, got %d", m.WorkerCount)
	}
	return nil
}

// Serves checks whether this runtime serves the given model type.
func (m *RuntimeMeta) Serves(modelType types.ModelType) bool {
	for _, mt := range m.ModelTypes {
		if mt == modelType {
			return true
		}
	}
	return false
}
