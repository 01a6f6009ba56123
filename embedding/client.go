// Package embedding invokes OpenAI-compatible text-embedding endpoints.
//
// The client speaks the /embeddings wire format served by OpenAI-compatible
// runtimes (LocalAI, Xinference, Azure OpenAI deployments behind a base
// URL). Credentials come from a validated credential form: server_url names
// the endpoint and api_key, when present, is sent as a bearer token.
//
// Provider failures are classified into the SDK error taxonomy so callers
// can distinguish retryable conditions (rate limits, upstream outages) from
// credential problems.
package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	sdk "github.com/modelkit-ai/sdk"
	"github.com/modelkit-ai/sdk/tokenizer"
	"github.com/modelkit-ai/sdk/types"
)

const (
	// CredServerURL is the credential variable naming the endpoint base URL.
	CredServerURL = "server_url"

	// CredAPIKey is the credential variable carrying the bearer token.
	CredAPIKey = "api_key"

	defaultTimeout = 10 * time.Second
)

// Pricing configures usage-cost accounting for invocations.
// The zero value reports token counts with zero cost.
type Pricing struct {
	// UnitPrice is the cost per PriceUnit tokens.
	UnitPrice float64

	// PriceUnit is the token count UnitPrice covers (e.g., 1000).
	PriceUnit int

	// Currency is the ISO currency code.
	Currency string
}

// Client invokes a text-embedding provider endpoint.
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	pricing    Pricing
	tracer     trace.Tracer
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client (useful for tests and proxies).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithPricing enables cost accounting on returned usage.
func WithPricing(p Pricing) Option {
	return func(c *Client) { c.pricing = p }
}

// NewClient creates an embedding client with a 10 second default timeout.
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     slog.Default(),
		tracer:     otel.Tracer("modelkit-sdk/embedding"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// request and response mirror the OpenAI-compatible embeddings wire format.
type embeddingRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Invoke embeds the given texts with the named model.
//
// Each text is embedded in its own provider call and the vectors are
// returned in input order. Usage aggregates the provider-reported token
// counts across calls.
func (c *Client) Invoke(ctx context.Context, model string, credentials map[string]string, texts []string) (*types.EmbeddingResult, error) {
	const op = "embedding.Invoke"

	serverURL := credentials[CredServerURL]
	if serverURL == "" {
		return nil, sdk.NewCredentialsError(op,
			fmt.Errorf("%w: %s is required", sdk.ErrCredentialsInvalid, CredServerURL))
	}
	if model == "" {
		return nil, sdk.NewCredentialsError(op,
			fmt.Errorf("%w: model is required", sdk.ErrCredentialsInvalid))
	}
	if len(texts) == 0 {
		return nil, sdk.NewBadRequestError(op, fmt.Errorf("no texts to embed"))
	}

	ctx, span := c.tracer.Start(ctx, "embedding.Invoke",
		trace.WithAttributes(
			attribute.String("model", model),
			attribute.Int("texts", len(texts)),
		))
	defer span.End()

	start := time.Now()
	result := &types.EmbeddingResult{
		Model:      model,
		Embeddings: make([][]float64, 0, len(texts)),
	}

	totalTokens := 0
	for _, text := range texts {
		vector, tokens, err := c.embedOne(ctx, serverURL, credentials[CredAPIKey], model, text)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		result.Embeddings = append(result.Embeddings, vector)
		totalTokens += tokens
	}

	result.Usage = c.usage(totalTokens, time.Since(start))
	span.SetAttributes(attribute.Int("usage.total_tokens", totalTokens))

	return result, nil
}

func (c *Client) embedOne(ctx context.Context, serverURL, apiKey, model, text string) ([]float64, int, error) {
	const op = "embedding.Invoke"

	body, err := json.Marshal(embeddingRequest{Model: model, Input: text})
	if err != nil {
		return nil, 0, sdk.NewInternalError(op, err)
	}

	url := strings.TrimRight(serverURL, "/") + "/embeddings"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, 0, sdk.NewInternalError(op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, 0, sdk.NewTimeoutError(op, err)
		}
		return nil, 0, sdk.NewConnectionError(op, fmt.Errorf("%w: %v", sdk.ErrInvokeFailed, err))
	}
	defer sdk.CloseWithLog(resp.Body, c.logger, "response body")

	if resp.StatusCode != http.StatusOK {
		return nil, 0, c.classifyFailure(resp)
	}

	var decoded embeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, 0, sdk.NewServerUnavailableError(op,
			fmt.Errorf("%w: failed to decode response: %v", sdk.ErrInvokeFailed, err))
	}
	if len(decoded.Data) == 0 {
		return nil, 0, sdk.NewServerUnavailableError(op,
			fmt.Errorf("%w: response carries no embeddings", sdk.ErrInvokeFailed))
	}

	return decoded.Data[0].Embedding, decoded.Usage.TotalTokens, nil
}

// classifyFailure maps a non-200 provider response to an SDK error kind.
// The body is read fully so the connection can be reused.
func (c *Client) classifyFailure(resp *http.Response) error {
	const op = "embedding.Invoke"

	body, readErr := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if readErr != nil {
		return sdk.NewInvokeError(op, resp.StatusCode,
			fmt.Errorf("%w: status %d", sdk.ErrInvokeFailed, resp.StatusCode))
	}

	message := strings.TrimSpace(string(body))
	var decoded errorResponse
	if err := json.Unmarshal(body, &decoded); err == nil && decoded.Error.Message != "" {
		message = decoded.Error.Message
	}

	return sdk.NewInvokeError(op, resp.StatusCode,
		fmt.Errorf("%w: %s", sdk.ErrInvokeFailed, message))
}

func (c *Client) usage(tokens int, latency time.Duration) types.EmbeddingUsage {
	usage := types.EmbeddingUsage{
		Tokens:      tokens,
		TotalTokens: tokens,
		UnitPrice:   c.pricing.UnitPrice,
		PriceUnit:   c.pricing.PriceUnit,
		Currency:    c.pricing.Currency,
		Latency:     latency,
	}
	if c.pricing.PriceUnit > 0 {
		usage.TotalPrice = float64(tokens) / float64(c.pricing.PriceUnit) * c.pricing.UnitPrice
	}
	return usage
}

// EstimateTokens returns the pre-flight token estimate for texts, using the
// SDK tokenizer. Providers report exact counts in Invoke usage.
func (c *Client) EstimateTokens(texts []string) int {
	return tokenizer.CountAll(texts)
}

// ValidateCredentials verifies that the credential set can reach the
// endpoint by embedding a one-word input with the given model.
func (c *Client) ValidateCredentials(ctx context.Context, model string, credentials map[string]string) error {
	const op = "embedding.ValidateCredentials"

	if _, err := c.Invoke(ctx, model, credentials, []string{"ping"}); err != nil {
		return sdk.NewCredentialsError(op, fmt.Errorf("%w: %v", sdk.ErrCredentialsInvalid, err))
	}
	return nil
}
