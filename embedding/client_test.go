package embedding

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sdk "github.com/modelkit-ai/sdk"
)

// fakeEmbeddings serves an OpenAI-compatible /embeddings endpoint returning
// a fixed three-dimensional vector and a token count equal to the input length.
func fakeEmbeddings(t *testing.T, wantModel, wantAuth string) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embeddings" {
			http.NotFound(w, r)
			return
		}
		if wantAuth != "" && r.Header.Get("Authorization") != wantAuth {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]any{
				"error": map[string]any{"code": 401, "message": "invalid api key"},
			})
			return
		}

		var req struct {
			Model string `json:"model"`
			Input string `json:"input"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if req.Model != wantModel {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]any{
				"error": map[string]any{"code": 404, "message": "model not found"},
			})
			return
		}

		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{
				{"embedding": []float64{0.1, 0.2, 0.3}},
			},
			"usage": map[string]any{"total_tokens": len(req.Input)},
		})
	}))
}

func TestInvoke(t *testing.T) {
	srv := fakeEmbeddings(t, "text-embedding-ada-002", "Bearer sk-test")
	defer srv.Close()

	client := NewClient()
	creds := map[string]string{
		CredServerURL: srv.URL,
		CredAPIKey:    "sk-test",
	}

	result, err := client.Invoke(context.Background(), "text-embedding-ada-002", creds, []string{"hello", "world!"})
	require.NoError(t, err)

	require.Len(t, result.Embeddings, 2)
	assert.Equal(t, []float64{0.1, 0.2, 0.3}, result.Embeddings[0])
	assert.Equal(t, "text-embedding-ada-002", result.Model)
	// 5 + 6 input bytes reported as tokens by the fake server.
	assert.Equal(t, 11, result.Usage.TotalTokens)
	assert.Positive(t, result.Usage.Latency)
}

func TestInvokeTrailingSlashServerURL(t *testing.T) {
	srv := fakeEmbeddings(t, "text-embedding-ada-002", "")
	defer srv.Close()

	creds := map[string]string{CredServerURL: srv.URL + "/"}

	_, err := NewClient().Invoke(context.Background(), "text-embedding-ada-002", creds, []string{"ping"})
	assert.NoError(t, err)
}

func TestInvokeMissingServerURL(t *testing.T) {
	_, err := NewClient().Invoke(context.Background(), "text-embedding-ada-002", nil, []string{"ping"})
	require.Error(t, err)
	assert.ErrorIs(t, err, sdk.ErrCredentialsInvalid)
	assert.ErrorIs(t, err, &sdk.SDKError{Kind: sdk.KindCredentials})
}

func TestInvokeMissingModel(t *testing.T) {
	creds := map[string]string{CredServerURL: "http://localhost:1"}
	_, err := NewClient().Invoke(context.Background(), "", creds, []string{"ping"})
	require.Error(t, err)
	assert.ErrorIs(t, err, sdk.ErrCredentialsInvalid)
}

func TestInvokeEmptyInput(t *testing.T) {
	creds := map[string]string{CredServerURL: "http://localhost:1"}
	_, err := NewClient().Invoke(context.Background(), "text-embedding-ada-002", creds, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, &sdk.SDKError{Kind: sdk.KindBadRequest})
}

func TestInvokeStatusClassification(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		wantKind string
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, wantKind: sdk.KindAuthorization},
		{name: "forbidden", status: http.StatusForbidden, wantKind: sdk.KindAuthorization},
		{name: "rate limited", status: http.StatusTooManyRequests, wantKind: sdk.KindRateLimit},
		{name: "internal error", status: http.StatusInternalServerError, wantKind: sdk.KindServerUnavailable},
		{name: "bad gateway", status: http.StatusBadGateway, wantKind: sdk.KindServerUnavailable},
		{name: "not found", status: http.StatusNotFound, wantKind: sdk.KindBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				json.NewEncoder(w).Encode(map[string]any{
					"error": map[string]any{"code": tt.status, "message": "provider said no"},
				})
			}))
			defer srv.Close()

			creds := map[string]string{CredServerURL: srv.URL}
			_, err := NewClient().Invoke(context.Background(), "m", creds, []string{"ping"})

			require.Error(t, err)
			assert.ErrorIs(t, err, sdk.ErrInvokeFailed)
			assert.ErrorIs(t, err, &sdk.SDKError{Kind: tt.wantKind})
			assert.Contains(t, err.Error(), "provider said no")
		})
	}
}

func TestInvokeConnectionRefused(t *testing.T) {
	// Port 1 is never listening.
	creds := map[string]string{CredServerURL: "http://127.0.0.1:1"}

	_, err := NewClient().Invoke(context.Background(), "m", creds, []string{"ping"})
	require.Error(t, err)
	assert.ErrorIs(t, err, &sdk.SDKError{Kind: sdk.KindConnection})
	assert.ErrorIs(t, err, sdk.ErrInvokeFailed)
}

func TestInvokeContextCanceled(t *testing.T) {
	srv := fakeEmbeddings(t, "m", "")
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	creds := map[string]string{CredServerURL: srv.URL}
	_, err := NewClient().Invoke(ctx, "m", creds, []string{"ping"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled) ||
		errors.Is(err, &sdk.SDKError{Kind: sdk.KindConnection}))
}

func TestInvokeMalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer srv.Close()

	creds := map[string]string{CredServerURL: srv.URL}
	_, err := NewClient().Invoke(context.Background(), "m", creds, []string{"ping"})
	require.Error(t, err)
	assert.ErrorIs(t, err, &sdk.SDKError{Kind: sdk.KindServerUnavailable})
}

func TestInvokeEmptyData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"data": []any{}})
	}))
	defer srv.Close()

	creds := map[string]string{CredServerURL: srv.URL}
	_, err := NewClient().Invoke(context.Background(), "m", creds, []string{"ping"})
	require.Error(t, err)
	assert.ErrorIs(t, err, &sdk.SDKError{Kind: sdk.KindServerUnavailable})
}

func TestInvokePricing(t *testing.T) {
	srv := fakeEmbeddings(t, "m", "")
	defer srv.Close()

	client := NewClient(WithPricing(Pricing{
		UnitPrice: 0.1,
		PriceUnit: 1000,
		Currency:  "USD",
	}))

	creds := map[string]string{CredServerURL: srv.URL}
	result, err := client.Invoke(context.Background(), "m", creds, []string{"ping"})
	require.NoError(t, err)

	assert.Equal(t, "USD", result.Usage.Currency)
	assert.InDelta(t, float64(result.Usage.TotalTokens)/1000*0.1, result.Usage.TotalPrice, 1e-9)
}

func TestValidateCredentials(t *testing.T) {
	srv := fakeEmbeddings(t, "text-embedding-ada-002", "Bearer sk-test")
	defer srv.Close()

	client := NewClient()

	good := map[string]string{CredServerURL: srv.URL, CredAPIKey: "sk-test"}
	assert.NoError(t, client.ValidateCredentials(context.Background(), "text-embedding-ada-002", good))

	bad := map[string]string{CredServerURL: srv.URL, CredAPIKey: "wrong"}
	err := client.ValidateCredentials(context.Background(), "text-embedding-ada-002", bad)
	require.Error(t, err)
	assert.ErrorIs(t, err, sdk.ErrCredentialsInvalid)
}

func TestEstimateTokens(t *testing.T) {
	client := NewClient()
	assert.Zero(t, client.EstimateTokens(nil))
	assert.Positive(t, client.EstimateTokens([]string{"hello world"}))
}
