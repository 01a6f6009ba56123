package types

import "time"

// EmbeddingUsage reports the resource consumption of one embedding call.
type EmbeddingUsage struct {
	// Tokens is the number of input tokens consumed.
	Tokens int `json:"tokens"`

	// TotalTokens is the total token count billed by the provider.
	TotalTokens int `json:"total_tokens"`

	// UnitPrice is the provider's price per price unit, in currency units.
	UnitPrice float64 `json:"unit_price"`

	// PriceUnit is the number of tokens covered by UnitPrice (e.g., 1000).
	PriceUnit int `json:"price_unit"`

	// TotalPrice is the computed cost of the call.
	TotalPrice float64 `json:"total_price"`

	// Currency is the ISO currency code for the price fields.
	Currency string `json:"currency"`

	// Latency is the wall-clock duration of the provider call.
	Latency time.Duration `json:"latency"`
}

// EmbeddingResult is the outcome of a text-embedding invocation.
type EmbeddingResult struct {
	// Model is the model name the provider served.
	Model string `json:"model"`

	// Embeddings holds one vector per input text, in input order.
	Embeddings [][]float64 `json:"embeddings"`

	// Usage reports token and price accounting for the call.
	Usage EmbeddingUsage `json:"usage"`
}
