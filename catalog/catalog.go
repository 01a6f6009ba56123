// Package catalog maintains an in-process registry of known models per provider.
//
// Provider integrations register the models they can serve; the registry
// answers lookups by provider and model type and can render a provider's
// model list as credential form options (the base_model_name select of a
// customizable-model provider).
package catalog

import (
	"fmt"
	"sort"
	"sync"

	sdk "github.com/modelkit-ai/sdk"
	"github.com/modelkit-ai/sdk/provider"
	"github.com/modelkit-ai/sdk/types"
)

// Model is one catalog entry: a model name a provider can serve.
type Model struct {
	// Name is the identifier used in API calls (e.g., "gpt-4").
	Name string

	// Type is the model category.
	Type types.ModelType

	// Provider is the provider identifier the model belongs to.
	Provider string

	// Label is the localized display name. Falls back to Name when empty.
	Label types.I18n
}

// registry is the global model catalog, keyed by provider then model name.
var (
	mu       sync.RWMutex
	registry = make(map[string]map[string]Model)
	order    = make(map[string][]string) // registration order per provider
)

// Register adds models to a provider's catalog. Re-registering a model name
// replaces the previous entry without changing its position.
func Register(providerName string, models []Model) {
	mu.Lock()
	defer mu.Unlock()

	if registry[providerName] == nil {
		registry[providerName] = make(map[string]Model)
	}

	for _, m := range models {
		m.Provider = providerName
		if _, exists := registry[providerName][m.Name]; !exists {
			order[providerName] = append(order[providerName], m.Name)
		}
		registry[providerName][m.Name] = m
	}
}

// Models returns a provider's catalog in registration order.
func Models(providerName string) []Model {
	mu.RLock()
	defer mu.RUnlock()

	names := order[providerName]
	out := make([]Model, 0, len(names))
	for _, name := range names {
		out = append(out, registry[providerName][name])
	}
	return out
}

// ModelsOfType returns a provider's models of one category, in registration order.
func ModelsOfType(providerName string, mt types.ModelType) []Model {
	all := Models(providerName)
	out := make([]Model, 0, len(all))
	for _, m := range all {
		if m.Type == mt {
			out = append(out, m)
		}
	}
	return out
}

// Lookup finds one model by provider and name.
func Lookup(providerName, name string) (Model, error) {
	mu.RLock()
	defer mu.RUnlock()

	m, ok := registry[providerName][name]
	if !ok {
		return Model{}, sdk.NewNotFoundError("catalog.Lookup",
			fmt.Errorf("%w: %s/%s", sdk.ErrModelNotFound, providerName, name))
	}
	return m, nil
}

// Providers returns the names of all providers with registered models, sorted.
func Providers() []string {
	mu.RLock()
	defer mu.RUnlock()

	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Options renders a provider's catalog as form options for a base-model
// select field. Each option is conditioned on the model-type discriminator,
// so only models of the category being configured are visible.
func Options(providerName string) []provider.FormOption {
	models := Models(providerName)
	out := make([]provider.FormOption, 0, len(models))
	for _, m := range models {
		label := m.Label
		if label.IsZero() {
			label = types.I18n{types.DefaultLocale: m.Name}
		}
		out = append(out, provider.FormOption{
			Label: label,
			Value: m.Name,
			ShowOn: []provider.ShowOnCondition{
				{Variable: types.ModelTypeVariable, Value: string(m.Type)},
			},
		})
	}
	return out
}

// Clear resets the catalog. This is primarily useful for testing.
func Clear() {
	mu.Lock()
	defer mu.Unlock()

	registry = make(map[string]map[string]Model)
	order = make(map[string][]string)
}

// AzureOpenAIBaseModels returns the base models selectable when configuring
// an Azure OpenAI deployment: seven chat/completion models and one embedding
// model.
func AzureOpenAIBaseModels() []Model {
	llm := func(name string) Model {
		return Model{Name: name, Type: types.ModelTypeLLM}
	}
	return []Model{
		llm("gpt-3.5-turbo"),
		llm("gpt-3.5-turbo-16k"),
		llm("gpt-4"),
		llm("gpt-4-32k"),
		llm("gpt-35-turbo"),
		llm("gpt-35-turbo-16k"),
		llm("text-davinci-003"),
		{Name: "text-embedding-ada-002", Type: types.ModelTypeTextEmbedding},
	}
}
