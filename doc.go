// Package sdk provides the ModelKit SDK for building AI model-provider
// integrations.
//
// A provider integration is described declaratively: a YAML descriptor names
// the provider, the model categories it supports, and the credential form a
// host application must render before the provider can be invoked. The SDK
// loads and validates those descriptors, interprets their credential form
// schemas (including conditional field visibility), and offers the runtime
// pieces an integration needs around them: a model catalog, a text-embedding
// invoker, provider discovery, and a work queue for invocation jobs.
//
// # Package Organization
//
// The SDK is organized into focused packages:
//
//   - sdk (this package): structured errors shared by all packages
//   - types: model categories, form field types, localized strings, health status
//   - provider: descriptor data model, YAML loading, well-formedness checks
//   - form: credential form interpretation and validation
//   - catalog: in-process registry of known models per provider
//   - embedding: HTTP text-embedding invoker with credential validation
//   - tokenizer: token-count estimation for pre-flight sizing
//   - workflow: CI-style job definitions and a sequential step runner
//   - registry: etcd-backed discovery of provider runtime instances
//   - serve: gRPC serving harness with health checks and graceful shutdown
//   - queue: Redis-backed invocation work queue
//   - health: environment and endpoint checks for provider runtimes
//   - telemetry: OpenTelemetry tracing and metrics helpers
//
// # Getting Started
//
// Load a provider descriptor and validate submitted credentials:
//
//	desc, err := provider.Load("providers/azure_openai.yaml")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	values := map[string]string{
//		"__model_type":    "llm",
//		"openai_api_base": "https://example.openai.azure.com",
//		"openai_api_key":  "sk-...",
//		"base_model_name": "gpt-4",
//	}
//	schemas := desc.ModelCredentialSchema.CredentialFormSchemas
//	if err := form.ValidateCredentials(schemas, values); err != nil {
//		log.Fatal(err)
//	}
//
// # Error Handling
//
// All packages return structured errors compatible with errors.Is and
// errors.As. See SDKError in this package for the error taxonomy.
package sdk
