// Package types defines the shared vocabulary of the ModelKit SDK.
//
// It contains the enumerations used across provider descriptors (model
// categories, form field types, configuration methods), the localized string
// type rendered by host applications, health status reporting, and the usage
// accounting types returned by provider invocations.
//
// These types are deliberately free of behavior beyond simple accessors so
// they can be shared between the descriptor loader, the form validator, and
// the invocation layers without import cycles.
package types
