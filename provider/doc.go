// Package provider defines the declarative provider descriptor and its loader.
//
// A descriptor is a YAML document describing one model-provider integration:
// its identity (name, icons, help link), the model categories it supports,
// and the credential form a host application renders before the provider can
// be used. The form is an ordered list of field declarations; select fields
// carry an enumerated option list, and both fields and options may be shown
// conditionally based on other submitted values (show_on).
//
// Descriptors are authored statically, loaded once, and never mutated at
// runtime. Ordering is meaningful: fields and options render in declaration
// order, and parsing followed by re-serialization preserves that order.
//
// Use Load or LoadDir to read descriptors from disk, and Descriptor.Validate
// to check well-formedness before handing the schema to the form package.
package provider
