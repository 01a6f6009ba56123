// Package form interprets credential form schemas at submission time.
//
// A credential form schema (see the provider package) is an ordered list of
// field declarations. This package answers the two questions a host
// application asks about it: which fields and options are visible given the
// values submitted so far, and whether a submitted credential set satisfies
// the schema.
//
// Visibility follows the show_on rules: a field or option is visible when
// every one of its conditions matches the submitted value of the referenced
// variable. A field with no conditions is always visible. Fields may
// additionally carry a `when` CEL expression evaluated against the submitted
// values; both the structured conditions and the expression must pass.
//
// Validation applies the contract required fields are held to: a visible
// required field must carry a non-empty value, hidden fields are exempt, and
// a select field's value must match one of its visible options.
package form
