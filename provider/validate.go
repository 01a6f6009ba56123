package provider

import (
	"fmt"
	"regexp"

	sdk "github.com/modelkit-ai/sdk"
	"github.com/modelkit-ai/sdk/types"
)

var backgroundPattern = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// Validate checks the descriptor for well-formedness.
//
// It verifies the identity fields, that every declared model type and
// configurate method is known, and applies the per-schema checks from
// ValidateFields to each credential form. The returned error wraps
// sdk.ErrInvalidDescriptor and names the first offending field.
func (d *Descriptor) Validate() error {
	const op = "provider.Validate"

	fail := func(err error) error {
		return sdk.NewValidationError(op, fmt.Errorf("%w: %v", sdk.ErrInvalidDescriptor, err)).
			WithContext(map[string]any{"provider": d.Provider})
	}

	if d.Provider == "" {
		return fail(fmt.Errorf("provider name is empty"))
	}
	if d.Label.IsZero() {
		return fail(fmt.Errorf("label is empty"))
	}
	if d.Background != "" && !backgroundPattern.MatchString(d.Background) {
		return fail(fmt.Errorf("background %q is not a hex color", d.Background))
	}

	if len(d.SupportedModelTypes) == 0 {
		return fail(fmt.Errorf("supported_model_types is empty"))
	}
	seenTypes := make(map[types.ModelType]bool, len(d.SupportedModelTypes))
	for _, mt := range d.SupportedModelTypes {
		if !mt.IsValid() {
			return fail(fmt.Errorf("unknown model type %q", mt))
		}
		if seenTypes[mt] {
			return fail(fmt.Errorf("duplicate model type %q", mt))
		}
		seenTypes[mt] = true
	}

	if len(d.ConfigurateMethods) == 0 {
		return fail(fmt.Errorf("configurate_methods is empty"))
	}
	for _, cm := range d.ConfigurateMethods {
		if !cm.IsValid() {
			return fail(fmt.Errorf("unknown configurate method %q", cm))
		}
	}

	for _, fields := range d.Schemas() {
		if err := ValidateFields(fields); err != nil {
			return fail(err)
		}
	}

	return nil
}

// ValidateFields applies the well-formedness rules to one credential form:
//
//   - every variable is non-empty and unique across the schema
//   - every field type is a known form type
//   - only select and radio fields declare options
//   - option values are unique within a field
//   - every show_on condition references a declared variable or the
//     synthetic model-type discriminator
func ValidateFields(fields []CredentialField) error {
	declared := make(map[string]bool, len(fields)+1)
	declared[types.ModelTypeVariable] = true

	for i, f := range fields {
		if f.Variable == "" {
			return fmt.Errorf("field %d: variable is empty", i)
		}
		if declared[f.Variable] {
			return fmt.Errorf("field %q: duplicate variable", f.Variable)
		}
		declared[f.Variable] = true

		if !f.Type.IsValid() {
			return fmt.Errorf("field %q: unknown form type %q", f.Variable, f.Type)
		}
		if len(f.Options) > 0 && !f.Type.HasOptions() {
			return fmt.Errorf("field %q: options declared on %s field", f.Variable, f.Type)
		}
		if f.MaxLength < 0 {
			return fmt.Errorf("field %q: negative max_length", f.Variable)
		}

		values := make(map[string]bool, len(f.Options))
		for _, opt := range f.Options {
			if opt.Value == "" {
				return fmt.Errorf("field %q: option with empty value", f.Variable)
			}
			if values[opt.Value] {
				return fmt.Errorf("field %q: duplicate option value %q", f.Variable, opt.Value)
			}
			values[opt.Value] = true
		}
	}

	// show_on references are checked after all variables are collected so
	// conditions may point at fields declared later in the form.
	for _, f := range fields {
		for _, cond := range f.ShowOn {
			if !declared[cond.Variable] {
				return fmt.Errorf("field %q: show_on references unknown variable %q", f.Variable, cond.Variable)
			}
		}
		for _, opt := range f.Options {
			for _, cond := range opt.ShowOn {
				if !declared[cond.Variable] {
					return fmt.Errorf("field %q option %q: show_on references unknown variable %q",
						f.Variable, opt.Value, cond.Variable)
				}
			}
		}
	}

	return nil
}
