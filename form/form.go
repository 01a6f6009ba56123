package form

import (
	"fmt"

	sdk "github.com/modelkit-ai/sdk"
	"github.com/modelkit-ai/sdk/provider"
	"github.com/modelkit-ai/sdk/types"
)

// matches reports whether every show_on condition holds against the
// submitted values. A condition against an absent variable fails, hiding
// the field, which matches how the form renderer treats untouched inputs.
func matches(conds []provider.ShowOnCondition, values map[string]string) bool {
	for _, cond := range conds {
		if values[cond.Variable] != cond.Value {
			return false
		}
	}
	return true
}

// FieldVisible reports whether the field is visible under the submitted
// values. Returns an error only when the field carries a `when` expression
// that fails to compile or evaluate.
func FieldVisible(f provider.CredentialField, values map[string]string) (bool, error) {
	if !matches(f.ShowOn, values) {
		return false, nil
	}
	if f.When != "" {
		ok, err := evalWhen(f.When, values)
		if err != nil {
			return false, sdk.NewValidationError("form.FieldVisible", err).
				WithContext(map[string]any{"variable": f.Variable})
		}
		return ok, nil
	}
	return true, nil
}

// OptionVisible reports whether the option is visible under the submitted
// values.
func OptionVisible(opt provider.FormOption, values map[string]string) (bool, error) {
	if !matches(opt.ShowOn, values) {
		return false, nil
	}
	if opt.When != "" {
		ok, err := evalWhen(opt.When, values)
		if err != nil {
			return false, sdk.NewValidationError("form.OptionVisible", err).
				WithContext(map[string]any{"option": opt.Value})
		}
		return ok, nil
	}
	return true, nil
}

// VisibleFields filters the schema down to the fields a renderer should
// display for the submitted values, preserving declaration order.
func VisibleFields(fields []provider.CredentialField, values map[string]string) ([]provider.CredentialField, error) {
	out := make([]provider.CredentialField, 0, len(fields))
	for _, f := range fields {
		visible, err := FieldVisible(f, values)
		if err != nil {
			return nil, err
		}
		if visible {
			out = append(out, f)
		}
	}
	return out, nil
}

// VisibleOptions filters a select field's option list down to the options
// visible under the submitted values, preserving declaration order.
func VisibleOptions(f provider.CredentialField, values map[string]string) ([]provider.FormOption, error) {
	out := make([]provider.FormOption, 0, len(f.Options))
	for _, opt := range f.Options {
		visible, err := OptionVisible(opt, values)
		if err != nil {
			return nil, err
		}
		if visible {
			out = append(out, opt)
		}
	}
	return out, nil
}

// ValidateCredentials checks a submitted credential set against the schema.
//
// For each visible field: required fields must carry a non-empty value,
// select and radio values must match a visible option, and max_length is
// enforced on text inputs. Hidden fields are exempt from all checks.
// Submitted keys the schema does not declare are tolerated and passed
// through untouched.
//
// The returned error wraps sdk.ErrCredentialsInvalid and names the first
// offending variable in its context.
func ValidateCredentials(fields []provider.CredentialField, values map[string]string) error {
	const op = "form.ValidateCredentials"

	fail := func(variable string, err error) error {
		return sdk.NewCredentialsError(op, fmt.Errorf("%w: %v", sdk.ErrCredentialsInvalid, err)).
			WithContext(map[string]any{"variable": variable})
	}

	for _, f := range fields {
		visible, err := FieldVisible(f, values)
		if err != nil {
			return err
		}
		if !visible {
			continue
		}

		value, submitted := values[f.Variable]

		if value == "" {
			if f.Required {
				return fail(f.Variable, fmt.Errorf("required field %q is missing", f.Variable))
			}
			continue
		}

		if f.MaxLength > 0 && len(value) > f.MaxLength {
			return fail(f.Variable, fmt.Errorf("field %q exceeds max length %d", f.Variable, f.MaxLength))
		}

		if f.Type == types.FormTypeBoolean && value != "true" && value != "false" {
			return fail(f.Variable, fmt.Errorf("field %q must be true or false, got %q", f.Variable, value))
		}

		if f.Type.HasOptions() && submitted {
			opts, err := VisibleOptions(f, values)
			if err != nil {
				return err
			}
			found := false
			for _, opt := range opts {
				if opt.Value == value {
					found = true
					break
				}
			}
			if !found {
				return fail(f.Variable, fmt.Errorf("value %q is not a visible option of field %q", value, f.Variable))
			}
		}
	}

	return nil
}

// ApplyDefaults returns a copy of values with declared defaults filled in
// for visible fields that were left empty. The input map is not modified.
func ApplyDefaults(fields []provider.CredentialField, values map[string]string) (map[string]string, error) {
	out := make(map[string]string, len(values))
	for k, v := range values {
		out[k] = v
	}

	for _, f := range fields {
		if f.Default == "" {
			continue
		}
		visible, err := FieldVisible(f, values)
		if err != nil {
			return nil, err
		}
		if visible && out[f.Variable] == "" {
			out[f.Variable] = f.Default
		}
	}

	return out, nil
}

// Redact returns a copy of values with every secret-input field obfuscated,
// keeping a short prefix and suffix for recognizability. Safe to log.
func Redact(fields []provider.CredentialField, values map[string]string) map[string]string {
	secret := make(map[string]bool)
	for _, f := range fields {
		if f.Type == types.FormTypeSecretInput {
			secret[f.Variable] = true
		}
	}

	out := make(map[string]string, len(values))
	for k, v := range values {
		if secret[k] {
			out[k] = obfuscate(v)
		} else {
			out[k] = v
		}
	}
	return out
}

func obfuscate(s string) string {
	if len(s) <= 6 {
		return "******"
	}
	return s[:2] + "******" + s[len(s)-2:]
}
