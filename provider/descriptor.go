package provider

import (
	"github.com/modelkit-ai/sdk/types"
)

// Descriptor describes one model-provider integration.
//
// The YAML field names follow the descriptor document format consumed by
// host applications; struct field order matches the canonical document
// layout so re-serialized descriptors stay diffable.
type Descriptor struct {
	// Provider is the unique identifier of the integration (e.g., "azure_openai").
	Provider string `yaml:"provider" json:"provider"`

	// Label is the localized display name shown in provider listings.
	Label types.I18n `yaml:"label" json:"label"`

	// IconSmall and IconLarge are localized asset references. Asset storage
	// is owned by the host application; the descriptor only names the files.
	IconSmall types.I18n `yaml:"icon_small,omitempty" json:"icon_small,omitempty"`
	IconLarge types.I18n `yaml:"icon_large,omitempty" json:"icon_large,omitempty"`

	// Background is the hex color used behind the provider icon (e.g., "#E3F0FF").
	Background string `yaml:"background,omitempty" json:"background,omitempty"`

	// Help points users at the provider's credential documentation.
	Help *Help `yaml:"help,omitempty" json:"help,omitempty"`

	// SupportedModelTypes lists the model categories this provider serves.
	SupportedModelTypes []types.ModelType `yaml:"supported_model_types" json:"supported_model_types"`

	// ConfigurateMethods lists how models become available for this provider.
	ConfigurateMethods []types.ConfigurateMethod `yaml:"configurate_methods" json:"configurate_methods"`

	// ProviderCredentialSchema declares the provider-level credential form
	// (predefined-model providers). Optional.
	ProviderCredentialSchema *CredentialSchema `yaml:"provider_credential_schema,omitempty" json:"provider_credential_schema,omitempty"`

	// ModelCredentialSchema declares the per-model credential form
	// (customizable-model providers). Optional.
	ModelCredentialSchema *ModelCredentialSchema `yaml:"model_credential_schema,omitempty" json:"model_credential_schema,omitempty"`
}

// Help is a localized help link rendered next to the credential form.
type Help struct {
	Title types.I18n `yaml:"title" json:"title"`
	URL   types.I18n `yaml:"url" json:"url"`
}

// CredentialSchema is an ordered credential form.
type CredentialSchema struct {
	CredentialFormSchemas []CredentialField `yaml:"credential_form_schemas" json:"credential_form_schemas"`
}

// ModelCredentialSchema is the per-model credential form plus the model name
// input rendered above it.
type ModelCredentialSchema struct {
	Model                 ModelField        `yaml:"model" json:"model"`
	CredentialFormSchemas []CredentialField `yaml:"credential_form_schemas" json:"credential_form_schemas"`
}

// ModelField describes the free-form model name input of a customizable-model
// provider (label and placeholder only; the variable is implicitly "model").
type ModelField struct {
	Label       types.I18n `yaml:"label" json:"label"`
	Placeholder types.I18n `yaml:"placeholder,omitempty" json:"placeholder,omitempty"`
}

// CredentialField declares one input of a credential form.
type CredentialField struct {
	// Variable is the unique key the submitted value is stored under.
	Variable string `yaml:"variable" json:"variable"`

	// Label is the localized field caption.
	Label types.I18n `yaml:"label" json:"label"`

	// Type selects the input widget (text-input, secret-input, select, ...).
	Type types.FormType `yaml:"type" json:"type"`

	// Required marks the field as mandatory while it is visible.
	Required bool `yaml:"required" json:"required"`

	// Default is the value applied when a visible field is left empty.
	Default string `yaml:"default,omitempty" json:"default,omitempty"`

	// Placeholder is the localized hint text shown in empty inputs.
	Placeholder types.I18n `yaml:"placeholder,omitempty" json:"placeholder,omitempty"`

	// MaxLength bounds text input length. Zero means unbounded.
	MaxLength int `yaml:"max_length,omitempty" json:"max_length,omitempty"`

	// Options enumerates the selectable values for select and radio fields,
	// in render order.
	Options []FormOption `yaml:"options,omitempty" json:"options,omitempty"`

	// ShowOn hides the field unless every condition matches the submitted
	// values. An empty list means always visible.
	ShowOn []ShowOnCondition `yaml:"show_on,omitempty" json:"show_on,omitempty"`

	// When is an optional CEL expression over the submitted values that must
	// evaluate to true for the field to be visible. Evaluated in addition to
	// ShowOn. See the form package for the expression environment.
	When string `yaml:"when,omitempty" json:"when,omitempty"`
}

// FormOption is one selectable entry of a select or radio field.
type FormOption struct {
	// Label is the localized option caption.
	Label types.I18n `yaml:"label" json:"label"`

	// Value is the submitted value when this option is chosen. Unique within
	// the field.
	Value string `yaml:"value" json:"value"`

	// ShowOn hides the option unless every condition matches.
	ShowOn []ShowOnCondition `yaml:"show_on,omitempty" json:"show_on,omitempty"`

	// When is an optional CEL visibility expression, as on CredentialField.
	When string `yaml:"when,omitempty" json:"when,omitempty"`
}

// ShowOnCondition ties visibility to another field's submitted value.
//
// The referenced variable must be declared elsewhere in the same schema or be
// the synthetic model-type discriminator (types.ModelTypeVariable).
type ShowOnCondition struct {
	Variable string `yaml:"variable" json:"variable"`
	Value    string `yaml:"value" json:"value"`
}

// Schemas returns the credential field lists declared by the descriptor,
// provider-level first. Used by validation to apply per-schema checks.
func (d *Descriptor) Schemas() [][]CredentialField {
	var out [][]CredentialField
	if d.ProviderCredentialSchema != nil {
		out = append(out, d.ProviderCredentialSchema.CredentialFormSchemas)
	}
	if d.ModelCredentialSchema != nil {
		out = append(out, d.ModelCredentialSchema.CredentialFormSchemas)
	}
	return out
}

// SupportsModelType reports whether the descriptor lists the given category.
func (d *Descriptor) SupportsModelType(mt types.ModelType) bool {
	for _, t := range d.SupportedModelTypes {
		if t == mt {
			return true
		}
	}
	return false
}
