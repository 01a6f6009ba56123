package types

// ModelType categorizes the models a provider can serve.
type ModelType string

const (
	// ModelTypeLLM represents large language models (chat and completion).
	ModelTypeLLM ModelType = "llm"

	// ModelTypeTextEmbedding represents text embedding models.
	ModelTypeTextEmbedding ModelType = "text-embedding"

	// ModelTypeRerank represents rerank models.
	ModelTypeRerank ModelType = "rerank"

	// ModelTypeSpeech2Text represents speech-to-text models.
	ModelTypeSpeech2Text ModelType = "speech2text"

	// ModelTypeTTS represents text-to-speech models.
	ModelTypeTTS ModelType = "tts"

	// ModelTypeModeration represents content moderation models.
	ModelTypeModeration ModelType = "moderation"
)

// IsValid reports whether the model type is one of the known categories.
func (m ModelType) IsValid() bool {
	switch m {
	case ModelTypeLLM, ModelTypeTextEmbedding, ModelTypeRerank,
		ModelTypeSpeech2Text, ModelTypeTTS, ModelTypeModeration:
		return true
	}
	return false
}

// ModelTypeVariable is the synthetic discriminator variable a host
// application injects into submitted credential values to indicate which
// model category the user is configuring. Credential form schemas may
// reference it in show_on conditions without declaring it as a field.
const ModelTypeVariable = "__model_type"

// FormType identifies how a credential field is rendered.
type FormType string

const (
	// FormTypeTextInput renders a plain single-line text input.
	FormTypeTextInput FormType = "text-input"

	// FormTypeSecretInput renders a masked input whose value must never be
	// echoed back in logs or UI.
	FormTypeSecretInput FormType = "secret-input"

	// FormTypeSelect renders a dropdown with an enumerated option list.
	FormTypeSelect FormType = "select"

	// FormTypeRadio renders the option list as radio buttons.
	FormTypeRadio FormType = "radio"

	// FormTypeBoolean renders a true/false switch.
	FormTypeBoolean FormType = "boolean"
)

// IsValid reports whether the form type is one of the known input kinds.
func (f FormType) IsValid() bool {
	switch f {
	case FormTypeTextInput, FormTypeSecretInput, FormTypeSelect,
		FormTypeRadio, FormTypeBoolean:
		return true
	}
	return false
}

// HasOptions reports whether fields of this type carry an option list.
func (f FormType) HasOptions() bool {
	return f == FormTypeSelect || f == FormTypeRadio
}

// ConfigurateMethod describes how models become available for a provider.
type ConfigurateMethod string

const (
	// ConfigurateMethodPredefinedModel means the provider ships a fixed
	// model list and a single provider-level credential unlocks all of them.
	ConfigurateMethodPredefinedModel ConfigurateMethod = "predefined-model"

	// ConfigurateMethodCustomizableModel means each model is added by the
	// user and carries its own credential set.
	ConfigurateMethodCustomizableModel ConfigurateMethod = "customizable-model"
)

// IsValid reports whether the configurate method is known.
func (c ConfigurateMethod) IsValid() bool {
	return c == ConfigurateMethodPredefinedModel || c == ConfigurateMethodCustomizableModel
}
