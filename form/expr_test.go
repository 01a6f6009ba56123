package form

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modelkit-ai/sdk/provider"
	"github.com/modelkit-ai/sdk/types"
)

func TestFieldVisibleWhenExpression(t *testing.T) {
	f := provider.CredentialField{
		Variable: "azure_ad_tenant",
		Type:     types.FormTypeTextInput,
		When:     `"use_azure_ad" in values && values["use_azure_ad"] == "true"`,
	}

	visible, err := FieldVisible(f, map[string]string{"use_azure_ad": "true"})
	require.NoError(t, err)
	assert.True(t, visible)

	visible, err = FieldVisible(f, map[string]string{"use_azure_ad": "false"})
	require.NoError(t, err)
	assert.False(t, visible)

	visible, err = FieldVisible(f, map[string]string{})
	require.NoError(t, err)
	assert.False(t, visible)
}

func TestWhenCombinesWithShowOn(t *testing.T) {
	f := provider.CredentialField{
		Variable: "endpoint_override",
		Type:     types.FormTypeTextInput,
		ShowOn:   []provider.ShowOnCondition{{Variable: types.ModelTypeVariable, Value: "llm"}},
		When:     `"advanced" in values && values["advanced"] == "true"`,
	}

	// show_on passes but when fails.
	visible, err := FieldVisible(f, map[string]string{types.ModelTypeVariable: "llm"})
	require.NoError(t, err)
	assert.False(t, visible)

	// Both pass.
	visible, err = FieldVisible(f, map[string]string{
		types.ModelTypeVariable: "llm",
		"advanced":              "true",
	})
	require.NoError(t, err)
	assert.True(t, visible)

	// when passes but show_on fails.
	visible, err = FieldVisible(f, map[string]string{
		types.ModelTypeVariable: "text-embedding",
		"advanced":              "true",
	})
	require.NoError(t, err)
	assert.False(t, visible)
}

func TestOptionVisibleWhenExpression(t *testing.T) {
	opt := provider.FormOption{
		Value: "gpt-4-32k",
		When:  `"tier" in values && values["tier"] == "enterprise"`,
	}

	visible, err := OptionVisible(opt, map[string]string{"tier": "enterprise"})
	require.NoError(t, err)
	assert.True(t, visible)

	visible, err = OptionVisible(opt, map[string]string{"tier": "standard"})
	require.NoError(t, err)
	assert.False(t, visible)
}

func TestWhenCompileError(t *testing.T) {
	f := provider.CredentialField{
		Variable: "broken",
		Type:     types.FormTypeTextInput,
		When:     `values[`, // syntax error
	}

	_, err := FieldVisible(f, map[string]string{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "compile")
}

func TestWhenMustBeBool(t *testing.T) {
	f := provider.CredentialField{
		Variable: "broken",
		Type:     types.FormTypeTextInput,
		When:     `"just a string"`,
	}

	_, err := FieldVisible(f, map[string]string{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bool")
}

func TestWhenRuntimeError(t *testing.T) {
	f := provider.CredentialField{
		Variable: "broken",
		Type:     types.FormTypeTextInput,
		// Indexing an absent key without guarding is a CEL runtime error.
		When: `values["missing"] == "x"`,
	}

	_, err := FieldVisible(f, map[string]string{})
	require.Error(t, err)
}

func TestCompiledProgramsAreCached(t *testing.T) {
	expr := `"a" in values`

	_, err := evalWhen(expr, map[string]string{"a": "1"})
	require.NoError(t, err)

	progMu.RLock()
	_, cached := programs[expr]
	progMu.RUnlock()
	assert.True(t, cached)
}
