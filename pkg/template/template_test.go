package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRender_SubstitutesKnownKeys(t *testing.T) {
	ctx := map[string]any{
		"name":   "Bob",
		"amount": 500,
	}

	result := Render("Hello {name}, rent is {amount}", ctx)
	assert.Equal(t, "Hello Bob, rent is 500", result)
}

func TestRender_LeavesMissingKeysLiteral(t *testing.T) {
	ctx := map[string]any{"name": "Bob"}

	result := Render("Hello {name}, rent is {amount}", ctx)
	assert.Equal(t, "Hello Bob, rent is {amount}", result)
}

func TestRender_FloatValues(t *testing.T) {
	// Context values commonly arrive through JSON, so numbers are float64.
	ctx := map[string]any{"amount": 500.0, "rate": 2.5}

	result := Render("{amount} at {rate}%", ctx)
	assert.Equal(t, "500 at 2.5%", result)
}

func TestRender_EscapedBraces(t *testing.T) {
	ctx := map[string]any{"name": "Bob"}

	result := Render("{{literal}} and {name}", ctx)
	assert.Equal(t, "{literal} and Bob", result)

	result = Render("a {{ b }} c", ctx)
	assert.Equal(t, "a { b } c", result)
}

func TestRender_NoRecursiveResolution(t *testing.T) {
	ctx := map[string]any{
		"outer": "{inner}",
		"inner": "should not appear",
	}

	result := Render("{outer}", ctx)
	assert.Equal(t, "{inner}", result)
}

func TestRender_UnterminatedPlaceholder(t *testing.T) {
	ctx := map[string]any{"name": "Bob"}

	result := Render("Hello {name", ctx)
	assert.Equal(t, "Hello {name", result)
}

func TestRender_NoPlaceholders(t *testing.T) {
	result := Render("plain text", map[string]any{"key": "value"})
	assert.Equal(t, "plain text", result)

	result = Render("", map[string]any{})
	assert.Equal(t, "", result)
}

func TestRenderConfig_RendersStringsAndNestedMaps(t *testing.T) {
	ctx := map[string]any{"tenant": "Alice", "unit": 12}

	config := map[string]any{
		"subject": "Notice for {tenant}",
		"level":   3,
		"fields": map[string]any{
			"unit": "unit {unit}",
		},
	}

	rendered := RenderConfig(config, ctx)

	assert.Equal(t, "Notice for Alice", rendered["subject"])
	assert.Equal(t, 3, rendered["level"])

	fields, ok := rendered["fields"].(map[string]any)
	assert.True(t, ok)
	assert.Equal(t, "unit 12", fields["unit"])

	// Original config is untouched.
	assert.Equal(t, "Notice for {tenant}", config["subject"])
}

func TestStringify(t *testing.T) {
	assert.Equal(t, "500", Stringify(500))
	assert.Equal(t, "500", Stringify(500.0))
	assert.Equal(t, "2.5", Stringify(2.5))
	assert.Equal(t, "true", Stringify(true))
	assert.Equal(t, "text", Stringify("text"))
	assert.Equal(t, "", Stringify(nil))
}
