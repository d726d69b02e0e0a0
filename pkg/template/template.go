// Package template renders {key} placeholders against a flat context map.
//
// The substitution rules are deliberately simple: a placeholder whose key is
// present in the context is replaced with the stringified value; a
// placeholder whose key is absent is left untouched; "{{" and "}}" escape
// literal braces. There is no recursive resolution and no nested value
// support.
package template

import (
	"fmt"
	"strconv"
	"strings"
)

// Render substitutes every {key} placeholder in tmpl using ctx. The input is
// scanned once; replaced values are never re-scanned for placeholders.
func Render(tmpl string, ctx map[string]any) string {
	if tmpl == "" || !strings.ContainsAny(tmpl, "{}") {
		return tmpl
	}

	var b strings.Builder

	b.Grow(len(tmpl))

	for i := 0; i < len(tmpl); {
		switch tmpl[i] {
		case '{':
			if i+1 < len(tmpl) && tmpl[i+1] == '{' {
				b.WriteByte('{')
				i += 2

				continue
			}

			end := strings.IndexByte(tmpl[i+1:], '}')
			if end < 0 {
				b.WriteString(tmpl[i:])

				return b.String()
			}

			key := tmpl[i+1 : i+1+end]
			if value, ok := ctx[key]; ok {
				b.WriteString(Stringify(value))
			} else {
				b.WriteString(tmpl[i : i+2+end])
			}

			i += end + 2
		case '}':
			if i+1 < len(tmpl) && tmpl[i+1] == '}' {
				b.WriteByte('}')
				i += 2

				continue
			}

			b.WriteByte('}')
			i++
		default:
			b.WriteByte(tmpl[i])
			i++
		}
	}

	return b.String()
}

// RenderConfig renders every string value of an action config in place of a
// copy; non-string values pass through unchanged. Nested maps are rendered
// recursively so templated headers and filters work.
func RenderConfig(config, ctx map[string]any) map[string]any {
	if config == nil {
		return nil
	}

	out := make(map[string]any, len(config))

	for key, value := range config {
		switch v := value.(type) {
		case string:
			out[key] = Render(v, ctx)
		case map[string]any:
			out[key] = RenderConfig(v, ctx)
		default:
			out[key] = value
		}
	}

	return out
}

// Stringify converts a scalar context value to its template form. Floats
// holding whole numbers render without a decimal point, so an amount of 500
// substitutes as "500" and not "500.000000".
func Stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	default:
		return fmt.Sprintf("%v", v)
	}
}
