// Package convert translates field names between the wire format's
// lowerCamelCase and the local snake_case convention.
package convert

import "github.com/iancoleman/strcase"

// FieldName converts a single wire field name to the local convention.
func FieldName(name string) string {
	return strcase.ToSnake(name)
}

// ToWire returns a copy of v with all map keys converted to
// lowerCamelCase, recursing through nested maps and slices.
func ToWire(v any) any {
	return mapKeys(v, strcase.ToLowerCamel)
}

// ToLocal returns a copy of v with all map keys converted to snake_case,
// recursing through nested maps and slices.
func ToLocal(v any) any {
	return mapKeys(v, strcase.ToSnake)
}

func mapKeys(v any, fn func(string) string) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fn(k)] = mapKeys(val, fn)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = mapKeys(val, fn)
		}
		return out
	default:
		return v
	}
}
