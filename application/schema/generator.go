// Package schema provides JSON schema generation for plugin options.
package schema

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/invopop/jsonschema"
)

// GenerateSchema creates a JSON schema from a plugin's options struct.
// It uses the `invopop/jsonschema` library to reflect on the struct and
// generate a standard JSON Schema (Draft 2020-12). Every option reaches the
// plugin as a string, so fields tagged json:",string" are documented with
// their Go type and the string encoding is implied.
//
// A nil value yields an empty schema.
func GenerateSchema(v any) ([]byte, error) {
	if v == nil {
		return []byte("{}"), nil
	}
	reflector := jsonschema.Reflector{
		ExpandedStruct:            true, // Expand struct definitions inline
		AllowAdditionalProperties: true, // Reserved sdk_ options share the namespace
		DoNotReference:            true,
	}
	schema := reflector.Reflect(v)

	jsonBytes, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}

	return jsonBytes, nil
}

// Usage renders a one-line summary of the options, e.g.
// "output=<string> max_size=<integer>". It is printed when open reports a
// usage error.
func Usage(v any) string {
	if v == nil {
		return ""
	}
	reflector := jsonschema.Reflector{ExpandedStruct: true, DoNotReference: true}
	s := reflector.Reflect(v)
	if s.Properties == nil {
		return ""
	}
	parts := make([]string, 0, s.Properties.Len())
	for pair := s.Properties.Oldest(); pair != nil; pair = pair.Next() {
		typ := pair.Value.Type
		if typ == "" {
			typ = "value"
		}
		parts = append(parts, pair.Key+"=<"+typ+">")
	}
	return strings.Join(parts, " ")
}
