// ABOUTME: Input schema construction for tool argument structs
// ABOUTME: Schemas are inferred from Go types, then annotated with defaults and enums

package mcp

import (
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
)

// schemaOption adjusts one property of an inferred schema.
type schemaOption func(*jsonschema.Schema) error

// withDefault records the value used when the property is omitted.
func withDefault(property string, value any) schemaOption {
	return func(s *jsonschema.Schema) error {
		prop, err := lookupProperty(s, property)
		if err != nil {
			return err
		}
		raw, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("encode default of %s: %w", property, err)
		}
		prop.Default = raw
		return nil
	}
}

// withEnum restricts the property to values.
func withEnum[T ~string](property string, values []T) schemaOption {
	return func(s *jsonschema.Schema) error {
		prop, err := lookupProperty(s, property)
		if err != nil {
			return err
		}
		prop.Enum = make([]any, 0, len(values)+1)
		for _, v := range values {
			prop.Enum = append(prop.Enum, string(v))
		}
		// Pointer fields are nullable; null must stay acceptable.
		if len(prop.Types) > 0 {
			prop.Enum = append(prop.Enum, nil)
		}
		return nil
	}
}

// withFormat sets a string format such as date-time.
func withFormat(property, format string) schemaOption {
	return func(s *jsonschema.Schema) error {
		prop, err := lookupProperty(s, property)
		if err != nil {
			return err
		}
		prop.Format = format
		return nil
	}
}

func lookupProperty(s *jsonschema.Schema, property string) (*jsonschema.Schema, error) {
	prop, ok := s.Properties[property]
	if !ok || prop == nil {
		return nil, fmt.Errorf("schema has no property %q", property)
	}
	return prop, nil
}

// inputSchema infers the schema of In and applies opts.
func inputSchema[In any](opts ...schemaOption) (*jsonschema.Schema, error) {
	schema, err := jsonschema.For[In](nil)
	if err != nil {
		return nil, fmt.Errorf("infer input schema: %w", err)
	}
	for _, opt := range opts {
		if err := opt(schema); err != nil {
			return nil, err
		}
	}
	return schema, nil
}
