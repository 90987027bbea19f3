// ABOUTME: Typed blueprint declarations (property, telemetry attribute, alert)
// ABOUTME: Built by explicit field extraction from untyped manifest mappings

package models

import (
	"fmt"
	"slices"
)

// Declaration is any named entry of a blueprint section.
type Declaration interface {
	DeclarationName() string
}

// PropertyDeclaration describes device metadata that stays constant during
// normal operation, such as firmware_version.
type PropertyDeclaration struct {
	Name        string   `json:"name"`
	DataType    DataType `json:"data_type"`
	Description *string  `json:"description"`
	Enum        []string `json:"enum"`
	Unit        *string  `json:"unit"`
}

func (d PropertyDeclaration) DeclarationName() string { return d.Name }

// TelemetryAttributeDeclaration describes a measurement that changes during
// operation, such as temperature.
type TelemetryAttributeDeclaration struct {
	Name        string   `json:"name"`
	DataType    DataType `json:"data_type"`
	Description *string  `json:"description"`
	Enum        []string `json:"enum"`
	Unit        *string  `json:"unit"`
}

func (d TelemetryAttributeDeclaration) DeclarationName() string { return d.Name }

// AlertDeclaration describes a notification condition.
type AlertDeclaration struct {
	Name            string        `json:"name"`
	Severity        AlertSeverity `json:"severity"`
	Description     *string       `json:"description"`
	Troubleshooting []string      `json:"troubleshooting"`
	Components      []string      `json:"components"`
	Conditions      []string      `json:"conditions"`
}

func (d AlertDeclaration) DeclarationName() string { return d.Name }

// PropertyDeclarationFromDTO reads "type", "description", "enum" and "unit".
func PropertyDeclarationFromDTO(name string, dto map[string]any) (PropertyDeclaration, error) {
	field := fieldReader{prefix: "property " + name, dto: dto}

	rawType, err := field.required("type")
	if err != nil {
		return PropertyDeclaration{}, err
	}
	dataType, err := ParsePropertyDataType(rawType)
	if err != nil {
		return PropertyDeclaration{}, err
	}

	decl := PropertyDeclaration{Name: name, DataType: dataType}
	if decl.Description, err = field.optionalString("description"); err != nil {
		return PropertyDeclaration{}, err
	}
	if decl.Enum, err = field.enum(); err != nil {
		return PropertyDeclaration{}, err
	}
	if decl.Unit, err = field.optionalString("unit"); err != nil {
		return PropertyDeclaration{}, err
	}
	return decl, nil
}

// TelemetryAttributeDeclarationFromDTO mirrors PropertyDeclarationFromDTO but
// also accepts the "alerts" data type.
func TelemetryAttributeDeclarationFromDTO(name string, dto map[string]any) (TelemetryAttributeDeclaration, error) {
	field := fieldReader{prefix: "telemetry attribute " + name, dto: dto}

	rawType, err := field.required("type")
	if err != nil {
		return TelemetryAttributeDeclaration{}, err
	}
	dataType, err := ParseTelemetryDataType(rawType)
	if err != nil {
		return TelemetryAttributeDeclaration{}, err
	}

	decl := TelemetryAttributeDeclaration{Name: name, DataType: dataType}
	if decl.Description, err = field.optionalString("description"); err != nil {
		return TelemetryAttributeDeclaration{}, err
	}
	if decl.Enum, err = field.enum(); err != nil {
		return TelemetryAttributeDeclaration{}, err
	}
	if decl.Unit, err = field.optionalString("unit"); err != nil {
		return TelemetryAttributeDeclaration{}, err
	}
	return decl, nil
}

// AlertDeclarationFromDTO reads "severity" and the optional descriptive lists.
func AlertDeclarationFromDTO(name string, dto map[string]any) (AlertDeclaration, error) {
	field := fieldReader{prefix: "alert " + name, dto: dto}

	rawSeverity, err := field.required("severity")
	if err != nil {
		return AlertDeclaration{}, err
	}
	severity, err := ParseAlertSeverity(rawSeverity)
	if err != nil {
		return AlertDeclaration{}, err
	}

	decl := AlertDeclaration{Name: name, Severity: severity}
	if decl.Description, err = field.optionalString("description"); err != nil {
		return AlertDeclaration{}, err
	}
	if decl.Troubleshooting, err = field.optionalStrings("troubleshooting"); err != nil {
		return AlertDeclaration{}, err
	}
	if decl.Components, err = field.optionalStrings("components"); err != nil {
		return AlertDeclaration{}, err
	}
	if decl.Conditions, err = field.optionalStrings("conditions"); err != nil {
		return AlertDeclaration{}, err
	}
	return decl, nil
}

// fieldReader extracts typed fields from a declaration DTO. A JSON null is
// treated the same as a missing key.
type fieldReader struct {
	prefix string
	dto    map[string]any
}

func (r fieldReader) name(key string) string {
	return r.prefix + " " + key
}

func (r fieldReader) required(key string) (string, error) {
	raw, ok := r.dto[key]
	if !ok || raw == nil {
		return "", Invalid(r.name(key), nil, "field is required")
	}
	s, ok := raw.(string)
	if !ok {
		return "", Invalid(r.name(key), raw, "must be a string")
	}
	return s, nil
}

func (r fieldReader) optionalString(key string) (*string, error) {
	raw, ok := r.dto[key]
	if !ok || raw == nil {
		return nil, nil
	}
	s, ok := raw.(string)
	if !ok {
		return nil, Invalid(r.name(key), raw, "must be a string")
	}
	return &s, nil
}

func (r fieldReader) optionalStrings(key string) ([]string, error) {
	raw, ok := r.dto[key]
	if !ok || raw == nil {
		return nil, nil
	}
	items, ok := raw.([]any)
	if !ok {
		return nil, Invalid(r.name(key), raw, "must be a list of strings")
	}
	out := make([]string, 0, len(items))
	for i, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, Invalid(fmt.Sprintf("%s[%d]", r.name(key), i), item, "must be a string")
		}
		out = append(out, s)
	}
	return out, nil
}

// enum accepts either a list of allowed values or a mapping keyed by them;
// mapping keys are returned in ascending order.
func (r fieldReader) enum() ([]string, error) {
	raw, ok := r.dto["enum"]
	if !ok || raw == nil {
		return nil, nil
	}
	if m, ok := raw.(map[string]any); ok {
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		return keys, nil
	}
	return r.optionalStrings("enum")
}
