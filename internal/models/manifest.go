// ABOUTME: Helpers over untyped device manifests: section access, declaration
// ABOUTME: conversion per section, declared names and the blueprint summary

package models

import (
	"fmt"
	"slices"
)

// BlueprintSummary is a count-only projection of a manifest.
type BlueprintSummary struct {
	Description              *string `json:"description"`
	Vendor                   *string `json:"vendor"`
	PropertiesTotal          int     `json:"properties_total"`
	TelemetryAttributesTotal int     `json:"telemetry_attributes_total"`
	AlertsTotal              int     `json:"alerts_total"`
}

// SummarizeManifest never fails; missing or malformed sections count as zero.
func SummarizeManifest(manifest map[string]any) BlueprintSummary {
	return BlueprintSummary{
		Description:              stringOrNil(manifest["description"]),
		Vendor:                   stringOrNil(manifest["vendor"]),
		PropertiesTotal:          len(section(manifest, SectionProperties)),
		TelemetryAttributesTotal: len(section(manifest, SectionTelemetry)),
		AlertsTotal:              len(section(manifest, SectionAlerts)),
	}
}

// DeclaredNames returns the entry names of a manifest section in ascending order.
func DeclaredNames(manifest map[string]any, s BlueprintSection) []string {
	entries := section(manifest, s)
	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// ReadSection converts every entry of one manifest section into its typed
// declaration. Order is unspecified.
func ReadSection(manifest map[string]any, s BlueprintSection) ([]Declaration, error) {
	if !slices.Contains(BlueprintSections, s) {
		return nil, fmt.Errorf("unhandled blueprint section %q", s)
	}

	entries := section(manifest, s)
	out := make([]Declaration, 0, len(entries))

	for name, raw := range entries {
		dto, ok := raw.(map[string]any)
		if !ok {
			return nil, Invalid(fmt.Sprintf("%s %s", s, name), nil, "declaration must be an object")
		}

		var (
			decl Declaration
			err  error
		)
		switch s {
		case SectionProperties:
			decl, err = PropertyDeclarationFromDTO(name, dto)
		case SectionTelemetry:
			decl, err = TelemetryAttributeDeclarationFromDTO(name, dto)
		case SectionAlerts:
			decl, err = AlertDeclarationFromDTO(name, dto)
		}
		if err != nil {
			return nil, err
		}
		out = append(out, decl)
	}
	return out, nil
}

func section(manifest map[string]any, s BlueprintSection) map[string]any {
	entries, _ := manifest[string(s)].(map[string]any)
	return entries
}

func stringOrNil(v any) *string {
	s, ok := v.(string)
	if !ok {
		return nil
	}
	return &s
}
