// Package models defines the public data model returned by the MCP tools.
//
// Every value is built fresh from upstream Enapter API data for a single tool
// invocation and is never mutated afterwards.
//
// # Conversions
//
// Conversion functions translate upstream DTOs into the public model:
//
//	site := SiteFromUpstream(upstreamSite)
//	device, err := DeviceFromUpstream(upstreamDevice)
//	decls, err := ReadSection(manifest, SectionProperties)
//	summary := SummarizeManifest(manifest)
//
// Manifests are untyped nested mappings. Each declaration field is extracted
// explicitly; optional fields that are missing become JSON null.
//
// # Validation
//
// Unknown enum values and malformed required fields fail with a
// *ValidationError, which matches ErrValidation under errors.Is. Values are
// never coerced into a partially valid object.
package models
