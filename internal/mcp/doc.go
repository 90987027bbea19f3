// ABOUTME: Package mcp binds the tool service to the Model Context Protocol runtime
// ABOUTME: Registers tools with schemas, maps failures to structured tool errors and dials servers

// Package mcp exposes the operations of package tools over the Model Context
// Protocol using the official Go SDK.
//
// # Tools
//
// Each tool is registered under a stable name with a description and an
// input schema derived from its argument struct. Optional arguments carry
// their defaults in the schema:
//
//   - search_sites(name_pattern=".*", timezone_pattern=".*", offset=0, limit=20)
//   - get_site_context(site_id)
//   - search_devices(site_id=null, type=null, name_pattern=".*", offset=0, limit=20)
//   - get_device_context(device_id)
//   - read_blueprint(device_id, section, name_pattern=".*", offset=0, limit=20)
//   - get_historical_telemetry(device_id, attributes, time_from, time_to, granularity=3600)
//   - get_latest_telemetry(device_id, attributes)
//
// Results are returned as JSON text content and as structured content. List
// results are wrapped as {"result": [...]} so structured content is always
// an object.
//
// # Errors
//
// A failing tool returns a result with isError set and a body of the form
//
//	{"error": {"kind": "validation", "message": "...", "status": 404}}
//
// where kind is one of validation, upstream, auth or internal and status is
// present only for upstream HTTP failures.
//
// Arguments that do not match the input schema (a wrong type, a value
// outside an enum, a missing required field) never reach a handler. The SDK
// rejects them with a JSON-RPC invalid params error (-32602). Arguments that
// are well typed but semantically wrong, such as a malformed regular
// expression or date-time, produce a validation tool error.
//
// # Client
//
// [Dial] connects to a running server over Streamable HTTP. It backs the
// ping, list_tools and call_tool commands.
package mcp
