// Package server runs the HTTP front of enapter-mcp-server.
//
// The router serves:
//
//	GET  /         markdown overview of the server and its tools
//	GET  /healthz  liveness
//	*    /mcp      MCP Streamable HTTP transport
//
// When the OAuth proxy is enabled its discovery, registration and token
// endpoints are mounted on the same router and /mcp requires a bearer token.
//
// Serve stops accepting connections when its context is canceled and waits
// up to server.shutdown_timeout for in-flight requests before closing them.
package server
