// ABOUTME: Package tools implements the read-only tool handlers behind the MCP surface
// ABOUTME: Each call resolves credentials, opens a scoped upstream client and shapes the result

// Package tools implements the operations exposed to MCP clients.
//
// A [Service] turns tool arguments into upstream Enapter API calls and
// normalizes the answers into the public model from package models. Every
// call resolves the caller's credentials through an [auth.Resolver], opens a
// fresh upstream client scoped to those credentials and closes it on every
// exit path.
//
// Search-style operations share one contract: regular expressions are
// matched anywhere in the field (search, not full match), results are sorted
// ascending by id or declaration name, and the page is the half-open range
// [offset, offset+limit) of the sorted, filtered list.
package tools
