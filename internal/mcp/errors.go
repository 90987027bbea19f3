// ABOUTME: Maps tool failures onto structured, kind-tagged tool error results
// ABOUTME: Validation, upstream, auth and internal failures stay distinguishable for clients

package mcp

import (
	"encoding/json"
	"errors"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/enapter/mcp-server/internal/auth"
	"github.com/enapter/mcp-server/internal/enapter"
	"github.com/enapter/mcp-server/internal/models"
	"github.com/enapter/mcp-server/internal/tools"
)

// ErrorKind tells clients which side a failure came from.
type ErrorKind string

const (
	KindValidation ErrorKind = "validation"
	KindUpstream   ErrorKind = "upstream"
	KindAuth       ErrorKind = "auth"
	KindInternal   ErrorKind = "internal"
)

// ToolError is the body of a failed tool result.
type ToolError struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
	Status  int       `json:"status,omitempty"`
}

type toolErrorBody struct {
	Error ToolError `json:"error"`
}

// classify determines the kind of a tool failure. Auth is checked first so a
// rejected caller never looks like an upstream outage.
func classify(err error) ToolError {
	te := ToolError{Kind: KindInternal, Message: err.Error()}

	var apiErr *enapter.Error
	switch {
	case errors.Is(err, auth.ErrUnauthorized):
		te.Kind = KindAuth
	case errors.Is(err, models.ErrValidation):
		te.Kind = KindValidation
	case errors.As(err, &apiErr):
		te.Kind = KindUpstream
		te.Status = apiErr.StatusCode
	case errors.Is(err, tools.ErrContract):
		te.Kind = KindUpstream
	}
	return te
}

// errorResult builds the isError result for err.
func errorResult(te ToolError) *mcpsdk.CallToolResult {
	body := toolErrorBody{Error: te}
	data, err := json.Marshal(body)
	if err != nil {
		data = []byte(`{"error":{"kind":"internal","message":"failed to encode error"}}`)
	}
	return &mcpsdk.CallToolResult{
		Content:           []mcpsdk.Content{&mcpsdk.TextContent{Text: string(data)}},
		StructuredContent: json.RawMessage(data),
		IsError:           true,
	}
}

// DecodeToolError extracts the structured error of a failed result. It
// reports false when the result is not a tool error produced by this server.
func DecodeToolError(res *mcpsdk.CallToolResult) (ToolError, bool) {
	if res == nil || !res.IsError || len(res.Content) == 0 {
		return ToolError{}, false
	}
	text, ok := res.Content[0].(*mcpsdk.TextContent)
	if !ok {
		return ToolError{}, false
	}
	var body toolErrorBody
	if err := json.Unmarshal([]byte(text.Text), &body); err != nil || body.Error.Kind == "" {
		return ToolError{}, false
	}
	return body.Error, true
}
