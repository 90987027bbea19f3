// ABOUTME: MCP server construction and the Streamable HTTP handler
// ABOUTME: Wraps every tool call with header propagation, logging and error classification

package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/enapter/mcp-server/internal/auth"
	"github.com/enapter/mcp-server/internal/tools"
)

// ServerName is announced to clients at session start.
const ServerName = "Enapter MCP Server"

// Instructions tells connecting agents how the tools fit together.
const Instructions = `This server gives read-only access to sites, devices and telemetry of the Enapter energy management platform.

Start with search_sites to find a site, then get_site_context for its gateway and device counts.
Use search_devices to find devices, optionally within a site or of a given type.
get_device_context returns a device with its connectivity, declared properties, latest telemetry and a blueprint summary.
read_blueprint lists the declared properties, telemetry attributes or alerts of a device.
get_latest_telemetry and get_historical_telemetry read telemetry values; attribute names come from the telemetry section of the blueprint.

Search tools match regular expressions anywhere in the field, sort by id or name and paginate with offset and limit.`

// Options configure a Server.
type Options struct {
	Service *tools.Service
	Version string
	Logger  *slog.Logger
}

// ToolInfo describes one registered tool.
type ToolInfo struct {
	Name        string
	Description string
}

// Server exposes a tools.Service over MCP.
type Server struct {
	server  *mcpsdk.Server
	service *tools.Service
	logger  *slog.Logger
	tools   []ToolInfo
}

// NewServer creates a server with every tool registered.
func NewServer(opts Options) (*Server, error) {
	if opts.Service == nil {
		return nil, errors.New("tool service is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	version := opts.Version
	if version == "" {
		version = "dev"
	}

	s := &Server{
		server: mcpsdk.NewServer(&mcpsdk.Implementation{
			Name:    ServerName,
			Version: version,
		}, &mcpsdk.ServerOptions{
			Instructions: Instructions,
		}),
		service: opts.Service,
		logger:  logger.With("component", "mcp"),
	}
	if err := s.registerTools(); err != nil {
		return nil, fmt.Errorf("register tools: %w", err)
	}
	return s, nil
}

// MCPServer returns the underlying SDK server.
func (s *Server) MCPServer() *mcpsdk.Server {
	return s.server
}

// Tools lists the registered tools in registration order.
func (s *Server) Tools() []ToolInfo {
	return slices.Clone(s.tools)
}

// Handler serves the Streamable HTTP transport.
func (s *Server) Handler() http.Handler {
	return mcpsdk.NewStreamableHTTPHandler(func(*http.Request) *mcpsdk.Server {
		return s.server
	}, nil)
}

// addTool registers a tool whose arguments decode into In.
func addTool[In any](s *Server, name, description string, call func(context.Context, In) (any, error), opts ...schemaOption) error {
	schema, err := inputSchema[In](opts...)
	if err != nil {
		return fmt.Errorf("tool %s: %w", name, err)
	}

	mcpsdk.AddTool(s.server, &mcpsdk.Tool{
		Name:        name,
		Description: description,
		InputSchema: schema,
	}, func(ctx context.Context, req *mcpsdk.CallToolRequest, in In) (*mcpsdk.CallToolResult, any, error) {
		ctx = auth.WithHeaders(ctx, requestHeader(req))
		return s.invoke(ctx, name, func(ctx context.Context) (any, error) {
			return call(ctx, in)
		})
	})
	s.tools = append(s.tools, ToolInfo{Name: name, Description: description})
	return nil
}

// invoke runs one tool call and turns its outcome into a result.
func (s *Server) invoke(ctx context.Context, name string, call func(context.Context) (any, error)) (*mcpsdk.CallToolResult, any, error) {
	start := time.Now()
	out, err := call(ctx)
	duration := time.Since(start)

	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, nil, err
		}
		te := classify(err)
		s.logger.Warn("tool call failed",
			"tool", name,
			"kind", te.Kind,
			"duration", duration,
			"error", err,
		)
		return errorResult(te), nil, nil
	}

	data, err := json.Marshal(out)
	if err != nil {
		s.logger.Error("failed to encode tool result", "tool", name, "error", err)
		return errorResult(ToolError{Kind: KindInternal, Message: "failed to encode result"}), nil, nil
	}

	s.logger.Debug("tool call", "tool", name, "duration", duration)
	return &mcpsdk.CallToolResult{
		Content:           []mcpsdk.Content{&mcpsdk.TextContent{Text: string(data)}},
		StructuredContent: json.RawMessage(data),
	}, nil, nil
}

func requestHeader(req *mcpsdk.CallToolRequest) http.Header {
	if req == nil || req.Extra == nil {
		return nil
	}
	return req.Extra.Header
}
