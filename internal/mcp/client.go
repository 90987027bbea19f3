// ABOUTME: Streamable HTTP client for a running server, used by the CLI commands
// ABOUTME: Forwards Enapter credentials as request headers when they are given

package mcp

import (
	"context"
	"fmt"
	"net/http"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/enapter/mcp-server/internal/auth"
)

// ClientOptions configure Dial.
type ClientOptions struct {
	// AuthToken and AuthUser are sent as Enapter auth headers when non-empty.
	AuthToken string
	AuthUser  string
	// HTTPClient is the base client; its transport is wrapped to add headers.
	HTTPClient *http.Client
	Version    string
}

// Client is a connected MCP client session.
type Client struct {
	session *mcpsdk.ClientSession
}

// Dial connects to the MCP endpoint at url.
func Dial(ctx context.Context, url string, opts ClientOptions) (*Client, error) {
	base := opts.HTTPClient
	if base == nil {
		base = http.DefaultClient
	}
	headers := http.Header{}
	if opts.AuthToken != "" {
		headers.Set(auth.HeaderAuthToken, opts.AuthToken)
	}
	if opts.AuthUser != "" {
		headers.Set(auth.HeaderAuthUser, opts.AuthUser)
	}

	httpClient := *base
	httpClient.Transport = &headerTransport{base: base.Transport, headers: headers}

	version := opts.Version
	if version == "" {
		version = "dev"
	}
	client := mcpsdk.NewClient(&mcpsdk.Implementation{Name: "enapter-mcp-client", Version: version}, nil)
	session, err := client.Connect(ctx, &mcpsdk.StreamableClientTransport{
		Endpoint:   url,
		HTTPClient: &httpClient,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", url, err)
	}
	return &Client{session: session}, nil
}

// Ping checks that the server answers.
func (c *Client) Ping(ctx context.Context) error {
	return c.session.Ping(ctx, nil)
}

// ListTools returns every tool the server registers.
func (c *Client) ListTools(ctx context.Context) ([]*mcpsdk.Tool, error) {
	var out []*mcpsdk.Tool
	for tool, err := range c.session.Tools(ctx, nil) {
		if err != nil {
			return nil, err
		}
		out = append(out, tool)
	}
	return out, nil
}

// CallTool invokes one tool. A failing tool is not an error here; inspect
// the result's IsError, or use DecodeToolError.
func (c *Client) CallTool(ctx context.Context, name string, arguments map[string]any) (*mcpsdk.CallToolResult, error) {
	return c.session.CallTool(ctx, &mcpsdk.CallToolParams{
		Name:      name,
		Arguments: arguments,
	})
}

// Close ends the session.
func (c *Client) Close() error {
	return c.session.Close()
}

// headerTransport adds fixed headers to every request.
type headerTransport struct {
	base    http.RoundTripper
	headers http.Header
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	if len(t.headers) == 0 {
		return base.RoundTrip(req)
	}
	req = req.Clone(req.Context())
	for k, vs := range t.headers {
		req.Header[k] = vs
	}
	return base.RoundTrip(req)
}
