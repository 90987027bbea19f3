// ABOUTME: Tests for the command tree, logger setup and the client commands
// ABOUTME: Client commands run against an in-process server and a fake Enapter API

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/enapter/mcp-server/internal/auth"
	"github.com/enapter/mcp-server/internal/config"
	"github.com/enapter/mcp-server/internal/enapter"
	"github.com/enapter/mcp-server/internal/mcp"
	"github.com/enapter/mcp-server/internal/server"
	"github.com/enapter/mcp-server/internal/tools"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
		"":      slog.LevelInfo,
		"loud":  slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, parseLevel(in), in)
	}
}

func TestColorHandler(t *testing.T) {
	noColor := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = noColor })

	var buf bytes.Buffer
	logger := newLogger(config.LoggingConfig{Level: "info", Format: "text"}, &buf)

	logger.Debug("hidden")
	logger.With("component", "mcp").Info("tool call", "tool", "search_sites")
	logger.WithGroup("req").Warn("slow", "ms", 1200)
	logger.Error("boom")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "INF tool call component=mcp tool=search_sites")
	assert.Contains(t, lines[1], "WRN slow req.ms=1200")
	assert.Contains(t, lines[2], "ERR boom")
	assert.NotContains(t, buf.String(), "hidden")
}

func TestNewLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(config.LoggingConfig{Level: "debug", Format: "json"}, &buf)
	logger.Debug("hello", "k", "v")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "DEBUG", entry["level"])
	assert.Equal(t, "hello", entry["msg"])
	assert.Equal(t, "v", entry["k"])
}

func TestParseArguments(t *testing.T) {
	args, err := parseArguments(`{"site_id":"s1","limit":5}`)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"site_id": "s1", "limit": float64(5)}, args)

	args, err = parseArguments("null")
	require.NoError(t, err)
	assert.Empty(t, args)

	_, err = parseArguments("{not json")
	assert.ErrorContains(t, err, "--arguments")

	_, err = parseArguments(`["a"]`)
	assert.Error(t, err)
}

// execute runs the command tree with args and returns its stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestVersionCmd(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, version+"\n", out)
}

func TestFlagUsageNamesEnvironment(t *testing.T) {
	root := newRootCmd()
	assert.Contains(t, root.PersistentFlags().Lookup("address").Usage, "ENAPTER_MCP_SERVER_ADDRESS")

	serve, _, err := root.Find([]string{"serve"})
	require.NoError(t, err)
	assert.Contains(t, serve.Flags().Lookup("enapter-http-api-url").Usage, "ENAPTER_HTTP_API_URL")
}

func TestUnknownCommand(t *testing.T) {
	_, err := execute(t, "frobnicate")
	assert.Error(t, err)
}

func TestCallToolCmd_RequiresName(t *testing.T) {
	_, err := execute(t, "call_tool")
	assert.Error(t, err)
}

// startServer runs the full HTTP stack in header mode against a fake
// upstream and returns its host:port.
func startServer(t *testing.T) string {
	t.Helper()

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get(auth.HeaderAuthToken) != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if r.URL.Path != "/v3/sites" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, `{"sites":[{"id":"site-001","name":"Production Site","timezone":"Europe/Berlin"}]}`)
	}))
	t.Cleanup(upstream.Close)

	service := tools.NewService(auth.HeaderResolver{}, tools.NewClientFactory(enapter.Config{BaseURL: upstream.URL}), nil)
	mcpServer, err := mcp.NewServer(mcp.Options{Service: service})
	require.NoError(t, err)
	srv, err := server.New(server.Options{Config: config.Default(), MCP: mcpServer})
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return strings.TrimPrefix(ts.URL, "http://")
}

func TestPingCmd(t *testing.T) {
	addr := startServer(t)

	out, err := execute(t, "-a", addr, "ping")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestPingCmd_NoServer(t *testing.T) {
	_, err := execute(t, "--address", "127.0.0.1:1", "ping")
	assert.Error(t, err)
}

func TestListToolsCmd(t *testing.T) {
	addr := startServer(t)

	out, err := execute(t, "-a", addr, "list_tools")
	require.NoError(t, err)
	for _, name := range mcp.ToolNames {
		assert.Contains(t, out, `"name": "`+name+`"`)
	}
}

func TestCallToolCmd(t *testing.T) {
	addr := startServer(t)
	t.Setenv(envHTTPAPIToken, "secret")

	out, err := execute(t, "-a", addr, "call_tool", "--arguments", `{"name_pattern":"Prod"}`, mcp.ToolSearchSites)
	require.NoError(t, err)

	var result struct {
		Result []map[string]any `json:"result"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	require.Len(t, result.Result, 1)
	assert.Equal(t, "site-001", result.Result[0]["id"])
}

func TestCallToolCmd_ToolError(t *testing.T) {
	addr := startServer(t)
	t.Setenv(envHTTPAPIToken, "")

	_, err := execute(t, "-a", addr, "call_tool", mcp.ToolSearchSites)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "auth error")
}

func TestAddressFromEnvironment(t *testing.T) {
	addr := startServer(t)
	t.Setenv("ENAPTER_MCP_SERVER_ADDRESS", addr)

	_, err := execute(t, "ping")
	assert.NoError(t, err)
}
