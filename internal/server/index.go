// ABOUTME: Index page: a markdown overview of the server rendered to HTML
// ABOUTME: Lists the MCP endpoint, the authentication mode and every registered tool

package server

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"github.com/yuin/goldmark"

	"github.com/enapter/mcp-server/internal/auth"
	"github.com/enapter/mcp-server/internal/mcp"
)

type indexData struct {
	Name    string
	LogoURL string
	MCPPath string
	OAuth   bool
	Tools   []mcp.ToolInfo
}

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: system-ui, sans-serif; max-width: 48rem; margin: 2rem auto; padding: 0 1rem; line-height: 1.5; }
code { background: #f2f2f2; padding: 0 .25rem; }
img.logo { max-height: 4rem; }
</style>
</head>
<body>
{{if .LogoURL}}<img class="logo" src="{{.LogoURL}}" alt="{{.Title}}">{{end}}
{{.Body}}
</body>
</html>
`))

func indexMarkdown(d indexData) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", d.Name)
	b.WriteString("Read-only access to sites, devices and telemetry of the Enapter energy management platform over the Model Context Protocol.\n\n")

	b.WriteString("## Connecting\n\n")
	fmt.Fprintf(&b, "MCP clients connect with the Streamable HTTP transport at `%s`.\n\n", d.MCPPath)
	if d.OAuth {
		b.WriteString("Authentication uses OAuth. Clients discover the authorization server from `/.well-known/oauth-protected-resource`.\n\n")
	} else {
		fmt.Fprintf(&b, "Every request must carry an `%s` or `%s` header.\n\n", auth.HeaderAuthToken, auth.HeaderAuthUser)
	}

	b.WriteString("## Tools\n\n")
	for _, tool := range d.Tools {
		fmt.Fprintf(&b, "- `%s`: %s\n", tool.Name, tool.Description)
	}
	return b.String()
}

func renderIndex(d indexData) ([]byte, error) {
	var body bytes.Buffer
	if err := goldmark.Convert([]byte(indexMarkdown(d)), &body); err != nil {
		return nil, fmt.Errorf("converting markdown: %w", err)
	}

	var page bytes.Buffer
	err := indexTemplate.Execute(&page, struct {
		Title   string
		LogoURL string
		Body    template.HTML
	}{
		Title:   d.Name,
		LogoURL: d.LogoURL,
		Body:    template.HTML(body.String()),
	})
	if err != nil {
		return nil, err
	}
	return page.Bytes(), nil
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(s.index)
}
