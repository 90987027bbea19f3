// ABOUTME: Client companion commands: ping, list_tools and call_tool
// ABOUTME: Connect to a running server over Streamable HTTP at --address

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/enapter/mcp-server/internal/mcp"
)

func (a *app) dial(ctx context.Context, opts mcp.ClientOptions) (*mcp.Client, error) {
	opts.Version = version
	return mcp.Dial(ctx, a.mcpURL(), opts)
}

func (a *app) pingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check that a running server answers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.dial(cmd.Context(), mcp.ClientOptions{})
			if err != nil {
				return err
			}
			defer client.Close()
			return client.Ping(cmd.Context())
		},
	}
}

func (a *app) listToolsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list_tools",
		Short: "Print every tool a running server registers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.dial(cmd.Context(), mcp.ClientOptions{})
			if err != nil {
				return err
			}
			defer client.Close()

			tools, err := client.ListTools(cmd.Context())
			if err != nil {
				return fmt.Errorf("listing tools: %w", err)
			}
			for _, tool := range tools {
				if err := printJSON(cmd.OutOrStdout(), tool); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func (a *app) callToolCmd() *cobra.Command {
	var arguments string

	cmd := &cobra.Command{
		Use:   "call_tool NAME",
		Short: "Call one tool on a running server",
		Long: "Call one tool on a running server. The Enapter API token is read from " +
			envHTTPAPIToken + " and sent as the X-Enapter-Auth-Token header.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := parseArguments(arguments)
			if err != nil {
				return err
			}

			client, err := a.dial(cmd.Context(), mcp.ClientOptions{
				AuthToken: a.v.GetString("http_api_token"),
			})
			if err != nil {
				return err
			}
			defer client.Close()

			res, err := client.CallTool(cmd.Context(), args[0], parsed)
			if err != nil {
				return fmt.Errorf("calling %s: %w", args[0], err)
			}
			if te, ok := mcp.DecodeToolError(res); ok {
				return fmt.Errorf("tool %s failed: %s error: %s", args[0], te.Kind, te.Message)
			}
			if res.IsError {
				return fmt.Errorf("tool %s failed", args[0])
			}
			if res.StructuredContent != nil {
				return printJSON(cmd.OutOrStdout(), res.StructuredContent)
			}
			return printJSON(cmd.OutOrStdout(), res.Content)
		},
	}
	cmd.Flags().StringVar(&arguments, "arguments", "{}", "arguments to pass to the tool in JSON format")
	return cmd
}

// parseArguments decodes the --arguments JSON object.
func parseArguments(s string) (map[string]any, error) {
	var out map[string]any
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil, fmt.Errorf("parsing --arguments: %w", err)
	}
	if out == nil {
		out = map[string]any{}
	}
	return out, nil
}

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
