// ABOUTME: Cobra command tree and viper bindings shared by every subcommand
// ABOUTME: Global flags: --address, --verbose and --config

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/enapter/mcp-server/internal/config"
)

const envHTTPAPIToken = "ENAPTER_HTTP_API_TOKEN"

// app carries state shared by the subcommands of one invocation.
type app struct {
	v          *viper.Viper
	configPath string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "enapter-mcp-server",
		Short:         "MCP server for the Enapter energy management platform",
		Long:          "enapter-mcp-server exposes Enapter sites, devices, blueprints and telemetry as read-only MCP tools.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			v, err := config.NewViper()
			if err != nil {
				return err
			}
			if err := v.BindEnv("http_api_token", envHTTPAPIToken); err != nil {
				return fmt.Errorf("binding %s: %w", envHTTPAPIToken, err)
			}
			if err := v.BindPFlag("server.address", cmd.Flags().Lookup("address")); err != nil {
				return fmt.Errorf("binding --address: %w", err)
			}
			if f := cmd.Flags().Lookup("enapter-http-api-url"); f != nil {
				if err := v.BindPFlag("enapter.http_api_url", f); err != nil {
					return fmt.Errorf("binding --enapter-http-api-url: %w", err)
				}
			}
			a.v = v
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringP("address", "a", config.DefaultAddress, withEnv("server address", "server.address"))
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "enable verbose logging")
	flags.StringVar(&a.configPath, "config", "", "YAML or TOML config file")

	root.AddCommand(
		a.serveCmd(),
		a.pingCmd(),
		a.listToolsCmd(),
		a.callToolCmd(),
		versionCmd(),
	)
	return root
}

// withEnv appends the environment variable bound to key to a flag usage.
func withEnv(usage, key string) string {
	return fmt.Sprintf("%s (env %s)", usage, config.EnvNames()[key])
}

// mcpURL is the MCP endpoint of the server at the configured address.
func (a *app) mcpURL() string {
	return fmt.Sprintf("http://%s/mcp", a.v.GetString("server.address"))
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
}
