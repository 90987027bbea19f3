// ABOUTME: serve command: loads configuration and runs the MCP HTTP server
// ABOUTME: Chooses header or OAuth proxy authentication from the config

package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/enapter/mcp-server/internal/auth"
	"github.com/enapter/mcp-server/internal/config"
	"github.com/enapter/mcp-server/internal/enapter"
	"github.com/enapter/mcp-server/internal/kvstore"
	"github.com/enapter/mcp-server/internal/mcp"
	"github.com/enapter/mcp-server/internal/server"
	"github.com/enapter/mcp-server/internal/tools"
)

func (a *app) serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runServe(cmd.Context())
		},
	}
	cmd.Flags().StringP("enapter-http-api-url", "u", config.DefaultHTTPAPIURL, withEnv("URL of Enapter HTTP API", "enapter.http_api_url"))
	return cmd
}

func (a *app) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(a.configPath, config.FromViper(a.v))
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if a.verbose {
		cfg.Logging.Level = "debug"
	}
	return cfg, nil
}

func (a *app) runServe(ctx context.Context) error {
	cyan := color.New(color.FgCyan)
	cyan.Print(banner)

	gray := color.New(color.FgHiBlack)
	gray.Printf("    version: %s\n\n", version)

	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Logging)

	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)

	if a.configPath != "" {
		green.Print("    ▶ ")
		fmt.Printf("Config:    %s\n", a.configPath)
	}
	green.Print("    ▶ ")
	fmt.Printf("MCP:       http://%s%s\n", cfg.Server.Address, server.MCPPath)
	green.Print("    ▶ ")
	fmt.Printf("Enapter:   %s\n", cfg.Enapter.HTTPAPIURL)
	green.Print("    ▶ ")
	fmt.Printf("Auth:      ")
	if cfg.OAuthProxy.Enabled {
		cyan.Print("oauth proxy")
		gray.Printf(" (%s)", cfg.OAuthProxy.ProtectedResourceURL)
	} else {
		yellow.Print("headers")
	}
	fmt.Println()
	fmt.Println()

	logger.Info("starting enapter-mcp-server",
		"version", version,
		"address", cfg.Server.Address,
		"enapter_http_api_url", cfg.Enapter.HTTPAPIURL,
		"oauth_proxy", cfg.OAuthProxy.Enabled,
	)

	var (
		resolver auth.Resolver = auth.HeaderResolver{}
		proxy    *auth.OAuthProxy
	)
	if cfg.OAuthProxy.Enabled {
		store, err := kvstore.Open(cfg.OAuthProxy.JWTStoreURL)
		if err != nil {
			return fmt.Errorf("opening token store: %w", err)
		}
		defer func() {
			if err := store.Close(); err != nil {
				logger.Error("closing token store", "error", err)
			}
		}()

		proxy, err = auth.NewOAuthProxy(cfg.OAuthProxy, store, auth.ProxyOptions{
			ResourcePath: server.MCPPath,
			Logger:       logger,
		})
		if err != nil {
			return fmt.Errorf("creating OAuth proxy: %w", err)
		}
		resolver = proxy
	}

	service := tools.NewService(resolver, tools.NewClientFactory(enapter.Config{
		BaseURL: cfg.Enapter.HTTPAPIURL,
		Timeout: cfg.Enapter.Timeout,
	}), logger)

	mcpServer, err := mcp.NewServer(mcp.Options{
		Service: service,
		Version: version,
		Logger:  logger,
	})
	if err != nil {
		return fmt.Errorf("creating MCP server: %w", err)
	}

	srv, err := server.New(server.Options{
		Config: cfg,
		MCP:    mcpServer,
		Proxy:  proxy,
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	return srv.Run(ctx)
}
