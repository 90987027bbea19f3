// ABOUTME: Entry point for enapter-mcp-server
// ABOUTME: Serves Enapter sites, devices and telemetry to MCP clients, plus client companion commands

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

// Version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

const banner = `
                          _
  ___ _ __   __ _ _ __ | |_ ___ _ __       _ __ ___   ___ _ __
 / _ \ '_ \ / _' | '_ \| __/ _ \ '__|____| '_ ' _ \ / __| '_ \
|  __/ | | | (_| | |_) | ||  __/ | |_____| | | | | | (__| |_) |
 \___|_| |_|\__,_| .__/ \__\___|_|       |_| |_| |_|\___| .__/
                 |_|                                    |_|
`

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		cancel()
		os.Exit(1)
	}
}
