package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/aretw0/buddy"
	"github.com/aretw0/buddy/pkg/display"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Exposes the relay as an MCP tool (relay_text) so AI agents can send text to the
display the same way the browser extension does.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.

With the memory relay, pass --display to show results (on stderr) from this process.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		// Stdout carries JSON-RPC; logs stay on stderr unless a file is configured.
		logger, closer, err := openLogger(cfg, false)
		if err != nil {
			return err
		}
		defer closer.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		showResults, _ := cmd.Flags().GetBool("display")
		opts := []buddy.Option{buddy.WithLogger(logger)}
		if showResults {
			opts = append(opts, buddy.WithSurface(display.NewWriterSurface(os.Stderr)))
		}
		app, err := buddy.New(ctx, cfg, opts...)
		if err != nil {
			return err
		}
		defer app.Close()

		server := app.MCPServer()
		if err := server.Validate(); err != nil {
			return err
		}

		transport, _ := cmd.Flags().GetString("transport")
		addr, _ := cmd.Flags().GetString("addr")

		g, gctx := errgroup.WithContext(ctx)
		if showResults {
			g.Go(func() error { return app.RunConsumer(gctx) })
		}
		g.Go(func() error {
			if transport == "sse" {
				logger.Info("Starting MCP server (SSE)", "address", addr)
				return server.ServeSSE(gctx, addr)
			}
			logger.Info("Starting MCP server (stdio)")
			err := server.ServeStdio()
			stop()
			return err
		})
		return g.Wait()
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.Flags().String("transport", "stdio", "Transport: stdio or sse")
	mcpCmd.Flags().String("addr", "127.0.0.1:8081", "Listen address for the sse transport")
	mcpCmd.Flags().Bool("display", false, "Also run the display, printing results to stderr")
}
