package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/aretw0/buddy"
	"github.com/aretw0/buddy/internal/config"
	"github.com/aretw0/buddy/pkg/display"
	"github.com/spf13/cobra"
)

var displayCmd = &cobra.Command{
	Use:   "display",
	Short: "Run only the display, reading a shared redis relay",
	Long: `Starts the display without an ingress. The results come from a redis relay
filled by "buddy serve --relay redis" or "buddy mcp --relay redis" in another process.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if cfg.Relay.Backend != config.RelayRedis {
			return errors.New("display: a standalone display needs a shared relay; use --relay redis")
		}
		tuiMode := !cfg.Display.Headless && isInteractive()

		logger, closer, err := openLogger(cfg, tuiMode)
		if err != nil {
			return err
		}
		defer closer.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		opts := []buddy.Option{buddy.WithLogger(logger)}
		if !tuiMode {
			opts = append(opts, buddy.WithSurface(display.NewWriterSurface(cmd.OutOrStdout())))
		}
		app, err := buddy.New(ctx, cfg, opts...)
		if err != nil {
			return err
		}
		defer app.Close()

		if !tuiMode {
			return app.RunConsumer(ctx)
		}
		held, release, err := app.AcquireConsumer(ctx)
		if err != nil {
			return err
		}
		defer release()
		return runTUI(held, app.Consumer(), fmt.Sprintf("reading redis %s", cfg.Relay.Redis.Addr))
	},
}

func init() {
	rootCmd.AddCommand(displayCmd)
	displayCmd.Flags().Duration("interval", config.DefaultPollInterval, "Display poll interval")
	displayCmd.Flags().Bool("headless", false, "Print results instead of opening the full-screen display")
}
