package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/aretw0/buddy/internal/config"
	"github.com/aretw0/buddy/internal/logging"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var rootCmd = &cobra.Command{
	Use:   "buddy",
	Short: "Buddy relays text from a browser extension to a local display",
	Long: `Buddy receives text from its browser extension, applies the chosen action
(summary, link list, translation stub or plain relay) and shows the result in a
terminal window that updates as new text arrives.

Running buddy without a subcommand is the same as "buddy serve".`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd, args)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("config", "", "Path to the config file (default ./"+config.DefaultFile+" when present)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-file", "", "Append logs to this file instead of stderr")
	rootCmd.PersistentFlags().Bool("log-json", false, "Emit logs as JSON")

	// Relay selection is shared by every command that touches the queue.
	rootCmd.PersistentFlags().String("relay", "", "Relay backend: memory or redis")
	rootCmd.PersistentFlags().String("redis-addr", "", "Redis address for the redis relay")
	rootCmd.PersistentFlags().String("redis-key", "", "Redis list key for the redis relay")

	addServeFlags(rootCmd)
}

// loadConfig reads the config file and lets explicitly set flags win over it.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.Log.Level, _ = flags.GetString("log-level")
	}
	if flags.Changed("log-file") {
		cfg.Log.File, _ = flags.GetString("log-file")
	}
	if flags.Changed("log-json") {
		cfg.Log.JSON, _ = flags.GetBool("log-json")
	}
	if flags.Changed("relay") {
		cfg.Relay.Backend, _ = flags.GetString("relay")
	}
	if flags.Changed("redis-addr") {
		cfg.Relay.Redis.Addr, _ = flags.GetString("redis-addr")
	}
	if flags.Changed("redis-key") {
		cfg.Relay.Redis.Key, _ = flags.GetString("redis-key")
	}
	if f := flags.Lookup("host"); f != nil && f.Changed {
		cfg.Server.Host = f.Value.String()
	}
	if f := flags.Lookup("port"); f != nil && f.Changed {
		cfg.Server.Port, _ = flags.GetInt("port")
	}
	if f := flags.Lookup("path"); f != nil && f.Changed {
		cfg.Server.Path = f.Value.String()
	}
	if f := flags.Lookup("interval"); f != nil && f.Changed {
		cfg.Display.Interval, _ = flags.GetDuration("interval")
	}
	if f := flags.Lookup("headless"); f != nil && f.Changed {
		cfg.Display.Headless, _ = flags.GetBool("headless")
	}
	if f := flags.Lookup("metrics"); f != nil && f.Changed {
		cfg.Metrics.Enabled, _ = flags.GetBool("metrics")
	}
	if f := flags.Lookup("dir"); f != nil && f.Changed {
		cfg.Extension.Dir = f.Value.String()
	}
	cfg.Normalize()
	return cfg, cfg.Validate()
}

// openLogger builds the process logger. Under the TUI stderr belongs to the screen, so
// logs go to a file even when none is configured.
func openLogger(cfg config.Config, tuiMode bool) (*slog.Logger, io.Closer, error) {
	file := cfg.Log.File
	if tuiMode && file == "" {
		file = "buddy.log"
	}
	return logging.Open(logging.Options{
		Level: logging.ParseLevel(cfg.Log.Level),
		File:  file,
		JSON:  cfg.Log.JSON,
	})
}

func isInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}
