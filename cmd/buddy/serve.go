package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/aretw0/buddy"
	"github.com/aretw0/buddy/internal/config"
	"github.com/aretw0/buddy/internal/installer"
	"github.com/aretw0/buddy/internal/presentation/tui"
	"github.com/aretw0/buddy/pkg/display"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the ingress and the display",
	Long: `Starts the HTTP ingress the extension posts to, together with the display that
shows each result. On a terminal the display is a full-screen view; with --headless
(or when output is not a terminal) results are printed as they arrive.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	addServeFlags(serveCmd)
}

func addServeFlags(cmd *cobra.Command) {
	cmd.Flags().String("host", config.DefaultHost, "Interface to listen on")
	cmd.Flags().IntP("port", "p", config.DefaultPort, "Port to listen on")
	cmd.Flags().String("path", config.DefaultPath, "Ingress path the extension posts to")
	cmd.Flags().Duration("interval", config.DefaultPollInterval, "Display poll interval")
	cmd.Flags().Bool("headless", false, "Print results instead of opening the full-screen display")
	cmd.Flags().Bool("metrics", false, "Expose Prometheus metrics on the ingress listener")
	cmd.Flags().Bool("install", false, "Write the browser extension before serving")
	cmd.Flags().Bool("no-wait", false, "With --install, do not wait for Enter before serving")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	tuiMode := !cfg.Display.Headless && isInteractive()

	logger, closer, err := openLogger(cfg, tuiMode)
	if err != nil {
		return err
	}
	defer closer.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	if install, _ := cmd.Flags().GetBool("install"); install {
		inst, err := installExtension(cfg, logger, out)
		if err != nil {
			return err
		}
		if cfg.Extension.Cleanup {
			defer func() {
				if err := inst.Cleanup(); err != nil {
					logger.Error("Extension cleanup failed", "error", err)
				}
			}()
		}
		if noWait, _ := cmd.Flags().GetBool("no-wait"); !noWait && isInteractive() {
			fmt.Fprint(out, "\nPress Enter when you've loaded the extension...")
			bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		}
	}

	var opts []buddy.Option
	opts = append(opts, buddy.WithLogger(logger))
	if !tuiMode {
		opts = append(opts, buddy.WithSurface(display.NewWriterSurface(out)))
	}
	app, err := buddy.New(ctx, cfg, opts...)
	if err != nil {
		return err
	}
	defer app.Close()

	ln, err := app.Listen()
	if err != nil {
		return err
	}

	if !tuiMode {
		tui.PrintBanner(out)
		fmt.Fprintf(out, "Listening on %s (relay: %s)\n\n", cfg.Server.IngressURL(), cfg.Relay.Backend)
		return app.Run(ctx, ln)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return app.Serve(gctx, ln) })
	g.Go(func() error {
		// Quitting the display stops the ingress too.
		defer cancel()
		held, release, err := app.AcquireConsumer(gctx)
		if err != nil {
			return err
		}
		defer release()
		footer := fmt.Sprintf("listening on %s", cfg.Server.IngressURL())
		return runTUI(held, app.Consumer(), footer)
	})
	return g.Wait()
}

func runTUI(ctx context.Context, consumer *display.Consumer, footer string) error {
	model := tui.NewModel(ctx, consumer, tui.WithFooter(footer))
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("display: %w", err)
	}
	return buddy.ConsumerLost(ctx)
}

func installExtension(cfg config.Config, logger *slog.Logger, out io.Writer) (*installer.Installer, error) {
	inst := installer.New(cfg.Extension.Dir, cfg.Server.IngressURL(),
		installer.WithStateFile(cfg.Extension.StateFile),
		installer.WithLogger(logger),
	)
	state, err := inst.Install()
	if err != nil {
		// Don't leave a half-written extension behind.
		if cerr := inst.Cleanup(); cerr != nil {
			logger.Error("Extension cleanup failed", "error", cerr)
		}
		return nil, err
	}
	render := tui.NewRenderer(80)
	md := inst.Instructions()
	rendered, err := render(md)
	if err != nil {
		rendered = md
	}
	fmt.Fprint(out, rendered)
	logger.Info("Extension installed", "dir", inst.Dir(), "install_id", state.InstallID)
	return inst, nil
}
