package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aretw0/manipd"
	"github.com/aretw0/manipd/internal/presentation/tui"
	"github.com/aretw0/manipd/internal/server"
	"github.com/aretw0/manipd/internal/telemetry"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the problem, manipulation and extension front-ends",
	Long: `Starts every front-end on one shared problem registry:
the problem service, the manipulation service, then each configured extension.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadLogger(cmd)
		if err != nil {
			return err
		}
		version := strings.TrimSpace(manipd.Version)

		if quiet, _ := cmd.Flags().GetBool("quiet"); !quiet && term.IsTerminal(int(os.Stderr.Fd())) {
			tui.PrintBanner(os.Stderr, version)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		shutdownTracing, err := telemetry.Setup(ctx, "manipd", version, cfg.OTelEndpoint)
		if err != nil {
			return err
		}
		defer func() {
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdownTracing(flushCtx); err != nil {
				logger.Warn("Failed to flush traces", "err", err)
			}
		}()

		return server.Run(ctx, cfg, server.WithLogger(logger), server.WithVersion(version))
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().BoolP("quiet", "q", false, "Do not print the banner")
}
