package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/iudanet/healthsync/internal/config"
	"github.com/iudanet/healthsync/internal/server"
	"github.com/spf13/cobra"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		addr       string
		dbPath     string
	)

	root := &cobra.Command{
		Use:           "healthsync-server",
		Short:         "RemoteHealthStore: shared live_data documents with a change feed",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadServer(configPath)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Addr = addr
			}
			if dbPath != "" {
				cfg.DBPath = dbPath
			}

			logger := config.NewLogger(os.Stderr, cfg.LogLevel)
			logger.Info("Starting healthsync server", "version", Version, "commit", GitCommit)
			return server.Run(cmd.Context(), cfg, logger)
		},
	}
	serve.Flags().StringVar(&configPath, "config", "", "Path to YAML config file")
	serve.Flags().StringVar(&addr, "addr", "", "Listen address (overrides config)")
	serve.Flags().StringVar(&dbPath, "db", "", "Path to SQLite database (overrides config)")

	version := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			printVersion(cmd)
		},
	}

	root.AddCommand(serve, version)
	return root
}

func printVersion(cmd *cobra.Command) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "HealthSync Server\n")
	fmt.Fprintf(out, "Version:    %s\n", Version)
	fmt.Fprintf(out, "Build Date: %s\n", BuildDate)
	fmt.Fprintf(out, "Git Commit: %s\n", GitCommit)
}
