package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/iudanet/healthsync/internal/client/storage/boltdb"
	"github.com/iudanet/healthsync/internal/companion"
	"github.com/iudanet/healthsync/internal/config"
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
		agentURL   string
		nodeID     string
	)

	root := &cobra.Command{
		Use:           "healthsync-companion",
		Short:         "Simulated watch that connects to a healthsync agent",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	run := &cobra.Command{
		Use:   "run",
		Short: "Connect to the agent and stream simulated health data",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadCompanion(configPath)
			if err != nil {
				return err
			}
			if agentURL != "" {
				cfg.AgentURL = agentURL
			}
			if nodeID != "" {
				cfg.NodeID = nodeID
			}
			if cfg.NodeID == "" {
				cfg.NodeID = "sim-" + uuid.NewString()
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger := config.NewLogger(os.Stderr, cfg.LogLevel)

			// Кэш идентичности пользователя на "часах"
			identity, err := boltdb.New(cmd.Context(), cfg.DBPath)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer func() {
				if err := identity.Close(); err != nil {
					logger.Error("Failed to close database", "error", err)
				}
			}()

			logger.Info("Starting companion", "node_id", cfg.NodeID, "agent", cfg.AgentURL)
			return companion.New(cfg, identity, logger).Run(cmd.Context())
		},
	}
	run.Flags().StringVar(&configPath, "config", "", "Path to YAML config file")
	run.Flags().StringVar(&agentURL, "agent", "", "Agent hub URL (overrides config)")
	run.Flags().StringVar(&nodeID, "node", "", "Node id (overrides config)")

	version := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "HealthSync Companion\n")
			fmt.Fprintf(out, "Version:    %s\n", Version)
			fmt.Fprintf(out, "Build Date: %s\n", BuildDate)
			fmt.Fprintf(out, "Git Commit: %s\n", GitCommit)
		},
	}

	root.AddCommand(run, version)
	return root
}
