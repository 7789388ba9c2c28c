package main

import (
	"fmt"
	"net"
	"os"

	"github.com/iudanet/healthsync/internal/agent"
	"github.com/iudanet/healthsync/internal/client/api"
	"github.com/iudanet/healthsync/internal/client/cli"
	"github.com/iudanet/healthsync/internal/client/iocli"
	"github.com/iudanet/healthsync/internal/config"
	"github.com/spf13/cobra"
)

// options глобальные флаги
type options struct {
	configPath string
	agentURL   string
	serverURL  string
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "healthsync-agent",
		Short:         "Phone-side agent: step counting, watch pairing and live_data sync",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to YAML config file")
	root.PersistentFlags().StringVar(&opts.agentURL, "agent", "", "Control API URL of the running agent (default: http://<listen_addr>)")
	root.PersistentFlags().StringVar(&opts.serverURL, "server", "", "RemoteHealthStore URL (overrides config)")

	session := &cobra.Command{
		Use:   "session",
		Short: "Control workout sessions on paired watches",
	}
	session.AddCommand(
		&cobra.Command{
			Use:   "start",
			Short: "Ask watches to start a session",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				c, err := opts.cli(cmd)
				if err != nil {
					return err
				}
				return c.RunSessionStart(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "stop",
			Short: "Ask watches to stop a session",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				c, err := opts.cli(cmd)
				if err != nil {
					return err
				}
				return c.RunSessionStop(cmd.Context())
			},
		},
	)

	root.AddCommand(
		newRunCmd(opts),
		&cobra.Command{
			Use:   "status",
			Short: "Show agent state",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				c, err := opts.cli(cmd)
				if err != nil {
					return err
				}
				return c.RunStatus(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "login <user-id>",
			Short: "Store the user id in the agent",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				c, err := opts.cli(cmd)
				if err != nil {
					return err
				}
				return c.RunLogin(cmd.Context(), args[0])
			},
		},
		&cobra.Command{
			Use:   "pair [user-id]",
			Short: "Pair connected watches (defaults to the logged in user)",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				c, err := opts.cli(cmd)
				if err != nil {
					return err
				}
				var userID string
				if len(args) == 1 {
					userID = args[0]
				}
				return c.RunPair(cmd.Context(), userID)
			},
		},
		newUnpairCmd(opts),
		session,
		&cobra.Command{
			Use:   "events",
			Short: "Stream host events from the agent",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				c, err := opts.cli(cmd)
				if err != nil {
					return err
				}
				return c.RunEvents(cmd.Context())
			},
		},
		newTodayCmd(opts),
		newVersionCmd(),
	)

	return root
}

func newRunCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the agent",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			logger := config.NewLogger(os.Stderr, cfg.LogLevel)
			logger.Info("Starting healthsync agent", "version", Version, "server", cfg.ServerURL)

			s, err := agent.NewSession(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer func() {
				if err := s.Close(); err != nil {
					logger.Error("Failed to close agent", "error", err)
				}
			}()

			return s.Run(cmd.Context())
		},
	}
}

func newUnpairCmd(opts *options) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "unpair",
		Short: "Unpair the watch and fall back to phone step counting",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.cli(cmd)
			if err != nil {
				return err
			}
			return c.RunUnpair(cmd.Context(), force)
		},
	}
	cmd.Flags().BoolVarP(&force, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}

func newTodayCmd(opts *options) *cobra.Command {
	var userID string
	cmd := &cobra.Command{
		Use:   "today",
		Short: "Show today's steps from the shared live_data document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.cli(cmd)
			if err != nil {
				return err
			}
			return c.RunToday(cmd.Context(), userID)
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "User id (default: the user logged in on the agent)")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "HealthSync Agent\n")
			fmt.Fprintf(out, "Version:    %s\n", Version)
			fmt.Fprintf(out, "Build Date: %s\n", BuildDate)
			fmt.Fprintf(out, "Git Commit: %s\n", GitCommit)
		},
	}
}

// load читает конфиг и применяет флаги
func (o *options) load() (config.Agent, error) {
	cfg, err := config.LoadAgent(o.configPath)
	if err != nil {
		return config.Agent{}, err
	}
	if o.serverURL != "" {
		cfg.ServerURL = o.serverURL
	}
	return cfg, nil
}

// cli создаёт Cli для команд управления запущенным агентом
func (o *options) cli(cmd *cobra.Command) (*cli.Cli, error) {
	cfg, err := o.load()
	if err != nil {
		return nil, err
	}
	agentURL := o.agentURL
	if agentURL == "" {
		agentURL = controlURL(cfg.ListenAddr)
	}

	io := iocli.New(cmd.InOrStdin(), cmd.OutOrStdout())
	return cli.New(api.NewClient(agentURL), api.NewClient(cfg.ServerURL), io), nil
}

// controlURL превращает адрес прослушивания в URL. Пустой хост
// (":8090") означает локальный агент.
func controlURL(listenAddr string) string {
	host, port, err := net.SplitHostPort(listenAddr)
	if err != nil {
		return "http://" + listenAddr
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, port)
}
