// Package cli is the command-line driving adapter. The root command serves
// the HTTP API; the backup subcommands operate on the vault files directly.
package cli

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ericfisherdev/keycausa/internal/config"
)

// app carries state shared by every command once PersistentPreRunE has run.
type app struct {
	cfg    *config.Config
	logger *slog.Logger

	dataDir    string
	listenAddr string
}

// NewRootCommand builds the keycausa command tree. Running it without a
// subcommand starts the server.
func NewRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "keycausa",
		Short: "KeyCausa - a local password vault",
		Long: `KeyCausa keeps per-service credentials encrypted at rest and only
reveals them after a security question has been answered.

Running keycausa without a subcommand starts the local HTTP API.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.serve(cmd.Context())
		},
	}

	root.PersistentFlags().StringVar(&a.dataDir, "data-dir", "", "vault data directory (overrides KEYCAUSA_DATA_DIR)")
	root.PersistentFlags().StringVar(&a.listenAddr, "listen", "", "HTTP listen address (overrides KEYCAUSA_LISTEN_ADDR)")

	root.AddCommand(newServeCommand(a))
	root.AddCommand(newBackupCommand(a))

	return root
}

// init loads configuration, applies flag overrides and installs the logger.
func (a *app) init() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if a.dataDir != "" {
		cfg.DataDir = a.dataDir
	}
	if a.listenAddr != "" {
		cfg.ListenAddr = a.listenAddr
	}

	a.cfg = cfg
	a.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(a.logger)

	a.logger.Debug("config loaded",
		"data_dir", cfg.DataDir,
		"listen_addr", cfg.ListenAddr,
		"shutdown_timeout", cfg.ShutdownTimeout,
		"session_idle_timeout", cfg.SessionIdleTimeout,
	)
	return nil
}

func newServeCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the vault HTTP API (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.serve(cmd.Context())
		},
	}
}
