// Package commands wires the passbook CLI. Every subcommand is a thin shell
// over the ledger coordinator; no business rule lives here.
package commands

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/passbook-dev/passbook/internal/buildinfo"
	"github.com/passbook-dev/passbook/internal/config"
	"github.com/passbook-dev/passbook/internal/ledger"
)

// ConfigFile is the name of the project configuration within a ledger root.
const ConfigFile = "passbook.yaml"

// NewRootCommand creates the root CLI command with all subcommands
// registered.
func NewRootCommand() *cobra.Command {
	var root string

	rootCmd := &cobra.Command{
		Use:     "passbook",
		Short:   "Personal banking ledger",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", buildinfo.Version, buildinfo.Commit, buildinfo.Date),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&root, "dir", ".", "ledger root directory")

	rootCmd.AddCommand(newInitCommand(&root))
	rootCmd.AddCommand(newRegisterCommand(&root))
	rootCmd.AddCommand(newLoginCommand(&root))
	rootCmd.AddCommand(newDepositCommand(&root))
	rootCmd.AddCommand(newWithdrawCommand(&root))
	rootCmd.AddCommand(newTransferCommand(&root))
	rootCmd.AddCommand(newBalanceCommand(&root))
	rootCmd.AddCommand(newHistoryCommand(&root))
	rootCmd.AddCommand(newAdminCommand(&root))

	return rootCmd
}

// openLedger loads the project config and the three stores under root.
func openLedger(root string) (*ledger.Ledger, *config.Config, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, nil, fmt.Errorf("resolving path: %w", err)
	}

	cfg, err := config.Load(filepath.Join(absRoot, ConfigFile))
	if err != nil {
		return nil, nil, fmt.Errorf("loading config (run 'passbook init' first?): %w", err)
	}

	logger, err := newLogger(cfg.Log.Level)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}

	l, err := ledger.Open(ledger.Params{
		Root:          absRoot,
		Logger:        logger,
		RetryAttempts: cfg.Retry.Attempts,
		RetryBackoff:  cfg.RetryBackoff(),
		Actor:         cfg.Admin.Actor,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("opening ledger: %w", err)
	}
	return l, cfg, nil
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	switch level {
	case "debug":
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "warn":
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		cfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	return cfg.Build()
}
