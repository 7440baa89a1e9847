package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"orderledger/internal/app"
	"orderledger/internal/config"
	"orderledger/pkg/logger"
)

var version = "dev"

type rootOptions struct {
	output  string
	verbose bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "ledgerctl",
		Short: "Maintenance commands for the order ledger",
		Long: `ledgerctl runs maintenance tasks directly against the ledger database.

Configuration is read from the same environment variables (and .env file)
as the server. Every command goes through the regular services, so party
locks and transactions are honoured while the server is running.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.output != outputJSON && opts.output != outputTable {
				return fmt.Errorf("unknown output format %q (use %s or %s)", opts.output, outputJSON, outputTable)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.output, "output", "o", outputTable, "Output format: table or json")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log service activity to stderr")

	cmd.AddCommand(
		newReconcileCmd(opts),
		newRecomputeCmd(opts),
		newRefreshStatusesCmd(opts),
	)
	return cmd
}

// withApp wires the application, runs fn and releases connections.
// SIGINT cancels the context passed to fn.
func withApp(cmd *cobra.Command, opts *rootOptions, fn func(ctx context.Context, a *app.App) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	level := "warn"
	if opts.verbose {
		level = cfg.LogLevel
	}
	log, err := logger.New(logger.Config{
		Level:       level,
		Development: cfg.IsDevelopment(),
		OutputPaths: []string{"stderr"},
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logger.WithLogger(ctx, log.WithComponent("ledgerctl"))

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	return fn(ctx, a)
}
