package main

import (
	"context"

	"go-inventory-ledger/internal/app"
	"go-inventory-ledger/pkg/config"
	applogger "go-inventory-ledger/pkg/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// session is what every subcommand operates on.
type session struct {
	app    *app.App
	logger *zap.Logger
}

type rootOptions struct {
	driver string
	dsn    string
	actor  string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "stockctl",
		Short:         "Maintenance CLI for the inventory ledger",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.driver, "driver", "", "database driver (postgres|sqlite), overrides DB_DRIVER")
	cmd.PersistentFlags().StringVar(&opts.dsn, "dsn", "", "connection string or sqlite path, overrides the configured one")
	cmd.PersistentFlags().StringVar(&opts.actor, "actor", "stockctl", "name recorded in audit columns")

	cmd.AddCommand(
		newReportCmd(opts),
		newLowStockCmd(opts),
		newMoveCmd(opts),
		newExportCmd(opts),
		newVerifyCmd(opts),
		newSeedCmd(opts),
	)
	return cmd
}

// withSession opens the application for one command and closes it afterwards.
func withSession(ctx context.Context, opts *rootOptions, fn func(s *session) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger, err := applogger.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	appOpts := app.OptionsFromConfig(cfg)
	appOpts.SeedDefaults = false // only the seed command writes defaults
	if opts.driver != "" {
		appOpts.DBDriver = opts.driver
	}
	if opts.dsn != "" {
		appOpts.DSN = opts.dsn
	}

	a, err := app.Open(ctx, appOpts, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	return fn(&session{app: a, logger: logger})
}
