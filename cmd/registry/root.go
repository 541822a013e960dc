package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/nexuscrm/registry/internal/application/services"
	"github.com/nexuscrm/registry/internal/config"
	"github.com/nexuscrm/registry/internal/infrastructure/database"
	"github.com/nexuscrm/registry/pkg/logger"
)

var version = "dev"

// app carries the state shared by every subcommand
type app struct {
	cfgFile string
	cfg     *config.Config
	log     *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "registry",
		Short:         "Searchable registry pages over configurable data models",
		Long:          `registry serves filterable, sortable and exportable listings of records, one page per data model.`,
		Version:       version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}

	root.PersistentFlags().StringVarP(&a.cfgFile, "config", "c", "",
		"config file (default: ./"+config.DefaultConfigFile+")")

	root.AddCommand(
		newServeCmd(a),
		newMigrateCmd(a),
		newSeedCmd(a),
		newImportCmd(a),
		newExportCmd(a),
		newTokenCmd(a),
	)
	return root
}

func (a *app) init() error {
	cfg, err := config.Load(viper.New(), a.cfgFile)
	if err != nil {
		return err
	}
	log, err := logger.New(logger.Options{
		Level:       cfg.Log.Level,
		File:        cfg.Log.File,
		Development: cfg.IsDevelopment(),
	})
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	a.cfg = cfg
	a.log = log
	return nil
}

// services opens the database, wires the services and makes sure every
// model's table exists. The returned func closes the connection.
func (a *app) services(ctx context.Context) (*services.ServiceManager, func(), error) {
	conn, err := database.Open(ctx, a.cfg.Database, a.log)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		if err := conn.Close(); err != nil {
			a.log.Warn("closing database", zap.Error(err))
		}
	}

	sm, err := services.NewServiceManager(conn, a.cfg, a.log)
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	if err := sm.Migrate(ctx); err != nil {
		closeFn()
		return nil, nil, err
	}
	return sm, closeFn, nil
}
