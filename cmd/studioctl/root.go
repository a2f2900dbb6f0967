package main

import (
	"fmt"
	"io"
	"os"

	"yogastudio/internal/config"
	"yogastudio/internal/database"
	"yogastudio/internal/logging"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// app is what every subcommand works with once the root command has loaded it.
type app struct {
	configPath string
	cfg        *config.Config
	db         *database.DB
	logger     *zerolog.Logger
	closer     io.Closer
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "studioctl",
		Short: "Operate the yoga studio database",
		Long: `studioctl runs maintenance tasks against the studio database:
schema migrations, seeding the timetable, adding classes, exporting
booking reports and taking backups.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.open(cmd)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			a.close()
		},
	}

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "config file path (default $CONFIG_PATH or configs/config.yaml)")

	root.AddCommand(
		newMigrateCmd(a),
		newSeedCmd(a),
		newCreateClassCmd(a),
		newExportCmd(a),
		newBackupCmd(a),
	)
	return root
}

func (a *app) open(cmd *cobra.Command) error {
	path := a.configPath
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		path = "configs/config.yaml"
	}

	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	l := logger.With().Str("component", "studioctl").Str("command", cmd.Name()).Logger()

	db, err := database.NewDB(cfg.Database.Path, &l)
	if err != nil {
		if closer != nil {
			_ = closer.Close()
		}
		return err
	}

	a.cfg, a.db, a.logger, a.closer = cfg, db, &l, closer
	return nil
}

func (a *app) close() {
	if a.db != nil {
		_ = a.db.Close()
		a.db = nil
	}
	if a.closer != nil {
		_ = a.closer.Close()
		a.closer = nil
	}
}
