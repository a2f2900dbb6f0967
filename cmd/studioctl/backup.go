package main

import (
	"fmt"

	"yogastudio/internal/database"

	"github.com/spf13/cobra"
)

func newBackupCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "backup",
		Short: "Take a database backup now and prune old ones",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc := database.NewBackupService(a.cfg.Database.Path, a.cfg.Backup, a.logger)
			path, err := svc.PerformBackup(cmd.Context())
			if err != nil {
				return err
			}
			svc.CleanupOldBackups()
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
}
