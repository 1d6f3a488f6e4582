package cmd

import (
	"github.com/spf13/cobra"

	"taskflow/internal/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadRuntime(cmd)
		if err != nil {
			return err
		}
		db, err := database.Open(cmd.Context(), cfg.Database.DSN)
		if err != nil {
			return err
		}
		defer db.Close()

		log.Info("[migrate] applying schema")
		if err := database.Migrate(cmd.Context(), db); err != nil {
			return err
		}
		log.Info("[migrate][ok]")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
