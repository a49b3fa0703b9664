package main

import (
	"errors"

	"github.com/spf13/cobra"

	"frameshop/internal/repositories"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the Postgres tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Storage.Driver != "postgres" {
			return errors.New("migrate needs storage.driver: postgres")
		}
		db, err := openDB(cfg.Postgres)
		if err != nil {
			return err
		}
		defer func() {
			_ = db.Close()
		}()

		if err = repositories.Migrate(cmd.Context(), db); err != nil {
			return err
		}
		logger.Info("tables are up to date")
		return nil
	},
}
