package commands

import (
	"context"
	"database/sql"
	"log"

	"github.com/spf13/cobra"

	"github.com/iliyamo/pomodoro-flow/internal/config"
	"github.com/iliyamo/pomodoro-flow/internal/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the database schema and exit",
	RunE: withDB(func(ctx context.Context, cfg config.Config, db *sql.DB) error {
		if err := database.Migrate(ctx, db, cfg.DBDriver); err != nil {
			return err
		}
		log.Printf("schema up to date (driver=%s)", cfg.DBDriver)
		return nil
	}),
}
