package commands

import (
	"context"
	"database/sql"
	"log"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/iliyamo/pomodoro-flow/internal/config"
	"github.com/iliyamo/pomodoro-flow/internal/database"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "pomodoro",
	Short: "Pomodoro timer and study timetable API",
	Long: `pomodoro serves the PomodoroFlow REST API: accounts, work/break timer
sessions with statistics, and weekly or dated study timetables.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// A missing .env is fine; real environment variables win.
		_ = godotenv.Load()
	},
}

// withDB loads the configuration, opens the database and hands both to fn.
// The handle is closed when fn returns.
func withDB(fn func(ctx context.Context, cfg config.Config, db *sql.DB) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		db, err := database.Open(cfg)
		if err != nil {
			return err
		}
		defer func() {
			if err := db.Close(); err != nil {
				log.Printf("close database: %v", err)
			}
		}()
		return fn(cmd.Context(), cfg, db)
	}
}

// SetVersion sets the version information
func SetVersion(v, c, d string) {
	version = v
	commit = c
	date = d
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(consumeCmd)
	rootCmd.AddCommand(versionCmd)
}
