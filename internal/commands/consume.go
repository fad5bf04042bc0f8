package commands

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/iliyamo/pomodoro-flow/internal/config"
	"github.com/iliyamo/pomodoro-flow/internal/queue"
)

var consumeCmd = &cobra.Command{
	Use:   "consume",
	Short: "Run only the activity log consumer",
	Long: `consume reads activity events (completed sessions, activated timetables)
from RabbitMQ and appends them to ACTIVITY_LOG_DIR/activity.log until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		log.Printf("activity consumer writing to %s", cfg.ActivityLogDir)
		err := queue.StartActivityConsumer(ctx, cfg.AMQPURL, cfg.ActivityLogDir)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}
