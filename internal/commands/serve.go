package commands

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/iliyamo/pomodoro-flow/internal/config"
	"github.com/iliyamo/pomodoro-flow/internal/database"
	"github.com/iliyamo/pomodoro-flow/internal/queue"
	"github.com/iliyamo/pomodoro-flow/internal/repository"
	"github.com/iliyamo/pomodoro-flow/internal/router"
	"github.com/iliyamo/pomodoro-flow/internal/service"
)

var withConsumer bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE:  withDB(serve),
}

func init() {
	serveCmd.Flags().BoolVar(&withConsumer, "with-consumer", false,
		"also run the activity log consumer in this process (requires EVENTS_ENABLED)")
}

func serve(ctx context.Context, cfg config.Config, db *sql.DB) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.AutoMigrate {
		if err := database.Migrate(ctx, db, cfg.DBDriver); err != nil {
			return err
		}
	}

	rdb := config.NewRedisClient()
	if rdb != nil {
		defer func() { _ = rdb.Close() }()
	}

	var events service.Publisher = service.NopPublisher{}
	if cfg.EventsEnabled {
		events = service.NewAMQPPublisher(cfg.AMQPURL)
		if withConsumer {
			go func() {
				if err := queue.StartActivityConsumer(ctx, cfg.AMQPURL, cfg.ActivityLogDir); err != nil && !errors.Is(err, context.Canceled) {
					log.Printf("activity consumer stopped: %v", err)
				}
			}()
		}
	}

	go purgeSessions(ctx, repository.NewAuthSessionRepo(db))

	e := router.New(router.Deps{
		Cfg:       cfg,
		DB:        db,
		Redis:     rdb,
		Events:    events,
		RateLimit: config.LoadRateLimitConfig(),
		Cache:     config.LoadCacheConfig(),
	})

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s, driver=%s, tz=%s)", addr, cfg.Env, cfg.DBDriver, cfg.Location())

	errc := make(chan error, 1)
	go func() { errc <- e.Start(addr) }()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Printf("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

// purgeSessions deletes expired and revoked login sessions every hour.
func purgeSessions(ctx context.Context, repo *repository.AuthSessionRepo) {
	t := time.NewTicker(time.Hour)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := repo.PurgeExpired(ctx, time.Now().Add(-24*time.Hour))
			if err != nil {
				log.Printf("purge sessions: %v", err)
				continue
			}
			if n > 0 {
				log.Printf("purged %d login sessions", n)
			}
		}
	}
}
