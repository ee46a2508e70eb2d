package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"

	"github.com/OptimisticPessimist/pscweb3/internal/config"
	"github.com/OptimisticPessimist/pscweb3/internal/database"
	"github.com/OptimisticPessimist/pscweb3/internal/handler"
	"github.com/OptimisticPessimist/pscweb3/internal/logging"
	"github.com/OptimisticPessimist/pscweb3/internal/middleware"
	"github.com/OptimisticPessimist/pscweb3/internal/repository"
	"github.com/OptimisticPessimist/pscweb3/internal/router"
	"github.com/OptimisticPessimist/pscweb3/internal/scheduling"
	"github.com/OptimisticPessimist/pscweb3/internal/service"
)

var serveMigrate bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Starts the HTTP API on APP_PORT.  Answer writes are rate limited through
Redis and reminders are published to RabbitMQ with a Redis cooldown; both
degrade to pass-through when Redis is unreachable.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&serveMigrate, "migrate", false, "apply the schema before serving")
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	cfg := config.Load()
	log := logging.New("serve")

	db, d, err := database.Open(cfg.DB)
	if err != nil {
		return err
	}
	defer db.Close()
	if serveMigrate {
		if err := database.Migrate(ctx, db, d); err != nil {
			return err
		}
	}

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Warn("redis unreachable; rate limit and reminder cooldown disabled")
	} else {
		defer rdb.Close()
	}

	rem := config.LoadReminderConfig()
	notifier := service.NewCooldownNotifier(service.NewReminderPublisher(rem.AMQPURL, rem.Queue), rdb, rem.Cooldown)

	engine := scheduling.NewEngine(repository.NewSnapshotRepo(db, d), cfg.Engine.Options())
	polls := handler.NewPollHandler(engine, repository.NewPollRepo(db), notifier, cfg.Engine.RequiredRolesMaxLen)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(middleware.RequestLog())

	router.RegisterRoutes(e)
	router.RegisterCoordinator(e, polls, cfg.JWTSecret)
	router.RegisterMember(e, polls, cfg.JWTSecret, middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	addr := ":" + cfg.Port
	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", addr, "env", cfg.Env, "driver", d.Driver)
		errCh <- e.Start(addr)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
