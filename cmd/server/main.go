package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/studio-booking/internal/booking"
	"github.com/iliyamo/studio-booking/internal/catalog"
	"github.com/iliyamo/studio-booking/internal/config"
	"github.com/iliyamo/studio-booking/internal/database"
	"github.com/iliyamo/studio-booking/internal/handler"
	"github.com/iliyamo/studio-booking/internal/logger"
	"github.com/iliyamo/studio-booking/internal/queue"
	"github.com/iliyamo/studio-booking/internal/repository"
	"github.com/iliyamo/studio-booking/internal/router"
)

func main() {
	config.LoadDotEnv()
	cfg := config.Load()

	lg, err := logger.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = lg.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, lg); err != nil {
		lg.Error("server stopped", zap.Error(err))
		_ = lg.Sync()
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, lg *zap.Logger) error {
	dbc := cfg.DB()
	db, err := database.Open(ctx, dbc.User, dbc.Pass, dbc.Host, dbc.Port, dbc.Name)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	rdb := config.NewRedisClient(ctx)
	if rdb == nil {
		lg.Warn("redis unavailable, response cache off and rate limiting per instance")
	} else {
		defer func() { _ = rdb.Close() }()
	}

	var publisher booking.Publisher
	if cfg.RabbitURL != "" {
		dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		p, err := queue.NewPublisher(dialCtx, cfg.RabbitURL, lg.Named("publisher"))
		cancel()
		if err != nil {
			lg.Warn("rabbitmq unavailable, booking events disabled", zap.Error(err))
		} else {
			defer func() { _ = p.Close() }()
			publisher = p
		}
		if cfg.EventsConsumer {
			go func() {
				if err := queue.NewConsumer(cfg.RabbitURL, lg).Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
					lg.Error("booking consumer stopped", zap.Error(err))
				}
			}()
		}
	}

	sessions := repository.NewSessionRepo(db)
	bookings := repository.NewBookingRepo(db)
	waitlist := repository.NewWaitlistRepo(db)
	catalogRepo := repository.NewCatalogRepo(db)

	engine := booking.NewEngine(
		repository.NewTxStore(sessions, bookings, waitlist, cfg.BookingTxTimeout),
		publisher,
		lg.Named("booking"),
		booking.Options{MaxAttempts: cfg.BookingMaxAttempts, RetryBackoff: cfg.BookingRetryBackoff},
	)

	e := router.New(router.Deps{
		Log:       lg.Named("http"),
		Redis:     rdb,
		JWTSecret: cfg.JWTSecret,
		JWTIssuer: cfg.JWTIssuer,
		Cache:     config.LoadCacheConfig(),
		RateLimit: config.LoadRateLimitConfig(),
		Ready:     catalogRepo,
		Public:    handler.NewPublicHandler(catalog.NewService(catalogRepo), lg),
		Bookings:  handler.NewBookingHandler(engine, bookings, waitlist, lg),
	})

	errc := make(chan error, 1)
	go func() {
		addr := ":" + cfg.Port
		lg.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	lg.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
