// Command migrate applies the embedded schema to the configured database.
package main

import (
	"context"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/studio-booking/internal/config"
	"github.com/iliyamo/studio-booking/internal/database"
	"github.com/iliyamo/studio-booking/internal/logger"
)

func main() {
	config.LoadDotEnv()
	dbc := config.LoadDB()

	lg, err := logger.New(config.Env("APP_ENV", "dev"), "info")
	if err != nil {
		log.Fatalf("logger: %v", err)
	}

	if err := run(dbc, lg); err != nil {
		lg.Error("migrate failed", zap.Error(err))
		_ = lg.Sync()
		os.Exit(1)
	}
	_ = lg.Sync()
}

func run(dbc config.DBConfig, lg *zap.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	db, err := database.Open(ctx, dbc.User, dbc.Pass, dbc.Host, dbc.Port, dbc.Name)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	if err := database.Migrate(ctx, db); err != nil {
		return err
	}
	lg.Info("schema applied", zap.Int("statements", len(database.Statements())))
	return nil
}
