// Command sweep deletes expired sign-in nonces and sessions once and exits.
// Usage: go run ./cmd/sweep
package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"siwf/internal/config"
	"siwf/internal/logging"
	"siwf/internal/repository/postgres"
	"siwf/internal/service"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	logger := logging.New(cfg.Log)

	db, err := postgres.NewDB(&cfg.DB)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer func() { _ = db.Close() }()

	sweeper := service.NewExpirySweeper(postgres.NewVerificationRepo(db), postgres.NewSessionRepo(db), cfg.Sweeper.Interval)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	res, err := sweeper.SweepOnce(ctx)
	if err != nil {
		return fmt.Errorf("sweeping expired records: %w", err)
	}

	logger.Info("sweep complete", "verifications", res.Verifications, "sessions", res.Sessions)
	return nil
}
