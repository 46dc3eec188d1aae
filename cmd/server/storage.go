package main

import (
	"fmt"

	"github.com/jmoiron/sqlx"

	"siwf/internal/config"
	"siwf/internal/port"
	"siwf/internal/repository/memory"
	"siwf/internal/repository/postgres"
)

type repositories struct {
	db            *sqlx.DB
	users         port.UserRepository
	farcaster     port.FarcasterRepository
	wallets       port.WalletAddressRepository
	verifications port.VerificationRepository
	sessions      port.SessionRepository
}

// openRepositories selects the storage driver. The memory driver keeps
// everything in process and is meant for local development.
func openRepositories(cfg *config.DBConfig) (*repositories, error) {
	switch cfg.Driver {
	case "memory":
		store := memory.NewStore()
		return &repositories{
			users:         store.Users(),
			farcaster:     store.Farcaster(),
			wallets:       store.Wallets(),
			verifications: store.Verifications(),
			sessions:      store.Sessions(),
		}, nil
	case "postgres", "":
		db, err := postgres.NewDB(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		return &repositories{
			db:            db,
			users:         postgres.NewUserRepo(db),
			farcaster:     postgres.NewFarcasterRepo(db),
			wallets:       postgres.NewWalletAddressRepo(db),
			verifications: postgres.NewVerificationRepo(db),
			sessions:      postgres.NewSessionRepo(db),
		}, nil
	default:
		return nil, fmt.Errorf("unknown db driver %q", cfg.Driver)
	}
}

func (r *repositories) Close() {
	if r.db != nil {
		_ = r.db.Close()
	}
}
