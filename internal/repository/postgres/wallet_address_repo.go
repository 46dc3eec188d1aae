package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"siwf/internal/domain"
	"siwf/internal/port"
)

type walletAddressRepo struct {
	db *sqlx.DB
}

// NewWalletAddressRepo creates a new PostgreSQL-backed WalletAddressRepository.
func NewWalletAddressRepo(db *sqlx.DB) port.WalletAddressRepository {
	return &walletAddressRepo{db: db}
}

func (r *walletAddressRepo) CreateBatch(ctx context.Context, addresses []domain.WalletAddress) error {
	if len(addresses) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("walletAddressRepo.CreateBatch begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := `INSERT INTO wallet_addresses (id, user_id, address, chain_id, is_primary, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, address, chain_id) DO NOTHING`

	now := time.Now().UTC()
	for i := range addresses {
		a := &addresses[i]
		if a.ID == uuid.Nil {
			a.ID = uuid.New()
		}
		a.CreatedAt = now
		if _, err := tx.ExecContext(ctx, query,
			a.ID, a.UserID, a.Address, a.ChainID, a.IsPrimary, a.CreatedAt); err != nil {
			return fmt.Errorf("walletAddressRepo.CreateBatch: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("walletAddressRepo.CreateBatch commit: %w", err)
	}
	return nil
}

func (r *walletAddressRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.WalletAddress, error) {
	var addresses []domain.WalletAddress
	err := r.db.SelectContext(ctx, &addresses,
		"SELECT * FROM wallet_addresses WHERE user_id = $1 ORDER BY is_primary DESC, created_at ASC", userID)
	if err != nil {
		return nil, fmt.Errorf("walletAddressRepo.ListByUser: %w", err)
	}
	return addresses, nil
}
