package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"siwf/internal/domain"
	"siwf/internal/port"
)

type verificationRepo struct {
	db *sqlx.DB
}

// NewVerificationRepo creates a new PostgreSQL-backed VerificationRepository.
func NewVerificationRepo(db *sqlx.DB) port.VerificationRepository {
	return &verificationRepo{db: db}
}

func (r *verificationRepo) Upsert(ctx context.Context, v *domain.Verification) error {
	v.ID = uuid.New()
	now := time.Now().UTC()
	v.CreatedAt = now
	v.UpdatedAt = now

	query := `INSERT INTO verifications (id, identifier, value, expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (identifier)
		DO UPDATE SET id = EXCLUDED.id, value = EXCLUDED.value, expires_at = EXCLUDED.expires_at,
			created_at = EXCLUDED.created_at, updated_at = EXCLUDED.updated_at`

	_, err := r.db.ExecContext(ctx, query,
		v.ID, v.Identifier, v.Value, v.ExpiresAt, v.CreatedAt, v.UpdatedAt)
	if err != nil {
		return fmt.Errorf("verificationRepo.Upsert: %w", err)
	}
	return nil
}

// Consume deletes and returns the record in a single statement, so two
// concurrent callers can never both receive it.
func (r *verificationRepo) Consume(ctx context.Context, identifier string) (*domain.Verification, error) {
	var v domain.Verification
	err := r.db.GetContext(ctx, &v,
		`DELETE FROM verifications WHERE identifier = $1
		RETURNING id, identifier, value, expires_at, created_at, updated_at`, identifier)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("verificationRepo.Consume: %w", err)
	}
	return &v, nil
}

func (r *verificationRepo) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM verifications WHERE expires_at < $1", before)
	if err != nil {
		return 0, fmt.Errorf("verificationRepo.DeleteExpired: %w", err)
	}
	rows, _ := result.RowsAffected()
	return rows, nil
}
