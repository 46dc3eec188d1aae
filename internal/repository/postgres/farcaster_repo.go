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

// Constraints that signal a concurrent first sign-in for the same fid. The
// synthetic email is derived from the fid, so a clash on it means the same.
const (
	constraintFarcasterFID = "farcaster_fid_key"
	constraintUserEmail    = "users_email_key"
	constraintAccount      = "accounts_provider_id_account_id_key"
)

type farcasterRepo struct {
	db *sqlx.DB
}

// NewFarcasterRepo creates a new PostgreSQL-backed FarcasterRepository.
func NewFarcasterRepo(db *sqlx.DB) port.FarcasterRepository {
	return &farcasterRepo{db: db}
}

func (r *farcasterRepo) GetByFID(ctx context.Context, fid int64) (*domain.FarcasterIdentity, error) {
	var identity domain.FarcasterIdentity
	err := r.db.GetContext(ctx, &identity, "SELECT * FROM farcaster WHERE fid = $1", fid)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("farcasterRepo.GetByFID: %w", err)
	}
	return &identity, nil
}

func (r *farcasterRepo) CreateWithUser(ctx context.Context, user *domain.User, identity *domain.FarcasterIdentity, account *domain.Account) error {
	now := time.Now().UTC()
	user.ID = uuid.New()
	user.CreatedAt, user.UpdatedAt = now, now
	identity.ID = uuid.New()
	identity.UserID = user.ID
	identity.CreatedAt, identity.UpdatedAt = now, now
	account.ID = uuid.New()
	account.UserID = user.ID
	account.CreatedAt, account.UpdatedAt = now, now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("farcasterRepo.CreateWithUser begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO users (id, name, email, email_verified, image, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		user.ID, user.Name, user.Email, user.EmailVerified, user.Image, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		return r.mapInsertErr("users", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO farcaster (id, user_id, fid, username, display_name, avatar_url,
		notification_details, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		identity.ID, identity.UserID, identity.FID, identity.Username, identity.DisplayName,
		identity.AvatarURL, identity.NotificationDetails, identity.CreatedAt, identity.UpdatedAt)
	if err != nil {
		return r.mapInsertErr("farcaster", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO accounts (id, user_id, provider_id, account_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		account.ID, account.UserID, account.ProviderID, account.AccountID, account.CreatedAt, account.UpdatedAt)
	if err != nil {
		return r.mapInsertErr("accounts", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("farcasterRepo.CreateWithUser commit: %w", err)
	}
	return nil
}

func (r *farcasterRepo) mapInsertErr(table string, err error) error {
	if isUniqueViolation(err, constraintFarcasterFID, constraintUserEmail, constraintAccount) {
		return fmt.Errorf("farcasterRepo.CreateWithUser %s: %w", table, domain.ErrDuplicateFID)
	}
	return fmt.Errorf("farcasterRepo.CreateWithUser %s: %w", table, err)
}
