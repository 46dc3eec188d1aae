package port

import (
	"context"
	"time"

	"github.com/google/uuid"

	"siwf/internal/domain"
)

// UserRepository defines the contract for user persistence.
type UserRepository interface {
	GetByID(ctx context.Context, userID uuid.UUID) (*domain.User, error)
}

// FarcasterRepository persists Farcaster identities.
type FarcasterRepository interface {
	GetByFID(ctx context.Context, fid int64) (*domain.FarcasterIdentity, error)
	// CreateWithUser writes the user, the identity and the provider account
	// atomically. It returns domain.ErrDuplicateFID if an identity for the
	// fid already exists, in which case nothing is written.
	CreateWithUser(ctx context.Context, user *domain.User, identity *domain.FarcasterIdentity, account *domain.Account) error
}

// WalletAddressRepository persists linked wallet addresses.
type WalletAddressRepository interface {
	// CreateBatch inserts the addresses, skipping any (user, address, chain)
	// triple that already exists.
	CreateBatch(ctx context.Context, addresses []domain.WalletAddress) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.WalletAddress, error)
}

// VerificationRepository stores short-lived single-use values.
type VerificationRepository interface {
	// Upsert stores v, replacing any existing record with the same identifier.
	Upsert(ctx context.Context, v *domain.Verification) error
	// Consume deletes the record for identifier and returns it, as one
	// storage operation. Returns domain.ErrNotFound if there is none.
	Consume(ctx context.Context, identifier string) (*domain.Verification, error)
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

// SessionRepository persists sessions.
type SessionRepository interface {
	Create(ctx context.Context, session *domain.Session) error
	GetByID(ctx context.Context, sessionID uuid.UUID) (*domain.Session, error)
	Delete(ctx context.Context, sessionID uuid.UUID) error
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}
