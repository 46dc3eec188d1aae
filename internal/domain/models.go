package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx/types"
)

// User is the local account a Farcaster identity signs in as.
type User struct {
	ID            uuid.UUID `db:"id" json:"id"`
	Name          string    `db:"name" json:"name"`
	Email         string    `db:"email" json:"email"`
	EmailVerified bool      `db:"email_verified" json:"email_verified"`
	Image         *string   `db:"image" json:"image"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// Account links a User to an authentication provider.
type Account struct {
	ID         uuid.UUID    `db:"id" json:"id"`
	UserID     uuid.UUID    `db:"user_id" json:"user_id"`
	ProviderID AuthProvider `db:"provider_id" json:"provider_id"`
	AccountID  string       `db:"account_id" json:"account_id"`
	CreatedAt  time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time    `db:"updated_at" json:"updated_at"`
}

// FarcasterIdentity is the local profile of a Farcaster fid. One row per fid.
type FarcasterIdentity struct {
	ID                  uuid.UUID          `db:"id" json:"id"`
	UserID              uuid.UUID          `db:"user_id" json:"user_id"`
	FID                 int64              `db:"fid" json:"fid"`
	Username            *string            `db:"username" json:"username"`
	DisplayName         *string            `db:"display_name" json:"display_name"`
	AvatarURL           *string            `db:"avatar_url" json:"avatar_url"`
	NotificationDetails types.NullJSONText `db:"notification_details" json:"-"`
	CreatedAt           time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time          `db:"updated_at" json:"updated_at"`
}

// WalletAddress is an on-chain address linked to a user.
type WalletAddress struct {
	ID        uuid.UUID `db:"id" json:"id"`
	UserID    uuid.UUID `db:"user_id" json:"user_id"`
	Address   string    `db:"address" json:"address"`
	ChainID   *int64    `db:"chain_id" json:"chain_id"`
	IsPrimary bool      `db:"is_primary" json:"is_primary"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Verification is a short-lived single-use value keyed by identifier.
// Sign-in nonces are stored under "siwf:<fid>".
type Verification struct {
	ID         uuid.UUID `db:"id" json:"id"`
	Identifier string    `db:"identifier" json:"identifier"`
	Value      string    `db:"value" json:"value"`
	ExpiresAt  time.Time `db:"expires_at" json:"expires_at"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// IsExpired reports whether the verification is past its expiry at now.
func (v *Verification) IsExpired(now time.Time) bool {
	return now.After(v.ExpiresAt)
}

// Session is an authenticated session for a user, carrying the fid it was
// established with.
type Session struct {
	ID        uuid.UUID `db:"id" json:"id"`
	UserID    uuid.UUID `db:"user_id" json:"user_id"`
	FID       int64     `db:"fid" json:"fid"`
	IPAddress string    `db:"ip_address" json:"ip_address"`
	UserAgent string    `db:"user_agent" json:"user_agent"`
	ExpiresAt time.Time `db:"expires_at" json:"expires_at"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
