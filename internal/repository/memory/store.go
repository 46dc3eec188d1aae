// Package memory provides in-process implementations of the repository
// ports. A single Store backs all of them so identity creation can be
// atomic across users, identities and accounts.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"siwf/internal/domain"
	"siwf/internal/port"
)

type walletKey struct {
	userID  uuid.UUID
	address string
	chainID int64
}

// Store holds all records behind one mutex.
type Store struct {
	mu            sync.Mutex
	users         map[uuid.UUID]domain.User
	emails        map[string]uuid.UUID
	identities    map[int64]domain.FarcasterIdentity
	accounts      map[string]domain.Account
	wallets       map[walletKey]domain.WalletAddress
	verifications map[string]domain.Verification
	sessions      map[uuid.UUID]domain.Session
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		users:         make(map[uuid.UUID]domain.User),
		emails:        make(map[string]uuid.UUID),
		identities:    make(map[int64]domain.FarcasterIdentity),
		accounts:      make(map[string]domain.Account),
		wallets:       make(map[walletKey]domain.WalletAddress),
		verifications: make(map[string]domain.Verification),
		sessions:      make(map[uuid.UUID]domain.Session),
	}
}

// Users returns the store as a UserRepository.
func (s *Store) Users() port.UserRepository { return (*userRepo)(s) }

// Farcaster returns the store as a FarcasterRepository.
func (s *Store) Farcaster() port.FarcasterRepository { return (*farcasterRepo)(s) }

// Wallets returns the store as a WalletAddressRepository.
func (s *Store) Wallets() port.WalletAddressRepository { return (*walletRepo)(s) }

// Verifications returns the store as a VerificationRepository.
func (s *Store) Verifications() port.VerificationRepository { return (*verificationRepo)(s) }

// Sessions returns the store as a SessionRepository.
func (s *Store) Sessions() port.SessionRepository { return (*sessionRepo)(s) }

// Counts reports the number of users and identities, for tests and diagnostics.
func (s *Store) Counts() (users, identities int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users), len(s.identities)
}

type userRepo Store

func (r *userRepo) GetByID(_ context.Context, userID uuid.UUID) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &u, nil
}

type farcasterRepo Store

func (r *farcasterRepo) GetByFID(_ context.Context, fid int64) (*domain.FarcasterIdentity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	identity, ok := r.identities[fid]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &identity, nil
}

func (r *farcasterRepo) CreateWithUser(_ context.Context, user *domain.User, identity *domain.FarcasterIdentity, account *domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.identities[identity.FID]; exists {
		return domain.ErrDuplicateFID
	}
	if _, exists := r.emails[strings.ToLower(user.Email)]; exists {
		return fmt.Errorf("users: %w", domain.ErrDuplicateFID)
	}
	accountKey := string(account.ProviderID) + "|" + account.AccountID
	if _, exists := r.accounts[accountKey]; exists {
		return domain.ErrDuplicateFID
	}

	now := time.Now().UTC()
	user.ID = uuid.New()
	user.CreatedAt, user.UpdatedAt = now, now
	identity.ID = uuid.New()
	identity.UserID = user.ID
	identity.CreatedAt, identity.UpdatedAt = now, now
	account.ID = uuid.New()
	account.UserID = user.ID
	account.CreatedAt, account.UpdatedAt = now, now

	r.users[user.ID] = *user
	r.emails[strings.ToLower(user.Email)] = user.ID
	r.identities[identity.FID] = *identity
	r.accounts[accountKey] = *account
	return nil
}

type walletRepo Store

func (r *walletRepo) CreateBatch(_ context.Context, addresses []domain.WalletAddress) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	for i := range addresses {
		a := &addresses[i]
		key := walletKey{userID: a.UserID, address: a.Address}
		if a.ChainID != nil {
			key.chainID = *a.ChainID
		}
		if _, exists := r.wallets[key]; exists {
			continue
		}
		if a.ID == uuid.Nil {
			a.ID = uuid.New()
		}
		a.CreatedAt = now
		r.wallets[key] = *a
	}
	return nil
}

func (r *walletRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]domain.WalletAddress, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []domain.WalletAddress
	for _, a := range r.wallets {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].IsPrimary != out[j].IsPrimary {
			return out[i].IsPrimary
		}
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].Address < out[j].Address
	})
	return out, nil
}

type verificationRepo Store

func (r *verificationRepo) Upsert(_ context.Context, v *domain.Verification) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	v.ID = uuid.New()
	v.CreatedAt, v.UpdatedAt = now, now
	r.verifications[v.Identifier] = *v
	return nil
}

func (r *verificationRepo) Consume(_ context.Context, identifier string) (*domain.Verification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	v, ok := r.verifications[identifier]
	if !ok {
		return nil, domain.ErrNotFound
	}
	delete(r.verifications, identifier)
	return &v, nil
}

func (r *verificationRepo) DeleteExpired(_ context.Context, before time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for k, v := range r.verifications {
		if v.ExpiresAt.Before(before) {
			delete(r.verifications, k)
			n++
		}
	}
	return n, nil
}

type sessionRepo Store

func (r *sessionRepo) Create(_ context.Context, session *domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if session.ID == uuid.Nil {
		session.ID = uuid.New()
	}
	session.CreatedAt = time.Now().UTC()
	r.sessions[session.ID] = *session
	return nil
}

func (r *sessionRepo) GetByID(_ context.Context, sessionID uuid.UUID) (*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[sessionID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &s, nil
}

func (r *sessionRepo) Delete(_ context.Context, sessionID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[sessionID]; !ok {
		return domain.ErrNotFound
	}
	delete(r.sessions, sessionID)
	return nil
}

func (r *sessionRepo) DeleteExpired(_ context.Context, before time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for k, s := range r.sessions {
		if s.ExpiresAt.Before(before) {
			delete(r.sessions, k)
			n++
		}
	}
	return n, nil
}
