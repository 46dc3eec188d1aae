package memory_test

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"siwf/internal/domain"
	"siwf/internal/repository/memory"
)

func newIdentity(fid int64) (*domain.User, *domain.FarcasterIdentity, *domain.Account) {
	return &domain.User{Name: "u", Email: strconv.FormatInt(fid, 10) + "@farcaster.emails"},
		&domain.FarcasterIdentity{FID: fid},
		&domain.Account{ProviderID: domain.AuthProviderFarcaster, AccountID: domain.FarcasterAccountID(fid)}
}

func TestStore_CreateWithUser_Duplicate(t *testing.T) {
	s := memory.NewStore()
	ctx := context.Background()

	u, i, a := newIdentity(42)
	require.NoError(t, s.Farcaster().CreateWithUser(ctx, u, i, a))

	u2, i2, a2 := newIdentity(42)
	err := s.Farcaster().CreateWithUser(ctx, u2, i2, a2)
	assert.ErrorIs(t, err, domain.ErrDuplicateFID)

	users, identities := s.Counts()
	assert.Equal(t, 1, users)
	assert.Equal(t, 1, identities)

	got, err := s.Farcaster().GetByFID(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.UserID)

	user, err := s.Users().GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "u", user.Name)
}

func TestStore_Consume_SingleWinner(t *testing.T) {
	s := memory.NewStore()
	ctx := context.Background()
	require.NoError(t, s.Verifications().Upsert(ctx, &domain.Verification{
		Identifier: "siwf:1", Value: "n", ExpiresAt: time.Now().Add(time.Minute),
	}))

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.Verifications().Consume(ctx, "siwf:1"); err == nil {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins.Load())
}

func TestStore_Upsert_Replaces(t *testing.T) {
	s := memory.NewStore()
	ctx := context.Background()
	exp := time.Now().Add(time.Minute)
	require.NoError(t, s.Verifications().Upsert(ctx, &domain.Verification{Identifier: "siwf:1", Value: "a", ExpiresAt: exp}))
	require.NoError(t, s.Verifications().Upsert(ctx, &domain.Verification{Identifier: "siwf:1", Value: "b", ExpiresAt: exp}))

	v, err := s.Verifications().Consume(ctx, "siwf:1")
	require.NoError(t, err)
	assert.Equal(t, "b", v.Value)

	_, err = s.Verifications().Consume(ctx, "siwf:1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_Wallets_Idempotent(t *testing.T) {
	s := memory.NewStore()
	ctx := context.Background()
	userID := uuid.New()
	chain := domain.ChainIDEthereum

	batch := func() []domain.WalletAddress {
		return []domain.WalletAddress{
			{UserID: userID, Address: "0xa", ChainID: &chain, IsPrimary: true},
			{UserID: userID, Address: "0xb", ChainID: &chain},
		}
	}
	require.NoError(t, s.Wallets().CreateBatch(ctx, batch()))
	require.NoError(t, s.Wallets().CreateBatch(ctx, batch()))

	list, err := s.Wallets().ListByUser(ctx, userID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "0xa", list[0].Address)
}

func TestStore_DeleteExpired(t *testing.T) {
	s := memory.NewStore()
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, s.Verifications().Upsert(ctx, &domain.Verification{Identifier: "old", ExpiresAt: now.Add(-time.Minute)}))
	require.NoError(t, s.Verifications().Upsert(ctx, &domain.Verification{Identifier: "new", ExpiresAt: now.Add(time.Minute)}))
	require.NoError(t, s.Sessions().Create(ctx, &domain.Session{UserID: uuid.New(), ExpiresAt: now.Add(-time.Second)}))

	n, err := s.Verifications().DeleteExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = s.Sessions().DeleteExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = s.Verifications().Consume(ctx, "new")
	assert.NoError(t, err)
}
