package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"siwf/internal/domain"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return sqlx.NewDb(db, "sqlmock"), mock
}

func strPtr(s string) *string { return &s }

func TestIsUniqueViolation(t *testing.T) {
	fidErr := &pgconn.PgError{Code: "23505", ConstraintName: constraintFarcasterFID}

	assert.True(t, isUniqueViolation(fidErr))
	assert.True(t, isUniqueViolation(fidErr, constraintFarcasterFID))
	assert.False(t, isUniqueViolation(fidErr, constraintUserEmail))
	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, isUniqueViolation(errors.New("boom")))
}

func TestUserRepo_GetByID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepo(db)
	id := uuid.New()
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM users WHERE id = $1")).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "email_verified", "image", "created_at", "updated_at"}).
			AddRow(id.String(), "alice", "7@farcaster.emails", false, "https://img/a.png", now, now))

	user, err := repo.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Name)
	require.NotNil(t, user.Image)
	assert.Equal(t, "https://img/a.png", *user.Image)
}

func TestUserRepo_GetByID_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM users WHERE id = $1")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestFarcasterRepo_GetByFID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewFarcasterRepo(db)
	id, userID := uuid.New(), uuid.New()
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM farcaster WHERE fid = $1")).
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "fid", "username", "display_name", "avatar_url",
			"notification_details", "created_at", "updated_at"}).
			AddRow(id.String(), userID.String(), int64(42), "alice", nil, nil, nil, now, now))

	identity, err := repo.GetByFID(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, userID, identity.UserID)
	require.NotNil(t, identity.Username)
	assert.Equal(t, "alice", *identity.Username)
	assert.False(t, identity.NotificationDetails.Valid)
}

func TestFarcasterRepo_GetByFID_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewFarcasterRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM farcaster WHERE fid = $1")).
		WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetByFID(context.Background(), 9)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func newIdentityFixture() (*domain.User, *domain.FarcasterIdentity, *domain.Account) {
	user := &domain.User{Name: "alice", Email: "42@farcaster.emails", Image: strPtr("https://img/a.png")}
	identity := &domain.FarcasterIdentity{FID: 42, Username: strPtr("alice")}
	account := &domain.Account{ProviderID: domain.AuthProviderFarcaster, AccountID: domain.FarcasterAccountID(42)}
	return user, identity, account
}

func TestFarcasterRepo_CreateWithUser(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewFarcasterRepo(db)
	user, identity, account := newIdentityFixture()

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO users`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO farcaster`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO accounts`).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), domain.AuthProviderFarcaster, "farcaster:42",
			sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.CreateWithUser(context.Background(), user, identity, account)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, user.ID)
	assert.Equal(t, user.ID, identity.UserID)
	assert.Equal(t, user.ID, account.UserID)
}

func TestFarcasterRepo_CreateWithUser_DuplicateFID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewFarcasterRepo(db)
	user, identity, account := newIdentityFixture()

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO users`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO farcaster`).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: constraintFarcasterFID})
	mock.ExpectRollback()

	err := repo.CreateWithUser(context.Background(), user, identity, account)
	assert.ErrorIs(t, err, domain.ErrDuplicateFID)
}

func TestFarcasterRepo_CreateWithUser_DuplicateEmail(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewFarcasterRepo(db)
	user, identity, account := newIdentityFixture()

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO users`).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: constraintUserEmail})
	mock.ExpectRollback()

	err := repo.CreateWithUser(context.Background(), user, identity, account)
	assert.ErrorIs(t, err, domain.ErrDuplicateFID)
}

func TestFarcasterRepo_CreateWithUser_OtherError(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewFarcasterRepo(db)
	user, identity, account := newIdentityFixture()

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO users`).WillReturnError(errors.New("db down"))
	mock.ExpectRollback()

	err := repo.CreateWithUser(context.Background(), user, identity, account)
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrDuplicateFID)
	assert.Contains(t, err.Error(), "db down")
}

func TestWalletAddressRepo_CreateBatch(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewWalletAddressRepo(db)
	userID := uuid.New()
	optimism, mainnet := domain.ChainIDOptimism, domain.ChainIDEthereum

	addresses := []domain.WalletAddress{
		{UserID: userID, Address: "0xcustody", ChainID: &optimism, IsPrimary: true},
		{UserID: userID, Address: "0xverified", ChainID: &mainnet},
	}

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO wallet_addresses .* ON CONFLICT \(user_id, address, chain_id\) DO NOTHING`).
		WithArgs(sqlmock.AnyArg(), userID, "0xcustody", &optimism, true, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO wallet_addresses`).
		WithArgs(sqlmock.AnyArg(), userID, "0xverified", &mainnet, false, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	require.NoError(t, repo.CreateBatch(context.Background(), addresses))
	assert.NotEqual(t, uuid.Nil, addresses[0].ID)
}

func TestWalletAddressRepo_CreateBatch_Empty(t *testing.T) {
	db, _ := newMockDB(t)
	repo := NewWalletAddressRepo(db)

	assert.NoError(t, repo.CreateBatch(context.Background(), nil))
}

func TestWalletAddressRepo_ListByUser(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewWalletAddressRepo(db)
	userID := uuid.New()
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT \* FROM wallet_addresses WHERE user_id = \$1`).
		WithArgs(userID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "address", "chain_id", "is_primary", "created_at"}).
			AddRow(uuid.New().String(), userID.String(), "0xcustody", int64(10), true, now).
			AddRow(uuid.New().String(), userID.String(), "0xverified", int64(1), false, now))

	list, err := repo.ListByUser(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.True(t, list[0].IsPrimary)
	require.NotNil(t, list[1].ChainID)
	assert.Equal(t, int64(1), *list[1].ChainID)
}

func TestVerificationRepo_Upsert(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewVerificationRepo(db)
	expires := time.Now().Add(15 * time.Minute)

	mock.ExpectExec(`INSERT INTO verifications .* ON CONFLICT \(identifier\)\s+DO UPDATE`).
		WithArgs(sqlmock.AnyArg(), "siwf:42", "nonce-1", expires, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	v := &domain.Verification{Identifier: "siwf:42", Value: "nonce-1", ExpiresAt: expires}
	require.NoError(t, repo.Upsert(context.Background(), v))
	assert.NotEqual(t, uuid.Nil, v.ID)
}

func TestVerificationRepo_Consume(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewVerificationRepo(db)
	now := time.Now().UTC()

	mock.ExpectQuery(`DELETE FROM verifications WHERE identifier = \$1\s+RETURNING`).
		WithArgs("siwf:42").
		WillReturnRows(sqlmock.NewRows([]string{"id", "identifier", "value", "expires_at", "created_at", "updated_at"}).
			AddRow(uuid.New().String(), "siwf:42", "nonce-1", now.Add(time.Minute), now, now))

	v, err := repo.Consume(context.Background(), "siwf:42")
	require.NoError(t, err)
	assert.Equal(t, "nonce-1", v.Value)
}

func TestVerificationRepo_Consume_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewVerificationRepo(db)

	mock.ExpectQuery(`DELETE FROM verifications`).
		WithArgs("siwf:42").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.Consume(context.Background(), "siwf:42")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestVerificationRepo_DeleteExpired(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewVerificationRepo(db)
	before := time.Now()

	mock.ExpectExec(`DELETE FROM verifications WHERE expires_at < \$1`).
		WithArgs(before).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := repo.DeleteExpired(context.Background(), before)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestSessionRepo_CreateAndGet(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSessionRepo(db)
	session := &domain.Session{UserID: uuid.New(), FID: 42, IPAddress: "10.0.0.1", UserAgent: "test",
		ExpiresAt: time.Now().Add(time.Hour)}

	mock.ExpectExec(`INSERT INTO sessions`).
		WithArgs(sqlmock.AnyArg(), session.UserID, int64(42), "10.0.0.1", "test", session.ExpiresAt, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Create(context.Background(), session))
	require.NotEqual(t, uuid.Nil, session.ID)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM sessions WHERE id = $1")).
		WithArgs(session.ID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "fid", "ip_address", "user_agent", "expires_at", "created_at"}).
			AddRow(session.ID.String(), session.UserID.String(), int64(42), "10.0.0.1", "test", session.ExpiresAt, session.CreatedAt))

	got, err := repo.GetByID(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(42), got.FID)
}

func TestSessionRepo_Delete_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSessionRepo(db)
	id := uuid.New()

	mock.ExpectExec(`DELETE FROM sessions WHERE id = \$1`).
		WithArgs(id).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, repo.Delete(context.Background(), id), domain.ErrNotFound)
}

func TestSessionRepo_DeleteExpired(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSessionRepo(db)
	before := time.Now()

	mock.ExpectExec(`DELETE FROM sessions WHERE expires_at < \$1`).
		WithArgs(before).
		WillReturnResult(sqlmock.NewResult(0, 2))

	n, err := repo.DeleteExpired(context.Background(), before)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}
