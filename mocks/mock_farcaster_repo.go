package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"siwf/internal/domain"
)

// MockFarcasterRepo is a mock implementation of port.FarcasterRepository.
type MockFarcasterRepo struct {
	mock.Mock
}

func (m *MockFarcasterRepo) GetByFID(ctx context.Context, fid int64) (*domain.FarcasterIdentity, error) {
	args := m.Called(ctx, fid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FarcasterIdentity), args.Error(1)
}

func (m *MockFarcasterRepo) CreateWithUser(ctx context.Context, user *domain.User, identity *domain.FarcasterIdentity, account *domain.Account) error {
	args := m.Called(ctx, user, identity, account)
	return args.Error(0)
}
