package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"siwf/internal/domain"
)

// MockWalletAddressRepo is a mock implementation of port.WalletAddressRepository.
type MockWalletAddressRepo struct {
	mock.Mock
}

func (m *MockWalletAddressRepo) CreateBatch(ctx context.Context, addresses []domain.WalletAddress) error {
	args := m.Called(ctx, addresses)
	return args.Error(0)
}

func (m *MockWalletAddressRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.WalletAddress, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.WalletAddress), args.Error(1)
}
