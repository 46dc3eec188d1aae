package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"siwf/internal/domain"
	"siwf/internal/service"
)

// MockSIWFService is a mock implementation of service.SIWFService.
type MockSIWFService struct {
	mock.Mock
}

func (m *MockSIWFService) RequestNonce(ctx context.Context, input service.NonceInput) (*service.NonceOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.NonceOutput), args.Error(1)
}

func (m *MockSIWFService) Verify(ctx context.Context, input service.VerifyInput, meta service.SessionMeta) (*service.VerifyOutput, error) {
	args := m.Called(ctx, input, meta)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.VerifyOutput), args.Error(1)
}

func (m *MockSIWFService) CurrentUser(ctx context.Context, userID uuid.UUID, fid int64) (*service.SignedInUser, error) {
	args := m.Called(ctx, userID, fid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.SignedInUser), args.Error(1)
}

func (m *MockSIWFService) ListWallets(ctx context.Context, userID uuid.UUID) ([]domain.WalletAddress, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.WalletAddress), args.Error(1)
}
