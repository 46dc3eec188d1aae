package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockWalletLinker is a mock implementation of service.WalletLinker.
type MockWalletLinker struct {
	mock.Mock
}

func (m *MockWalletLinker) Link(ctx context.Context, userID uuid.UUID, fid int64) error {
	args := m.Called(ctx, userID, fid)
	return args.Error(0)
}
