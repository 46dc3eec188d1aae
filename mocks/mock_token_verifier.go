package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockTokenVerifier is a mock implementation of port.FarcasterTokenVerifier.
type MockTokenVerifier struct {
	mock.Mock
}

func (m *MockTokenVerifier) VerifyToken(ctx context.Context, domain, token string) (int64, error) {
	args := m.Called(ctx, domain, token)
	return args.Get(0).(int64), args.Error(1)
}
