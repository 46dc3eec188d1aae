package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockNonceGenerator is a mock implementation of port.NonceGenerator.
type MockNonceGenerator struct {
	mock.Mock
}

func (m *MockNonceGenerator) Generate(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}
