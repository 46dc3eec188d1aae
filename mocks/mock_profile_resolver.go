package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"siwf/internal/port"
)

// MockProfileResolver is a mock implementation of port.FarcasterProfileResolver.
type MockProfileResolver struct {
	mock.Mock
}

func (m *MockProfileResolver) ResolveUser(ctx context.Context, fid int64) (*port.FarcasterProfile, error) {
	args := m.Called(ctx, fid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*port.FarcasterProfile), args.Error(1)
}
