package registry

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type MockConnectionRegistry struct {
	mock.Mock
}

func NewMockConnectionRegistry() *MockConnectionRegistry {
	return &MockConnectionRegistry{}
}

func (m *MockConnectionRegistry) CountLiveConnections(ctx context.Context, roomSlug string) (int, error) {
	args := m.Called(ctx, roomSlug)
	return args.Int(0), args.Error(1)
}
