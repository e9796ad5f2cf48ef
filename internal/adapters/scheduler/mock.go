package scheduler

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
)

type MockScheduler struct {
	mock.Mock
}

func NewMockScheduler() *MockScheduler {
	return &MockScheduler{}
}

func (m *MockScheduler) Schedule(key string, delay time.Duration, fn func(ctx context.Context)) {
	m.Called(key, delay, fn)
}

func (m *MockScheduler) Cancel(key string) bool {
	args := m.Called(key)
	return args.Bool(0)
}
