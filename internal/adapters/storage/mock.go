package storage

import (
	"context"
	"io"
	"time"

	"github.com/stretchr/testify/mock"
)

type MockStorage struct {
	mock.Mock
}

func NewMockStorage() *MockStorage {
	return &MockStorage{}
}

// Put drains body so callers hashing through a TeeReader see every byte
func (m *MockStorage) Put(ctx context.Context, key string, body io.Reader, size int64) error {
	data, _ := io.ReadAll(body)
	args := m.Called(ctx, key, data, size)
	return args.Error(0)
}

func (m *MockStorage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	args := m.Called(ctx, key)
	reader, _ := args.Get(0).(io.ReadCloser)
	return reader, args.Error(1)
}

func (m *MockStorage) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockStorage) DeletePrefix(ctx context.Context, prefix string) error {
	args := m.Called(ctx, prefix)
	return args.Error(0)
}

func (m *MockStorage) Exists(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

type MockLinkGenerator struct {
	mock.Mock
}

func NewMockLinkGenerator() *MockLinkGenerator {
	return &MockLinkGenerator{}
}

func (m *MockLinkGenerator) DownloadURL(ctx context.Context, key string, fileName string) (string, *time.Time, error) {
	args := m.Called(ctx, key, fileName)
	expiresAt, _ := args.Get(1).(*time.Time)
	return args.String(0), expiresAt, args.Error(2)
}
