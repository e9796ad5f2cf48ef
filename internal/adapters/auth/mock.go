package auth

import (
	"context"
	"roomdrop/internal/core/domain"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockCredentialVerifier is a mock implementation of port.CredentialVerifier
type MockCredentialVerifier struct {
	mock.Mock
}

// NewMockCredentialVerifier creates a new MockCredentialVerifier
func NewMockCredentialVerifier() *MockCredentialVerifier {
	return &MockCredentialVerifier{}
}

func (m *MockCredentialVerifier) Verify(ctx context.Context, token string) (*domain.Credential, error) {
	args := m.Called(ctx, token)
	credential, _ := args.Get(0).(*domain.Credential)
	return credential, args.Error(1)
}

// MockCredentialIssuer is a mock implementation of port.CredentialIssuer
type MockCredentialIssuer struct {
	mock.Mock
}

// NewMockCredentialIssuer creates a new MockCredentialIssuer
func NewMockCredentialIssuer() *MockCredentialIssuer {
	return &MockCredentialIssuer{}
}

func (m *MockCredentialIssuer) Issue(roomID uuid.UUID, permission domain.Permission, ttl time.Duration) (string, *domain.CredentialRecord, error) {
	args := m.Called(roomID, permission, ttl)
	record, _ := args.Get(1).(*domain.CredentialRecord)
	return args.String(0), record, args.Error(2)
}
