package jwt

import (
	"context"
	"errors"
	"fmt"
	"roomdrop/internal/config"
	"roomdrop/internal/core/domain"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// RoomClaims are the claims of a room credential
type RoomClaims struct {
	RoomID     string `json:"room_id"`
	Permission uint8  `json:"perm"`
	jwt.RegisteredClaims
}

// Adapter signs and verifies HS256 room credentials
type Adapter struct {
	secret []byte
	issuer string
	leeway time.Duration
}

// NewAdapter returns Adapter
func NewAdapter(cfg config.AuthConfig) *Adapter {
	return &Adapter{secret: []byte(cfg.JWTSecret), issuer: cfg.Issuer, leeway: 5 * time.Second}
}

// Issue signs a credential for a room and returns the token with its record
func (a *Adapter) Issue(roomID uuid.UUID, permission domain.Permission, ttl time.Duration) (string, *domain.CredentialRecord, error) {
	if ttl <= 0 {
		return "", nil, fmt.Errorf("credential ttl must be positive: %w", domain.ErrValidation)
	}

	now := time.Now()
	jti := uuid.NewString()
	claims := RoomClaims{
		RoomID:     roomID.String(),
		Permission: uint8(permission),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Issuer:    a.issuer,
			Subject:   roomID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign credential: %w", err)
	}

	return token, &domain.CredentialRecord{
		JTI:       jti,
		RoomID:    roomID,
		ExpiresAt: claims.ExpiresAt.Time,
		CreatedAt: now,
	}, nil
}

// Verify parses a token and returns the credential it carries
func (a *Adapter) Verify(_ context.Context, token string) (*domain.Credential, error) {
	claims := &RoomClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(a.issuer),
		jwt.WithLeeway(a.leeway),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: credential expired", domain.ErrPermissionDenied)
		}
		return nil, fmt.Errorf("%w: invalid credential", domain.ErrPermissionDenied)
	}
	if !parsed.Valid || claims.ID == "" {
		return nil, fmt.Errorf("%w: invalid credential", domain.ErrPermissionDenied)
	}

	roomID, err := uuid.Parse(claims.RoomID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid room claim", domain.ErrPermissionDenied)
	}

	return &domain.Credential{
		ID:         claims.ID,
		RoomID:     roomID,
		Permission: domain.Permission(claims.Permission),
		ExpiresAt:  claims.ExpiresAt.Time,
	}, nil
}
