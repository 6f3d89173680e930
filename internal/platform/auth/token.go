package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// Claims are the JWT claims carried by both access and refresh tokens.
type Claims struct {
	jwt.RegisteredClaims
	Role      Role   `json:"role"`
	TokenType string `json:"token_type"`
}

// TokenPair is the result of a credential exchange.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// TokenManager issues and verifies HS256-signed token pairs.
type TokenManager struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewTokenManager creates a TokenManager. The secret must be non-empty;
// config validation refuses to start the server without one outside
// development.
func NewTokenManager(secret []byte, issuer string, accessTTL, refreshTTL time.Duration) *TokenManager {
	if accessTTL <= 0 {
		accessTTL = 15 * time.Minute
	}
	if refreshTTL <= 0 {
		refreshTTL = 24 * time.Hour
	}
	return &TokenManager{secret: secret, issuer: issuer, accessTTL: accessTTL, refreshTTL: refreshTTL}
}

// GeneratePair issues an access+refresh pair for the given identity.
func (m *TokenManager) GeneratePair(id Identity) (*TokenPair, error) {
	access, err := m.sign(id, tokenTypeAccess, m.accessTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := m.sign(id, tokenTypeRefresh, m.refreshTTL)
	if err != nil {
		return nil, err
	}
	return &TokenPair{Access: access, Refresh: refresh}, nil
}

func (m *TokenManager) sign(id Identity, tokenType string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.ID.String(),
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
		Role:      id.Role,
		TokenType: tokenType,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", tokenType, err)
	}
	return signed, nil
}

// VerifyAccess parses and validates an access token and returns the identity
// it carries.
func (m *TokenManager) VerifyAccess(tokenStr string) (Identity, error) {
	return m.verify(tokenStr, tokenTypeAccess)
}

// VerifyRefresh parses and validates a refresh token.
func (m *TokenManager) VerifyRefresh(tokenStr string) (Identity, error) {
	return m.verify(tokenStr, tokenTypeRefresh)
}

func (m *TokenManager) verify(tokenStr, wantType string) (Identity, error) {
	claims := &Claims{}
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{"HS256"})}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, opts...)
	if err != nil || !token.Valid {
		return Identity{}, fmt.Errorf("invalid token")
	}
	if claims.TokenType != wantType {
		return Identity{}, fmt.Errorf("expected %s token, got %s", wantType, claims.TokenType)
	}
	if !claims.Role.Valid() {
		return Identity{}, fmt.Errorf("token carries unknown role")
	}
	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return Identity{}, fmt.Errorf("token subject is not a valid id")
	}
	return Identity{ID: id, Role: claims.Role}, nil
}
