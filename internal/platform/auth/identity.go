// Package auth resolves bearer credentials into an identity carrying exactly
// one role, issues and verifies the JWT pairs exchanged at /api/token/, and
// provides the echo middleware that fails closed on missing or invalid
// credentials.
package auth

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Role classifies an account. The set is closed: every account holds exactly
// one of these, assigned at registration and immutable afterwards.
type Role string

const (
	RolePatient Role = "patient"
	RoleDoctor  Role = "doctor"
	RoleAdmin   Role = "admin"
)

// ParseRole accepts both the canonical role names and the single-letter codes
// (P, M, A) used by the legacy system.
func ParseRole(s string) (Role, error) {
	switch s {
	case string(RolePatient), "P":
		return RolePatient, nil
	case string(RoleDoctor), "M":
		return RoleDoctor, nil
	case string(RoleAdmin), "A":
		return RoleAdmin, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// Valid reports whether r is one of the three known roles.
func (r Role) Valid() bool {
	return r == RolePatient || r == RoleDoctor || r == RoleAdmin
}

// Identity is the resolved caller passed to every permission check: an opaque
// capability carrying the account id and its role.
type Identity struct {
	ID   uuid.UUID
	Role Role
}

type contextKey string

const identityKey contextKey = "identity"

// WithIdentity returns a context carrying the resolved identity.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext returns the identity set by the auth middleware. The
// second return is false for unauthenticated contexts.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}
