// Package account manages user registration, credential exchange and
// profiles. Every account carries exactly one role assigned at registration;
// the other domains consult this package to validate that a referenced user
// actually holds the role an operation requires.
package account

import (
	"time"

	"github.com/google/uuid"

	"github.com/pamela-btob/sghss-uninter/internal/platform/auth"
)

// User maps to the users table. CPF, phone and birth date are encrypted at
// rest; CPFHash is a SHA-256 digest kept alongside so uniqueness can be
// enforced on a deterministic value.
type User struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	Username     string     `db:"username" json:"username"`
	Email        string     `db:"email" json:"email"`
	Role         auth.Role  `db:"role" json:"role"`
	PasswordHash string     `db:"password_hash" json:"-"`
	CPF          *string    `db:"cpf" json:"cpf,omitempty"`
	CPFHash      *string    `db:"cpf_hash" json:"-"`
	Phone        *string    `db:"phone" json:"phone,omitempty"`
	BirthDate    *string    `db:"birth_date" json:"birth_date,omitempty"`
	CRM          *string    `db:"crm" json:"crm,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// Profile is the authenticated user's own view of their account.
type Profile struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
	Role     auth.Role `json:"role"`
}

func (u *User) Profile() *Profile {
	return &Profile{ID: u.ID, Username: u.Username, Email: u.Email, Role: u.Role}
}
