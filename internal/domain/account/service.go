package account

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/pamela-btob/sghss-uninter/internal/platform/apperr"
	"github.com/pamela-btob/sghss-uninter/internal/platform/auth"
)

// Directory is the read-only view other domains use to validate referenced
// users and address notifications. *Service satisfies it.
type Directory interface {
	RoleOf(ctx context.Context, id uuid.UUID) (auth.Role, error)
	Contact(ctx context.Context, id uuid.UUID) (username, email string, err error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// RegisterInput is the payload for user registration.
type RegisterInput struct {
	Username        string  `json:"username"`
	Email           string  `json:"email"`
	Password        string  `json:"password"`
	PasswordConfirm string  `json:"password_confirm"`
	Role            string  `json:"role"`
	CPF             *string `json:"cpf,omitempty"`
	Phone           *string `json:"phone,omitempty"`
	BirthDate       *string `json:"birth_date,omitempty"`
	CRM             *string `json:"crm,omitempty"`
}

var cpfDigits = regexp.MustCompile(`^\d{11}$`)

// Register validates the input and creates the account. The role is taken
// from the input; professional-license authenticity is outside this system.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*User, error) {
	fields := make(map[string]string)

	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	if in.Username == "" {
		fields["username"] = "username is required"
	}
	if in.Email == "" || !strings.Contains(in.Email, "@") {
		fields["email"] = "a valid email is required"
	}
	if msg := passwordStrength(in.Password); msg != "" {
		fields["password"] = msg
	}
	if in.Password != in.PasswordConfirm {
		fields["password_confirm"] = "passwords do not match"
	}

	role, err := auth.ParseRole(in.Role)
	if err != nil {
		fields["role"] = "role must be patient, doctor or admin"
	}
	if err == nil && role == auth.RoleDoctor && (in.CRM == nil || strings.TrimSpace(*in.CRM) == "") {
		fields["crm"] = "crm is required for doctors"
	}
	if in.CPF != nil && !cpfDigits.MatchString(*in.CPF) {
		fields["cpf"] = "cpf must be 11 digits"
	}
	if len(fields) > 0 {
		return nil, apperr.FieldValidation(fields)
	}

	taken, err := s.repo.ExistsUsername(ctx, in.Username)
	if err != nil {
		return nil, fmt.Errorf("check username: %w", err)
	}
	if taken {
		return nil, apperr.FieldValidation(map[string]string{"username": "username already in use"})
	}

	var cpfHash *string
	if in.CPF != nil {
		h := hashCPF(*in.CPF)
		exists, err := s.repo.ExistsCPFHash(ctx, h)
		if err != nil {
			return nil, fmt.Errorf("check cpf: %w", err)
		}
		if exists {
			return nil, apperr.FieldValidation(map[string]string{"cpf": "cpf already registered"})
		}
		cpfHash = &h
	}

	if role == auth.RoleDoctor {
		exists, err := s.repo.ExistsCRM(ctx, *in.CRM)
		if err != nil {
			return nil, fmt.Errorf("check crm: %w", err)
		}
		if exists {
			return nil, apperr.FieldValidation(map[string]string{"crm": "crm already registered"})
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &User{
		Username:     in.Username,
		Email:        in.Email,
		Role:         role,
		PasswordHash: string(hash),
		CPF:          in.CPF,
		CPFHash:      cpfHash,
		Phone:        in.Phone,
		BirthDate:    in.BirthDate,
	}
	if role == auth.RoleDoctor {
		u.CRM = in.CRM
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

// Authenticate verifies a username/password pair and returns the identity to
// mint tokens for. Unknown users and wrong passwords are indistinguishable.
func (s *Service) Authenticate(ctx context.Context, username, password string) (auth.Identity, error) {
	u, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if apperr.IsNotFound(err) {
			return auth.Identity{}, apperr.Unauthorized("invalid credentials")
		}
		return auth.Identity{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return auth.Identity{}, apperr.Unauthorized("invalid credentials")
	}
	return auth.Identity{ID: u.ID, Role: u.Role}, nil
}

// Get returns the full account record.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

// RoleOf returns the role held by the given account.
func (s *Service) RoleOf(ctx context.Context, id uuid.UUID) (auth.Role, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	return u.Role, nil
}

// Contact returns the username and email used to address notifications.
func (s *Service) Contact(ctx context.Context, id uuid.UUID) (string, string, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return "", "", err
	}
	return u.Username, u.Email, nil
}

func passwordStrength(pw string) string {
	if len(pw) < 8 {
		return "password must have at least 8 characters"
	}
	var hasLetter, hasDigit bool
	for _, r := range pw {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasLetter || !hasDigit {
		return "password must contain letters and digits"
	}
	return ""
}

func hashCPF(cpf string) string {
	sum := sha256.Sum256([]byte(cpf))
	return hex.EncodeToString(sum[:])
}
