package account

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/pamela-btob/sghss-uninter/internal/platform/apperr"
	"github.com/pamela-btob/sghss-uninter/internal/platform/auth"
)

type mockRepo struct {
	users map[uuid.UUID]*User
}

func newMockRepo() *mockRepo {
	return &mockRepo{users: make(map[uuid.UUID]*User)}
}

func (m *mockRepo) Create(_ context.Context, u *User) error {
	u.ID = uuid.New()
	u.CreatedAt = time.Now()
	u.UpdatedAt = time.Now()
	m.users[u.ID] = u
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, apperr.NotFound("user")
	}
	return u, nil
}

func (m *mockRepo) GetByUsername(_ context.Context, username string) (*User, error) {
	for _, u := range m.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, apperr.NotFound("user")
}

func (m *mockRepo) ExistsUsername(_ context.Context, username string) (bool, error) {
	for _, u := range m.users {
		if u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockRepo) ExistsCPFHash(_ context.Context, hash string) (bool, error) {
	for _, u := range m.users {
		if u.CPFHash != nil && *u.CPFHash == hash {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockRepo) ExistsCRM(_ context.Context, crm string) (bool, error) {
	for _, u := range m.users {
		if u.CRM != nil && *u.CRM == crm {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockRepo) Update(_ context.Context, u *User) error {
	m.users[u.ID] = u
	return nil
}

func validRegistration() RegisterInput {
	return RegisterInput{
		Username:        "maria",
		Email:           "maria@example.com",
		Password:        "segredo123",
		PasswordConfirm: "segredo123",
		Role:            "patient",
	}
}

func TestRegister(t *testing.T) {
	svc := NewService(newMockRepo())
	u, err := svc.Register(context.Background(), validRegistration())
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if u.Role != auth.RolePatient {
		t.Errorf("role = %s, want patient", u.Role)
	}
	if u.PasswordHash == "segredo123" {
		t.Error("password stored in clear")
	}
}

func TestRegisterAcceptsLegacyRoleCodes(t *testing.T) {
	svc := NewService(newMockRepo())
	in := validRegistration()
	in.Role = "M"
	crm := "CRM-12345"
	in.CRM = &crm

	u, err := svc.Register(context.Background(), in)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if u.Role != auth.RoleDoctor {
		t.Errorf("role = %s, want doctor", u.Role)
	}
}

func TestRegisterPasswordMismatch(t *testing.T) {
	svc := NewService(newMockRepo())
	in := validRegistration()
	in.PasswordConfirm = "outra123"

	_, err := svc.Register(context.Background(), in)
	ae, ok := err.(*apperr.Error)
	if !ok || !apperr.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, ok := ae.Fields["password_confirm"]; !ok {
		t.Errorf("expected field error on password_confirm, got %v", ae.Fields)
	}
}

func TestRegisterWeakPassword(t *testing.T) {
	svc := NewService(newMockRepo())
	cases := map[string]string{
		"too short":  "ab1",
		"no digits":  "somentepalavras",
		"no letters": "123456789",
	}
	for name, pw := range cases {
		in := validRegistration()
		in.Password = pw
		in.PasswordConfirm = pw
		_, err := svc.Register(context.Background(), in)
		ae, ok := err.(*apperr.Error)
		if !ok {
			t.Fatalf("%s: expected validation error, got %v", name, err)
		}
		if _, ok := ae.Fields["password"]; !ok {
			t.Errorf("%s: expected field error on password", name)
		}
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	svc := NewService(newMockRepo())
	if _, err := svc.Register(context.Background(), validRegistration()); err != nil {
		t.Fatalf("first Register: %v", err)
	}
	_, err := svc.Register(context.Background(), validRegistration())
	if !apperr.IsValidation(err) {
		t.Errorf("expected validation error for duplicate username, got %v", err)
	}
}

func TestRegisterDuplicateCPF(t *testing.T) {
	svc := NewService(newMockRepo())
	cpf := "12345678901"

	in := validRegistration()
	in.CPF = &cpf
	if _, err := svc.Register(context.Background(), in); err != nil {
		t.Fatalf("first Register: %v", err)
	}

	in2 := validRegistration()
	in2.Username = "joana"
	in2.CPF = &cpf
	_, err := svc.Register(context.Background(), in2)
	ae, ok := err.(*apperr.Error)
	if !ok {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, ok := ae.Fields["cpf"]; !ok {
		t.Errorf("expected field error on cpf, got %v", ae.Fields)
	}
}

func TestRegisterDoctorRequiresCRM(t *testing.T) {
	svc := NewService(newMockRepo())
	in := validRegistration()
	in.Role = "doctor"

	_, err := svc.Register(context.Background(), in)
	ae, ok := err.(*apperr.Error)
	if !ok {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, ok := ae.Fields["crm"]; !ok {
		t.Errorf("expected field error on crm, got %v", ae.Fields)
	}
}

func TestRegisterUnknownRole(t *testing.T) {
	svc := NewService(newMockRepo())
	in := validRegistration()
	in.Role = "nurse"
	if _, err := svc.Register(context.Background(), in); !apperr.IsValidation(err) {
		t.Errorf("expected validation error for unknown role, got %v", err)
	}
}

func TestAuthenticate(t *testing.T) {
	svc := NewService(newMockRepo())
	u, err := svc.Register(context.Background(), validRegistration())
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	id, err := svc.Authenticate(context.Background(), "maria", "segredo123")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if id.ID != u.ID || id.Role != auth.RolePatient {
		t.Errorf("identity = %+v", id)
	}
}

func TestAuthenticateFailures(t *testing.T) {
	svc := NewService(newMockRepo())
	if _, err := svc.Register(context.Background(), validRegistration()); err != nil {
		t.Fatalf("Register: %v", err)
	}

	if _, err := svc.Authenticate(context.Background(), "maria", "errada123"); apperr.StatusOf(err) != 401 {
		t.Errorf("wrong password: status = %d, want 401", apperr.StatusOf(err))
	}
	if _, err := svc.Authenticate(context.Background(), "ninguem", "segredo123"); apperr.StatusOf(err) != 401 {
		t.Errorf("unknown user: status = %d, want 401", apperr.StatusOf(err))
	}
}

func TestRoleOfAndContact(t *testing.T) {
	svc := NewService(newMockRepo())
	u, err := svc.Register(context.Background(), validRegistration())
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	role, err := svc.RoleOf(context.Background(), u.ID)
	if err != nil || role != auth.RolePatient {
		t.Errorf("RoleOf = %s, %v", role, err)
	}

	username, email, err := svc.Contact(context.Background(), u.ID)
	if err != nil || username != "maria" || email != "maria@example.com" {
		t.Errorf("Contact = %s, %s, %v", username, email, err)
	}

	if _, err := svc.RoleOf(context.Background(), uuid.New()); !apperr.IsNotFound(err) {
		t.Errorf("expected not found for unknown id, got %v", err)
	}
}
