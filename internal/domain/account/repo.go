package account

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	ExistsUsername(ctx context.Context, username string) (bool, error)
	ExistsCPFHash(ctx context.Context, hash string) (bool, error)
	ExistsCRM(ctx context.Context, crm string) (bool, error)
	Update(ctx context.Context, u *User) error
}
