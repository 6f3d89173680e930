package account

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pamela-btob/sghss-uninter/internal/platform/apperr"
	"github.com/pamela-btob/sghss-uninter/internal/platform/db"
	"github.com/pamela-btob/sghss-uninter/internal/platform/phi"
)

type repoPG struct {
	pool   *pgxpool.Pool
	fields *phi.Service
}

// NewRepoPG creates the Postgres repository. The phi service encrypts CPF,
// phone and birth date before storage and decrypts them on read.
func NewRepoPG(pool *pgxpool.Pool, fields *phi.Service) Repository {
	return &repoPG{pool: pool, fields: fields}
}

func (r *repoPG) conn(ctx context.Context) db.Querier {
	return db.Resolve(ctx, r.pool)
}

const userCols = `id, username, email, role, password_hash, cpf, cpf_hash, phone, birth_date, crm, created_at, updated_at`

func (r *repoPG) scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.Role, &u.PasswordHash,
		&u.CPF, &u.CPFHash, &u.Phone, &u.BirthDate, &u.CRM, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("user")
		}
		return nil, err
	}
	if err := r.decryptUser(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *repoPG) encryptUser(u *User) error {
	var err error
	if u.CPF != nil {
		if *u.CPF, err = r.fields.Encrypt(*u.CPF); err != nil {
			return fmt.Errorf("encrypt cpf: %w", err)
		}
	}
	if u.Phone != nil {
		if *u.Phone, err = r.fields.Encrypt(*u.Phone); err != nil {
			return fmt.Errorf("encrypt phone: %w", err)
		}
	}
	if u.BirthDate != nil {
		if *u.BirthDate, err = r.fields.Encrypt(*u.BirthDate); err != nil {
			return fmt.Errorf("encrypt birth date: %w", err)
		}
	}
	return nil
}

func (r *repoPG) decryptUser(u *User) error {
	var err error
	if u.CPF != nil {
		if *u.CPF, err = r.fields.Decrypt(*u.CPF); err != nil {
			return fmt.Errorf("decrypt cpf: %w", err)
		}
	}
	if u.Phone != nil {
		if *u.Phone, err = r.fields.Decrypt(*u.Phone); err != nil {
			return fmt.Errorf("decrypt phone: %w", err)
		}
	}
	if u.BirthDate != nil {
		if *u.BirthDate, err = r.fields.Decrypt(*u.BirthDate); err != nil {
			return fmt.Errorf("decrypt birth date: %w", err)
		}
	}
	return nil
}

func (r *repoPG) Create(ctx context.Context, u *User) error {
	u.ID = uuid.New()
	if err := r.encryptUser(u); err != nil {
		return err
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO users (id, username, email, role, password_hash, cpf, cpf_hash, phone, birth_date, crm)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		u.ID, u.Username, u.Email, u.Role, u.PasswordHash,
		u.CPF, u.CPFHash, u.Phone, u.BirthDate, u.CRM)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return r.scanUser(r.conn(ctx).QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE id = $1`, id))
}

func (r *repoPG) GetByUsername(ctx context.Context, username string) (*User, error) {
	return r.scanUser(r.conn(ctx).QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE username = $1`, username))
}

func (r *repoPG) ExistsUsername(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.conn(ctx).QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE username = $1)`, username).Scan(&exists)
	return exists, err
}

func (r *repoPG) ExistsCPFHash(ctx context.Context, hash string) (bool, error) {
	var exists bool
	err := r.conn(ctx).QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE cpf_hash = $1)`, hash).Scan(&exists)
	return exists, err
}

func (r *repoPG) ExistsCRM(ctx context.Context, crm string) (bool, error) {
	var exists bool
	err := r.conn(ctx).QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE crm = $1)`, crm).Scan(&exists)
	return exists, err
}

func (r *repoPG) Update(ctx context.Context, u *User) error {
	if err := r.encryptUser(u); err != nil {
		return err
	}
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE users SET email=$2, password_hash=$3, cpf=$4, cpf_hash=$5, phone=$6, birth_date=$7, crm=$8, updated_at=NOW()
		WHERE id = $1`,
		u.ID, u.Email, u.PasswordHash, u.CPF, u.CPFHash, u.Phone, u.BirthDate, u.CRM)
	return err
}
