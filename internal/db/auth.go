package db

import (
	"context"

	"github.com/shopfront/backend/internal/model"
)

func (db *Postgres) EnsureAuthSchema(ctx context.Context) error {
	queries := []string{
		`
		CREATE TABLE IF NOT EXISTS admins (
			id BIGSERIAL PRIMARY KEY,
			username TEXT NOT NULL UNIQUE,
			email TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
		`,
	}

	for _, query := range queries {
		if _, err := db.Pool.Exec(ctx, query); err != nil {
			return err
		}
	}
	return nil
}

// CreateAdmin inserts a new admin. Username and email uniqueness is decided
// by the table constraints, so concurrent signups cannot both succeed.
func (db *Postgres) CreateAdmin(ctx context.Context, admin model.Admin) (*model.Admin, error) {
	query := `
		INSERT INTO admins (username, email, password_hash, created_at)
		VALUES ($1, $2, $3, NOW())
		RETURNING id, username, email, password_hash, created_at
	`
	var out model.Admin
	err := db.Pool.QueryRow(ctx, query, admin.Username, admin.Email, admin.PasswordHash).Scan(
		&out.ID,
		&out.Username,
		&out.Email,
		&out.PasswordHash,
		&out.CreatedAt,
	)
	if err != nil {
		return nil, translateErr(err)
	}
	return &out, nil
}

func (db *Postgres) FindAdminByUsername(ctx context.Context, username string) (*model.Admin, error) {
	query := `
		SELECT id, username, email, password_hash, created_at
		FROM admins
		WHERE username = $1
	`
	return db.scanAdmin(ctx, query, username)
}

func (db *Postgres) FindAdminByEmail(ctx context.Context, email string) (*model.Admin, error) {
	query := `
		SELECT id, username, email, password_hash, created_at
		FROM admins
		WHERE email = $1
	`
	return db.scanAdmin(ctx, query, email)
}

func (db *Postgres) scanAdmin(ctx context.Context, query string, arg string) (*model.Admin, error) {
	var admin model.Admin
	err := db.Pool.QueryRow(ctx, query, arg).Scan(
		&admin.ID,
		&admin.Username,
		&admin.Email,
		&admin.PasswordHash,
		&admin.CreatedAt,
	)
	if err != nil {
		return nil, translateErr(err)
	}
	return &admin, nil
}
