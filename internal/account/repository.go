package account

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

func (r *Repository) FindByEmail(ctx context.Context, email string) (*User, error) {
	const q = `
SELECT id, email, password_hash, full_name, role, created_at
FROM admin_users
WHERE email = $1
`
	u := &User{}
	if err := r.db.QueryRow(ctx, q, email).Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.FullName, &u.Role, &u.CreatedAt,
	); err != nil {
		return nil, err
	}
	return u, nil
}

func (r *Repository) FindByID(ctx context.Context, id string) (*User, error) {
	const q = `
SELECT id, email, password_hash, full_name, role, created_at
FROM admin_users
WHERE id = $1
`
	u := &User{}
	if err := r.db.QueryRow(ctx, q, id).Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.FullName, &u.Role, &u.CreatedAt,
	); err != nil {
		return nil, err
	}
	return u, nil
}

func (r *Repository) Upsert(ctx context.Context, email, passwordHash, fullName, role string) (*User, error) {
	const q = `
INSERT INTO admin_users (email, password_hash, full_name, role)
VALUES ($1, $2, $3, $4)
ON CONFLICT (email) DO UPDATE SET
  password_hash = EXCLUDED.password_hash,
  full_name = EXCLUDED.full_name,
  role = EXCLUDED.role
RETURNING id, email, password_hash, full_name, role, created_at
`
	u := &User{}
	if err := r.db.QueryRow(ctx, q, email, passwordHash, fullName, role).Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.FullName, &u.Role, &u.CreatedAt,
	); err != nil {
		return nil, err
	}
	return u, nil
}
