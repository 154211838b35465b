package instructor

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

func (r *Repository) List(ctx context.Context) ([]Instructor, error) {
	const q = `
SELECT id, name, COALESCE(email,''), COALESCE(phone,''), COALESCE(region,''), active, created_at, updated_at
FROM instructors
ORDER BY name ASC
`
	rows, err := r.db.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Instructor
	for rows.Next() {
		var ins Instructor
		if err := rows.Scan(&ins.ID, &ins.Name, &ins.Email, &ins.Phone, &ins.Region, &ins.Active, &ins.CreatedAt, &ins.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, ins)
	}
	return out, rows.Err()
}

func (r *Repository) GetByID(ctx context.Context, id string) (*Instructor, error) {
	const q = `
SELECT id, name, COALESCE(email,''), COALESCE(phone,''), COALESCE(region,''), active, created_at, updated_at
FROM instructors
WHERE id = $1
`
	var ins Instructor
	if err := r.db.QueryRow(ctx, q, id).Scan(
		&ins.ID, &ins.Name, &ins.Email, &ins.Phone, &ins.Region, &ins.Active, &ins.CreatedAt, &ins.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &ins, nil
}

func (r *Repository) Insert(ctx context.Context, name, email, phone, region string) (*Instructor, error) {
	const q = `
INSERT INTO instructors (name, email, phone, region, active)
VALUES ($1, $2, $3, $4, TRUE)
RETURNING id, name, COALESCE(email,''), COALESCE(phone,''), COALESCE(region,''), active, created_at, updated_at
`
	var ins Instructor
	if err := r.db.QueryRow(ctx, q, name, email, phone, region).Scan(
		&ins.ID, &ins.Name, &ins.Email, &ins.Phone, &ins.Region, &ins.Active, &ins.CreatedAt, &ins.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &ins, nil
}

func (r *Repository) Update(ctx context.Context, id, name, email, phone, region string, active bool) (*Instructor, error) {
	const q = `
UPDATE instructors
SET name = $2, email = $3, phone = $4, region = $5, active = $6, updated_at = NOW()
WHERE id = $1
RETURNING id, name, COALESCE(email,''), COALESCE(phone,''), COALESCE(region,''), active, created_at, updated_at
`
	var ins Instructor
	if err := r.db.QueryRow(ctx, q, id, name, email, phone, region, active).Scan(
		&ins.ID, &ins.Name, &ins.Email, &ins.Phone, &ins.Region, &ins.Active, &ins.CreatedAt, &ins.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &ins, nil
}
