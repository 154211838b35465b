package program

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

func (r *Repository) List(ctx context.Context) ([]Program, error) {
	const q = `
SELECT id, name, COALESCE(school_name,''), COALESCE(sponsor_name,''),
       COALESCE(starts_on::text,''), COALESCE(ends_on::text,''),
       settlement_rule, created_at, updated_at
FROM programs
ORDER BY created_at DESC
`
	rows, err := r.db.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Program
	for rows.Next() {
		var p Program
		if err := rows.Scan(&p.ID, &p.Name, &p.SchoolName, &p.SponsorName, &p.StartsOn, &p.EndsOn, &p.SettlementRule, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *Repository) GetByID(ctx context.Context, id string) (*Program, error) {
	const q = `
SELECT id, name, COALESCE(school_name,''), COALESCE(sponsor_name,''),
       COALESCE(starts_on::text,''), COALESCE(ends_on::text,''),
       settlement_rule, created_at, updated_at
FROM programs
WHERE id = $1
`
	var p Program
	if err := r.db.QueryRow(ctx, q, id).Scan(
		&p.ID, &p.Name, &p.SchoolName, &p.SponsorName, &p.StartsOn, &p.EndsOn, &p.SettlementRule, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &p, nil
}

// RuleForProgram returns the raw settlement rule document, or nil when no
// rule has been configured yet. A missing program is an error.
func (r *Repository) RuleForProgram(ctx context.Context, programID string) (json.RawMessage, error) {
	var rule json.RawMessage
	if err := r.db.QueryRow(ctx, `SELECT settlement_rule FROM programs WHERE id = $1`, programID).Scan(&rule); err != nil {
		return nil, err
	}
	return rule, nil
}

func (r *Repository) Insert(ctx context.Context, name, schoolName, sponsorName, startsOn, endsOn string) (*Program, error) {
	const q = `
INSERT INTO programs (name, school_name, sponsor_name, starts_on, ends_on)
VALUES ($1, NULLIF($2,''), NULLIF($3,''), NULLIF($4,'')::date, NULLIF($5,'')::date)
RETURNING id, name, COALESCE(school_name,''), COALESCE(sponsor_name,''),
          COALESCE(starts_on::text,''), COALESCE(ends_on::text,''),
          settlement_rule, created_at, updated_at
`
	var p Program
	if err := r.db.QueryRow(ctx, q, name, schoolName, sponsorName, startsOn, endsOn).Scan(
		&p.ID, &p.Name, &p.SchoolName, &p.SponsorName, &p.StartsOn, &p.EndsOn, &p.SettlementRule, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *Repository) SetSettlementRule(ctx context.Context, id string, rule json.RawMessage) (*Program, error) {
	const q = `
UPDATE programs
SET settlement_rule = CAST($2 AS jsonb), updated_at = NOW()
WHERE id = $1
RETURNING id, name, COALESCE(school_name,''), COALESCE(sponsor_name,''),
          COALESCE(starts_on::text,''), COALESCE(ends_on::text,''),
          settlement_rule, created_at, updated_at
`
	var p Program
	if err := r.db.QueryRow(ctx, q, id, string(rule)).Scan(
		&p.ID, &p.Name, &p.SchoolName, &p.SponsorName, &p.StartsOn, &p.EndsOn, &p.SettlementRule, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &p, nil
}
