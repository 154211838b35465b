package settlement

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Record is one instructor settlement case. Rule is the snapshot taken from
// the program at creation time, so later rule edits never change an existing
// settlement's calculation. Items and Total are filled by the calculated
// transition.
type Record struct {
	ID              string           `json:"id"`
	ProgramID       string           `json:"programId"`
	InstructorID    string           `json:"instructorId"`
	Period          string           `json:"period"` // YYYY-MM
	Rule            json.RawMessage  `json:"rule"`
	Input           Input            `json:"input"`
	Items           []LineItem       `json:"items,omitempty"`
	Total           *decimal.Decimal `json:"total,omitempty"`
	Status          Status           `json:"status"`
	Reason          string           `json:"reason,omitempty"`
	CalculatedAt    *time.Time       `json:"calculatedAt,omitempty"`
	ApprovedAt      *time.Time       `json:"approvedAt,omitempty"`
	PaidAt          *time.Time       `json:"paidAt,omitempty"`
	CancelledAt     *time.Time       `json:"cancelledAt,omitempty"`
	PaidViaOverride bool             `json:"paidViaOverride"`
	CreatedAt       time.Time        `json:"createdAt"`
	UpdatedAt       time.Time        `json:"updatedAt"`
}

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const recordColumns = `
id, program_id, instructor_id, period, rule, input, items, total_amount::text,
status, COALESCE(reason,''), calculated_at, approved_at, paid_at, cancelled_at,
paid_via_override, created_at, updated_at`

func scanRecord(row pgx.Row) (*Record, error) {
	var rec Record
	var inputRaw []byte
	var itemsRaw []byte
	var total *string
	if err := row.Scan(
		&rec.ID, &rec.ProgramID, &rec.InstructorID, &rec.Period, &rec.Rule, &inputRaw, &itemsRaw, &total,
		&rec.Status, &rec.Reason, &rec.CalculatedAt, &rec.ApprovedAt, &rec.PaidAt, &rec.CancelledAt,
		&rec.PaidViaOverride, &rec.CreatedAt, &rec.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if len(inputRaw) > 0 {
		_ = json.Unmarshal(inputRaw, &rec.Input)
	}
	if len(itemsRaw) > 0 {
		_ = json.Unmarshal(itemsRaw, &rec.Items)
	}
	if total != nil {
		if d, err := decimal.NewFromString(*total); err == nil {
			rec.Total = &d
		}
	}
	return &rec, nil
}

func (r *Repository) List(ctx context.Context, status string) ([]Record, error) {
	const q = `
SELECT ` + recordColumns + `
FROM settlements
WHERE ($1 = '' OR status = $1)
ORDER BY created_at DESC
`
	rows, err := r.db.Query(ctx, q, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

func (r *Repository) GetByID(ctx context.Context, id string) (*Record, error) {
	const q = `
SELECT ` + recordColumns + `
FROM settlements
WHERE id = $1
`
	return scanRecord(r.db.QueryRow(ctx, q, id))
}

func GetForUpdate(ctx context.Context, tx pgx.Tx, id string) (*Record, error) {
	const q = `
SELECT ` + recordColumns + `
FROM settlements
WHERE id = $1
FOR UPDATE
`
	return scanRecord(tx.QueryRow(ctx, q, id))
}

func (r *Repository) Insert(ctx context.Context, programID, instructorID, period string, rule json.RawMessage, in Input) (*Record, error) {
	inputJSON, err := json.Marshal(in)
	if err != nil {
		return nil, err
	}
	const q = `
INSERT INTO settlements (program_id, instructor_id, period, rule, input, status)
VALUES ($1, $2, $3, CAST($4 AS jsonb), CAST($5 AS jsonb), 'pending')
RETURNING ` + recordColumns + `
`
	return scanRecord(r.db.QueryRow(ctx, q, programID, instructorID, period, string(rule), string(inputJSON)))
}

// StoreCalculation persists the breakdown produced by the calculated
// transition in the same transaction as the status write.
func StoreCalculation(ctx context.Context, tx pgx.Tx, id string, b Breakdown, now time.Time) error {
	itemsJSON, err := json.Marshal(b.Items)
	if err != nil {
		return err
	}
	const q = `
UPDATE settlements
SET items = CAST($2 AS jsonb),
    total_amount = $3::numeric,
    status = 'calculated',
    calculated_at = $4,
    updated_at = NOW()
WHERE id = $1
`
	_, err = tx.Exec(ctx, q, id, string(itemsJSON), b.Total.String(), now)
	return err
}

// UpdateStatus writes an approved transition, stamping the milestone
// timestamp belonging to the target status.
func UpdateStatus(ctx context.Context, tx pgx.Tx, id string, next Status, reason string, now time.Time) error {
	const q = `
UPDATE settlements
SET status = $2,
    reason = NULLIF($3,''),
    approved_at = CASE WHEN $2 = 'approved' THEN $4 ELSE approved_at END,
    paid_at = CASE WHEN $2 = 'paid' THEN $4 ELSE paid_at END,
    cancelled_at = CASE WHEN $2 = 'cancelled' THEN $4 ELSE cancelled_at END,
    updated_at = NOW()
WHERE id = $1
`
	_, err := tx.Exec(ctx, q, id, string(next), reason, now)
	return err
}

// MarkPaidOverride records payment directly, bypassing the approval step.
func MarkPaidOverride(ctx context.Context, tx pgx.Tx, id string, now time.Time) error {
	const q = `
UPDATE settlements
SET status = 'paid',
    paid_at = $2,
    paid_via_override = TRUE,
    updated_at = NOW()
WHERE id = $1
`
	_, err := tx.Exec(ctx, q, id, now)
	return err
}
