package application

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Record is one instructor's application to teach a program. Status moves
// only through the workflow table (or an audited admin override); milestone
// timestamps record when the stages were reached.
type Record struct {
	ID                  string     `json:"id"`
	ProgramID           string     `json:"programId"`
	ApplicantName       string     `json:"applicantName"`
	ApplicantEmail      string     `json:"applicantEmail"`
	InstructorID        string     `json:"instructorId,omitempty"`
	Status              Status     `json:"status"`
	Reason              string     `json:"reason,omitempty"`
	SubmittedAt         time.Time  `json:"submittedAt"`
	ReviewedAt          *time.Time `json:"reviewedAt,omitempty"`
	DecidedAt           *time.Time `json:"decidedAt,omitempty"`
	ReopenedViaOverride bool       `json:"reopenedViaOverride"`
	CreatedAt           time.Time  `json:"createdAt"`
	UpdatedAt           time.Time  `json:"updatedAt"`
}

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const recordColumns = `
id, program_id, applicant_name, COALESCE(applicant_email,''), COALESCE(instructor_id::text,''),
status, COALESCE(reason,''), submitted_at, reviewed_at, decided_at, reopened_via_override,
created_at, updated_at`

func scanRecord(row pgx.Row) (*Record, error) {
	var rec Record
	if err := row.Scan(
		&rec.ID, &rec.ProgramID, &rec.ApplicantName, &rec.ApplicantEmail, &rec.InstructorID,
		&rec.Status, &rec.Reason, &rec.SubmittedAt, &rec.ReviewedAt, &rec.DecidedAt, &rec.ReopenedViaOverride,
		&rec.CreatedAt, &rec.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *Repository) List(ctx context.Context, status string) ([]Record, error) {
	const q = `
SELECT ` + recordColumns + `
FROM applications
WHERE ($1 = '' OR status = $1)
ORDER BY submitted_at DESC
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
FROM applications
WHERE id = $1
`
	return scanRecord(r.db.QueryRow(ctx, q, id))
}

func GetForUpdate(ctx context.Context, tx pgx.Tx, id string) (*Record, error) {
	const q = `
SELECT ` + recordColumns + `
FROM applications
WHERE id = $1
FOR UPDATE
`
	return scanRecord(tx.QueryRow(ctx, q, id))
}

func (r *Repository) Insert(ctx context.Context, programID, applicantName, applicantEmail, instructorID string, submittedAt time.Time) (*Record, error) {
	const q = `
INSERT INTO applications (program_id, applicant_name, applicant_email, instructor_id, status, submitted_at)
VALUES ($1, $2, NULLIF($3,''), NULLIF($4,'')::uuid, 'submitted', $5)
RETURNING ` + recordColumns + `
`
	return scanRecord(r.db.QueryRow(ctx, q, programID, applicantName, applicantEmail, instructorID, submittedAt))
}

// UpdateStatus writes an approved transition. Milestone timestamps follow the
// target status: entering reviewing stamps reviewed_at, entering a terminal
// decision stamps decided_at.
func UpdateStatus(ctx context.Context, tx pgx.Tx, id string, next Status, reason string, now time.Time) error {
	const q = `
UPDATE applications
SET status = $2,
    reason = NULLIF($3,''),
    reviewed_at = CASE WHEN $2 = 'reviewing' THEN $4 ELSE reviewed_at END,
    decided_at = CASE WHEN $2 IN ('approved','rejected','cancelled') THEN $4 ELSE decided_at END,
    updated_at = NOW()
WHERE id = $1
`
	_, err := tx.Exec(ctx, q, id, string(next), reason, now)
	return err
}

// Reopen is the override path back from a decided status to reviewing; the
// decision timestamp and reason are cleared and the override is flagged.
func Reopen(ctx context.Context, tx pgx.Tx, id string) error {
	const q = `
UPDATE applications
SET status = 'reviewing',
    reason = NULL,
    decided_at = NULL,
    reopened_via_override = TRUE,
    updated_at = NOW()
WHERE id = $1
`
	_, err := tx.Exec(ctx, q, id)
	return err
}
