package schedule

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Record struct {
	ID           string    `json:"id"`
	ProgramID    string    `json:"programId,omitempty"`
	InstructorID string    `json:"instructorId,omitempty"`
	Title        string    `json:"title"`
	Date         string    `json:"date"`
	StartTime    string    `json:"startTime"`
	EndTime      string    `json:"endTime"`
	Location     string    `json:"location,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Event reduces a record to the fields conflict detection consumes.
func (rec Record) Event() TimedEvent {
	return TimedEvent{
		ID:           rec.ID,
		Date:         rec.Date,
		StartTime:    rec.StartTime,
		EndTime:      rec.EndTime,
		InstructorID: rec.InstructorID,
	}
}

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const recordColumns = `
id, COALESCE(program_id::text,''), COALESCE(instructor_id::text,''), title,
on_date::text, to_char(start_time, 'HH24:MI'), to_char(end_time, 'HH24:MI'),
COALESCE(location,''), created_at, updated_at`

// List returns schedules, optionally bounded to [from, to] calendar dates
// (pass "" to leave a bound open).
func (r *Repository) List(ctx context.Context, from, to string) ([]Record, error) {
	const q = `
SELECT ` + recordColumns + `
FROM schedules
WHERE ($1 = '' OR on_date >= $1::date)
  AND ($2 = '' OR on_date <= $2::date)
ORDER BY on_date ASC, start_time ASC
`
	rows, err := r.db.Query(ctx, q, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(
			&rec.ID, &rec.ProgramID, &rec.InstructorID, &rec.Title,
			&rec.Date, &rec.StartTime, &rec.EndTime,
			&rec.Location, &rec.CreatedAt, &rec.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *Repository) GetByID(ctx context.Context, id string) (*Record, error) {
	const q = `
SELECT ` + recordColumns + `
FROM schedules
WHERE id = $1
`
	var rec Record
	if err := r.db.QueryRow(ctx, q, id).Scan(
		&rec.ID, &rec.ProgramID, &rec.InstructorID, &rec.Title,
		&rec.Date, &rec.StartTime, &rec.EndTime,
		&rec.Location, &rec.CreatedAt, &rec.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *Repository) Insert(ctx context.Context, programID, instructorID, title, date, startTime, endTime, location string) (*Record, error) {
	const q = `
INSERT INTO schedules (program_id, instructor_id, title, on_date, start_time, end_time, location)
VALUES (NULLIF($1,'')::uuid, NULLIF($2,'')::uuid, $3, $4::date, $5::time, $6::time, NULLIF($7,''))
RETURNING ` + recordColumns + `
`
	var rec Record
	if err := r.db.QueryRow(ctx, q, programID, instructorID, title, date, startTime, endTime, location).Scan(
		&rec.ID, &rec.ProgramID, &rec.InstructorID, &rec.Title,
		&rec.Date, &rec.StartTime, &rec.EndTime,
		&rec.Location, &rec.CreatedAt, &rec.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *Repository) Update(ctx context.Context, id, programID, instructorID, title, date, startTime, endTime, location string) (*Record, error) {
	const q = `
UPDATE schedules
SET program_id = NULLIF($2,'')::uuid,
    instructor_id = NULLIF($3,'')::uuid,
    title = $4,
    on_date = $5::date,
    start_time = $6::time,
    end_time = $7::time,
    location = NULLIF($8,''),
    updated_at = NOW()
WHERE id = $1
RETURNING ` + recordColumns + `
`
	var rec Record
	if err := r.db.QueryRow(ctx, q, id, programID, instructorID, title, date, startTime, endTime, location).Scan(
		&rec.ID, &rec.ProgramID, &rec.InstructorID, &rec.Title,
		&rec.Date, &rec.StartTime, &rec.EndTime,
		&rec.Location, &rec.CreatedAt, &rec.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM schedules WHERE id = $1`
	_, err := r.db.Exec(ctx, q, id)
	return err
}

// SnapshotEvents loads the event snapshot the detector runs over. For a
// candidate check only the candidate's (instructor, date) bucket matters, but
// the dashboard wants the full range.
func (r *Repository) SnapshotEvents(ctx context.Context, from, to string) ([]TimedEvent, error) {
	records, err := r.List(ctx, from, to)
	if err != nil {
		return nil, err
	}
	out := make([]TimedEvent, 0, len(records))
	for _, rec := range records {
		out = append(out, rec.Event())
	}
	return out, nil
}
