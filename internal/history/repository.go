// Package history records the per-entity timeline shown alongside
// applications and settlements. Status changes, overrides, and applicant
// actions all land here; the review/approval/payment trail is derived from
// these rows rather than kept as a separate step table, so the trail and the
// status machine cannot disagree.
package history

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Entry struct {
	ID         string `json:"id"`
	EntityKind string `json:"entityKind"`
	EntityID   string `json:"entityId"`
	EventType  string `json:"eventType"`
	Summary    string `json:"summary"`
	Actor      string `json:"actor"`
	OccurredAt string `json:"occurredAt"`
	Data       any    `json:"data,omitempty"`
}

func Insert(ctx context.Context, tx pgx.Tx, entityKind, entityID, eventType, summary, actor string, occurredAt time.Time, data any) error {
	var s *string
	if data != nil {
		b, _ := json.Marshal(data)
		str := string(b)
		s = &str
	}
	const q = `
INSERT INTO history_entries (entity_kind, entity_id, event_type, summary, actor, occurred_at, data)
VALUES ($1, $2, $3, $4, $5, $6, CAST($7 AS jsonb))
`
	_, err := tx.Exec(ctx, q, entityKind, entityID, eventType, summary, actor, occurredAt, s)
	return err
}

func ListByEntity(ctx context.Context, db *pgxpool.Pool, entityKind, entityID string) ([]Entry, error) {
	const q = `
SELECT id, entity_kind, entity_id, event_type, summary, actor, occurred_at::text, COALESCE(data, '{}'::jsonb)
FROM history_entries
WHERE entity_kind = $1 AND entity_id = $2
ORDER BY occurred_at ASC, created_at ASC
`
	rows, err := db.Query(ctx, q, entityKind, entityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.EntityKind, &e.EntityID, &e.EventType, &e.Summary, &e.Actor, &e.OccurredAt, &e.Data); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
