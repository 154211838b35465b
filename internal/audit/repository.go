package audit

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"
)

// Insert writes an audit row inside the caller's transaction so the audit
// trail can never drift from the write it describes.
func Insert(ctx context.Context, tx pgx.Tx, entityKind, entityID, action, actor string, metadata any) error {
	var s *string
	if metadata != nil {
		b, _ := json.Marshal(metadata)
		str := string(b)
		s = &str
	}
	const q = `
INSERT INTO audit_logs (entity_kind, entity_id, action, actor, metadata)
VALUES ($1, $2, $3, $4, CAST($5 AS jsonb))
`
	_, err := tx.Exec(ctx, q, entityKind, entityID, action, actor, s)
	return err
}
