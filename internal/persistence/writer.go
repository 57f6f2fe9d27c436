package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"VaultCore/internal/event"
)

// AuditWriter writes audit events to Postgres using multi-row INSERT.
// Writes are idempotent: the sequence is the primary key and conflicts
// are dropped, so a retried batch never duplicates rows.
type AuditWriter struct {
	db *sql.DB
}

// AuditRow is one row in audit.events.
type AuditRow struct {
	Sequence    int64
	OperationID uuid.UUID
	EventType   string
	Payload     []byte
	Timestamp   int64
}

func NewAuditWriter(db *sql.DB) *AuditWriter {
	return &AuditWriter{db: db}
}

// RowFromEnvelope flattens an audit envelope for storage. The payload
// is JSON so the log stays queryable without a decoder.
func RowFromEnvelope(env event.Envelope) (AuditRow, error) {
	payload, err := json.Marshal(env.Payload)
	if err != nil {
		return AuditRow{}, fmt.Errorf("marshal payload seq=%d: %w", env.Sequence, err)
	}
	return AuditRow{
		Sequence:    env.Sequence,
		OperationID: env.OperationID,
		EventType:   env.Type.String(),
		Payload:     payload,
		Timestamp:   env.Timestamp.UnixMicro(),
	}, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// WriteBatch inserts a batch of audit rows through tx (or the pool
// when tx is nil).
func (w *AuditWriter) WriteBatch(ctx context.Context, tx execer, rows []AuditRow) error {
	if len(rows) == 0 {
		return nil
	}
	if tx == nil {
		tx = w.db
	}

	query := `INSERT INTO audit.events
		(sequence, operation_id, event_type, payload, timestamp_us)
		VALUES `

	values := make([]string, 0, len(rows))
	args := make([]interface{}, 0, len(rows)*5)

	for i, r := range rows {
		base := i * 5
		values = append(values, fmt.Sprintf(
			"($%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5,
		))
		args = append(args,
			r.Sequence, r.OperationID.String(), r.EventType, r.Payload, r.Timestamp,
		)
	}

	query += strings.Join(values, ", ")
	query += " ON CONFLICT (sequence) DO NOTHING"

	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// LastSequence returns the highest durably written audit sequence, or
// zero for an empty log. Used at startup to resume event numbering.
func (w *AuditWriter) LastSequence(ctx context.Context) (int64, error) {
	var seq sql.NullInt64
	err := w.db.QueryRowContext(ctx,
		`SELECT MAX(sequence) FROM audit.events`,
	).Scan(&seq)
	if err != nil {
		return 0, err
	}
	return seq.Int64, nil
}
