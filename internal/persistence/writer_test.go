package persistence_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"VaultCore/internal/asset"
	"VaultCore/internal/event"
	"VaultCore/internal/persistence"
	"VaultCore/internal/testutil"
)

func TestRowFromEnvelope(t *testing.T) {
	opID := uuid.New()
	ts := time.Now()
	env := event.Envelope{
		Sequence:    7,
		OperationID: opID,
		Type:        event.TypeDeposit,
		Timestamp:   ts,
		Payload: event.Deposit{
			Asset:  asset.Native,
			From:   asset.AddressFromName("alice"),
			Amount: 100,
		},
	}

	row, err := persistence.RowFromEnvelope(env)
	if err != nil {
		t.Fatalf("row from envelope: %v", err)
	}
	if row.Sequence != 7 || row.OperationID != opID {
		t.Errorf("identity mismatch: %+v", row)
	}
	if row.EventType != "Deposit" {
		t.Errorf("event type: got %q, want Deposit", row.EventType)
	}
	if row.Timestamp != ts.UnixMicro() {
		t.Errorf("timestamp: got %d, want %d", row.Timestamp, ts.UnixMicro())
	}
	if len(row.Payload) == 0 {
		t.Error("payload should be JSON-encoded")
	}
}

// ============================================================================
// Integration: Postgres audit log
// ============================================================================

func TestWriteBatch_Idempotent(t *testing.T) {
	testutil.RequireIntegration(t)
	db, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	migrator := persistence.NewMigrator(db, "../../migrations", zerolog.Nop())
	if err := migrator.Up(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	w := persistence.NewAuditWriter(db)
	rows := []persistence.AuditRow{
		{Sequence: 1, OperationID: uuid.New(), EventType: "Deposit", Payload: []byte(`{"amount":100}`), Timestamp: time.Now().UnixMicro()},
		{Sequence: 2, OperationID: uuid.New(), EventType: "Withdrawal", Payload: []byte(`{"amount":50}`), Timestamp: time.Now().UnixMicro()},
	}

	if err := w.WriteBatch(ctx, nil, rows); err != nil {
		t.Fatalf("write batch: %v", err)
	}
	// Second write of the same batch must be a no-op.
	if err := w.WriteBatch(ctx, nil, rows); err != nil {
		t.Fatalf("rewrite batch: %v", err)
	}

	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM audit.events`).Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 2 {
		t.Errorf("row count: got %d, want 2", count)
	}

	last, err := w.LastSequence(ctx)
	if err != nil {
		t.Fatalf("last sequence: %v", err)
	}
	if last != 2 {
		t.Errorf("last sequence: got %d, want 2", last)
	}
}

func TestLastSequence_EmptyLog(t *testing.T) {
	testutil.RequireIntegration(t)
	db, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	migrator := persistence.NewMigrator(db, "../../migrations", zerolog.Nop())
	if err := migrator.Up(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	db.Exec("TRUNCATE audit.events")

	last, err := persistence.NewAuditWriter(db).LastSequence(ctx)
	if err != nil {
		t.Fatalf("last sequence: %v", err)
	}
	if last != 0 {
		t.Errorf("empty log should report 0, got %d", last)
	}
}
