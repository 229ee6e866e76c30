package provision

import (
	"context"
	"strings"
	"testing"
	"time"

	"npcforge/internal/app/ports"
)

func TestSweepRepairsOrphanedCreation(t *testing.T) {
	f := newSagaFixture()
	f.plan.FailCommit = true

	if _, err := f.saga.Create(context.Background(), testCreateRequest()); err == nil {
		t.Fatalf("expected saga failure")
	}
	if len(f.store.Accounts()) != 1 {
		t.Fatalf("fixture should leave an orphaned account")
	}

	recovery := RecoveryUseCase{
		Pending:     f.pending,
		GameWorld:   f.game,
		GracePeriod: time.Minute,
		Now:         func() time.Time { return time.Date(2026, 6, 1, 1, 0, 0, 0, time.UTC) },
	}
	report, err := recovery.Sweep(context.Background())
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if report.Scanned != 1 || report.Repaired != 1 {
		t.Fatalf("unexpected report: %+v", report)
	}

	if n := len(f.store.Accounts()); n != 0 {
		t.Fatalf("sweep must delete orphaned game rows, got %d accounts", n)
	}
	records := f.store.PendingRecords()
	if len(records) != 1 || records[0].Status != ports.PendingFailed {
		t.Fatalf("record must close as failed, got %+v", records)
	}
	if !strings.HasPrefix(records[0].Error, "repaired by recovery sweep;") {
		t.Fatalf("unexpected error text: %q", records[0].Error)
	}
}

func TestSweepHonorsGracePeriod(t *testing.T) {
	f := newSagaFixture()
	f.plan.FailCommit = true

	if _, err := f.saga.Create(context.Background(), testCreateRequest()); err == nil {
		t.Fatalf("expected saga failure")
	}

	// The record was updated at 2026-06-01 00:00; inside the grace window it
	// must not be touched, the saga might still be running.
	recovery := RecoveryUseCase{
		Pending:     f.pending,
		GameWorld:   f.game,
		GracePeriod: time.Hour,
		Now:         func() time.Time { return time.Date(2026, 6, 1, 0, 30, 0, 0, time.UTC) },
	}
	report, err := recovery.Sweep(context.Background())
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if report.Scanned != 0 {
		t.Fatalf("records inside grace period must be skipped: %+v", report)
	}
	if len(f.store.Accounts()) != 1 {
		t.Fatalf("game rows must be untouched inside grace period")
	}
}

func TestSweepIgnoresCompletedRecords(t *testing.T) {
	f := newSagaFixture()
	if _, err := f.saga.Create(context.Background(), testCreateRequest()); err != nil {
		t.Fatalf("create: %v", err)
	}

	recovery := RecoveryUseCase{
		Pending:     f.pending,
		GameWorld:   f.game,
		GracePeriod: time.Minute,
		Now:         func() time.Time { return time.Date(2026, 6, 2, 0, 0, 0, 0, time.UTC) },
	}
	report, err := recovery.Sweep(context.Background())
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if report.Scanned != 0 || report.Repaired != 0 {
		t.Fatalf("completed sagas must not be swept: %+v", report)
	}
	if len(f.store.Accounts()) != 1 {
		t.Fatalf("healthy rows must survive the sweep")
	}
}
