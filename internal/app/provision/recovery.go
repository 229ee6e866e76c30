package provision

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"npcforge/internal/app/ports"
)

const DefaultGracePeriod = 10 * time.Minute

// RecoveryUseCase is the out-of-band sweep that repairs sagas which died
// between the game-world commit and the control-plane commit. It deletes the
// orphaned game-world rows (resource fields, settlement, account), which
// also frees the claimed cell, then closes the pending record.
//
// Records in mysql_committing are repaired the same way: the commit may or
// may not have landed, and deleting rows that never existed is a no-op.
type RecoveryUseCase struct {
	Pending     ports.PendingCreationRepository
	GameWorld   ports.GameWorldStore
	Metrics     ports.ProvisionMetrics
	Logger      *slog.Logger
	GracePeriod time.Duration
	Now         func() time.Time
}

type SweepReport struct {
	Scanned  int      `json:"scanned"`
	Repaired int      `json:"repaired"`
	Errors   []string `json:"errors,omitempty"`
}

func (u RecoveryUseCase) Sweep(ctx context.Context) (SweepReport, error) {
	grace := u.GracePeriod
	if grace <= 0 {
		grace = DefaultGracePeriod
	}
	cutoff := u.now().Add(-grace)

	stale, err := u.Pending.ListStale(ctx, cutoff)
	if err != nil {
		return SweepReport{}, fmt.Errorf("list stale pending records: %w", err)
	}

	report := SweepReport{Scanned: len(stale)}
	for _, record := range stale {
		if err := u.repair(ctx, record); err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", record.ID, err))
			if u.Logger != nil {
				u.Logger.Error("recovery repair failed", "pending_id", record.ID, "err", err)
			}
			continue
		}
		report.Repaired++
		if u.Metrics != nil {
			u.Metrics.RecordRecoveryRepair()
		}
	}
	return report, nil
}

func (u RecoveryUseCase) repair(ctx context.Context, record ports.PendingCreation) error {
	if record.GameAccountID != 0 {
		if err := u.GameWorld.DeleteProvisioned(ctx, record.GameAccountID); err != nil {
			return fmt.Errorf("delete orphaned game rows: %w", err)
		}
	}

	record.Status = ports.PendingFailed
	record.Error = truncate(fmt.Sprintf("repaired by recovery sweep; %s", record.Error), maxErrorLength)
	record.UpdatedAt = u.now()
	if err := u.Pending.Update(ctx, record); err != nil {
		return fmt.Errorf("close pending record: %w", err)
	}

	if u.Logger != nil {
		u.Logger.Info("repaired orphaned creation",
			"pending_id", record.ID,
			"world_id", record.WorldID,
			"game_account_id", record.GameAccountID)
	}
	return nil
}

func (u RecoveryUseCase) now() time.Time {
	if u.Now == nil {
		return time.Now()
	}
	return u.Now()
}
