package feature

import (
	"context"
	"fmt"
	"time"

	"npcforge/internal/app/ports"
)

type LockedFlagError struct {
	Key string
}

func (e *LockedFlagError) Error() string {
	return fmt.Sprintf("feature flag %q is locked", e.Key)
}

func (e *LockedFlagError) Unwrap() error {
	return ports.ErrLockedFlag
}

// ToggleUseCase mutates a server-wide flag. Locked flags are immutable until
// unlocked by a direct admin query; every successful toggle is audited and
// invalidates the gate cache.
type ToggleUseCase struct {
	TxManager ports.TxManager
	Flags     ports.FeatureFlagRepository
	Audit     ports.AuditLogRepository
	Gate      *Gate
	Now       func() time.Time
}

type ToggleRequest struct {
	Key     string
	Enabled bool
	AdminID string
}

func (u ToggleUseCase) Execute(ctx context.Context, req ToggleRequest) error {
	if req.Key == "" {
		return fmt.Errorf("%w: empty flag key", ports.ErrNotFound)
	}

	nowFn := u.Now
	if nowFn == nil {
		nowFn = time.Now
	}

	err := u.TxManager.RunInTx(ctx, func(txCtx context.Context) error {
		flag, err := u.Flags.GetByKey(txCtx, req.Key)
		if err != nil {
			return err
		}
		if flag.Locked {
			return &LockedFlagError{Key: req.Key}
		}
		old := flag.Enabled
		flag.Enabled = req.Enabled
		flag.UpdatedAt = nowFn()
		if err := u.Flags.Update(txCtx, flag); err != nil {
			return err
		}
		return u.Audit.Append(txCtx, ports.AuditEntry{
			AdminID: req.AdminID,
			Action:  "feature_toggle",
			Detail:  fmt.Sprintf("key=%s enabled %t -> %t", req.Key, old, req.Enabled),
			At:      nowFn(),
		})
	})
	if err != nil {
		return err
	}

	if u.Gate != nil {
		u.Gate.Invalidate(req.Key)
	}
	return nil
}
