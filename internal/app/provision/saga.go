package provision

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"npcforge/internal/app/ports"
	"npcforge/internal/domain/grid"
	"npcforge/internal/domain/npc"
	"npcforge/internal/domain/spawn"

	"github.com/google/uuid"
)

// maxErrorLength bounds the error text persisted on a failed pending record.
const maxErrorLength = 255

type SagaFailureError struct {
	PendingID string
	Stage     ports.PendingStatus
	Cause     error
}

func (e *SagaFailureError) Error() string {
	return fmt.Sprintf("entity creation saga %s failed at %s: %v", e.PendingID, e.Stage, e.Cause)
}

func (e *SagaFailureError) Unwrap() []error {
	return []error{ports.ErrSagaFailed, e.Cause}
}

type CreateRequest struct {
	WorldID  string
	BatchID  int64
	Name     string
	Plan     spawn.EntityPlan
	Location grid.Coord
}

type CreateResult struct {
	PlayerID      int64
	GameAccountID int64
	SettlementID  int64
}

// SagaUseCase provisions one autonomous entity across the game-world store
// and the control-plane store. The two stores share no transaction; the
// pending record, written on an autocommit side channel, is the durable
// protocol log a recovery sweep reads to find orphaned rows after a crash.
//
// Checkpoint ordering is the invariant that makes this crash-safe: the
// record moves to <store>_committing, carrying the row identifiers, before
// the corresponding commit is issued. A committed transaction is therefore
// always discoverable even when the process dies inside the commit call.
//
// The saga never compensates a committed game-world transaction itself; a
// later control-plane failure leaves a mysql_committed record for the sweep.
type SagaUseCase struct {
	Pending      ports.PendingCreationRepository
	GameWorld    ports.GameWorldStore
	ControlPlane ports.ControlPlaneStore
	Metrics      ports.ProvisionMetrics
	Logger       *slog.Logger
	Now          func() time.Time
	NewID        func() string
}

func (u SagaUseCase) Create(ctx context.Context, req CreateRequest) (CreateResult, error) {
	record := ports.PendingCreation{
		ID:        u.newID(),
		WorldID:   req.WorldID,
		Status:    ports.PendingStarted,
		CreatedAt: u.now(),
		UpdatedAt: u.now(),
	}
	// Step with no compensating action: dying before this write means
	// nothing was attempted.
	if err := u.Pending.Create(ctx, record); err != nil {
		return CreateResult{}, fmt.Errorf("write pending record: %w", err)
	}

	result, err := u.run(ctx, &record, req)
	if err != nil {
		u.markFailed(ctx, record, err)
		if u.Metrics != nil {
			u.Metrics.RecordProvisionFailure()
		}
		if u.Logger != nil {
			u.Logger.Error("entity creation saga failed",
				"pending_id", record.ID,
				"world_id", req.WorldID,
				"stage", string(record.Status),
				"err", err)
		}
		return CreateResult{}, &SagaFailureError{PendingID: record.ID, Stage: record.Status, Cause: err}
	}

	if u.Metrics != nil {
		u.Metrics.RecordProvisionSuccess()
	}
	return result, nil
}

func (u SagaUseCase) run(ctx context.Context, record *ports.PendingCreation, req CreateRequest) (CreateResult, error) {
	gameTx, err := u.GameWorld.Begin(ctx)
	if err != nil {
		return CreateResult{}, fmt.Errorf("begin game-world tx: %w", err)
	}
	gameCommitted := false
	defer func() {
		if !gameCommitted {
			_ = gameTx.Rollback()
		}
	}()

	planTx, err := u.ControlPlane.Begin(ctx)
	if err != nil {
		return CreateResult{}, fmt.Errorf("begin control-plane tx: %w", err)
	}
	planCommitted := false
	defer func() {
		if !planCommitted {
			_ = planTx.Rollback()
		}
	}()

	name := req.Name
	if name == "" {
		name = "npc_" + record.ID[:8]
	}

	accountID, err := gameTx.CreateAccount(ctx, ports.GameAccount{
		WorldID: req.WorldID,
		Name:    name,
		Tribe:   req.Plan.Tribe,
		IsNPC:   true,
	})
	if err != nil {
		return CreateResult{}, fmt.Errorf("create game account: %w", err)
	}

	settlementID, err := gameTx.CreateSettlement(ctx, ports.Settlement{
		WorldID:   req.WorldID,
		AccountID: accountID,
		Location:  req.Location,
		IsCapital: true,
	})
	if err != nil {
		return CreateResult{}, fmt.Errorf("claim settlement cell: %w", err)
	}

	if err := gameTx.CreateResourceFields(ctx, settlementID, startingStock(req.Plan.Difficulty)); err != nil {
		return CreateResult{}, fmt.Errorf("write starting resources: %w", err)
	}

	record.GameAccountID = accountID
	record.SettlementID = settlementID
	if err := u.checkpoint(ctx, record, ports.PendingMySQLCommitting); err != nil {
		return CreateResult{}, err
	}
	if err := gameTx.Commit(); err != nil {
		return CreateResult{}, fmt.Errorf("commit game-world tx: %w", err)
	}
	gameCommitted = true
	if err := u.checkpoint(ctx, record, ports.PendingMySQLCommitted); err != nil {
		return CreateResult{}, err
	}

	playerID, err := planTx.CreatePlayer(ctx, ports.Player{
		WorldID:      req.WorldID,
		Name:         name,
		Type:         ports.PlayerNPC,
		Active:       true,
		GamePlayerID: accountID,
		CreatedAt:    u.now(),
	})
	if err != nil {
		return CreateResult{}, fmt.Errorf("create control-plane player: %w", err)
	}

	if err := planTx.CreateNPCConfig(ctx, npc.Config{
		PlayerID:         playerID,
		WorldID:          req.WorldID,
		GamePlayerID:     accountID,
		Tribe:            req.Plan.Tribe,
		Difficulty:       req.Plan.Difficulty,
		Personality:      req.Plan.Personality,
		DecisionInterval: npc.DefaultDecisionInterval,
		ModelAssistRatio: npc.DefaultModelAssistRatio,
		Active:           true,
		UpdatedAt:        u.now(),
	}); err != nil {
		return CreateResult{}, fmt.Errorf("create npc config: %w", err)
	}

	if err := planTx.CreateSpawnRecord(ctx, req.WorldID, req.BatchID, playerID, req.Location); err != nil {
		return CreateResult{}, fmt.Errorf("create spawn record: %w", err)
	}

	record.PlayerID = playerID
	if err := u.checkpoint(ctx, record, ports.PendingPGCommitting); err != nil {
		return CreateResult{}, err
	}
	if err := planTx.Commit(); err != nil {
		return CreateResult{}, fmt.Errorf("commit control-plane tx: %w", err)
	}
	planCommitted = true
	if err := u.checkpoint(ctx, record, ports.PendingPGCommitted); err != nil {
		return CreateResult{}, err
	}

	if err := u.checkpoint(ctx, record, ports.PendingCompleted); err != nil {
		return CreateResult{}, err
	}

	return CreateResult{
		PlayerID:      playerID,
		GameAccountID: accountID,
		SettlementID:  settlementID,
	}, nil
}

func (u SagaUseCase) checkpoint(ctx context.Context, record *ports.PendingCreation, status ports.PendingStatus) error {
	record.Status = status
	record.UpdatedAt = u.now()
	if err := u.Pending.Update(ctx, *record); err != nil {
		return fmt.Errorf("checkpoint %s: %w", status, err)
	}
	return nil
}

// markFailed records the error text. The record only moves to failed while
// nothing durable exists yet; once it reached a committing/committed stage
// the stage must survive so the recovery sweep can find the orphaned rows.
func (u SagaUseCase) markFailed(ctx context.Context, record ports.PendingCreation, cause error) {
	if record.Status == ports.PendingStarted {
		record.Status = ports.PendingFailed
	}
	record.Error = truncate(cause.Error(), maxErrorLength)
	record.UpdatedAt = u.now()
	if err := u.Pending.Update(ctx, record); err != nil && u.Logger != nil {
		u.Logger.Error("failed to mark pending record failed", "pending_id", record.ID, "err", err)
	}
}

// startingStock scales holdings by tier so harder entities start with a
// stronger economy.
func startingStock(tier npc.DifficultyTier) ports.ResourceStock {
	base := int64(750)
	var factor float64
	switch tier {
	case npc.DifficultyEasy:
		factor = 0.75
	case npc.DifficultyHard:
		factor = 1.5
	case npc.DifficultyExpert:
		factor = 2.0
	default:
		factor = 1.0
	}
	amount := int64(float64(base) * factor)
	return ports.ResourceStock{Wood: amount, Clay: amount, Iron: amount, Crop: amount}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

func (u SagaUseCase) now() time.Time {
	if u.Now == nil {
		return time.Now()
	}
	return u.Now()
}

func (u SagaUseCase) newID() string {
	if u.NewID == nil {
		return uuid.NewString()
	}
	return u.NewID()
}
