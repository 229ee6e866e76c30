package spawnplan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"npcforge/internal/app/placement"
	"npcforge/internal/app/ports"
	"npcforge/internal/app/provision"
	"npcforge/internal/domain/grid"
	"npcforge/internal/domain/npc"
	"npcforge/internal/domain/spawn"
)

type PlacementPlanner interface {
	Plan(ctx context.Context, req placement.Request) ([]grid.Coord, error)
}

type EntityCreator interface {
	Create(ctx context.Context, req provision.CreateRequest) (provision.CreateResult, error)
}

// SchedulerUseCase executes one spawn batch: it requests placements, then
// runs the creation saga per entity. Shortfalls and per-entity saga failures
// accumulate in the batch error list; the batch still completes with a
// partial spawned count. Only a missing world config fails the batch.
type SchedulerUseCase struct {
	Batches  ports.SpawnBatchRepository
	Settings ports.WorldSettingsRepository
	Planner  PlacementPlanner
	Saga     EntityCreator
	Logger   *slog.Logger
	Now      func() time.Time
}

type ExecuteRequest struct {
	WorldID string
	BatchID int64
}

type ExecuteReport struct {
	BatchID int64             `json:"batch_id"`
	Status  spawn.BatchStatus `json:"status"`
	Spawned int               `json:"spawned"`
	Errors  []string          `json:"errors,omitempty"`
}

func (u SchedulerUseCase) Execute(ctx context.Context, req ExecuteRequest) (ExecuteReport, error) {
	batch, err := u.loadBatch(ctx, req)
	if err != nil {
		return ExecuteReport{}, err
	}

	// A paused batch is skipped here, before work begins; in-flight batches
	// are never interrupted.
	if batch.Status == spawn.BatchPaused {
		return ExecuteReport{BatchID: batch.ID, Status: spawn.BatchPaused}, nil
	}
	if batch.Status != spawn.BatchPending {
		return ExecuteReport{}, fmt.Errorf("%w: batch %d is %s", ports.ErrConflict, batch.ID, batch.Status)
	}

	settings, err := u.Settings.GetByWorldID(ctx, batch.WorldID)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			u.finishBatch(ctx, batch, spawn.BatchFailed, 0, []string{"no settings found for world " + batch.WorldID})
			return ExecuteReport{BatchID: batch.ID, Status: spawn.BatchFailed},
				&ConfigNotFoundError{Kind: "world settings", Key: batch.WorldID}
		}
		return ExecuteReport{}, err
	}

	batch.Status = spawn.BatchInProgress
	if err := u.Batches.Update(ctx, batch); err != nil {
		return ExecuteReport{}, fmt.Errorf("mark batch in progress: %w", err)
	}

	algorithm := batch.Algorithm
	if algorithm == "" {
		algorithm = placement.AlgorithmRandomScatter
	}
	coords, err := u.Planner.Plan(ctx, placement.Request{
		WorldID:   batch.WorldID,
		Count:     batch.Requested,
		Algorithm: algorithm,
		Bounds: grid.Bounds{
			MaxRadius:       settings.MaxRadius,
			ExclusionRadius: settings.ExclusionRadius,
		},
		MinDistance: settings.MinSpawnDistance,
	})
	if err != nil {
		u.finishBatch(ctx, batch, spawn.BatchFailed, 0, []string{"placement planning failed: " + err.Error()})
		return ExecuteReport{BatchID: batch.ID, Status: spawn.BatchFailed}, err
	}

	var errs []string
	if len(coords) < batch.Requested {
		errs = append(errs, fmt.Sprintf("placement shortfall: requested %d, planned %d", batch.Requested, len(coords)))
	}

	spawned := 0
	for i, coord := range coords {
		plan := entityPlanAt(batch, i)
		_, err := u.Saga.Create(ctx, provision.CreateRequest{
			WorldID:  batch.WorldID,
			BatchID:  batch.ID,
			Plan:     plan,
			Location: coord,
		})
		if err != nil {
			errs = append(errs, fmt.Sprintf("entity %d: %v", i, err))
			if u.Logger != nil {
				u.Logger.Error("batch entity creation failed",
					"batch_id", batch.ID,
					"entity", i,
					"err", err)
			}
			continue
		}
		spawned++
	}

	u.finishBatch(ctx, batch, spawn.BatchCompleted, spawned, errs)
	return ExecuteReport{
		BatchID: batch.ID,
		Status:  spawn.BatchCompleted,
		Spawned: spawned,
		Errors:  errs,
	}, nil
}

func (u SchedulerUseCase) loadBatch(ctx context.Context, req ExecuteRequest) (spawn.Batch, error) {
	if req.BatchID != 0 {
		return u.Batches.GetByID(ctx, req.BatchID)
	}
	batch, err := u.Batches.NextRunnable(ctx, req.WorldID, u.now())
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return spawn.Batch{}, fmt.Errorf("%w: no runnable batch for world %s", ports.ErrNotFound, req.WorldID)
		}
		return spawn.Batch{}, err
	}
	return batch, nil
}

func (u SchedulerUseCase) finishBatch(ctx context.Context, batch spawn.Batch, status spawn.BatchStatus, spawned int, errs []string) {
	batch.Status = status
	batch.Spawned = spawned
	batch.Errors = errs
	if err := u.Batches.Update(ctx, batch); err != nil && u.Logger != nil {
		u.Logger.Error("failed to finalize batch", "batch_id", batch.ID, "err", err)
	}
}

// entityPlanAt is defensive against batches whose entity list is shorter
// than the requested count; such entities spawn with default config.
func entityPlanAt(batch spawn.Batch, i int) spawn.EntityPlan {
	if i < len(batch.Entities) {
		return batch.Entities[i]
	}
	return spawn.EntityPlan{
		Tribe:       npc.TribeRomans,
		Difficulty:  npc.DifficultyMedium,
		Personality: npc.PersonalityBalanced,
	}
}

func (u SchedulerUseCase) now() time.Time {
	if u.Now == nil {
		return time.Now()
	}
	return u.Now()
}
