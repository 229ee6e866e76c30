package gormrepo

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"npcforge/internal/adapter/repo/gorm/model"
	"npcforge/internal/app/ports"
	"npcforge/internal/domain/spawn"

	"gorm.io/gorm"
)

type SpawnBatchRepo struct {
	db *gorm.DB
}

func NewSpawnBatchRepo(db *gorm.DB) SpawnBatchRepo {
	return SpawnBatchRepo{db: db}
}

func (r SpawnBatchRepo) Create(ctx context.Context, batch spawn.Batch) (int64, error) {
	row, err := rowFromBatch(batch)
	if err != nil {
		return 0, err
	}
	if err := getDBFromCtx(ctx, r.db).Create(&row).Error; err != nil {
		return 0, err
	}
	return row.ID, nil
}

func (r SpawnBatchRepo) GetByID(ctx context.Context, id int64) (spawn.Batch, error) {
	var row model.SpawnBatch
	if err := getDBFromCtx(ctx, r.db).First(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return spawn.Batch{}, ports.ErrNotFound
		}
		return spawn.Batch{}, err
	}
	return batchFromRow(row)
}

// NextRunnable returns the oldest pending batch whose scheduled time has
// passed.
func (r SpawnBatchRepo) NextRunnable(ctx context.Context, worldID string, now time.Time) (spawn.Batch, error) {
	var row model.SpawnBatch
	err := getDBFromCtx(ctx, r.db).
		Where("world_id = ? AND status = ? AND scheduled_at <= ?", worldID, string(spawn.BatchPending), now).
		Order("scheduled_at").
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return spawn.Batch{}, ports.ErrNotFound
		}
		return spawn.Batch{}, err
	}
	return batchFromRow(row)
}

func (r SpawnBatchRepo) Update(ctx context.Context, batch spawn.Batch) error {
	row, err := rowFromBatch(batch)
	if err != nil {
		return err
	}
	res := getDBFromCtx(ctx, r.db).Model(&model.SpawnBatch{}).
		Where("id = ?", batch.ID).
		Updates(map[string]any{
			"status":  row.Status,
			"spawned": row.Spawned,
			"errors":  row.Errors,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ports.ErrNotFound
	}
	return nil
}

func rowFromBatch(batch spawn.Batch) (model.SpawnBatch, error) {
	entities, err := json.Marshal(batch.Entities)
	if err != nil {
		return model.SpawnBatch{}, err
	}
	var errs []byte
	if len(batch.Errors) > 0 {
		errs, err = json.Marshal(batch.Errors)
		if err != nil {
			return model.SpawnBatch{}, err
		}
	}
	return model.SpawnBatch{
		ID:          batch.ID,
		WorldID:     batch.WorldID,
		PresetKey:   batch.PresetKey,
		Kind:        string(batch.Kind),
		Status:      string(batch.Status),
		ScheduledAt: batch.ScheduledAt,
		Requested:   batch.Requested,
		Spawned:     batch.Spawned,
		Entities:    entities,
		Errors:      errs,
		Algorithm:   batch.Algorithm,
	}, nil
}

func batchFromRow(row model.SpawnBatch) (spawn.Batch, error) {
	var entities []spawn.EntityPlan
	if len(row.Entities) > 0 {
		if err := json.Unmarshal(row.Entities, &entities); err != nil {
			return spawn.Batch{}, err
		}
	}
	var errs []string
	if len(row.Errors) > 0 {
		if err := json.Unmarshal(row.Errors, &errs); err != nil {
			return spawn.Batch{}, err
		}
	}
	return spawn.Batch{
		ID:          row.ID,
		WorldID:     row.WorldID,
		PresetKey:   row.PresetKey,
		Kind:        spawn.BatchKind(row.Kind),
		Status:      spawn.BatchStatus(row.Status),
		ScheduledAt: row.ScheduledAt,
		Requested:   row.Requested,
		Spawned:     row.Spawned,
		Entities:    entities,
		Errors:      errs,
		Algorithm:   row.Algorithm,
	}, nil
}
