package gormrepo

import (
	"context"
	"encoding/json"
	"errors"

	"npcforge/internal/adapter/repo/gorm/model"
	"npcforge/internal/app/ports"
	"npcforge/internal/domain/spawn"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SpawnPresetRepo struct {
	db *gorm.DB
}

func NewSpawnPresetRepo(db *gorm.DB) SpawnPresetRepo {
	return SpawnPresetRepo{db: db}
}

func (r SpawnPresetRepo) GetByKey(ctx context.Context, key string) (spawn.Preset, error) {
	var row model.SpawnPreset
	if err := getDBFromCtx(ctx, r.db).Where("key = ?", key).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return spawn.Preset{}, ports.ErrNotFound
		}
		return spawn.Preset{}, err
	}
	var preset spawn.Preset
	if err := json.Unmarshal(row.Payload, &preset); err != nil {
		return spawn.Preset{}, err
	}
	preset.Key = row.Key
	return preset, nil
}

func (r SpawnPresetRepo) Save(ctx context.Context, preset spawn.Preset) error {
	payload, err := json.Marshal(preset)
	if err != nil {
		return err
	}
	row := model.SpawnPreset{Key: preset.Key, Payload: payload}
	return getDBFromCtx(ctx, r.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			UpdateAll: true,
		}).
		Create(&row).Error
}
