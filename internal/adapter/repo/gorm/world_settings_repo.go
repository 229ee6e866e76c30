package gormrepo

import (
	"context"
	"errors"

	"npcforge/internal/adapter/repo/gorm/model"
	"npcforge/internal/app/ports"

	"gorm.io/gorm"
)

type WorldSettingsRepo struct {
	db *gorm.DB
}

func NewWorldSettingsRepo(db *gorm.DB) WorldSettingsRepo {
	return WorldSettingsRepo{db: db}
}

func (r WorldSettingsRepo) GetByWorldID(ctx context.Context, worldID string) (ports.WorldSettings, error) {
	var row model.WorldSettings
	if err := getDBFromCtx(ctx, r.db).Where("world_id = ?", worldID).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.WorldSettings{}, ports.ErrNotFound
		}
		return ports.WorldSettings{}, err
	}
	return ports.WorldSettings{
		WorldID:          row.WorldID,
		Name:             row.Name,
		MaxRadius:        row.MaxRadius,
		ExclusionRadius:  row.ExclusionRadius,
		MinSpawnDistance: row.MinSpawnDistance,
		DefaultPreset:    row.DefaultPreset,
		SpeedFactor:      row.SpeedFactor,
		CreatedAt:        row.CreatedAt,
	}, nil
}

func (r WorldSettingsRepo) Create(ctx context.Context, settings ports.WorldSettings) error {
	row := model.WorldSettings{
		WorldID:          settings.WorldID,
		Name:             settings.Name,
		MaxRadius:        settings.MaxRadius,
		ExclusionRadius:  settings.ExclusionRadius,
		MinSpawnDistance: settings.MinSpawnDistance,
		DefaultPreset:    settings.DefaultPreset,
		SpeedFactor:      settings.SpeedFactor,
		CreatedAt:        settings.CreatedAt,
	}
	if err := getDBFromCtx(ctx, r.db).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return ports.ErrConflict
		}
		return err
	}
	return nil
}
