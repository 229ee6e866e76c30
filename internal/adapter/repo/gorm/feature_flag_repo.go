package gormrepo

import (
	"context"
	"errors"

	"npcforge/internal/adapter/repo/gorm/model"
	"npcforge/internal/app/ports"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type FeatureFlagRepo struct {
	db *gorm.DB
}

func NewFeatureFlagRepo(db *gorm.DB) FeatureFlagRepo {
	return FeatureFlagRepo{db: db}
}

func (r FeatureFlagRepo) GetByKey(ctx context.Context, key string) (ports.FeatureFlag, error) {
	var row model.FeatureFlag
	if err := getDBFromCtx(ctx, r.db).Where("key = ?", key).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.FeatureFlag{}, ports.ErrNotFound
		}
		return ports.FeatureFlag{}, err
	}
	return ports.FeatureFlag{
		Key:       row.Key,
		Enabled:   row.Enabled,
		Locked:    row.Locked,
		UpdatedAt: row.UpdatedAt,
	}, nil
}

func (r FeatureFlagRepo) Update(ctx context.Context, flag ports.FeatureFlag) error {
	res := getDBFromCtx(ctx, r.db).Model(&model.FeatureFlag{}).
		Where("key = ?", flag.Key).
		Updates(map[string]any{
			"enabled":    flag.Enabled,
			"locked":     flag.Locked,
			"updated_at": flag.UpdatedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ports.ErrNotFound
	}
	return nil
}

func (r FeatureFlagRepo) Upsert(ctx context.Context, flag ports.FeatureFlag) error {
	row := model.FeatureFlag{
		Key:       flag.Key,
		Enabled:   flag.Enabled,
		Locked:    flag.Locked,
		UpdatedAt: flag.UpdatedAt,
	}
	return getDBFromCtx(ctx, r.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoNothing: true,
		}).
		Create(&row).Error
}
