package gormrepo

import (
	"context"

	"npcforge/internal/adapter/repo/gorm/model"
	"npcforge/internal/domain/grid"

	"gorm.io/gorm"
)

type SpawnRecordRepo struct {
	db *gorm.DB
}

func NewSpawnRecordRepo(db *gorm.DB) SpawnRecordRepo {
	return SpawnRecordRepo{db: db}
}

func (r SpawnRecordRepo) ListLocations(ctx context.Context, worldID string) ([]grid.Coord, error) {
	rows := []model.SpawnRecord{}
	if err := getDBFromCtx(ctx, r.db).Where("world_id = ?", worldID).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]grid.Coord, 0, len(rows))
	for _, row := range rows {
		out = append(out, grid.Coord{X: row.X, Y: row.Y})
	}
	return out, nil
}
