package gormrepo

import (
	"context"

	"npcforge/internal/adapter/repo/gorm/model"
	"npcforge/internal/app/ports"

	"gorm.io/gorm"
)

type DecisionLogRepo struct {
	db *gorm.DB
}

func NewDecisionLogRepo(db *gorm.DB) DecisionLogRepo {
	return DecisionLogRepo{db: db}
}

func (r DecisionLogRepo) Append(ctx context.Context, entry ports.DecisionLogEntry) error {
	row := model.DecisionLog{
		PlayerID:      entry.PlayerID,
		WorldID:       entry.WorldID,
		Category:      entry.Category,
		Action:        entry.Action,
		Outcome:       entry.Outcome,
		LatencyMS:     entry.LatencyMS,
		ModelAssisted: entry.ModelAssisted,
		Degraded:      entry.Degraded,
		At:            entry.At,
	}
	return getDBFromCtx(ctx, r.db).Create(&row).Error
}
