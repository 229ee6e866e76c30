package gormrepo

import (
	"context"
	"encoding/json"
	"errors"

	"npcforge/internal/adapter/repo/gorm/model"
	"npcforge/internal/app/ports"

	"gorm.io/gorm"
)

type PlayerSettingsRepo struct {
	db *gorm.DB
}

func NewPlayerSettingsRepo(db *gorm.DB) PlayerSettingsRepo {
	return PlayerSettingsRepo{db: db}
}

func (r PlayerSettingsRepo) GetByPlayerID(ctx context.Context, playerID int64) (ports.PlayerSettings, error) {
	var row model.PlayerSettings
	if err := getDBFromCtx(ctx, r.db).Where("player_id = ?", playerID).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.PlayerSettings{}, ports.ErrNotFound
		}
		return ports.PlayerSettings{}, err
	}

	var disabled []string
	if len(row.DisabledFeatures) > 0 {
		if err := json.Unmarshal(row.DisabledFeatures, &disabled); err != nil {
			return ports.PlayerSettings{}, err
		}
	}
	return ports.PlayerSettings{PlayerID: row.PlayerID, DisabledFeatures: disabled}, nil
}
