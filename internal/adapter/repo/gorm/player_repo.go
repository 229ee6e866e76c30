package gormrepo

import (
	"context"
	"errors"

	"npcforge/internal/adapter/repo/gorm/model"
	"npcforge/internal/app/ports"

	"gorm.io/gorm"
)

type PlayerRepo struct {
	db *gorm.DB
}

func NewPlayerRepo(db *gorm.DB) PlayerRepo {
	return PlayerRepo{db: db}
}

func (r PlayerRepo) GetByID(ctx context.Context, id int64) (ports.Player, error) {
	var row model.Player
	if err := getDBFromCtx(ctx, r.db).First(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.Player{}, ports.ErrNotFound
		}
		return ports.Player{}, err
	}
	return playerFromRow(row), nil
}

func (r PlayerRepo) ListActiveNPCs(ctx context.Context, worldID string, limit int) ([]ports.Player, error) {
	rows := []model.Player{}
	query := getDBFromCtx(ctx, r.db).
		Where("world_id = ? AND type = ? AND active = ?", worldID, string(ports.PlayerNPC), true).
		Order("id")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]ports.Player, 0, len(rows))
	for _, row := range rows {
		out = append(out, playerFromRow(row))
	}
	return out, nil
}

func playerFromRow(row model.Player) ports.Player {
	return ports.Player{
		ID:           row.ID,
		WorldID:      row.WorldID,
		Name:         row.Name,
		Type:         ports.PlayerType(row.Type),
		Active:       row.Active,
		GamePlayerID: row.GamePlayerID,
		CreatedAt:    row.CreatedAt,
	}
}
