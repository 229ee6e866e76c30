package gormrepo

import (
	"context"
	"encoding/json"

	"npcforge/internal/adapter/repo/gorm/model"
	"npcforge/internal/app/ports"
	"npcforge/internal/domain/grid"
	"npcforge/internal/domain/npc"

	"gorm.io/gorm"
)

// ControlPlaneStore hands out manually managed Postgres transactions for the
// provisioning saga.
type ControlPlaneStore struct {
	db *gorm.DB
}

func NewControlPlaneStore(db *gorm.DB) ControlPlaneStore {
	return ControlPlaneStore{db: db}
}

func (s ControlPlaneStore) Begin(ctx context.Context) (ports.ControlPlaneTx, error) {
	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	return &controlPlaneTx{tx: tx}, nil
}

type controlPlaneTx struct {
	tx *gorm.DB
}

func (t *controlPlaneTx) CreatePlayer(ctx context.Context, player ports.Player) (int64, error) {
	row := model.Player{
		WorldID:      player.WorldID,
		Name:         player.Name,
		Type:         string(player.Type),
		Active:       player.Active,
		GamePlayerID: player.GamePlayerID,
		CreatedAt:    player.CreatedAt,
	}
	if err := t.tx.Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return 0, ports.ErrConflict
		}
		return 0, err
	}
	return row.ID, nil
}

func (t *controlPlaneTx) CreateNPCConfig(ctx context.Context, cfg npc.Config) error {
	var overrides []byte
	if len(cfg.FeatureOverrides) > 0 {
		b, err := json.Marshal(cfg.FeatureOverrides)
		if err != nil {
			return err
		}
		overrides = b
	}
	row := model.NPCConfig{
		PlayerID:                cfg.PlayerID,
		WorldID:                 cfg.WorldID,
		GamePlayerID:            cfg.GamePlayerID,
		Tribe:                   string(cfg.Tribe),
		Difficulty:              string(cfg.Difficulty),
		Personality:             string(cfg.Personality),
		DecisionIntervalSeconds: cfg.DecisionInterval,
		ModelAssistRatio:        cfg.ModelAssistRatio,
		FeatureOverrides:        overrides,
		Active:                  cfg.Active,
		UpdatedAt:               cfg.UpdatedAt,
	}
	return t.tx.Create(&row).Error
}

func (t *controlPlaneTx) CreateSpawnRecord(ctx context.Context, worldID string, batchID, playerID int64, cell grid.Coord) error {
	row := model.SpawnRecord{
		WorldID:  worldID,
		BatchID:  batchID,
		PlayerID: playerID,
		X:        cell.X,
		Y:        cell.Y,
	}
	return t.tx.Create(&row).Error
}

func (t *controlPlaneTx) Commit() error {
	return t.tx.Commit().Error
}

func (t *controlPlaneTx) Rollback() error {
	return t.tx.Rollback().Error
}
