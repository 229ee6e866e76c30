package gormrepo

import (
	"context"
	"encoding/json"
	"errors"

	"npcforge/internal/adapter/repo/gorm/model"
	"npcforge/internal/app/ports"
	"npcforge/internal/domain/npc"

	"gorm.io/gorm"
)

type NPCConfigRepo struct {
	db *gorm.DB
}

func NewNPCConfigRepo(db *gorm.DB) NPCConfigRepo {
	return NPCConfigRepo{db: db}
}

func (r NPCConfigRepo) GetByPlayerID(ctx context.Context, playerID int64) (npc.Config, error) {
	var row model.NPCConfig
	if err := getDBFromCtx(ctx, r.db).Where("player_id = ?", playerID).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return npc.Config{}, ports.ErrNotFound
		}
		return npc.Config{}, err
	}
	return configFromRow(row)
}

func (r NPCConfigRepo) Update(ctx context.Context, cfg npc.Config) error {
	row, err := rowFromConfig(cfg)
	if err != nil {
		return err
	}
	res := getDBFromCtx(ctx, r.db).Model(&model.NPCConfig{}).
		Where("player_id = ?", cfg.PlayerID).
		Updates(map[string]any{
			"tribe":                     row.Tribe,
			"difficulty":                row.Difficulty,
			"personality":               row.Personality,
			"decision_interval_seconds": row.DecisionIntervalSeconds,
			"model_assist_ratio":        row.ModelAssistRatio,
			"feature_overrides":         row.FeatureOverrides,
			"active":                    row.Active,
			"updated_at":                row.UpdatedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ports.ErrNotFound
	}
	return nil
}

func configFromRow(row model.NPCConfig) (npc.Config, error) {
	var overrides map[string]bool
	if len(row.FeatureOverrides) > 0 {
		if err := json.Unmarshal(row.FeatureOverrides, &overrides); err != nil {
			return npc.Config{}, err
		}
	}
	return npc.Config{
		PlayerID:         row.PlayerID,
		WorldID:          row.WorldID,
		GamePlayerID:     row.GamePlayerID,
		Tribe:            npc.Tribe(row.Tribe),
		Difficulty:       npc.DifficultyTier(row.Difficulty),
		Personality:      npc.PersonalityArchetype(row.Personality),
		DecisionInterval: row.DecisionIntervalSeconds,
		ModelAssistRatio: row.ModelAssistRatio,
		FeatureOverrides: overrides,
		Active:           row.Active,
		UpdatedAt:        row.UpdatedAt,
	}, nil
}

func rowFromConfig(cfg npc.Config) (model.NPCConfig, error) {
	var overrides []byte
	if len(cfg.FeatureOverrides) > 0 {
		b, err := json.Marshal(cfg.FeatureOverrides)
		if err != nil {
			return model.NPCConfig{}, err
		}
		overrides = b
	}
	return model.NPCConfig{
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
	}, nil
}
