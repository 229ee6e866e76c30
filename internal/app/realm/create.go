package realm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"npcforge/internal/app/ports"
	"npcforge/internal/domain/spawn"
)

const (
	DefaultMaxRadius        = 100
	DefaultExclusionRadius  = 10
	DefaultMinSpawnDistance = 3
)

var ErrInvalidRequest = errors.New("invalid world request")

// CreateUseCase provisions a new world's control-plane configuration: the
// settings row, the default feature flags, and a default spawn preset. The
// game-world schema itself belongs to the excluded CRUD layer.
type CreateUseCase struct {
	TxManager ports.TxManager
	Settings  ports.WorldSettingsRepository
	Flags     ports.FeatureFlagRepository
	Presets   ports.SpawnPresetRepository
	Now       func() time.Time
}

type CreateRequest struct {
	WorldID          string  `json:"world_id"`
	Name             string  `json:"name"`
	MaxRadius        int     `json:"max_radius"`
	ExclusionRadius  int     `json:"exclusion_radius"`
	MinSpawnDistance int     `json:"min_spawn_distance"`
	SpeedFactor      float64 `json:"speed_factor"`
	DefaultPreset    string  `json:"default_preset"`
}

var defaultFlags = []ports.FeatureFlag{
	{Key: "npc_decision_engine", Enabled: true},
	{Key: "npc_model_assist", Enabled: false},
	{Key: "npc_spawning", Enabled: true},
}

func (u CreateUseCase) Execute(ctx context.Context, req CreateRequest) (ports.WorldSettings, error) {
	if req.WorldID == "" {
		return ports.WorldSettings{}, fmt.Errorf("%w: world id required", ErrInvalidRequest)
	}

	nowFn := u.Now
	if nowFn == nil {
		nowFn = time.Now
	}

	settings := ports.WorldSettings{
		WorldID:          req.WorldID,
		Name:             req.Name,
		MaxRadius:        orDefault(req.MaxRadius, DefaultMaxRadius),
		ExclusionRadius:  orDefault(req.ExclusionRadius, DefaultExclusionRadius),
		MinSpawnDistance: orDefault(req.MinSpawnDistance, DefaultMinSpawnDistance),
		DefaultPreset:    req.DefaultPreset,
		SpeedFactor:      req.SpeedFactor,
		CreatedAt:        nowFn(),
	}
	if settings.SpeedFactor <= 0 {
		settings.SpeedFactor = 1
	}

	err := u.TxManager.RunInTx(ctx, func(txCtx context.Context) error {
		if _, err := u.Settings.GetByWorldID(txCtx, req.WorldID); err == nil {
			return fmt.Errorf("%w: world %s already exists", ports.ErrConflict, req.WorldID)
		} else if !errors.Is(err, ports.ErrNotFound) {
			return err
		}

		if err := u.Settings.Create(txCtx, settings); err != nil {
			return err
		}
		for _, flag := range defaultFlags {
			flag.UpdatedAt = nowFn()
			if err := u.Flags.Upsert(txCtx, flag); err != nil {
				return err
			}
		}
		if settings.DefaultPreset != "" {
			if _, err := u.Presets.GetByKey(txCtx, settings.DefaultPreset); errors.Is(err, ports.ErrNotFound) {
				return u.Presets.Save(txCtx, defaultPreset(settings.DefaultPreset))
			} else if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return ports.WorldSettings{}, err
	}
	return settings, nil
}

func defaultPreset(key string) spawn.Preset {
	return spawn.Preset{
		Key:       key,
		TotalNPCs: 50,
		Instant:   10,
		Progressive: map[string]int{
			"day_1": 20,
			"day_3": 20,
		},
		Tribes:        map[string]int{"romans": 40, "teutons": 30, "gauls": 30},
		Difficulties:  map[string]int{"easy": 30, "medium": 40, "hard": 20, "expert": 10},
		Personalities: map[string]int{"aggressive": 20, "defensive": 20, "economic": 20, "trader": 15, "balanced": 25},
		Algorithm:     "quadrant_balanced",
	}
}

func orDefault(v, fallback int) int {
	if v <= 0 {
		return fallback
	}
	return v
}
