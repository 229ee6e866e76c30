package spawnplan

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"npcforge/internal/app/ports"
	"npcforge/internal/domain/spawn"
)

type ConfigNotFoundError struct {
	Kind string
	Key  string
}

func (e *ConfigNotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.Key)
}

func (e *ConfigNotFoundError) Unwrap() error {
	return ports.ErrConfigNotFound
}

// PresetOverrides adjust a stored preset for one plan without mutating it.
type PresetOverrides struct {
	TotalNPCs   *int           `json:"total_npcs,omitempty"`
	Instant     *int           `json:"instant,omitempty"`
	Progressive map[string]int `json:"progressive,omitempty"`
	Algorithm   string         `json:"algorithm,omitempty"`
}

// PlanUseCase expands a preset into pending batches: one instant tranche and
// one progressive tranche per day offset.
type PlanUseCase struct {
	Presets  ports.SpawnPresetRepository
	Batches  ports.SpawnBatchRepository
	Settings ports.WorldSettingsRepository
	Rand     *rand.Rand
	Now      func() time.Time
}

type PlanRequest struct {
	WorldID   string
	PresetKey string
	Overrides PresetOverrides
}

func (u PlanUseCase) Preview(ctx context.Context, req PlanRequest) ([]spawn.Batch, error) {
	preset, err := u.resolvePreset(ctx, req)
	if err != nil {
		return nil, err
	}
	return spawn.Expand(preset, req.WorldID, u.now(), u.Rand)
}

// Apply previews the plan and persists every batch for the scheduler.
func (u PlanUseCase) Apply(ctx context.Context, req PlanRequest) ([]int64, error) {
	if _, err := u.Settings.GetByWorldID(ctx, req.WorldID); err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return nil, &ConfigNotFoundError{Kind: "world settings", Key: req.WorldID}
		}
		return nil, err
	}

	batches, err := u.Preview(ctx, req)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(batches))
	for _, batch := range batches {
		id, err := u.Batches.Create(ctx, batch)
		if err != nil {
			return ids, fmt.Errorf("persist batch: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (u PlanUseCase) resolvePreset(ctx context.Context, req PlanRequest) (spawn.Preset, error) {
	preset, err := u.Presets.GetByKey(ctx, req.PresetKey)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return spawn.Preset{}, &ConfigNotFoundError{Kind: "spawn preset", Key: req.PresetKey}
		}
		return spawn.Preset{}, err
	}

	o := req.Overrides
	if o.TotalNPCs != nil {
		preset.TotalNPCs = *o.TotalNPCs
	}
	if o.Instant != nil {
		preset.Instant = *o.Instant
	}
	if len(o.Progressive) > 0 {
		preset.Progressive = o.Progressive
	}
	if o.Algorithm != "" {
		preset.Algorithm = o.Algorithm
	}
	return preset, nil
}

func (u PlanUseCase) now() time.Time {
	if u.Now == nil {
		return time.Now()
	}
	return u.Now()
}
