package ports

import (
	"context"
	"time"

	"npcforge/internal/domain/grid"
	"npcforge/internal/domain/npc"
	"npcforge/internal/domain/spawn"
)

type PlayerType string

const (
	PlayerHuman PlayerType = "human"
	PlayerNPC   PlayerType = "npc"
)

// Player is the control-plane identity of a participant. GamePlayerID links
// to the game-world account row and is the join key between the two stores.
type Player struct {
	ID           int64
	WorldID      string
	Name         string
	Type         PlayerType
	Active       bool
	GamePlayerID int64
	CreatedAt    time.Time
}

type PlayerRepository interface {
	GetByID(ctx context.Context, id int64) (Player, error)
	ListActiveNPCs(ctx context.Context, worldID string, limit int) ([]Player, error)
}

type NPCConfigRepository interface {
	GetByPlayerID(ctx context.Context, playerID int64) (npc.Config, error)
	Update(ctx context.Context, cfg npc.Config) error
}

// PlayerSettings carries the actor-level feature opt-outs consulted by the
// feature gate.
type PlayerSettings struct {
	PlayerID         int64
	DisabledFeatures []string
}

type PlayerSettingsRepository interface {
	GetByPlayerID(ctx context.Context, playerID int64) (PlayerSettings, error)
}

type FeatureFlag struct {
	Key       string
	Enabled   bool
	Locked    bool
	UpdatedAt time.Time
}

type FeatureFlagRepository interface {
	GetByKey(ctx context.Context, key string) (FeatureFlag, error)
	Update(ctx context.Context, flag FeatureFlag) error
	Upsert(ctx context.Context, flag FeatureFlag) error
}

type AuditEntry struct {
	AdminID string
	Action  string
	Detail  string
	At      time.Time
}

type AuditLogRepository interface {
	Append(ctx context.Context, entry AuditEntry) error
}

type DecisionLogEntry struct {
	PlayerID      int64
	WorldID       string
	Category      string
	Action        string
	Outcome       string
	LatencyMS     int64
	ModelAssisted bool
	Degraded      bool
	At            time.Time
}

type DecisionLogRepository interface {
	Append(ctx context.Context, entry DecisionLogEntry) error
}

type SpawnBatchRepository interface {
	Create(ctx context.Context, batch spawn.Batch) (int64, error)
	GetByID(ctx context.Context, id int64) (spawn.Batch, error)
	NextRunnable(ctx context.Context, worldID string, now time.Time) (spawn.Batch, error)
	Update(ctx context.Context, batch spawn.Batch) error
}

type SpawnPresetRepository interface {
	GetByKey(ctx context.Context, key string) (spawn.Preset, error)
	Save(ctx context.Context, preset spawn.Preset) error
}

type SpawnRecordRepository interface {
	ListLocations(ctx context.Context, worldID string) ([]grid.Coord, error)
}

// WorldSettings gates batch execution and carries the placement geometry for
// one world.
type WorldSettings struct {
	WorldID          string
	Name             string
	MaxRadius        int
	ExclusionRadius  int
	MinSpawnDistance int
	DefaultPreset    string
	SpeedFactor      float64
	CreatedAt        time.Time
}

type WorldSettingsRepository interface {
	GetByWorldID(ctx context.Context, worldID string) (WorldSettings, error)
	Create(ctx context.Context, settings WorldSettings) error
}
