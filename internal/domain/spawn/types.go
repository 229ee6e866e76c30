package spawn

import (
	"time"

	"npcforge/internal/domain/grid"
	"npcforge/internal/domain/npc"
)

type BatchStatus string

const (
	BatchPending    BatchStatus = "pending"
	BatchInProgress BatchStatus = "in_progress"
	BatchCompleted  BatchStatus = "completed"
	BatchFailed     BatchStatus = "failed"
	BatchPaused     BatchStatus = "paused"
)

type BatchKind string

const (
	BatchInstant     BatchKind = "instant"
	BatchProgressive BatchKind = "progressive"
)

// Preset is a named declarative spawn template. Distribution maps hold
// percentages; they are deliberately not normalized, so a dimension summing
// to less than 100 falls through to that dimension's default.
type Preset struct {
	Key           string         `yaml:"key" json:"key"`
	TotalNPCs     int            `yaml:"total_npcs" json:"total_npcs"`
	Instant       int            `yaml:"instant" json:"instant"`
	Progressive   map[string]int `yaml:"progressive" json:"progressive"`
	Tribes        map[string]int `yaml:"tribes" json:"tribes"`
	Difficulties  map[string]int `yaml:"difficulties" json:"difficulties"`
	Personalities map[string]int `yaml:"personalities" json:"personalities"`
	Algorithm     string         `yaml:"algorithm" json:"algorithm"`
}

// EntityPlan is one pre-sampled per-entity config inside a planned batch.
type EntityPlan struct {
	Tribe       npc.Tribe                `json:"tribe"`
	Difficulty  npc.DifficultyTier       `json:"difficulty"`
	Personality npc.PersonalityArchetype `json:"personality"`
}

type Batch struct {
	ID          int64        `json:"id"`
	WorldID     string       `json:"world_id"`
	PresetKey   string       `json:"preset_key"`
	Kind        BatchKind    `json:"kind"`
	Status      BatchStatus  `json:"status"`
	ScheduledAt time.Time    `json:"scheduled_at"`
	Requested   int          `json:"requested"`
	Spawned     int          `json:"spawned"`
	Entities    []EntityPlan `json:"entities"`
	Errors      []string     `json:"errors,omitempty"`
	Algorithm   string       `json:"algorithm,omitempty"`
}

// Record is the spawn-tracking row written per created entity. It backs both
// batch accounting and the planner's collision checks.
type Record struct {
	ID        int64      `json:"id"`
	WorldID   string     `json:"world_id"`
	BatchID   int64      `json:"batch_id"`
	PlayerID  int64      `json:"player_id"`
	Location  grid.Coord `json:"location"`
	CreatedAt time.Time  `json:"created_at"`
}
