package model

import "time"

// Control-plane (Postgres) rows.

type Player struct {
	ID           int64  `gorm:"primaryKey;autoIncrement"`
	WorldID      string `gorm:"index"`
	Name         string
	Type         string
	Active       bool
	GamePlayerID int64 `gorm:"index"`
	CreatedAt    time.Time
}

type NPCConfig struct {
	PlayerID                int64  `gorm:"primaryKey"`
	WorldID                 string `gorm:"index"`
	GamePlayerID            int64
	Tribe                   string
	Difficulty              string
	Personality             string
	DecisionIntervalSeconds int
	ModelAssistRatio        float64
	FeatureOverrides        []byte
	Active                  bool
	UpdatedAt               time.Time
}

type PlayerSettings struct {
	PlayerID         int64 `gorm:"primaryKey"`
	DisabledFeatures []byte
}

type FeatureFlag struct {
	Key       string `gorm:"primaryKey"`
	Enabled   bool
	Locked    bool
	UpdatedAt time.Time
}

type AuditLog struct {
	ID      int64 `gorm:"primaryKey;autoIncrement"`
	AdminID string
	Action  string
	Detail  string
	At      time.Time
}

type DecisionLog struct {
	ID            int64 `gorm:"primaryKey;autoIncrement"`
	PlayerID      int64 `gorm:"index"`
	WorldID       string
	Category      string
	Action        string
	Outcome       string
	LatencyMS     int64
	ModelAssisted bool
	Degraded      bool
	At            time.Time
}

type SpawnBatch struct {
	ID          int64  `gorm:"primaryKey;autoIncrement"`
	WorldID     string `gorm:"index"`
	PresetKey   string
	Kind        string
	Status      string `gorm:"index"`
	ScheduledAt time.Time
	Requested   int
	Spawned     int
	Entities    []byte
	Errors      []byte
	Algorithm   string
}

type SpawnPreset struct {
	Key     string `gorm:"primaryKey"`
	Payload []byte
}

type SpawnRecord struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	WorldID   string `gorm:"index"`
	BatchID   int64
	PlayerID  int64
	X         int
	Y         int
	CreatedAt time.Time
}

type WorldSettings struct {
	WorldID          string `gorm:"primaryKey"`
	Name             string
	MaxRadius        int
	ExclusionRadius  int
	MinSpawnDistance int
	DefaultPreset    string
	SpeedFactor      float64
	CreatedAt        time.Time
}

type PendingCreation struct {
	ID            string `gorm:"primaryKey"`
	WorldID       string
	Status        string `gorm:"index"`
	GameAccountID int64
	SettlementID  int64
	PlayerID      int64
	Error         string
	CreatedAt     time.Time
	UpdatedAt     time.Time `gorm:"index"`
}

// Game-world (MySQL) rows.

type GameAccount struct {
	ID      int64  `gorm:"primaryKey;autoIncrement"`
	WorldID string `gorm:"index"`
	Name    string
	Tribe   string
	IsNPC   bool
}

type Settlement struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	WorldID   string `gorm:"uniqueIndex:idx_settlement_cell"`
	AccountID int64  `gorm:"index"`
	X         int    `gorm:"uniqueIndex:idx_settlement_cell"`
	Y         int    `gorm:"uniqueIndex:idx_settlement_cell"`
	IsCapital bool
}

type ResourceField struct {
	SettlementID int64 `gorm:"primaryKey"`
	Wood         int64
	Clay         int64
	Iron         int64
	Crop         int64
}
