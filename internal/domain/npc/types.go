package npc

import "time"

type Tribe string

const (
	TribeRomans  Tribe = "romans"
	TribeTeutons Tribe = "teutons"
	TribeGauls   Tribe = "gauls"
)

type DifficultyTier string

const (
	DifficultyEasy   DifficultyTier = "easy"
	DifficultyMedium DifficultyTier = "medium"
	DifficultyHard   DifficultyTier = "hard"
	DifficultyExpert DifficultyTier = "expert"
)

type PersonalityArchetype string

const (
	PersonalityAggressive PersonalityArchetype = "aggressive"
	PersonalityDefensive  PersonalityArchetype = "defensive"
	PersonalityEconomic   PersonalityArchetype = "economic"
	PersonalityTrader     PersonalityArchetype = "trader"
	PersonalityBalanced   PersonalityArchetype = "balanced"
)

type ActionType string

const (
	ActionBuild  ActionType = "build"
	ActionFarm   ActionType = "farm"
	ActionTrain  ActionType = "train"
	ActionAttack ActionType = "attack"
	ActionDefend ActionType = "defend"
	ActionTrade  ActionType = "trade"
	ActionIdle   ActionType = "idle"
)

type TargetPreference string

const (
	TargetNearest   TargetPreference = "nearest"
	TargetWeakest   TargetPreference = "weakest"
	TargetRichest   TargetPreference = "richest"
	TargetInactive  TargetPreference = "inactive"
	TargetDefensive TargetPreference = "own_villages"
)

type ResourceFocus string

const (
	FocusMilitary       ResourceFocus = "military"
	FocusInfrastructure ResourceFocus = "infrastructure"
	FocusEconomy        ResourceFocus = "economy"
	FocusStockpile      ResourceFocus = "stockpile"
)

type ActionParams struct {
	TroopRatio    float64          `json:"troop_ratio"`
	Target        TargetPreference `json:"target,omitempty"`
	ResourceFocus ResourceFocus    `json:"resource_focus,omitempty"`
	DelaySeconds  int              `json:"delay_seconds"`
}

type DecisionSource string

const (
	SourceRules    DecisionSource = "rules"
	SourceModel    DecisionSource = "model"
	SourceFallback DecisionSource = "fallback"
)

type Decision struct {
	Action     ActionType     `json:"action"`
	Params     ActionParams   `json:"parameters"`
	Confidence float64        `json:"confidence"`
	Source     DecisionSource `json:"source"`
	Reasoning  string         `json:"reasoning,omitempty"`
	Degraded   bool           `json:"degraded,omitempty"`
}

// Config is the control-plane configuration row for one autonomous entity.
type Config struct {
	PlayerID         int64                `json:"player_id"`
	WorldID          string               `json:"world_id"`
	GamePlayerID     int64                `json:"game_player_id"`
	Tribe            Tribe                `json:"tribe"`
	Difficulty       DifficultyTier       `json:"difficulty"`
	Personality      PersonalityArchetype `json:"personality"`
	DecisionInterval int                  `json:"decision_interval_seconds"`
	ModelAssistRatio float64              `json:"model_assist_ratio"`
	FeatureOverrides map[string]bool      `json:"feature_overrides,omitempty"`
	Active           bool                 `json:"active"`
	UpdatedAt        time.Time            `json:"updated_at"`
}

// StateSummary is the coarse game-world snapshot a decision cycle evaluates.
type StateSummary struct {
	SettlementCount int   `json:"settlement_count"`
	TotalResources  int64 `json:"total_resources"`
	IdleTroops      int   `json:"idle_troops"`
	ThreatCount     int   `json:"threat_count"`
}

const (
	DefaultDecisionInterval = 600
	DefaultModelAssistRatio = 0.05
)
