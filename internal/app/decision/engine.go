package decision

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"npcforge/internal/app/feature"
	"npcforge/internal/app/ports"
	"npcforge/internal/domain/npc"
)

const (
	FeatureDecisionEngine = "npc_decision_engine"
	FeatureModelAssist    = "npc_model_assist"

	ruleConfidence = 0.8

	minResourcesBuild = 500
	minResourcesTrade = 800
	minResourcesTrain = 1000
)

var ErrInvalidRequest = errors.New("invalid decision cycle request")

// Engine drives one decision per entity per invocation:
// EvaluateState -> ChooseSource -> SelectAction -> ApplyPersonality ->
// ApplyDifficulty -> Dispatch -> LogOutcome. Entities are processed
// sequentially; one entity's failure never aborts its siblings.
type Engine struct {
	Players     ports.PlayerRepository
	Configs     ports.NPCConfigRepository
	GameWorld   ports.GameWorldStore
	Advisor     ports.DecisionAdvisor
	Executor    ports.ActionExecutor
	DecisionLog ports.DecisionLogRepository
	Gate        *feature.Gate
	Metrics     ports.DecisionMetrics
	Logger      *slog.Logger
	Rand        *rand.Rand
	Now         func() time.Time
}

type CycleRequest struct {
	WorldID   string
	PlayerIDs []int64
	Limit     int
}

type CycleReport struct {
	Processed  int      `json:"processed"`
	Dispatched int      `json:"dispatched"`
	Skipped    int      `json:"skipped"`
	Errors     []string `json:"errors,omitempty"`
}

func (e Engine) RunCycle(ctx context.Context, req CycleRequest) (CycleReport, error) {
	if req.WorldID == "" {
		return CycleReport{}, fmt.Errorf("%w: world id required", ErrInvalidRequest)
	}

	players, err := e.selectPlayers(ctx, req)
	if err != nil {
		return CycleReport{}, err
	}

	var report CycleReport
	for _, player := range players {
		report.Processed++
		dispatched, err := e.decideOne(ctx, player)
		if err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("player %d: %v", player.ID, err))
			continue
		}
		if dispatched {
			report.Dispatched++
		} else {
			report.Skipped++
		}
	}
	return report, nil
}

func (e Engine) selectPlayers(ctx context.Context, req CycleRequest) ([]ports.Player, error) {
	if len(req.PlayerIDs) > 0 {
		players := make([]ports.Player, 0, len(req.PlayerIDs))
		for _, id := range req.PlayerIDs {
			p, err := e.Players.GetByID(ctx, id)
			if err != nil {
				return nil, fmt.Errorf("load player %d: %w", id, err)
			}
			players = append(players, p)
		}
		return players, nil
	}
	return e.Players.ListActiveNPCs(ctx, req.WorldID, req.Limit)
}

func (e Engine) decideOne(ctx context.Context, player ports.Player) (bool, error) {
	enabled, err := e.Gate.IsEnabled(ctx, FeatureDecisionEngine, player.ID, ports.PlayerNPC)
	if err != nil {
		return false, fmt.Errorf("resolve decision gate: %w", err)
	}
	if !enabled {
		return false, nil
	}

	cfg, err := e.Configs.GetByPlayerID(ctx, player.ID)
	if err != nil {
		return false, fmt.Errorf("load npc config: %w", err)
	}

	started := e.now()
	state, err := e.GameWorld.StateSummary(ctx, cfg.GamePlayerID)
	if err != nil {
		return false, fmt.Errorf("evaluate game state: %w", err)
	}

	ruled := e.selectByRules(cfg, state)
	final := ruled
	if e.useModelAssist(ctx, cfg) {
		final = e.Advisor.GetDecision(ctx, cfg, state, ruled)
	}

	final = npc.ApplyPersonality(final, cfg.Personality)
	final = npc.DifficultyScaler{Rand: e.Rand}.Apply(final, cfg.Difficulty)

	e.dispatch(ctx, cfg, final, started)
	return true, nil
}

// useModelAssist draws against the entity's configured ratio, but only when
// the model-assist capability is enabled for this entity.
func (e Engine) useModelAssist(ctx context.Context, cfg npc.Config) bool {
	if cfg.ModelAssistRatio <= 0 {
		return false
	}
	enabled, err := e.Gate.IsEnabled(ctx, FeatureModelAssist, cfg.PlayerID, ports.PlayerNPC)
	if err != nil || !enabled {
		return false
	}
	return e.Rand.Float64() < cfg.ModelAssistRatio
}

// selectByRules builds the archetype's weight table, removes actions whose
// preconditions fail, and picks by weighted random draw. An empty table
// yields idle.
func (e Engine) selectByRules(cfg npc.Config, state npc.StateSummary) npc.Decision {
	weights := npc.ActionWeights(cfg.Personality)
	for action := range weights {
		if !preconditionMet(action, state) {
			delete(weights, action)
		}
	}

	picker := npc.NewWeightedPicker(weights)
	if picker.Empty() {
		return npc.Decision{Action: npc.ActionIdle, Confidence: 0.2, Source: npc.SourceRules}
	}
	return npc.Decision{
		Action:     picker.Pick(e.Rand.Float64()),
		Confidence: ruleConfidence,
		Source:     npc.SourceRules,
	}
}

func preconditionMet(action npc.ActionType, state npc.StateSummary) bool {
	switch action {
	case npc.ActionAttack, npc.ActionFarm:
		return state.IdleTroops > 0
	case npc.ActionBuild:
		return state.TotalResources >= minResourcesBuild
	case npc.ActionTrade:
		return state.TotalResources >= minResourcesTrade
	case npc.ActionTrain:
		return state.TotalResources >= minResourcesTrain
	default:
		return true
	}
}

// dispatch hands the decision to the execution layer and logs the outcome.
// It must not fail the cycle: execution errors become error outcomes.
func (e Engine) dispatch(ctx context.Context, cfg npc.Config, d npc.Decision, started time.Time) {
	outcome, err := e.Executor.Execute(ctx, cfg, d)
	if err != nil {
		outcome = "error"
		if e.Metrics != nil {
			e.Metrics.RecordDispatchError()
		}
		if e.Logger != nil {
			e.Logger.Error("action dispatch failed",
				"player_id", cfg.PlayerID,
				"action", string(d.Action),
				"err", err)
		}
	}

	modelAssisted := d.Source == npc.SourceModel
	if e.Metrics != nil {
		e.Metrics.RecordDecision(string(d.Action), modelAssisted, d.Degraded)
	}

	entry := ports.DecisionLogEntry{
		PlayerID:      cfg.PlayerID,
		WorldID:       cfg.WorldID,
		Category:      string(d.Action),
		Action:        string(d.Action),
		Outcome:       outcome,
		LatencyMS:     e.now().Sub(started).Milliseconds(),
		ModelAssisted: modelAssisted,
		Degraded:      d.Degraded,
		At:            e.now(),
	}
	if err := e.DecisionLog.Append(ctx, entry); err != nil && e.Logger != nil {
		e.Logger.Error("decision log append failed", "player_id", cfg.PlayerID, "err", err)
	}
}

func (e Engine) now() time.Time {
	if e.Now == nil {
		return time.Now()
	}
	return e.Now()
}
