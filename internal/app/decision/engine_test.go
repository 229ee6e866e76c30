package decision

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"npcforge/internal/adapter/executor/sim"
	"npcforge/internal/adapter/repo/memory"
	"npcforge/internal/app/feature"
	"npcforge/internal/app/ports"
	"npcforge/internal/domain/npc"
)

type fakeAdvisor struct {
	decision npc.Decision
	called   int
}

func (a *fakeAdvisor) GetDecision(_ context.Context, _ npc.Config, _ npc.StateSummary, fallback npc.Decision) npc.Decision {
	a.called++
	if a.decision.Action == "" {
		return fallback
	}
	return a.decision
}

type engineFixture struct {
	store    *memory.Store
	executor *sim.Executor
	advisor  *fakeAdvisor
	engine   Engine
}

func newEngineFixture(seed int64) *engineFixture {
	store := memory.NewStore()
	store.SeedFlag(ports.FeatureFlag{Key: FeatureDecisionEngine, Enabled: true})

	f := &engineFixture{
		store:    store,
		executor: &sim.Executor{},
		advisor:  &fakeAdvisor{},
	}
	f.engine = Engine{
		Players:     memory.NewPlayerRepo(store),
		Configs:     memory.NewNPCConfigRepo(store),
		GameWorld:   memory.NewGameWorldStore(store),
		Advisor:     f.advisor,
		Executor:    f.executor,
		DecisionLog: memory.NewDecisionLogRepo(store),
		Gate: feature.NewGate(
			memory.NewFeatureFlagRepo(store),
			memory.NewPlayerSettingsRepo(store),
			memory.NewNPCConfigRepo(store),
		),
		Rand: rand.New(rand.NewSource(seed)),
		Now:  func() time.Time { return time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC) },
	}
	return f
}

func (f *engineFixture) seedNPC(id int64, cfg npc.Config, state npc.StateSummary) {
	f.store.SeedPlayer(ports.Player{ID: id, WorldID: "w1", Type: ports.PlayerNPC, Active: true, GamePlayerID: id * 100})
	cfg.PlayerID = id
	cfg.WorldID = "w1"
	cfg.GamePlayerID = id * 100
	cfg.Active = true
	f.store.SeedConfig(cfg)
	f.store.SeedSummary(id*100, state)
}

func richState() npc.StateSummary {
	return npc.StateSummary{SettlementCount: 1, TotalResources: 5000, IdleTroops: 50}
}

func TestRunCycleRequiresWorldID(t *testing.T) {
	f := newEngineFixture(1)
	_, err := f.engine.RunCycle(context.Background(), CycleRequest{})
	if !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
}

func TestRunCycleDispatchesAndLogs(t *testing.T) {
	f := newEngineFixture(1)
	f.seedNPC(1, npc.Config{Tribe: npc.TribeRomans, Difficulty: npc.DifficultyExpert, Personality: npc.PersonalityBalanced}, richState())

	report, err := f.engine.RunCycle(context.Background(), CycleRequest{WorldID: "w1"})
	if err != nil {
		t.Fatalf("run cycle: %v", err)
	}
	if report.Processed != 1 || report.Dispatched != 1 || report.Skipped != 0 {
		t.Fatalf("unexpected report: %+v", report)
	}

	dispatched := f.executor.Dispatched()
	if len(dispatched) != 1 {
		t.Fatalf("expected 1 dispatched decision, got %d", len(dispatched))
	}
	if dispatched[0].Decision.Source != npc.SourceRules {
		t.Fatalf("model assist is off by default, got source %s", dispatched[0].Decision.Source)
	}

	entries := f.store.DecisionEntries()
	if len(entries) != 1 {
		t.Fatalf("expected 1 decision log entry, got %d", len(entries))
	}
	if entries[0].PlayerID != 1 || entries[0].Outcome != "accepted" {
		t.Fatalf("unexpected log entry: %+v", entries[0])
	}
}

func TestRunCycleSkipsWhenGateDisabled(t *testing.T) {
	f := newEngineFixture(1)
	f.store.SeedFlag(ports.FeatureFlag{Key: FeatureDecisionEngine, Enabled: false})
	f.seedNPC(1, npc.Config{Personality: npc.PersonalityBalanced}, richState())

	report, err := f.engine.RunCycle(context.Background(), CycleRequest{WorldID: "w1"})
	if err != nil {
		t.Fatalf("run cycle: %v", err)
	}
	if report.Processed != 1 || report.Skipped != 1 || report.Dispatched != 0 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if len(f.executor.Dispatched()) != 0 {
		t.Fatalf("disabled engine must not dispatch")
	}
}

func TestRunCyclePerEntityOverride(t *testing.T) {
	f := newEngineFixture(1)
	f.seedNPC(1, npc.Config{Personality: npc.PersonalityBalanced}, richState())
	f.seedNPC(2, npc.Config{
		Personality:      npc.PersonalityBalanced,
		FeatureOverrides: map[string]bool{FeatureDecisionEngine: false},
	}, richState())

	report, err := f.engine.RunCycle(context.Background(), CycleRequest{WorldID: "w1"})
	if err != nil {
		t.Fatalf("run cycle: %v", err)
	}
	if report.Dispatched != 1 || report.Skipped != 1 {
		t.Fatalf("override must skip entity 2 only: %+v", report)
	}
}

func TestRunCyclePoorStateYieldsIdleOrFarmless(t *testing.T) {
	f := newEngineFixture(1)
	// No troops, no resources: every weighted action fails its precondition.
	f.seedNPC(1, npc.Config{Difficulty: npc.DifficultyExpert, Personality: npc.PersonalityAggressive}, npc.StateSummary{})

	if _, err := f.engine.RunCycle(context.Background(), CycleRequest{WorldID: "w1"}); err != nil {
		t.Fatalf("run cycle: %v", err)
	}
	dispatched := f.executor.Dispatched()
	if len(dispatched) != 1 {
		t.Fatalf("expected 1 dispatch, got %d", len(dispatched))
	}
	if dispatched[0].Decision.Action != npc.ActionIdle {
		t.Fatalf("starved entity must idle, got %s", dispatched[0].Decision.Action)
	}
}

func TestRunCycleModelAssist(t *testing.T) {
	f := newEngineFixture(1)
	f.store.SeedFlag(ports.FeatureFlag{Key: FeatureModelAssist, Enabled: true})
	f.advisor.decision = npc.Decision{Action: npc.ActionDefend, Confidence: 0.9, Source: npc.SourceModel}
	f.seedNPC(1, npc.Config{
		Difficulty:       npc.DifficultyExpert,
		Personality:      npc.PersonalityBalanced,
		ModelAssistRatio: 1.0,
	}, richState())

	if _, err := f.engine.RunCycle(context.Background(), CycleRequest{WorldID: "w1"}); err != nil {
		t.Fatalf("run cycle: %v", err)
	}
	if f.advisor.called != 1 {
		t.Fatalf("advisor must be consulted at ratio 1.0, called %d times", f.advisor.called)
	}
	dispatched := f.executor.Dispatched()
	if dispatched[0].Decision.Source != npc.SourceModel || dispatched[0].Decision.Action != npc.ActionDefend {
		t.Fatalf("unexpected final decision: %+v", dispatched[0].Decision)
	}

	entries := f.store.DecisionEntries()
	if !entries[0].ModelAssisted {
		t.Fatalf("log entry must mark model assistance")
	}
}

func TestRunCycleModelAssistGatedOff(t *testing.T) {
	f := newEngineFixture(1)
	// FeatureModelAssist never seeded: unknown flags resolve to off.
	f.seedNPC(1, npc.Config{
		Difficulty:       npc.DifficultyExpert,
		Personality:      npc.PersonalityBalanced,
		ModelAssistRatio: 1.0,
	}, richState())

	if _, err := f.engine.RunCycle(context.Background(), CycleRequest{WorldID: "w1"}); err != nil {
		t.Fatalf("run cycle: %v", err)
	}
	if f.advisor.called != 0 {
		t.Fatalf("advisor must not be consulted while the flag is off")
	}
}

func TestRunCycleExecutorErrorBecomesOutcome(t *testing.T) {
	f := newEngineFixture(1)
	f.executor.Err = errors.New("execution layer down")
	f.seedNPC(1, npc.Config{Difficulty: npc.DifficultyExpert, Personality: npc.PersonalityBalanced}, richState())

	report, err := f.engine.RunCycle(context.Background(), CycleRequest{WorldID: "w1"})
	if err != nil {
		t.Fatalf("run cycle: %v", err)
	}
	if report.Dispatched != 1 {
		t.Fatalf("dispatch failures still count as dispatched: %+v", report)
	}
	entries := f.store.DecisionEntries()
	if len(entries) != 1 || entries[0].Outcome != "error" {
		t.Fatalf("expected error outcome, got %+v", entries)
	}
}

func TestRunCycleErrorDoesNotAbortSiblings(t *testing.T) {
	f := newEngineFixture(1)
	f.seedNPC(1, npc.Config{Personality: npc.PersonalityBalanced}, richState())
	// Player 2 exists without a config row.
	f.store.SeedPlayer(ports.Player{ID: 2, WorldID: "w1", Type: ports.PlayerNPC, Active: true})
	f.seedNPC(3, npc.Config{Personality: npc.PersonalityBalanced}, richState())

	report, err := f.engine.RunCycle(context.Background(), CycleRequest{WorldID: "w1"})
	if err != nil {
		t.Fatalf("run cycle: %v", err)
	}
	if report.Processed != 3 || report.Dispatched != 2 || len(report.Errors) != 1 {
		t.Fatalf("unexpected report: %+v", report)
	}
}

func TestRunCycleExplicitPlayerIDs(t *testing.T) {
	f := newEngineFixture(1)
	f.seedNPC(1, npc.Config{Personality: npc.PersonalityBalanced}, richState())
	f.seedNPC(2, npc.Config{Personality: npc.PersonalityBalanced}, richState())

	report, err := f.engine.RunCycle(context.Background(), CycleRequest{WorldID: "w1", PlayerIDs: []int64{2}})
	if err != nil {
		t.Fatalf("run cycle: %v", err)
	}
	if report.Processed != 1 {
		t.Fatalf("expected only the named player, got %+v", report)
	}
	dispatched := f.executor.Dispatched()
	if len(dispatched) != 1 || dispatched[0].PlayerID != 2 {
		t.Fatalf("unexpected dispatch targets: %+v", dispatched)
	}
}

var _ ports.DecisionAdvisor = (*fakeAdvisor)(nil)
var _ ports.ActionExecutor = (*sim.Executor)(nil)
