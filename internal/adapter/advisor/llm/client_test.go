package llm

import (
	"context"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"npcforge/internal/domain/npc"
)

func testAdvisor(t *testing.T, endpoint string) *Advisor {
	t.Helper()
	a := NewAdvisor(Config{
		Endpoint:     endpoint,
		Backend:      BackendOllama,
		Model:        "llama3",
		MaxAttempts:  2,
		BreakerLimit: 2,
		BreakerReset: time.Minute,
	}, nil, nil, rand.New(rand.NewSource(7)))
	a.sleep = func(context.Context, time.Duration) {}
	return a
}

func testNPCConfig() npc.Config {
	return npc.Config{
		PlayerID:    1,
		Personality: npc.PersonalityAggressive,
		Difficulty:  npc.DifficultyHard,
	}
}

func fallbackDecision() npc.Decision {
	return npc.Decision{Action: npc.ActionFarm, Confidence: 0.9, Source: npc.SourceRules}
}

func TestGetDecisionParsesBackendResponse(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			w.WriteHeader(http.StatusOK)
			return
		}
		atomic.AddInt32(&calls, 1)
		w.Write([]byte(`{"response": "I choose {\"action\": \"attack\", \"parameters\": {\"troop_ratio\": 0.8, \"target\": \"weakest\"}, \"reasoning\": \"threats nearby\"}"}`))
	}))
	defer srv.Close()

	a := testAdvisor(t, srv.URL)
	got := a.GetDecision(context.Background(), testNPCConfig(), npc.StateSummary{IdleTroops: 50}, fallbackDecision())

	if got.Action != npc.ActionAttack || got.Source != npc.SourceModel {
		t.Fatalf("unexpected decision: %+v", got)
	}
	if got.Params.TroopRatio != 0.8 || got.Params.Target != npc.TargetWeakest {
		t.Fatalf("parameters not carried over: %+v", got.Params)
	}
	if got.Reasoning != "threats nearby" {
		t.Fatalf("reasoning not carried over: %q", got.Reasoning)
	}

	// Same prompt again must come from the cache.
	before := atomic.LoadInt32(&calls)
	again := a.GetDecision(context.Background(), testNPCConfig(), npc.StateSummary{IdleTroops: 50}, fallbackDecision())
	if again.Action != npc.ActionAttack {
		t.Fatalf("cached decision differs: %+v", again)
	}
	if atomic.LoadInt32(&calls) != before {
		t.Fatalf("second identical request must not hit the backend")
	}
}

func TestGetDecisionFallsBackOnServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	a := testAdvisor(t, srv.URL)
	got := a.GetDecision(context.Background(), testNPCConfig(), npc.StateSummary{}, fallbackDecision())

	if got.Action != npc.ActionFarm || got.Source != npc.SourceFallback {
		t.Fatalf("expected the fallback decision, got %+v", got)
	}
	// Two attempts per call, limit two: the breaker is now open and the next
	// call short-circuits without touching the backend.
	if !a.IsCircuitBreakerOpen() {
		t.Fatalf("repeated failures must open the breaker")
	}
	next := a.GetDecision(context.Background(), testNPCConfig(), npc.StateSummary{}, fallbackDecision())
	if next.Source != npc.SourceFallback {
		t.Fatalf("open breaker must return the fallback, got %+v", next)
	}
}

func TestGetDecisionFallsBackWhenUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	a := testAdvisor(t, srv.URL)
	got := a.GetDecision(context.Background(), testNPCConfig(), npc.StateSummary{}, fallbackDecision())
	if got.Source != npc.SourceFallback {
		t.Fatalf("dead endpoint must return the fallback, got %+v", got)
	}
}

func TestParseDecision(t *testing.T) {
	a := testAdvisor(t, "http://localhost:0")

	cases := []struct {
		name string
		text string
		want npc.ActionType
	}{
		{"clean json", `{"action": "build"}`, npc.ActionBuild},
		{"json inside prose", `Sure! Here you go: {"action": "trade"} Hope that helps.`, npc.ActionTrade},
		{"uppercase action", `{"action": "DEFEND"}`, npc.ActionDefend},
		{"unknown action", `{"action": "conquer"}`, npc.ActionIdle},
		{"no json at all", `I cannot decide.`, npc.ActionIdle},
		{"malformed json", `{"action": `, npc.ActionIdle},
	}
	for _, tc := range cases {
		got := a.parseDecision(tc.text)
		if got.Action != tc.want {
			t.Fatalf("%s: got %s want %s", tc.name, got.Action, tc.want)
		}
		if got.Source != npc.SourceModel {
			t.Fatalf("%s: parsed decisions are model-sourced, got %s", tc.name, got.Source)
		}
	}

	degraded := a.parseDecision("no json")
	if degraded.Confidence != 0.1 {
		t.Fatalf("unparseable output must carry low confidence, got %v", degraded.Confidence)
	}
}

func TestParseDecisionClampsTroopRatio(t *testing.T) {
	a := testAdvisor(t, "http://localhost:0")

	got := a.parseDecision(`{"action": "attack", "parameters": {"troop_ratio": 3.5}}`)
	if got.Params.TroopRatio != 1 {
		t.Fatalf("troop ratio must clamp to 1, got %v", got.Params.TroopRatio)
	}
	got = a.parseDecision(`{"action": "attack", "parameters": {"troop_ratio": -2}}`)
	if got.Params.TroopRatio != 0 {
		t.Fatalf("troop ratio must clamp to 0, got %v", got.Params.TroopRatio)
	}
}
