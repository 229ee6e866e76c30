package npc

import "testing"

func TestActionWeightsKnownArchetypes(t *testing.T) {
	for _, p := range []PersonalityArchetype{
		PersonalityAggressive, PersonalityDefensive, PersonalityEconomic,
		PersonalityTrader, PersonalityBalanced,
	} {
		w := ActionWeights(p)
		if len(w) != 6 {
			t.Fatalf("%s: expected 6 weighted actions, got %d", p, len(w))
		}
	}

	aggressive := ActionWeights(PersonalityAggressive)
	if aggressive[ActionAttack] <= aggressive[ActionTrade] {
		t.Fatalf("aggressive should favor attack over trade: %+v", aggressive)
	}
}

func TestActionWeightsUnknownFallsBackToBalanced(t *testing.T) {
	got := ActionWeights(PersonalityArchetype("mystery"))
	want := ActionWeights(PersonalityBalanced)
	for action, w := range want {
		if got[action] != w {
			t.Fatalf("unknown archetype weight for %s: got %v want %v", action, got[action], w)
		}
	}
}

func TestActionWeightsReturnsCopy(t *testing.T) {
	w := ActionWeights(PersonalityBalanced)
	w[ActionBuild] = 999
	if ActionWeights(PersonalityBalanced)[ActionBuild] == 999 {
		t.Fatalf("ActionWeights must return a copy")
	}
}

func TestApplyPersonalityKeepsAction(t *testing.T) {
	d := Decision{Action: ActionAttack}
	out := ApplyPersonality(d, PersonalityEconomic)
	if out.Action != ActionAttack {
		t.Fatalf("personality must not change the chosen action, got %s", out.Action)
	}
	if out.Params.TroopRatio != 0.2 {
		t.Fatalf("unexpected troop ratio: %v", out.Params.TroopRatio)
	}
	if out.Params.Target != TargetNearest || out.Params.ResourceFocus != FocusEconomy {
		t.Fatalf("unexpected traits: %+v", out.Params)
	}
}

func TestApplyPersonalityPreservesExplicitTarget(t *testing.T) {
	d := Decision{Action: ActionAttack, Params: ActionParams{Target: TargetWeakest}}
	out := ApplyPersonality(d, PersonalityTrader)
	if out.Params.Target != TargetWeakest {
		t.Fatalf("explicit target must survive personality, got %s", out.Params.Target)
	}
}
