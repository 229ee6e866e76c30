package npc

// personalityWeights fixes the base action distribution per archetype.
// Weights are relative, not percentages.
var personalityWeights = map[PersonalityArchetype]map[ActionType]float64{
	PersonalityAggressive: {
		ActionAttack: 35, ActionTrain: 25, ActionFarm: 15,
		ActionBuild: 15, ActionDefend: 5, ActionTrade: 5,
	},
	PersonalityDefensive: {
		ActionDefend: 30, ActionBuild: 25, ActionTrain: 20,
		ActionFarm: 15, ActionTrade: 7, ActionAttack: 3,
	},
	PersonalityEconomic: {
		ActionBuild: 35, ActionFarm: 25, ActionTrade: 20,
		ActionTrain: 10, ActionDefend: 8, ActionAttack: 2,
	},
	PersonalityTrader: {
		ActionTrade: 35, ActionFarm: 20, ActionBuild: 20,
		ActionTrain: 10, ActionDefend: 10, ActionAttack: 5,
	},
	PersonalityBalanced: {
		ActionBuild: 20, ActionFarm: 20, ActionTrain: 15,
		ActionAttack: 15, ActionDefend: 15, ActionTrade: 15,
	},
}

type personalityTraits struct {
	troopRatio    float64
	target        TargetPreference
	resourceFocus ResourceFocus
}

var archetypeTraits = map[PersonalityArchetype]personalityTraits{
	PersonalityAggressive: {troopRatio: 0.8, target: TargetWeakest, resourceFocus: FocusMilitary},
	PersonalityDefensive:  {troopRatio: 0.3, target: TargetDefensive, resourceFocus: FocusInfrastructure},
	PersonalityEconomic:   {troopRatio: 0.2, target: TargetNearest, resourceFocus: FocusEconomy},
	PersonalityTrader:     {troopRatio: 0.25, target: TargetRichest, resourceFocus: FocusStockpile},
	PersonalityBalanced:   {troopRatio: 0.5, target: TargetNearest, resourceFocus: FocusEconomy},
}

// ActionWeights returns the archetype's base weight table. Unknown archetypes
// behave as balanced.
func ActionWeights(p PersonalityArchetype) map[ActionType]float64 {
	w, ok := personalityWeights[p]
	if !ok {
		w = personalityWeights[PersonalityBalanced]
	}
	out := make(map[ActionType]float64, len(w))
	for k, v := range w {
		out[k] = v
	}
	return out
}

// ApplyPersonality biases the chosen decision's parameters with the
// archetype's traits. The action itself is never changed here.
func ApplyPersonality(d Decision, p PersonalityArchetype) Decision {
	t, ok := archetypeTraits[p]
	if !ok {
		t = archetypeTraits[PersonalityBalanced]
	}
	d.Params.TroopRatio = t.troopRatio
	if d.Params.Target == "" {
		d.Params.Target = t.target
	}
	if d.Params.ResourceFocus == "" {
		d.Params.ResourceFocus = t.resourceFocus
	}
	return d
}
