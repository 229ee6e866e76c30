package npc

import "math/rand"

type DifficultyProfile struct {
	Efficiency           float64
	ReactionDelaySeconds int
	ResourceOptimization float64
	MilitarySkill        float64
	ErrorRate            float64
}

var difficultyProfiles = map[DifficultyTier]DifficultyProfile{
	DifficultyEasy:   {Efficiency: 0.6, ReactionDelaySeconds: 300, ResourceOptimization: 0.5, MilitarySkill: 0.4, ErrorRate: 0.30},
	DifficultyMedium: {Efficiency: 0.8, ReactionDelaySeconds: 120, ResourceOptimization: 0.7, MilitarySkill: 0.6, ErrorRate: 0.15},
	DifficultyHard:   {Efficiency: 0.95, ReactionDelaySeconds: 30, ResourceOptimization: 0.9, MilitarySkill: 0.85, ErrorRate: 0.05},
	DifficultyExpert: {Efficiency: 1.0, ReactionDelaySeconds: 5, ResourceOptimization: 1.0, MilitarySkill: 1.0, ErrorRate: 0},
}

func ProfileForTier(tier DifficultyTier) DifficultyProfile {
	p, ok := difficultyProfiles[tier]
	if !ok {
		return difficultyProfiles[DifficultyMedium]
	}
	return p
}

// DifficultyScaler applies tier multipliers to a decision and, with
// probability equal to the tier's error rate, degrades it with one of four
// scripted suboptimalities. Degradation mutates the already-chosen action's
// parameters in place, so the result can be internally inconsistent (for
// example a halved troop ratio on a build action); that noise is intentional.
type DifficultyScaler struct {
	Rand *rand.Rand
}

func (s DifficultyScaler) Apply(d Decision, tier DifficultyTier) Decision {
	p := ProfileForTier(tier)

	d.Params.DelaySeconds += p.ReactionDelaySeconds
	d.Params.TroopRatio *= p.MilitarySkill
	if d.Params.TroopRatio > 1 {
		d.Params.TroopRatio = 1
	}
	d.Confidence *= p.Efficiency

	if p.ErrorRate > 0 && s.Rand.Float64() < p.ErrorRate {
		d = s.degrade(d)
		d.Degraded = true
		d.Confidence *= 0.5
	}
	return d
}

func (s DifficultyScaler) degrade(d Decision) Decision {
	switch s.Rand.Intn(4) {
	case 0: // wrong target
		if d.Params.Target == TargetNearest {
			d.Params.Target = TargetRichest
		} else {
			d.Params.Target = TargetNearest
		}
	case 1: // doubled reaction delay
		d.Params.DelaySeconds *= 2
	case 2: // wasted resources
		d.Params.ResourceFocus = FocusStockpile
	default: // troop under-commitment
		d.Params.TroopRatio /= 2
	}
	return d
}
