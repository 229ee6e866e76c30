package npc

import "sort"

type weightedEntry struct {
	action     ActionType
	cumulative float64
}

// WeightedPicker selects actions from a weight table by cumulative-weight
// binary search. A zero-total table always picks ActionIdle.
type WeightedPicker struct {
	entries []weightedEntry
	total   float64
}

func NewWeightedPicker(weights map[ActionType]float64) WeightedPicker {
	actions := make([]ActionType, 0, len(weights))
	for a, w := range weights {
		if w > 0 {
			actions = append(actions, a)
		}
	}
	sort.Slice(actions, func(i, j int) bool { return actions[i] < actions[j] })

	p := WeightedPicker{entries: make([]weightedEntry, 0, len(actions))}
	for _, a := range actions {
		p.total += weights[a]
		p.entries = append(p.entries, weightedEntry{action: a, cumulative: p.total})
	}
	return p
}

// Pick maps a uniform sample in [0,1) onto the distribution.
func (p WeightedPicker) Pick(u float64) ActionType {
	if p.total <= 0 || len(p.entries) == 0 {
		return ActionIdle
	}
	target := u * p.total
	i := sort.Search(len(p.entries), func(i int) bool {
		return p.entries[i].cumulative > target
	})
	if i >= len(p.entries) {
		i = len(p.entries) - 1
	}
	return p.entries[i].action
}

func (p WeightedPicker) Empty() bool {
	return p.total <= 0
}
