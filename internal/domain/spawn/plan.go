package spawn

import (
	"fmt"
	"math/rand"
	"sort"
	"strconv"
	"strings"
	"time"

	"npcforge/internal/domain/npc"
)

var ErrInvalidPreset = fmt.Errorf("invalid spawn preset")

// Validate checks that a preset's tranche counts add up to its total.
func (p Preset) Validate() error {
	if p.TotalNPCs <= 0 {
		return fmt.Errorf("%w: total_npcs must be positive", ErrInvalidPreset)
	}
	sum := p.Instant
	for _, n := range p.Progressive {
		sum += n
	}
	if sum != p.TotalNPCs {
		return fmt.Errorf("%w: tranches sum to %d, total_npcs is %d", ErrInvalidPreset, sum, p.TotalNPCs)
	}
	return nil
}

// Expand turns a preset into one instant batch plus one progressive batch per
// day offset, each pre-populated with independently sampled per-entity
// configs. The summed entity count always equals TotalNPCs.
func Expand(p Preset, worldID string, now time.Time, rng *rand.Rand) ([]Batch, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	batches := make([]Batch, 0, 1+len(p.Progressive))
	if p.Instant > 0 {
		batches = append(batches, Batch{
			WorldID:     worldID,
			PresetKey:   p.Key,
			Kind:        BatchInstant,
			Status:      BatchPending,
			ScheduledAt: now,
			Requested:   p.Instant,
			Entities:    sampleEntities(p, p.Instant, rng),
			Algorithm:   p.Algorithm,
		})
	}

	for _, tranche := range sortedTranches(p.Progressive) {
		batches = append(batches, Batch{
			WorldID:     worldID,
			PresetKey:   p.Key,
			Kind:        BatchProgressive,
			Status:      BatchPending,
			ScheduledAt: now.Add(time.Duration(tranche.day) * 24 * time.Hour),
			Requested:   tranche.count,
			Entities:    sampleEntities(p, tranche.count, rng),
			Algorithm:   p.Algorithm,
		})
	}
	return batches, nil
}

type tranche struct {
	day   int
	count int
}

func sortedTranches(progressive map[string]int) []tranche {
	out := make([]tranche, 0, len(progressive))
	for key, count := range progressive {
		day, ok := parseDayOffset(key)
		if !ok || count <= 0 {
			continue
		}
		out = append(out, tranche{day: day, count: count})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].day < out[j].day })
	return out
}

func parseDayOffset(key string) (int, bool) {
	rest, ok := strings.CutPrefix(key, "day_")
	if !ok {
		return 0, false
	}
	day, err := strconv.Atoi(rest)
	if err != nil || day < 0 {
		return 0, false
	}
	return day, true
}

func sampleEntities(p Preset, count int, rng *rand.Rand) []EntityPlan {
	entities := make([]EntityPlan, count)
	for i := range entities {
		entities[i] = EntityPlan{
			Tribe:       npc.Tribe(samplePercent(p.Tribes, string(npc.TribeRomans), rng)),
			Difficulty:  npc.DifficultyTier(samplePercent(p.Difficulties, string(npc.DifficultyMedium), rng)),
			Personality: npc.PersonalityArchetype(samplePercent(p.Personalities, string(npc.PersonalityBalanced), rng)),
		}
	}
	return entities
}

// samplePercent draws against raw percentages over a 0..100 range. A table
// summing below 100 leaves the remainder to fallback, which biases toward the
// default on purpose.
func samplePercent(dist map[string]int, fallback string, rng *rand.Rand) string {
	if len(dist) == 0 {
		return fallback
	}
	keys := make([]string, 0, len(dist))
	for k := range dist {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	u := rng.Intn(100)
	cumulative := 0
	for _, k := range keys {
		cumulative += dist[k]
		if u < cumulative {
			return k
		}
	}
	return fallback
}
