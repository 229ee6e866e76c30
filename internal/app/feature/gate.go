package feature

import (
	"context"
	"errors"
	"sync"
	"time"

	"npcforge/internal/app/ports"
)

const DefaultCacheTTL = 300 * time.Second

// Gate resolves whether a capability is active for an actor. Server-wide
// flags are read through a TTL cache; a locked flag short-circuits every
// lower layer.
type Gate struct {
	Flags      ports.FeatureFlagRepository
	Settings   ports.PlayerSettingsRepository
	NPCConfigs ports.NPCConfigRepository
	CacheTTL   time.Duration
	Now        func() time.Time

	mu    sync.Mutex
	cache map[string]cachedFlag
}

type cachedFlag struct {
	flag      ports.FeatureFlag
	known     bool
	fetchedAt time.Time
}

func NewGate(flags ports.FeatureFlagRepository, settings ports.PlayerSettingsRepository, configs ports.NPCConfigRepository) *Gate {
	return &Gate{
		Flags:      flags,
		Settings:   settings,
		NPCConfigs: configs,
		CacheTTL:   DefaultCacheTTL,
		Now:        time.Now,
		cache:      make(map[string]cachedFlag),
	}
}

// IsEnabled resolves the flag for the given actor. A zero actorID means no
// actor context (server-wide answer only).
func (g *Gate) IsEnabled(ctx context.Context, key string, actorID int64, actorType ports.PlayerType) (bool, error) {
	flag, known, err := g.lookup(ctx, key)
	if err != nil {
		return false, err
	}
	if !known {
		return false, nil
	}
	if flag.Locked {
		return flag.Enabled, nil
	}
	if !flag.Enabled {
		return false, nil
	}
	if actorID == 0 {
		return true, nil
	}

	settings, err := g.Settings.GetByPlayerID(ctx, actorID)
	if err != nil && !errors.Is(err, ports.ErrNotFound) {
		return false, err
	}
	for _, disabled := range settings.DisabledFeatures {
		if disabled == key {
			return false, nil
		}
	}

	if actorType == ports.PlayerNPC {
		cfg, err := g.NPCConfigs.GetByPlayerID(ctx, actorID)
		if err != nil && !errors.Is(err, ports.ErrNotFound) {
			return false, err
		}
		if err == nil {
			if override, ok := cfg.FeatureOverrides[key]; ok {
				return override, nil
			}
		}
	}
	return true, nil
}

func (g *Gate) lookup(ctx context.Context, key string) (ports.FeatureFlag, bool, error) {
	now := g.now()

	g.mu.Lock()
	entry, ok := g.cache[key]
	g.mu.Unlock()
	if ok && now.Sub(entry.fetchedAt) < g.ttl() {
		return entry.flag, entry.known, nil
	}

	flag, err := g.Flags.GetByKey(ctx, key)
	known := true
	if errors.Is(err, ports.ErrNotFound) {
		known = false
	} else if err != nil {
		return ports.FeatureFlag{}, false, err
	}

	g.mu.Lock()
	g.cache[key] = cachedFlag{flag: flag, known: known, fetchedAt: now}
	g.mu.Unlock()
	return flag, known, nil
}

// Invalidate drops the cached flag so the next lookup reads through.
func (g *Gate) Invalidate(key string) {
	g.mu.Lock()
	delete(g.cache, key)
	g.mu.Unlock()
}

func (g *Gate) ttl() time.Duration {
	if g.CacheTTL <= 0 {
		return DefaultCacheTTL
	}
	return g.CacheTTL
}

func (g *Gate) now() time.Time {
	if g.Now == nil {
		return time.Now()
	}
	return g.Now()
}
