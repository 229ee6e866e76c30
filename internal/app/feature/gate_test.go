package feature

import (
	"context"
	"testing"
	"time"

	"npcforge/internal/adapter/repo/memory"
	"npcforge/internal/app/ports"
	"npcforge/internal/domain/npc"
)

func testGate(store *memory.Store) *Gate {
	return NewGate(
		memory.NewFeatureFlagRepo(store),
		memory.NewPlayerSettingsRepo(store),
		memory.NewNPCConfigRepo(store),
	)
}

func TestIsEnabledUnknownFlagIsOff(t *testing.T) {
	g := testGate(memory.NewStore())
	enabled, err := g.IsEnabled(context.Background(), "ghost_flag", 0, ports.PlayerNPC)
	if err != nil {
		t.Fatalf("IsEnabled: %v", err)
	}
	if enabled {
		t.Fatalf("unknown flag must resolve to disabled")
	}
}

func TestIsEnabledServerWideOff(t *testing.T) {
	store := memory.NewStore()
	store.SeedFlag(ports.FeatureFlag{Key: "f", Enabled: false})
	g := testGate(store)

	enabled, err := g.IsEnabled(context.Background(), "f", 7, ports.PlayerNPC)
	if err != nil {
		t.Fatalf("IsEnabled: %v", err)
	}
	if enabled {
		t.Fatalf("disabled flag must be off for every actor")
	}
}

func TestIsEnabledLockedFlagShortCircuits(t *testing.T) {
	store := memory.NewStore()
	store.SeedFlag(ports.FeatureFlag{Key: "f", Enabled: true, Locked: true})
	// Both actor-level layers say no; the lock must win.
	store.SeedSettings(ports.PlayerSettings{PlayerID: 7, DisabledFeatures: []string{"f"}})
	store.SeedConfig(npc.Config{PlayerID: 7, FeatureOverrides: map[string]bool{"f": false}})
	g := testGate(store)

	enabled, err := g.IsEnabled(context.Background(), "f", 7, ports.PlayerNPC)
	if err != nil {
		t.Fatalf("IsEnabled: %v", err)
	}
	if !enabled {
		t.Fatalf("locked enabled flag must dominate actor opt-outs")
	}
}

func TestIsEnabledActorOptOut(t *testing.T) {
	store := memory.NewStore()
	store.SeedFlag(ports.FeatureFlag{Key: "f", Enabled: true})
	store.SeedSettings(ports.PlayerSettings{PlayerID: 7, DisabledFeatures: []string{"f"}})
	g := testGate(store)

	enabled, err := g.IsEnabled(context.Background(), "f", 7, ports.PlayerNPC)
	if err != nil {
		t.Fatalf("IsEnabled: %v", err)
	}
	if enabled {
		t.Fatalf("actor opt-out must disable the feature")
	}
}

func TestIsEnabledNPCOverride(t *testing.T) {
	store := memory.NewStore()
	store.SeedFlag(ports.FeatureFlag{Key: "f", Enabled: true})
	store.SeedConfig(npc.Config{PlayerID: 7, FeatureOverrides: map[string]bool{"f": false}})
	g := testGate(store)

	enabled, err := g.IsEnabled(context.Background(), "f", 7, ports.PlayerNPC)
	if err != nil {
		t.Fatalf("IsEnabled: %v", err)
	}
	if enabled {
		t.Fatalf("NPC config override must disable the feature")
	}

	// Override is consulted for NPCs only.
	enabled, err = g.IsEnabled(context.Background(), "f", 7, ports.PlayerHuman)
	if err != nil {
		t.Fatalf("IsEnabled: %v", err)
	}
	if !enabled {
		t.Fatalf("human actor must not see NPC overrides")
	}
}

func TestIsEnabledNoActorContext(t *testing.T) {
	store := memory.NewStore()
	store.SeedFlag(ports.FeatureFlag{Key: "f", Enabled: true})
	store.SeedConfig(npc.Config{PlayerID: 7, FeatureOverrides: map[string]bool{"f": false}})
	g := testGate(store)

	enabled, err := g.IsEnabled(context.Background(), "f", 0, ports.PlayerNPC)
	if err != nil {
		t.Fatalf("IsEnabled: %v", err)
	}
	if !enabled {
		t.Fatalf("zero actor id must resolve server-wide only")
	}
}

func TestGateCachesWithinTTL(t *testing.T) {
	store := memory.NewStore()
	store.SeedFlag(ports.FeatureFlag{Key: "f", Enabled: true})
	g := testGate(store)
	base := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	g.Now = func() time.Time { return base }

	if enabled, _ := g.IsEnabled(context.Background(), "f", 0, ports.PlayerNPC); !enabled {
		t.Fatalf("expected enabled")
	}

	// The store flips but the cached value holds until the TTL elapses.
	store.SeedFlag(ports.FeatureFlag{Key: "f", Enabled: false})
	if enabled, _ := g.IsEnabled(context.Background(), "f", 0, ports.PlayerNPC); !enabled {
		t.Fatalf("expected cached enabled value inside TTL")
	}

	g.Now = func() time.Time { return base.Add(DefaultCacheTTL + time.Second) }
	if enabled, _ := g.IsEnabled(context.Background(), "f", 0, ports.PlayerNPC); enabled {
		t.Fatalf("expected read-through after TTL expiry")
	}
}

func TestGateInvalidateDropsCacheEntry(t *testing.T) {
	store := memory.NewStore()
	store.SeedFlag(ports.FeatureFlag{Key: "f", Enabled: true})
	g := testGate(store)

	if enabled, _ := g.IsEnabled(context.Background(), "f", 0, ports.PlayerNPC); !enabled {
		t.Fatalf("expected enabled")
	}
	store.SeedFlag(ports.FeatureFlag{Key: "f", Enabled: false})
	g.Invalidate("f")
	if enabled, _ := g.IsEnabled(context.Background(), "f", 0, ports.PlayerNPC); enabled {
		t.Fatalf("expected fresh read after invalidation")
	}
}
