package memory

import (
	"sync"

	"npcforge/internal/app/ports"
	"npcforge/internal/domain/npc"
	"npcforge/internal/domain/spawn"
)

// Store backs the in-memory adapters used by tests and local runs. One
// mutex guards both "stores"; the saga adapters still stage their writes and
// apply them on commit so per-store atomicity behaves like the real thing.
type Store struct {
	mu sync.RWMutex

	players      map[int64]ports.Player
	nextPlayerID int64
	configs      map[int64]npc.Config
	settings     map[int64]ports.PlayerSettings
	flags        map[string]ports.FeatureFlag
	audit        []ports.AuditEntry
	decisions    []ports.DecisionLogEntry
	batches      map[int64]spawn.Batch
	nextBatchID  int64
	presets      map[string]spawn.Preset
	records      []spawn.Record
	worlds       map[string]ports.WorldSettings
	pending      map[string]ports.PendingCreation

	accounts         map[int64]ports.GameAccount
	nextAccountID    int64
	settlements      map[int64]ports.Settlement
	nextSettlementID int64
	resources        map[int64]ports.ResourceStock
	summaries        map[int64]npc.StateSummary
}

func NewStore() *Store {
	return &Store{
		players:     make(map[int64]ports.Player),
		configs:     make(map[int64]npc.Config),
		settings:    make(map[int64]ports.PlayerSettings),
		flags:       make(map[string]ports.FeatureFlag),
		batches:     make(map[int64]spawn.Batch),
		presets:     make(map[string]spawn.Preset),
		worlds:      make(map[string]ports.WorldSettings),
		pending:     make(map[string]ports.PendingCreation),
		accounts:    make(map[int64]ports.GameAccount),
		settlements: make(map[int64]ports.Settlement),
		resources:   make(map[int64]ports.ResourceStock),
		summaries:   make(map[int64]npc.StateSummary),
	}
}

func (s *Store) SeedFlag(flag ports.FeatureFlag) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flags[flag.Key] = flag
}

func (s *Store) SeedPlayer(player ports.Player) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.players[player.ID] = player
	if player.ID >= s.nextPlayerID {
		s.nextPlayerID = player.ID
	}
}

func (s *Store) SeedConfig(cfg npc.Config) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.configs[cfg.PlayerID] = cfg
}

func (s *Store) SeedSettings(settings ports.PlayerSettings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings[settings.PlayerID] = settings
}

func (s *Store) SeedWorld(settings ports.WorldSettings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.worlds[settings.WorldID] = settings
}

func (s *Store) SeedPreset(preset spawn.Preset) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.presets[preset.Key] = preset
}

func (s *Store) SeedBatch(batch spawn.Batch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batches[batch.ID] = batch
	if batch.ID >= s.nextBatchID {
		s.nextBatchID = batch.ID
	}
}

func (s *Store) SeedSettlement(settlement ports.Settlement) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSettlementID++
	settlement.ID = s.nextSettlementID
	s.settlements[settlement.ID] = settlement
}

func (s *Store) SeedSummary(gamePlayerID int64, summary npc.StateSummary) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.summaries[gamePlayerID] = summary
}

func (s *Store) AuditEntries() []ports.AuditEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]ports.AuditEntry(nil), s.audit...)
}

func (s *Store) DecisionEntries() []ports.DecisionLogEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]ports.DecisionLogEntry(nil), s.decisions...)
}

func (s *Store) PendingRecords() []ports.PendingCreation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ports.PendingCreation, 0, len(s.pending))
	for _, record := range s.pending {
		out = append(out, record)
	}
	return out
}

func (s *Store) Accounts() []ports.GameAccount {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ports.GameAccount, 0, len(s.accounts))
	for _, account := range s.accounts {
		out = append(out, account)
	}
	return out
}

func (s *Store) Players() []ports.Player {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ports.Player, 0, len(s.players))
	for _, player := range s.players {
		out = append(out, player)
	}
	return out
}
