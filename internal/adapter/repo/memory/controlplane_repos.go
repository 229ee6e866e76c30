package memory

import (
	"context"
	"time"

	"npcforge/internal/app/ports"
	"npcforge/internal/domain/grid"
	"npcforge/internal/domain/npc"
	"npcforge/internal/domain/spawn"
)

type PlayerRepo struct {
	store *Store
}

func NewPlayerRepo(store *Store) PlayerRepo {
	return PlayerRepo{store: store}
}

func (r PlayerRepo) GetByID(_ context.Context, id int64) (ports.Player, error) {
	player, ok := r.store.players[id]
	if !ok {
		return ports.Player{}, ports.ErrNotFound
	}
	return player, nil
}

func (r PlayerRepo) ListActiveNPCs(_ context.Context, worldID string, limit int) ([]ports.Player, error) {
	out := []ports.Player{}
	for id := int64(1); id <= r.store.nextPlayerID; id++ {
		player, ok := r.store.players[id]
		if !ok || player.WorldID != worldID || player.Type != ports.PlayerNPC || !player.Active {
			continue
		}
		out = append(out, player)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

type NPCConfigRepo struct {
	store *Store
}

func NewNPCConfigRepo(store *Store) NPCConfigRepo {
	return NPCConfigRepo{store: store}
}

func (r NPCConfigRepo) GetByPlayerID(_ context.Context, playerID int64) (npc.Config, error) {
	cfg, ok := r.store.configs[playerID]
	if !ok {
		return npc.Config{}, ports.ErrNotFound
	}
	return cfg, nil
}

func (r NPCConfigRepo) Update(_ context.Context, cfg npc.Config) error {
	if _, ok := r.store.configs[cfg.PlayerID]; !ok {
		return ports.ErrNotFound
	}
	r.store.configs[cfg.PlayerID] = cfg
	return nil
}

type PlayerSettingsRepo struct {
	store *Store
}

func NewPlayerSettingsRepo(store *Store) PlayerSettingsRepo {
	return PlayerSettingsRepo{store: store}
}

func (r PlayerSettingsRepo) GetByPlayerID(_ context.Context, playerID int64) (ports.PlayerSettings, error) {
	settings, ok := r.store.settings[playerID]
	if !ok {
		return ports.PlayerSettings{}, ports.ErrNotFound
	}
	return settings, nil
}

type FeatureFlagRepo struct {
	store *Store
}

func NewFeatureFlagRepo(store *Store) FeatureFlagRepo {
	return FeatureFlagRepo{store: store}
}

func (r FeatureFlagRepo) GetByKey(_ context.Context, key string) (ports.FeatureFlag, error) {
	flag, ok := r.store.flags[key]
	if !ok {
		return ports.FeatureFlag{}, ports.ErrNotFound
	}
	return flag, nil
}

func (r FeatureFlagRepo) Update(_ context.Context, flag ports.FeatureFlag) error {
	if _, ok := r.store.flags[flag.Key]; !ok {
		return ports.ErrNotFound
	}
	r.store.flags[flag.Key] = flag
	return nil
}

func (r FeatureFlagRepo) Upsert(_ context.Context, flag ports.FeatureFlag) error {
	if _, ok := r.store.flags[flag.Key]; ok {
		return nil
	}
	r.store.flags[flag.Key] = flag
	return nil
}

type AuditLogRepo struct {
	store *Store
}

func NewAuditLogRepo(store *Store) AuditLogRepo {
	return AuditLogRepo{store: store}
}

func (r AuditLogRepo) Append(_ context.Context, entry ports.AuditEntry) error {
	r.store.audit = append(r.store.audit, entry)
	return nil
}

type DecisionLogRepo struct {
	store *Store
}

func NewDecisionLogRepo(store *Store) DecisionLogRepo {
	return DecisionLogRepo{store: store}
}

func (r DecisionLogRepo) Append(_ context.Context, entry ports.DecisionLogEntry) error {
	r.store.decisions = append(r.store.decisions, entry)
	return nil
}

type SpawnBatchRepo struct {
	store *Store
}

func NewSpawnBatchRepo(store *Store) SpawnBatchRepo {
	return SpawnBatchRepo{store: store}
}

func (r SpawnBatchRepo) Create(_ context.Context, batch spawn.Batch) (int64, error) {
	r.store.nextBatchID++
	batch.ID = r.store.nextBatchID
	r.store.batches[batch.ID] = batch
	return batch.ID, nil
}

func (r SpawnBatchRepo) GetByID(_ context.Context, id int64) (spawn.Batch, error) {
	batch, ok := r.store.batches[id]
	if !ok {
		return spawn.Batch{}, ports.ErrNotFound
	}
	return batch, nil
}

func (r SpawnBatchRepo) NextRunnable(_ context.Context, worldID string, now time.Time) (spawn.Batch, error) {
	var best spawn.Batch
	found := false
	for id := int64(1); id <= r.store.nextBatchID; id++ {
		batch, ok := r.store.batches[id]
		if !ok || batch.WorldID != worldID || batch.Status != spawn.BatchPending || batch.ScheduledAt.After(now) {
			continue
		}
		if !found || batch.ScheduledAt.Before(best.ScheduledAt) {
			best = batch
			found = true
		}
	}
	if !found {
		return spawn.Batch{}, ports.ErrNotFound
	}
	return best, nil
}

func (r SpawnBatchRepo) Update(_ context.Context, batch spawn.Batch) error {
	if _, ok := r.store.batches[batch.ID]; !ok {
		return ports.ErrNotFound
	}
	r.store.batches[batch.ID] = batch
	return nil
}

type SpawnPresetRepo struct {
	store *Store
}

func NewSpawnPresetRepo(store *Store) SpawnPresetRepo {
	return SpawnPresetRepo{store: store}
}

func (r SpawnPresetRepo) GetByKey(_ context.Context, key string) (spawn.Preset, error) {
	preset, ok := r.store.presets[key]
	if !ok {
		return spawn.Preset{}, ports.ErrNotFound
	}
	return preset, nil
}

func (r SpawnPresetRepo) Save(_ context.Context, preset spawn.Preset) error {
	r.store.presets[preset.Key] = preset
	return nil
}

type SpawnRecordRepo struct {
	store *Store
}

func NewSpawnRecordRepo(store *Store) SpawnRecordRepo {
	return SpawnRecordRepo{store: store}
}

func (r SpawnRecordRepo) ListLocations(_ context.Context, worldID string) ([]grid.Coord, error) {
	out := []grid.Coord{}
	for _, record := range r.store.records {
		if record.WorldID == worldID {
			out = append(out, record.Location)
		}
	}
	return out, nil
}

type WorldSettingsRepo struct {
	store *Store
}

func NewWorldSettingsRepo(store *Store) WorldSettingsRepo {
	return WorldSettingsRepo{store: store}
}

func (r WorldSettingsRepo) GetByWorldID(_ context.Context, worldID string) (ports.WorldSettings, error) {
	settings, ok := r.store.worlds[worldID]
	if !ok {
		return ports.WorldSettings{}, ports.ErrNotFound
	}
	return settings, nil
}

func (r WorldSettingsRepo) Create(_ context.Context, settings ports.WorldSettings) error {
	if _, ok := r.store.worlds[settings.WorldID]; ok {
		return ports.ErrConflict
	}
	r.store.worlds[settings.WorldID] = settings
	return nil
}

type PendingCreationRepo struct {
	store *Store
}

func NewPendingCreationRepo(store *Store) PendingCreationRepo {
	return PendingCreationRepo{store: store}
}

func (r PendingCreationRepo) Create(_ context.Context, record ports.PendingCreation) error {
	if _, ok := r.store.pending[record.ID]; ok {
		return ports.ErrConflict
	}
	r.store.pending[record.ID] = record
	return nil
}

func (r PendingCreationRepo) Update(_ context.Context, record ports.PendingCreation) error {
	if _, ok := r.store.pending[record.ID]; !ok {
		return ports.ErrNotFound
	}
	r.store.pending[record.ID] = record
	return nil
}

func (r PendingCreationRepo) GetByID(_ context.Context, id string) (ports.PendingCreation, error) {
	record, ok := r.store.pending[id]
	if !ok {
		return ports.PendingCreation{}, ports.ErrNotFound
	}
	return record, nil
}

func (r PendingCreationRepo) ListStale(_ context.Context, cutoff time.Time) ([]ports.PendingCreation, error) {
	out := []ports.PendingCreation{}
	for _, record := range r.store.pending {
		stuck := record.Status == ports.PendingMySQLCommitting || record.Status == ports.PendingMySQLCommitted
		if stuck && record.UpdatedAt.Before(cutoff) {
			out = append(out, record)
		}
	}
	return out, nil
}
