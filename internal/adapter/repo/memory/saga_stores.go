package memory

import (
	"context"
	"fmt"

	"npcforge/internal/app/ports"
	"npcforge/internal/domain/grid"
	"npcforge/internal/domain/npc"
	"npcforge/internal/domain/spawn"
)

// GameWorldStore mimics the MySQL side. Transactions stage writes and apply
// them on commit, re-checking cell occupancy there, so the saga's per-store
// atomicity and placement races behave as they do against the real store.
type GameWorldStore struct {
	store *Store

	// FailCommit forces the next Commit to fail, for crash-path tests.
	FailCommit bool
}

func NewGameWorldStore(store *Store) *GameWorldStore {
	return &GameWorldStore{store: store}
}

func (s *GameWorldStore) Begin(_ context.Context) (ports.GameWorldTx, error) {
	return &gameWorldTx{owner: s}, nil
}

func (s *GameWorldStore) IsCellOccupied(_ context.Context, worldID string, cell grid.Coord) (bool, error) {
	for _, settlement := range s.store.settlements {
		if settlement.WorldID == worldID && settlement.Location == cell {
			return true, nil
		}
	}
	return false, nil
}

func (s *GameWorldStore) OccupiedCells(_ context.Context, worldID string) ([]grid.Coord, error) {
	out := []grid.Coord{}
	for _, settlement := range s.store.settlements {
		if settlement.WorldID == worldID {
			out = append(out, settlement.Location)
		}
	}
	return out, nil
}

func (s *GameWorldStore) StateSummary(_ context.Context, gamePlayerID int64) (npc.StateSummary, error) {
	if summary, ok := s.store.summaries[gamePlayerID]; ok {
		return summary, nil
	}
	summary := npc.StateSummary{}
	for _, settlement := range s.store.settlements {
		if settlement.AccountID == gamePlayerID {
			summary.SettlementCount++
			if stock, ok := s.store.resources[settlement.ID]; ok {
				summary.TotalResources += stock.Wood + stock.Clay + stock.Iron + stock.Crop
			}
		}
	}
	return summary, nil
}

func (s *GameWorldStore) DeleteProvisioned(_ context.Context, accountID int64) error {
	for id, settlement := range s.store.settlements {
		if settlement.AccountID == accountID {
			delete(s.store.resources, id)
			delete(s.store.settlements, id)
		}
	}
	delete(s.store.accounts, accountID)
	return nil
}

type stagedSettlement struct {
	settlement ports.Settlement
	id         int64
	stock      *ports.ResourceStock
}

type gameWorldTx struct {
	owner    *GameWorldStore
	accounts []ports.GameAccount
	setts    []stagedSettlement
	done     bool
}

func (t *gameWorldTx) CreateAccount(_ context.Context, account ports.GameAccount) (int64, error) {
	t.owner.store.nextAccountID++
	account.ID = t.owner.store.nextAccountID
	t.accounts = append(t.accounts, account)
	return account.ID, nil
}

func (t *gameWorldTx) CreateSettlement(_ context.Context, settlement ports.Settlement) (int64, error) {
	occupied, _ := t.owner.IsCellOccupied(context.Background(), settlement.WorldID, settlement.Location)
	if occupied {
		return 0, fmt.Errorf("%w: cell (%d,%d)", ports.ErrLocationUnavailable, settlement.Location.X, settlement.Location.Y)
	}
	t.owner.store.nextSettlementID++
	settlement.ID = t.owner.store.nextSettlementID
	t.setts = append(t.setts, stagedSettlement{settlement: settlement, id: settlement.ID})
	return settlement.ID, nil
}

func (t *gameWorldTx) CreateResourceFields(_ context.Context, settlementID int64, stock ports.ResourceStock) error {
	for i := range t.setts {
		if t.setts[i].id == settlementID {
			t.setts[i].stock = &stock
			return nil
		}
	}
	return ports.ErrNotFound
}

func (t *gameWorldTx) Commit() error {
	if t.done {
		return ports.ErrConflict
	}
	t.done = true
	if t.owner.FailCommit {
		t.owner.FailCommit = false
		return fmt.Errorf("forced commit failure")
	}
	store := t.owner.store
	for _, account := range t.accounts {
		store.accounts[account.ID] = account
	}
	for _, staged := range t.setts {
		store.settlements[staged.id] = staged.settlement
		if staged.stock != nil {
			store.resources[staged.id] = *staged.stock
		}
	}
	return nil
}

func (t *gameWorldTx) Rollback() error {
	t.done = true
	return nil
}

// ControlPlaneStore mimics the Postgres side with the same staged-commit
// discipline.
type ControlPlaneStore struct {
	store *Store

	FailCommit       bool
	FailCreatePlayer bool
}

func NewControlPlaneStore(store *Store) *ControlPlaneStore {
	return &ControlPlaneStore{store: store}
}

func (s *ControlPlaneStore) Begin(_ context.Context) (ports.ControlPlaneTx, error) {
	return &controlPlaneTx{owner: s}, nil
}

type controlPlaneTx struct {
	owner   *ControlPlaneStore
	players []ports.Player
	configs []npc.Config
	records []spawn.Record
	done    bool
}

func (t *controlPlaneTx) CreatePlayer(_ context.Context, player ports.Player) (int64, error) {
	if t.owner.FailCreatePlayer {
		t.owner.FailCreatePlayer = false
		return 0, fmt.Errorf("forced player insert failure")
	}
	t.owner.store.nextPlayerID++
	player.ID = t.owner.store.nextPlayerID
	t.players = append(t.players, player)
	return player.ID, nil
}

func (t *controlPlaneTx) CreateNPCConfig(_ context.Context, cfg npc.Config) error {
	t.configs = append(t.configs, cfg)
	return nil
}

func (t *controlPlaneTx) CreateSpawnRecord(_ context.Context, worldID string, batchID, playerID int64, cell grid.Coord) error {
	t.records = append(t.records, spawn.Record{
		WorldID:  worldID,
		BatchID:  batchID,
		PlayerID: playerID,
		Location: cell,
	})
	return nil
}

func (t *controlPlaneTx) Commit() error {
	if t.done {
		return ports.ErrConflict
	}
	t.done = true
	if t.owner.FailCommit {
		t.owner.FailCommit = false
		return fmt.Errorf("forced commit failure")
	}
	store := t.owner.store
	for _, player := range t.players {
		store.players[player.ID] = player
	}
	for _, cfg := range t.configs {
		store.configs[cfg.PlayerID] = cfg
	}
	store.records = append(store.records, t.records...)
	return nil
}

func (t *controlPlaneTx) Rollback() error {
	t.done = true
	return nil
}
