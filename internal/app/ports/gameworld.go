package ports

import (
	"context"

	"npcforge/internal/domain/grid"
	"npcforge/internal/domain/npc"
)

// GameAccount is the game-world account row created by the saga.
type GameAccount struct {
	ID      int64
	WorldID string
	Name    string
	Tribe   npc.Tribe
	IsNPC   bool
}

// Settlement is the starting village claimed for a new entity.
type Settlement struct {
	ID        int64
	WorldID   string
	AccountID int64
	Location  grid.Coord
	IsCapital bool
}

// ResourceStock is the starting holdings written alongside a settlement.
type ResourceStock struct {
	Wood int64
	Clay int64
	Iron int64
	Crop int64
}

// GameWorldTx is one manually managed game-world transaction. CreateSettlement
// re-validates cell occupancy at write time and fails with
// ErrLocationUnavailable when a concurrent saga won the race.
type GameWorldTx interface {
	CreateAccount(ctx context.Context, account GameAccount) (int64, error)
	CreateSettlement(ctx context.Context, settlement Settlement) (int64, error)
	CreateResourceFields(ctx context.Context, settlementID int64, stock ResourceStock) error
	Commit() error
	Rollback() error
}

// GameWorldStore is the narrow contract against the game-world (MySQL) store.
type GameWorldStore interface {
	Begin(ctx context.Context) (GameWorldTx, error)
	IsCellOccupied(ctx context.Context, worldID string, cell grid.Coord) (bool, error)
	OccupiedCells(ctx context.Context, worldID string) ([]grid.Coord, error)
	StateSummary(ctx context.Context, gamePlayerID int64) (npc.StateSummary, error)
	// DeleteProvisioned removes every row a half-finished saga left behind for
	// one account: resource fields, settlement, account. Used by the recovery
	// sweep only.
	DeleteProvisioned(ctx context.Context, accountID int64) error
}

// ControlPlaneTx is one manually managed control-plane transaction opened by
// the saga.
type ControlPlaneTx interface {
	CreatePlayer(ctx context.Context, player Player) (int64, error)
	CreateNPCConfig(ctx context.Context, cfg npc.Config) error
	CreateSpawnRecord(ctx context.Context, worldID string, batchID, playerID int64, cell grid.Coord) error
	Commit() error
	Rollback() error
}

type ControlPlaneStore interface {
	Begin(ctx context.Context) (ControlPlaneTx, error)
}
