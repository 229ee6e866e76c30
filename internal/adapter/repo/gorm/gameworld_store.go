package gormrepo

import (
	"context"
	"fmt"

	"npcforge/internal/adapter/repo/gorm/model"
	"npcforge/internal/app/ports"
	"npcforge/internal/domain/grid"
	"npcforge/internal/domain/npc"

	"gorm.io/gorm"
)

// GameWorldStore is the narrow MySQL contract the subsystem holds against
// the game schema owned by the CRUD layer.
type GameWorldStore struct {
	db *gorm.DB
}

func NewGameWorldStore(db *gorm.DB) GameWorldStore {
	return GameWorldStore{db: db}
}

func (s GameWorldStore) Begin(ctx context.Context) (ports.GameWorldTx, error) {
	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	return &gameWorldTx{tx: tx}, nil
}

func (s GameWorldStore) IsCellOccupied(ctx context.Context, worldID string, cell grid.Coord) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.Settlement{}).
		Where("world_id = ? AND x = ? AND y = ?", worldID, cell.X, cell.Y).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s GameWorldStore) OccupiedCells(ctx context.Context, worldID string) ([]grid.Coord, error) {
	rows := []model.Settlement{}
	if err := s.db.WithContext(ctx).Where("world_id = ?", worldID).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]grid.Coord, 0, len(rows))
	for _, row := range rows {
		out = append(out, grid.Coord{X: row.X, Y: row.Y})
	}
	return out, nil
}

// StateSummary aggregates the coarse counts a decision cycle evaluates. Idle
// troops and threats live in tables owned by the CRUD layer; the summary
// keeps to what the spawn schema itself can answer and reports the rest as
// zero when those tables are absent.
func (s GameWorldStore) StateSummary(ctx context.Context, gamePlayerID int64) (npc.StateSummary, error) {
	db := s.db.WithContext(ctx)

	var settlements int64
	if err := db.Model(&model.Settlement{}).Where("account_id = ?", gamePlayerID).Count(&settlements).Error; err != nil {
		return npc.StateSummary{}, err
	}

	var total struct{ Total int64 }
	err := db.Model(&model.ResourceField{}).
		Select("COALESCE(SUM(wood + clay + iron + crop), 0) AS total").
		Joins("JOIN settlements ON settlements.id = resource_fields.settlement_id").
		Where("settlements.account_id = ?", gamePlayerID).
		Scan(&total).Error
	if err != nil {
		return npc.StateSummary{}, err
	}

	return npc.StateSummary{
		SettlementCount: int(settlements),
		TotalResources:  total.Total,
		IdleTroops:      0,
		ThreatCount:     0,
	}, nil
}

// DeleteProvisioned removes everything a half-finished saga wrote for one
// account. Idempotent: missing rows are not an error.
func (s GameWorldStore) DeleteProvisioned(ctx context.Context, accountID int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		settlements := []model.Settlement{}
		if err := tx.Where("account_id = ?", accountID).Find(&settlements).Error; err != nil {
			return err
		}
		for _, settlement := range settlements {
			if err := tx.Where("settlement_id = ?", settlement.ID).Delete(&model.ResourceField{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("account_id = ?", accountID).Delete(&model.Settlement{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.GameAccount{}, accountID).Error
	})
}

type gameWorldTx struct {
	tx *gorm.DB
}

func (t *gameWorldTx) CreateAccount(ctx context.Context, account ports.GameAccount) (int64, error) {
	row := model.GameAccount{
		WorldID: account.WorldID,
		Name:    account.Name,
		Tribe:   string(account.Tribe),
		IsNPC:   account.IsNPC,
	}
	if err := t.tx.Create(&row).Error; err != nil {
		return 0, err
	}
	return row.ID, nil
}

// CreateSettlement re-validates occupancy at write time. The unique index on
// (world_id, x, y) is the authority; a planner snapshot can always be stale.
func (t *gameWorldTx) CreateSettlement(ctx context.Context, settlement ports.Settlement) (int64, error) {
	row := model.Settlement{
		WorldID:   settlement.WorldID,
		AccountID: settlement.AccountID,
		X:         settlement.Location.X,
		Y:         settlement.Location.Y,
		IsCapital: settlement.IsCapital,
	}
	if err := t.tx.Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("%w: cell (%d,%d)", ports.ErrLocationUnavailable, settlement.Location.X, settlement.Location.Y)
		}
		return 0, err
	}
	return row.ID, nil
}

func (t *gameWorldTx) CreateResourceFields(ctx context.Context, settlementID int64, stock ports.ResourceStock) error {
	row := model.ResourceField{
		SettlementID: settlementID,
		Wood:         stock.Wood,
		Clay:         stock.Clay,
		Iron:         stock.Iron,
		Crop:         stock.Crop,
	}
	return t.tx.Create(&row).Error
}

func (t *gameWorldTx) Commit() error {
	return t.tx.Commit().Error
}

func (t *gameWorldTx) Rollback() error {
	return t.tx.Rollback().Error
}
