package gormrepo

import (
	"context"
	"errors"
	"time"

	"npcforge/internal/adapter/repo/gorm/model"
	"npcforge/internal/app/ports"

	"gorm.io/gorm"
)

// PendingCreationRepo is the saga's durable side channel. It writes on its
// own autocommit session and deliberately ignores any transaction in the
// context: a checkpoint that rolls back with a business transaction is
// worthless to the recovery sweep.
type PendingCreationRepo struct {
	db *gorm.DB
}

func NewPendingCreationRepo(db *gorm.DB) PendingCreationRepo {
	return PendingCreationRepo{db: db.Session(&gorm.Session{NewDB: true})}
}

func (r PendingCreationRepo) Create(ctx context.Context, record ports.PendingCreation) error {
	row := rowFromPending(record)
	return r.db.WithContext(ctx).Create(&row).Error
}

func (r PendingCreationRepo) Update(ctx context.Context, record ports.PendingCreation) error {
	res := r.db.WithContext(ctx).Model(&model.PendingCreation{}).
		Where("id = ?", record.ID).
		Updates(map[string]any{
			"status":          string(record.Status),
			"game_account_id": record.GameAccountID,
			"settlement_id":   record.SettlementID,
			"player_id":       record.PlayerID,
			"error":           record.Error,
			"updated_at":      record.UpdatedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ports.ErrNotFound
	}
	return nil
}

func (r PendingCreationRepo) GetByID(ctx context.Context, id string) (ports.PendingCreation, error) {
	var row model.PendingCreation
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.PendingCreation{}, ports.ErrNotFound
		}
		return ports.PendingCreation{}, err
	}
	return pendingFromRow(row), nil
}

func (r PendingCreationRepo) ListStale(ctx context.Context, cutoff time.Time) ([]ports.PendingCreation, error) {
	rows := []model.PendingCreation{}
	err := r.db.WithContext(ctx).
		Where("status IN ? AND updated_at < ?",
			[]string{string(ports.PendingMySQLCommitting), string(ports.PendingMySQLCommitted)},
			cutoff).
		Order("updated_at").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]ports.PendingCreation, 0, len(rows))
	for _, row := range rows {
		out = append(out, pendingFromRow(row))
	}
	return out, nil
}

func rowFromPending(record ports.PendingCreation) model.PendingCreation {
	return model.PendingCreation{
		ID:            record.ID,
		WorldID:       record.WorldID,
		Status:        string(record.Status),
		GameAccountID: record.GameAccountID,
		SettlementID:  record.SettlementID,
		PlayerID:      record.PlayerID,
		Error:         record.Error,
		CreatedAt:     record.CreatedAt,
		UpdatedAt:     record.UpdatedAt,
	}
}

func pendingFromRow(row model.PendingCreation) ports.PendingCreation {
	return ports.PendingCreation{
		ID:            row.ID,
		WorldID:       row.WorldID,
		Status:        ports.PendingStatus(row.Status),
		GameAccountID: row.GameAccountID,
		SettlementID:  row.SettlementID,
		PlayerID:      row.PlayerID,
		Error:         row.Error,
		CreatedAt:     row.CreatedAt,
		UpdatedAt:     row.UpdatedAt,
	}
}
