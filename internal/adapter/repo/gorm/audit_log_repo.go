package gormrepo

import (
	"context"

	"npcforge/internal/adapter/repo/gorm/model"
	"npcforge/internal/app/ports"

	"gorm.io/gorm"
)

type AuditLogRepo struct {
	db *gorm.DB
}

func NewAuditLogRepo(db *gorm.DB) AuditLogRepo {
	return AuditLogRepo{db: db}
}

func (r AuditLogRepo) Append(ctx context.Context, entry ports.AuditEntry) error {
	row := model.AuditLog{
		AdminID: entry.AdminID,
		Action:  entry.Action,
		Detail:  entry.Detail,
		At:      entry.At,
	}
	return getDBFromCtx(ctx, r.db).Create(&row).Error
}
