package ports

import (
	"context"
	"time"
)

type PendingStatus string

// Pending creation statuses are monotonic. At every observable status the
// record says exactly which store may hold orphaned rows.
const (
	PendingStarted         PendingStatus = "pending"
	PendingMySQLCommitting PendingStatus = "mysql_committing"
	PendingMySQLCommitted  PendingStatus = "mysql_committed"
	PendingPGCommitting    PendingStatus = "postgres_committing"
	PendingPGCommitted     PendingStatus = "postgres_committed"
	PendingCompleted       PendingStatus = "completed"
	PendingFailed          PendingStatus = "failed"
)

type PendingCreation struct {
	ID            string
	WorldID       string
	Status        PendingStatus
	GameAccountID int64
	SettlementID  int64
	PlayerID      int64
	Error         string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// PendingCreationRepository must be backed by an autocommit connection that
// is never enlisted in either business transaction; every write is durable
// before the caller proceeds.
type PendingCreationRepository interface {
	Create(ctx context.Context, record PendingCreation) error
	Update(ctx context.Context, record PendingCreation) error
	GetByID(ctx context.Context, id string) (PendingCreation, error)
	// ListStale returns records stuck in mysql_committing or mysql_committed
	// older than the cutoff; these are the orphans the recovery sweep repairs.
	ListStale(ctx context.Context, cutoff time.Time) ([]PendingCreation, error)
}
