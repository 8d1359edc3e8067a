package repositories

import (
	"context"
	"time"

	"github.com/vsinha/stockmrp/pkg/domain/entities"
)

// StateSnapshot is a point-in-time copy of the whole catalog
type StateSnapshot struct {
	TakenAt    time.Time
	Components []entities.Component
	Products   []entities.Product
	Orders     []entities.Order
}

// SnapshotStore persists and reloads catalog snapshots
type SnapshotStore interface {
	Save(ctx context.Context, snapshot StateSnapshot) error

	// Load returns the most recent snapshot; ok is false when nothing was saved yet
	Load(ctx context.Context) (snapshot StateSnapshot, ok bool, err error)

	Close() error
}
