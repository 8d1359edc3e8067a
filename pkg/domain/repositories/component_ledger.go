package repositories

import (
	"context"

	"github.com/vsinha/stockmrp/pkg/domain/entities"
)

// ComponentLedger stores components and moves stock between their buckets.
// Every method returns copies; callers never hold references into the ledger.
type ComponentLedger interface {
	Create(ctx context.Context, component *entities.Component) (*entities.Component, error)
	Get(ctx context.Context, id entities.ComponentID) (*entities.Component, error)

	// List returns all components ordered by id, read under a single consistent view
	List(ctx context.Context) ([]*entities.Component, error)

	// Snapshot returns a consistent copy of the named components.
	// Unknown ids fail with a not-found error.
	Snapshot(ctx context.Context, ids []entities.ComponentID) (map[entities.ComponentID]entities.Component, error)

	// Update applies fn to a copy of the component and commits it when fn returns nil
	Update(ctx context.Context, id entities.ComponentID, fn func(*entities.Component) error) (*entities.Component, error)

	// Delete removes a component. Components with units in progress or shipped cannot be removed.
	Delete(ctx context.Context, id entities.ComponentID) error

	// Transact locks the named components in ascending id order and runs fn.
	// When fn returns an error every bucket touched by fn is restored.
	Transact(ctx context.Context, ids []entities.ComponentID, fn func(tx LedgerTx) error) error

	// Restore replaces the ledger contents, keeping the given ids
	Restore(components []entities.Component) error
}

// LedgerTx is the view of the ledger available inside Transact.
// Only components named when the transaction was opened are reachable.
type LedgerTx interface {
	Get(id entities.ComponentID) (entities.Component, error)
	Reserve(id entities.ComponentID, qty entities.Quantity) error
	Release(id entities.ComponentID, qty entities.Quantity) error
}
