// Package engine wires the repositories, event store and services into one
// explicit context object. An Engine is built once at startup and closed at
// shutdown; nothing in it is package-level state.
package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/vsinha/stockmrp/pkg/application/services/bom"
	"github.com/vsinha/stockmrp/pkg/application/services/capacity"
	"github.com/vsinha/stockmrp/pkg/application/services/inventory"
	"github.com/vsinha/stockmrp/pkg/application/services/orders"
	"github.com/vsinha/stockmrp/pkg/application/services/procurement"
	"github.com/vsinha/stockmrp/pkg/domain/entities"
	"github.com/vsinha/stockmrp/pkg/domain/repositories"
	"github.com/vsinha/stockmrp/pkg/domain/services"
	"github.com/vsinha/stockmrp/pkg/infrastructure/config"
	"github.com/vsinha/stockmrp/pkg/infrastructure/events"
	"github.com/vsinha/stockmrp/pkg/infrastructure/repositories/memory"
)

// Engine owns every store and service of one running instance
type Engine struct {
	Config config.Config

	Components *memory.ComponentLedger
	Products   *memory.ProductRepository
	Orders     *memory.OrderRepository
	Events     *events.InMemoryEventStore

	Catalog     *bom.Service
	Inventory   *inventory.Service
	Capacity    *capacity.Calculator
	OrderFlow   *orders.Service
	Procurement *procurement.Aggregator

	clock  entities.Clock
	logger zerolog.Logger
}

type options struct {
	clock  entities.Clock
	logger zerolog.Logger
	audit  bool
}

// Option customizes engine construction
type Option func(*options)

// WithClock replaces the system clock, mainly for tests
func WithClock(clock entities.Clock) Option {
	return func(o *options) { o.clock = clock }
}

// WithLogger sets the logger handed to every service
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithoutAudit skips the subscriber that logs every domain event
func WithoutAudit() Option {
	return func(o *options) { o.audit = false }
}

// New builds an empty engine
func New(cfg config.Config, opts ...Option) (*Engine, error) {
	o := options{clock: entities.SystemClock, logger: zerolog.Nop(), audit: true}
	for _, opt := range opts {
		opt(&o)
	}

	e := &Engine{
		Config:     cfg,
		Components: memory.NewComponentLedger(o.clock),
		Products:   memory.NewProductRepository(o.clock),
		Orders:     memory.NewOrderRepository(),
		Events:     events.NewInMemoryEventStore(o.logger, events.WithHistory(cfg.EventHistory)),
		clock:      o.clock,
		logger:     o.logger.With().Str("component", "engine").Logger(),
	}

	if o.audit {
		if err := e.Events.Subscribe(events.AllEventTypes, events.NewAuditLogHandler(o.logger)); err != nil {
			return nil, fmt.Errorf("subscribe audit log: %w", err)
		}
	}

	e.Catalog = bom.NewService(e.Products, e.Components, e.Orders, e.Events, o.clock, o.logger)
	e.Inventory = inventory.NewService(e.Components, e.Catalog, e.Events, o.clock, o.logger)
	e.Capacity = capacity.NewCalculator(e.Catalog, o.logger)
	e.OrderFlow = orders.NewService(e.Orders, e.Products, e.Components, e.Catalog, e.Events, o.clock, o.logger)
	e.Procurement = procurement.NewAggregator(e.Orders, e.Components, e.Catalog, o.clock, o.logger)

	return e, nil
}

// Stats counts the live entities
type Stats struct {
	Components int `json:"components"`
	Products   int `json:"products"`
	Orders     int `json:"orders"`
}

// Stats returns the current entity counts
func (e *Engine) Stats() Stats {
	return Stats{
		Components: e.Components.Len(),
		Products:   e.Products.Len(),
		Orders:     e.Orders.Len(),
	}
}

// Snapshot copies the whole state while no order transition or catalog edit is in flight.
// Stock adjustments may still land between the three listings; each touches one component only.
func (e *Engine) Snapshot(ctx context.Context) (repositories.StateSnapshot, error) {
	snap := repositories.StateSnapshot{TakenAt: e.clock()}

	err := e.OrderFlow.Quiesce(func() error {
		return e.Catalog.Exclusive(func() error {
			components, err := e.Components.List(ctx)
			if err != nil {
				return err
			}
			products, err := e.Products.List(ctx)
			if err != nil {
				return err
			}
			all, err := e.Orders.List(ctx)
			if err != nil {
				return err
			}

			for _, c := range components {
				snap.Components = append(snap.Components, *c)
			}
			for _, p := range products {
				snap.Products = append(snap.Products, *p)
			}
			for _, o := range all {
				snap.Orders = append(snap.Orders, *o)
			}
			return nil
		})
	})
	return snap, err
}

// Persist saves a snapshot of the current state
func (e *Engine) Persist(ctx context.Context, store repositories.SnapshotStore) error {
	snap, err := e.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("snapshot state: %w", err)
	}
	if err := store.Save(ctx, snap); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}

	e.logger.Info().
		Int("components", len(snap.Components)).
		Int("products", len(snap.Products)).
		Int("orders", len(snap.Orders)).
		Msg("state persisted")
	return nil
}

// Restore loads the latest snapshot from store. It reports false when the store is empty.
// The snapshot is checked for cycles and dangling references before anything is replaced.
func (e *Engine) Restore(ctx context.Context, store repositories.SnapshotStore) (bool, error) {
	snap, ok, err := store.Load(ctx)
	if err != nil {
		return false, fmt.Errorf("load snapshot: %w", err)
	}
	if !ok {
		return false, nil
	}
	if err := checkSnapshot(snap); err != nil {
		return false, err
	}

	err = e.OrderFlow.Quiesce(func() error {
		return e.Catalog.Exclusive(func() error {
			if err := e.Components.Restore(snap.Components); err != nil {
				return err
			}
			if err := e.Products.Restore(snap.Products); err != nil {
				return err
			}
			return e.Orders.Restore(snap.Orders)
		})
	})
	if err != nil {
		return false, err
	}

	e.logger.Info().
		Time("taken_at", snap.TakenAt).
		Int("components", len(snap.Components)).
		Int("products", len(snap.Products)).
		Int("orders", len(snap.Orders)).
		Msg("state restored")
	return true, nil
}

func checkSnapshot(snap repositories.StateSnapshot) error {
	componentIDs := make([]entities.ComponentID, 0, len(snap.Components))
	for _, c := range snap.Components {
		componentIDs = append(componentIDs, c.ID)
	}
	result := services.NewBOMValidator().ValidateCatalog(snap.Products, componentIDs)
	if !result.Valid() {
		return entities.NewIntegrityError("snapshot", 0, "%s", strings.Join(result.Errors, "; "))
	}

	products := make(map[entities.ProductID]bool, len(snap.Products))
	for _, p := range snap.Products {
		products[p.ID] = true
	}
	for _, o := range snap.Orders {
		if !products[o.ProductID] {
			return entities.NewIntegrityError("order", int64(o.ID), "order references unknown product %d", o.ProductID)
		}
	}
	return nil
}

// Close waits for pending event notifications
func (e *Engine) Close() error {
	e.Events.Flush()
	return nil
}
