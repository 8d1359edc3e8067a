package orders

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/vsinha/stockmrp/pkg/application/dto"
	"github.com/vsinha/stockmrp/pkg/application/services/bom"
	"github.com/vsinha/stockmrp/pkg/domain/entities"
	"github.com/vsinha/stockmrp/pkg/domain/repositories"
	"github.com/vsinha/stockmrp/pkg/infrastructure/events"
)

// Service owns the order state machine pending -> in_progress -> completed and
// is the only writer that touches orders and the component ledger together.
//
// Lock order for a transition: gate (shared), order record, catalog read lock,
// component records (ascending id), product record.
type Service struct {
	gate      sync.RWMutex
	orders    repositories.OrderRepository
	products  repositories.ProductRepository
	ledger    repositories.ComponentLedger
	catalog   *bom.Service
	publisher events.Publisher
	clock     entities.Clock
	logger    zerolog.Logger
}

// NewService creates an order lifecycle service
func NewService(
	orders repositories.OrderRepository,
	products repositories.ProductRepository,
	ledger repositories.ComponentLedger,
	catalog *bom.Service,
	publisher events.Publisher,
	clock entities.Clock,
	logger zerolog.Logger,
) *Service {
	if clock == nil {
		clock = entities.SystemClock
	}
	return &Service{
		orders:    orders,
		products:  products,
		ledger:    ledger,
		catalog:   catalog,
		publisher: publisher,
		clock:     clock,
		logger:    logger.With().Str("service", "orders").Logger(),
	}
}

// Create stores a pending order without attempting allocation.
// The product is held stable until the order exists, so it cannot be removed in between.
// An order whose requirements do not fit a Quantity is rejected before it is stored.
func (s *Service) Create(ctx context.Context, productID entities.ProductID, quantity entities.Quantity) (*entities.Order, error) {
	order, err := entities.NewOrder(productID, quantity, s.clock())
	if err != nil {
		return nil, err
	}

	s.gate.RLock()
	defer s.gate.RUnlock()

	var created *entities.Order
	err = s.catalog.WithProduct(ctx, productID, func(exp *bom.Explosion) error {
		if _, err := exp.PerUnit.WholeUnits(quantity); err != nil {
			return err
		}
		var err error
		created, err = s.orders.Create(ctx, order)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug().
		Int64("order_id", int64(created.ID)).
		Int64("product_id", int64(productID)).
		Int64("quantity", int64(quantity)).
		Msg("order created")
	events.Publish(s.publisher, events.NewOrderEvent(events.OrderCreatedEvent, *created, s.clock()))
	return created, nil
}

// CreateOrder creates an order and immediately attempts to allocate it.
// Short stock is not an error: the order stays pending and the result lists the shortages.
func (s *Service) CreateOrder(ctx context.Context, productID entities.ProductID, quantity entities.Quantity) (*dto.OrderResult, error) {
	created, err := s.Create(ctx, productID, quantity)
	if err != nil {
		return nil, err
	}

	result := &dto.OrderResult{}
	order, err := s.Allocate(ctx, created.ID)
	switch {
	case err == nil:
		result.Allocated = true
	case errors.Is(err, entities.ErrInsufficientStock):
		var stockErr *entities.Error
		errors.As(err, &stockErr)
		result.Shortages = stockErr.Shortages
		order = created
	case errors.Is(err, entities.ErrInvalidState):
		// another caller moved the order on first; report where it is now
		order, err = s.orders.Get(ctx, created.ID)
		if err != nil {
			return nil, err
		}
		result.Allocated = order.Status != entities.OrderPending
	default:
		return nil, err
	}

	view, err := s.view(ctx, *order)
	if err != nil {
		return nil, err
	}
	result.Order = view
	return result, nil
}

// ComputeRequirements previews what allocating the order would take against current stock
func (s *Service) ComputeRequirements(ctx context.Context, id entities.OrderID) (*dto.OrderRequirements, error) {
	order, err := s.orders.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	exp, err := s.catalog.Explode(ctx, order.ProductID)
	if err != nil {
		return nil, err
	}
	return requirementsFor(*order, exp)
}

func requirementsFor(order entities.Order, exp *bom.Explosion) (*dto.OrderRequirements, error) {
	needs, err := exp.PerUnit.WholeUnits(order.Quantity)
	if err != nil {
		return nil, err
	}
	out := &dto.OrderRequirements{
		OrderID:      order.ID,
		ProductID:    order.ProductID,
		ProductName:  exp.Product.Name,
		Quantity:     order.Quantity,
		Requirements: make([]dto.RequirementLine, 0, len(needs)),
		CanAllocate:  true,
	}
	for _, cid := range exp.PerUnit.ComponentIDs() {
		component := exp.Components[cid]
		line := dto.RequirementLine{
			ComponentID:   cid,
			ComponentName: component.Name,
			Needed:        needs[cid],
			Available:     component.InStock,
			Shortage:      max(0, needs[cid]-component.InStock),
		}
		line.HasEnough = line.Shortage == 0
		out.CanAllocate = out.CanAllocate && line.HasEnough
		out.Requirements = append(out.Requirements, line)
	}
	return out, nil
}

// Allocate reserves every component a pending order needs, or nothing at all.
// Sufficiency is re-checked while the component records are held, so two
// allocations racing for the same stock cannot both pass.
func (s *Service) Allocate(ctx context.Context, id entities.OrderID) (*entities.Order, error) {
	s.gate.RLock()
	defer s.gate.RUnlock()

	var rejected []entities.Shortage

	updated, err := s.orders.Update(ctx, id, func(o *entities.Order) error {
		if o.Status != entities.OrderPending {
			return entities.NewInvalidStateError("order", int64(o.ID), "cannot allocate order in status %s", o.Status)
		}

		return s.catalog.WithProduct(ctx, o.ProductID, func(exp *bom.Explosion) error {
			needs, err := exp.PerUnit.WholeUnits(o.Quantity)
			if err != nil {
				return err
			}
			ids := exp.PerUnit.ComponentIDs()
			allocations := make([]entities.Allocation, 0, len(ids))

			err = s.ledger.Transact(ctx, ids, func(tx repositories.LedgerTx) error {
				var shortages []entities.Shortage
				for _, cid := range ids {
					c, err := tx.Get(cid)
					if err != nil {
						return err
					}
					if c.InStock < needs[cid] {
						shortages = append(shortages, entities.Shortage{
							ComponentID: cid,
							Needed:      needs[cid],
							Available:   c.InStock,
							Shortage:    needs[cid] - c.InStock,
						})
					}
				}
				if len(shortages) > 0 {
					rejected = shortages
					return entities.NewInsufficientStockError(o.ID, shortages)
				}

				for _, cid := range ids {
					if err := tx.Reserve(cid, needs[cid]); err != nil {
						return err
					}
					allocations = append(allocations, entities.Allocation{ComponentID: cid, Quantity: needs[cid]})
				}

				_, err := s.products.Update(ctx, o.ProductID, func(p *entities.Product) error {
					return p.AdjustCounters(o.Quantity, 0)
				})
				return err
			})
			if err != nil {
				return err
			}
			return o.MarkAllocated(allocations)
		})
	})

	if rejected != nil {
		s.logger.Debug().Int64("order_id", int64(id)).Int("short_components", len(rejected)).Msg("allocation rejected")
		events.Publish(s.publisher, events.NewAllocationRejectedEvent(id, rejected, s.clock()))
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Int64("order_id", int64(id)).
		Int("components", len(updated.Allocations)).
		Msg("order allocated")
	events.Publish(s.publisher, events.NewOrderEvent(events.OrderAllocatedEvent, *updated, s.clock()))
	return updated, nil
}

// Complete ships an in_progress order: every allocation moves from in_progress to
// shipped and the product's counters follow.
func (s *Service) Complete(ctx context.Context, id entities.OrderID) (*entities.Order, error) {
	s.gate.RLock()
	defer s.gate.RUnlock()

	updated, err := s.orders.Update(ctx, id, func(o *entities.Order) error {
		if o.Status != entities.OrderInProgress {
			return entities.NewInvalidStateError("order", int64(o.ID), "cannot complete order in status %s", o.Status)
		}

		ids := make([]entities.ComponentID, 0, len(o.Allocations))
		for _, a := range o.Allocations {
			ids = append(ids, a.ComponentID)
		}

		err := s.ledger.Transact(ctx, ids, func(tx repositories.LedgerTx) error {
			for _, a := range o.Allocations {
				if err := tx.Release(a.ComponentID, a.Quantity); err != nil {
					return err
				}
			}
			_, err := s.products.Update(ctx, o.ProductID, func(p *entities.Product) error {
				return p.AdjustCounters(-o.Quantity, o.Quantity)
			})
			return err
		})
		if err != nil {
			return err
		}
		return o.MarkCompleted(s.clock())
	})
	if err != nil {
		if errors.Is(err, entities.ErrIntegrity) {
			s.logger.Error().Err(err).Int64("order_id", int64(id)).Msg("order completion hit a broken invariant")
		}
		return nil, err
	}

	s.logger.Info().Int64("order_id", int64(id)).Msg("order completed")
	events.Publish(s.publisher, events.NewOrderEvent(events.OrderCompletedEvent, *updated, s.clock()))
	return updated, nil
}

// Quiesce runs fn while no order is being created or changing state
func (s *Service) Quiesce(fn func() error) error {
	s.gate.Lock()
	defer s.gate.Unlock()
	return fn()
}

// Get returns one order with its product name
func (s *Service) Get(ctx context.Context, id entities.OrderID) (*dto.OrderView, error) {
	order, err := s.orders.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	view, err := s.view(ctx, *order)
	if err != nil {
		return nil, err
	}
	return &view, nil
}

// List returns every order in id order with per-status counts
func (s *Service) List(ctx context.Context) (*dto.OrderSummary, error) {
	all, err := s.orders.List(ctx)
	if err != nil {
		return nil, err
	}
	products, err := s.catalog.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[entities.ProductID]string, len(products))
	for _, p := range products {
		names[p.ID] = p.Name
	}

	summary := &dto.OrderSummary{
		Total:  len(all),
		Orders: make([]dto.OrderView, 0, len(all)),
	}
	for _, o := range all {
		switch o.Status {
		case entities.OrderPending:
			summary.Pending++
		case entities.OrderInProgress:
			summary.InProgress++
		case entities.OrderCompleted:
			summary.Completed++
		}
		summary.Orders = append(summary.Orders, dto.NewOrderView(*o, names[o.ProductID]))
	}
	return summary, nil
}

func (s *Service) view(ctx context.Context, o entities.Order) (dto.OrderView, error) {
	product, err := s.catalog.GetProduct(ctx, o.ProductID)
	if err != nil {
		return dto.OrderView{}, err
	}
	return dto.NewOrderView(o, product.Name), nil
}
