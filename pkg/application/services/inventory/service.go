package inventory

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/vsinha/stockmrp/pkg/application/services/bom"
	"github.com/vsinha/stockmrp/pkg/domain/entities"
	"github.com/vsinha/stockmrp/pkg/domain/repositories"
	"github.com/vsinha/stockmrp/pkg/infrastructure/events"
)

// Service manages the component catalog and is the only external write path
// into component stock
type Service struct {
	ledger    repositories.ComponentLedger
	catalog   *bom.Service
	publisher events.Publisher
	clock     entities.Clock
	logger    zerolog.Logger
}

// NewService creates an inventory service
func NewService(
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
		ledger:    ledger,
		catalog:   catalog,
		publisher: publisher,
		clock:     clock,
		logger:    logger.With().Str("service", "inventory").Logger(),
	}
}

// ComponentUpdate carries the editable attributes of a component; nil fields are left unchanged
type ComponentUpdate struct {
	Name                *string
	SpillageCoefficient *decimal.Decimal
}

// CreateComponent registers a component with its initial stock
func (s *Service) CreateComponent(ctx context.Context, name string, spillage decimal.Decimal, initialStock entities.Quantity) (*entities.Component, error) {
	component, err := entities.NewComponent(name, spillage, initialStock)
	if err != nil {
		return nil, err
	}

	created, err := s.ledger.Create(ctx, component)
	if err != nil {
		return nil, err
	}

	s.logger.Debug().Int64("component_id", int64(created.ID)).Str("name", created.Name).Msg("component created")
	events.Publish(s.publisher, events.NewComponentEvent(events.ComponentCreatedEvent, *created, s.clock()))
	return created, nil
}

// GetComponent returns one component
func (s *Service) GetComponent(ctx context.Context, id entities.ComponentID) (*entities.Component, error) {
	return s.ledger.Get(ctx, id)
}

// ListComponents returns every component ordered by id
func (s *Service) ListComponents(ctx context.Context) ([]*entities.Component, error) {
	return s.ledger.List(ctx)
}

// Available returns the in_stock bucket of a component
func (s *Service) Available(ctx context.Context, id entities.ComponentID) (entities.Quantity, error) {
	c, err := s.ledger.Get(ctx, id)
	if err != nil {
		return 0, err
	}
	return c.InStock, nil
}

// UpdateComponent changes name and/or spillage. A spillage change alters every
// explosion that reaches the component, so it is applied while no explosion runs.
func (s *Service) UpdateComponent(ctx context.Context, id entities.ComponentID, update ComponentUpdate) (*entities.Component, error) {
	var name string
	if update.Name != nil {
		normalized, err := entities.NormalizeName("component", *update.Name)
		if err != nil {
			return nil, err
		}
		name = normalized
	}
	if update.SpillageCoefficient != nil {
		if err := entities.ValidateSpillage(*update.SpillageCoefficient); err != nil {
			return nil, err
		}
	}

	var updated *entities.Component
	err := s.catalog.Exclusive(func() error {
		var err error
		updated, err = s.ledger.Update(ctx, id, func(c *entities.Component) error {
			if update.Name != nil {
				c.Name = name
			}
			if update.SpillageCoefficient != nil {
				c.SpillageCoefficient = *update.SpillageCoefficient
			}
			return nil
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	events.Publish(s.publisher, events.NewComponentEvent(events.ComponentUpdatedEvent, *updated, s.clock()))
	return updated, nil
}

// DeleteComponent removes a component no product references and with nothing in progress or shipped
func (s *Service) DeleteComponent(ctx context.Context, id entities.ComponentID) error {
	if err := s.catalog.RemoveComponent(ctx, id); err != nil {
		return err
	}
	events.Publish(s.publisher, events.NewComponentDeletedEvent(id, s.clock()))
	return nil
}

// AdjustStock applies a signed correction or receipt to in_stock. It takes the
// same record lock as reservation, so it cannot interleave with an allocation.
func (s *Service) AdjustStock(ctx context.Context, id entities.ComponentID, delta entities.Quantity) (*entities.Component, error) {
	updated, err := s.ledger.Update(ctx, id, func(c *entities.Component) error {
		return c.AdjustStock(delta)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug().
		Int64("component_id", int64(id)).
		Int64("delta", int64(delta)).
		Int64("in_stock", int64(updated.InStock)).
		Msg("stock adjusted")
	events.Publish(s.publisher, events.NewStockAdjustedEvent(*updated, delta, s.clock()))
	return updated, nil
}
