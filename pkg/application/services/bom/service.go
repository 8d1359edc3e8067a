package bom

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/vsinha/stockmrp/pkg/application/dto"
	"github.com/vsinha/stockmrp/pkg/application/services/shared"
	"github.com/vsinha/stockmrp/pkg/domain/entities"
	"github.com/vsinha/stockmrp/pkg/domain/repositories"
	"github.com/vsinha/stockmrp/pkg/domain/services"
	"github.com/vsinha/stockmrp/pkg/infrastructure/events"
)

// Service owns product definitions and resolves them into component requirements.
//
// Catalog writes (product definitions, BOM edits, deletions) take the write
// lock; explosions take the read lock, so an explosion never observes a
// half-applied edit.
type Service struct {
	mu         sync.RWMutex
	products   repositories.ProductRepository
	components repositories.ComponentLedger
	orders     repositories.OrderRepository
	validator  *services.BOMValidator
	publisher  events.Publisher
	clock      entities.Clock
	logger     zerolog.Logger
}

// NewService creates a BOM graph service
func NewService(
	products repositories.ProductRepository,
	components repositories.ComponentLedger,
	orders repositories.OrderRepository,
	publisher events.Publisher,
	clock entities.Clock,
	logger zerolog.Logger,
) *Service {
	if clock == nil {
		clock = entities.SystemClock
	}
	return &Service{
		products:   products,
		components: components,
		orders:     orders,
		validator:  services.NewBOMValidator(),
		publisher:  publisher,
		clock:      clock,
		logger:     logger.With().Str("service", "bom").Logger(),
	}
}

// Explosion is a product resolved into per-unit leaf requirements, together
// with the component records read while resolving it
type Explosion struct {
	Product     entities.Product
	PerUnit     shared.RequirementMap
	Components  map[entities.ComponentID]entities.Component
	SubProducts map[entities.ProductID]entities.Product
}

// DefineProduct creates a product after checking that every referenced entity exists
func (s *Service) DefineProduct(
	ctx context.Context,
	name string,
	components []entities.ComponentLine,
	products []entities.ProductLine,
) (*entities.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	product, err := entities.NewProduct(name, entities.BOM{Components: components, Products: products})
	if err != nil {
		return nil, err
	}
	if err := s.checkReferences(ctx, 0, product.BOM); err != nil {
		return nil, err
	}

	// A new product has no id yet, so nothing can reference it and its edges cannot close a cycle.
	created, err := s.products.Create(ctx, product)
	if err != nil {
		return nil, err
	}

	s.logger.Debug().Int64("product_id", int64(created.ID)).Str("name", created.Name).Msg("product defined")
	events.Publish(s.publisher, events.NewProductEvent(events.ProductDefinedEvent, *created, s.clock()))
	return created, nil
}

// UpdateProductBOM replaces both BOM lists of a product atomically.
// Acyclicity is checked against the graph as it would be after the update.
func (s *Service) UpdateProductBOM(
	ctx context.Context,
	id entities.ProductID,
	components []entities.ComponentLine,
	products []entities.ProductLine,
) (*entities.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	bom, err := entities.NewBOM(components, products)
	if err != nil {
		return nil, err
	}
	if _, err := s.products.Get(ctx, id); err != nil {
		return nil, err
	}
	if err := s.checkReferences(ctx, id, bom); err != nil {
		return nil, err
	}

	// The edited product closes a cycle iff it is reachable from one of its new children.
	path, err := s.validator.FindPath(bom.ChildProducts(), id, s.childrenOf(ctx))
	if err != nil {
		return nil, err
	}
	if path != nil {
		return nil, entities.NewValidationError("product", int64(id),
			"BOM would create a cycle: %v", append([]entities.ProductID{id}, path...))
	}

	updated, err := s.products.Update(ctx, id, func(p *entities.Product) error {
		p.BOM = bom
		return nil
	})
	if err != nil {
		return nil, err
	}

	events.Publish(s.publisher, events.NewProductEvent(events.ProductUpdatedEvent, *updated, s.clock()))
	return updated, nil
}

// RenameProduct changes a product's name
func (s *Service) RenameProduct(ctx context.Context, id entities.ProductID, name string) (*entities.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	normalized, err := entities.NormalizeName("product", name)
	if err != nil {
		return nil, err
	}
	updated, err := s.products.Update(ctx, id, func(p *entities.Product) error {
		p.Name = normalized
		return nil
	})
	if err != nil {
		return nil, err
	}

	events.Publish(s.publisher, events.NewProductEvent(events.ProductUpdatedEvent, *updated, s.clock()))
	return updated, nil
}

// RemoveProduct deletes a product nobody depends on
func (s *Service) RemoveProduct(ctx context.Context, id entities.ProductID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	product, err := s.products.Get(ctx, id)
	if err != nil {
		return err
	}

	all, err := s.products.List(ctx)
	if err != nil {
		return err
	}
	var parents []entities.ProductID
	for _, p := range all {
		if p.BOM.ReferencesProduct(id) {
			parents = append(parents, p.ID)
		}
	}
	if len(parents) > 0 {
		return entities.NewConflictError("product", int64(id), "product is used as a sub-product by products %v", parents)
	}

	orderCount, err := s.orders.CountByProduct(ctx, id)
	if err != nil {
		return err
	}
	if orderCount > 0 {
		return entities.NewConflictError("product", int64(id), "product has %d orders", orderCount)
	}
	if product.InProgress > 0 || product.Shipped > 0 {
		return entities.NewConflictError("product", int64(id),
			"product has %d units in progress and %d shipped", product.InProgress, product.Shipped)
	}

	if err := s.products.Delete(ctx, id); err != nil {
		return err
	}
	events.Publish(s.publisher, events.NewProductDeletedEvent(id, s.clock()))
	return nil
}

// RemoveComponent deletes a component that no BOM references
func (s *Service) RemoveComponent(ctx context.Context, id entities.ComponentID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.products.List(ctx)
	if err != nil {
		return err
	}
	var users []entities.ProductID
	for _, p := range all {
		if p.BOM.ReferencesComponent(id) {
			users = append(users, p.ID)
		}
	}
	if len(users) > 0 {
		return entities.NewConflictError("component", int64(id), "component is used by products %v", users)
	}
	return s.components.Delete(ctx, id)
}

// Exclusive runs fn while no explosion is in flight. Used for edits that
// change explosion results without touching products, such as spillage updates.
func (s *Service) Exclusive(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn()
}

// GetProduct returns one product
func (s *Service) GetProduct(ctx context.Context, id entities.ProductID) (*entities.Product, error) {
	return s.products.Get(ctx, id)
}

// ListProducts returns every product ordered by id
func (s *Service) ListProducts(ctx context.Context) ([]*entities.Product, error) {
	return s.products.List(ctx)
}

// Explode resolves a product into per-unit leaf component requirements
func (s *Service) Explode(ctx context.Context, id entities.ProductID) (*Explosion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.explode(ctx, id)
}

// WithProduct explodes a product and runs fn while the catalog is held stable,
// so the product cannot be removed or edited until fn returns
func (s *Service) WithProduct(ctx context.Context, id entities.ProductID, fn func(*Explosion) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	exp, err := s.explode(ctx, id)
	if err != nil {
		return err
	}
	return fn(exp)
}

// ProductDetail returns the product with direct lines and its full explosion
func (s *Service) ProductDetail(ctx context.Context, id entities.ProductID) (*dto.ProductDetail, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	exp, err := s.explode(ctx, id)
	if err != nil {
		return nil, err
	}

	p := exp.Product
	detail := &dto.ProductDetail{
		ID:          p.ID,
		Name:        p.Name,
		InProgress:  p.InProgress,
		Shipped:     p.Shipped,
		Components:  make([]dto.ComponentLineDetail, 0, len(p.BOM.Components)),
		SubProducts: make([]dto.ProductLineDetail, 0, len(p.BOM.Products)),
		Exploded:    make([]dto.ExplodedLine, 0, len(exp.PerUnit)),
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
	for _, line := range p.BOM.Components {
		c := exp.Components[line.ComponentID]
		detail.Components = append(detail.Components, dto.ComponentLineDetail{
			ComponentID:          line.ComponentID,
			ComponentName:        c.Name,
			Quantity:             line.Quantity,
			SpillageCoefficient:  c.SpillageCoefficient,
			QuantityWithSpillage: c.PerUnit(line.Quantity),
		})
	}
	for _, line := range p.BOM.Products {
		detail.SubProducts = append(detail.SubProducts, dto.ProductLineDetail{
			ProductID:   line.ChildProductID,
			ProductName: exp.SubProducts[line.ChildProductID].Name,
			Quantity:    line.Quantity,
		})
	}
	for _, cid := range exp.PerUnit.ComponentIDs() {
		detail.Exploded = append(detail.Exploded, dto.ExplodedLine{
			ComponentID:   cid,
			ComponentName: exp.Components[cid].Name,
			PerUnit:       exp.PerUnit[cid],
		})
	}
	return detail, nil
}

// Validate checks the stored catalog for cycles and dangling references
func (s *Service) Validate(ctx context.Context) (*services.ValidationResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	products, err := s.products.List(ctx)
	if err != nil {
		return nil, err
	}
	components, err := s.components.List(ctx)
	if err != nil {
		return nil, err
	}

	flat := make([]entities.Product, 0, len(products))
	for _, p := range products {
		flat = append(flat, *p)
	}
	ids := make([]entities.ComponentID, 0, len(components))
	for _, c := range components {
		ids = append(ids, c.ID)
	}
	return s.validator.ValidateCatalog(flat, ids), nil
}

// explode walks the sub-product graph children-first, so each product's map is
// built from the already finished maps of its children. Caller holds s.mu.
func (s *Service) explode(ctx context.Context, id entities.ProductID) (*Explosion, error) {
	root, err := s.products.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	loaded := map[entities.ProductID]entities.Product{id: *root}
	children := func(pid entities.ProductID) ([]entities.ProductID, error) {
		p, ok := loaded[pid]
		if !ok {
			fetched, err := s.products.Get(ctx, pid)
			if errors.Is(err, entities.ErrNotFound) {
				return nil, s.integrity("product", int64(pid), "referenced sub-product %d does not exist", pid)
			}
			if err != nil {
				return nil, err
			}
			p = *fetched
			loaded[pid] = p
		}
		return p.BOM.ChildProducts(), nil
	}

	order, cycle, err := services.PostOrder(id, children)
	if err != nil {
		return nil, err
	}
	if cycle != nil {
		return nil, s.integrity("product", int64(id), "BOM cycle detected: %v", cycle)
	}

	var componentIDs []entities.ComponentID
	for _, pid := range order {
		for _, line := range loaded[pid].BOM.Components {
			componentIDs = append(componentIDs, line.ComponentID)
		}
	}
	snapshot, err := s.components.Snapshot(ctx, componentIDs)
	if errors.Is(err, entities.ErrNotFound) {
		return nil, s.integrity("product", int64(id), "BOM references a missing component: %v", err)
	}
	if err != nil {
		return nil, err
	}

	memo := make(map[entities.ProductID]shared.RequirementMap, len(order))
	for _, pid := range order {
		p := loaded[pid]
		rm := shared.NewRequirementMap()
		for _, line := range p.BOM.Components {
			rm.Add(line.ComponentID, snapshot[line.ComponentID].PerUnit(line.Quantity))
		}
		for _, line := range p.BOM.Products {
			rm.AddScaled(memo[line.ChildProductID], line.Quantity)
		}
		memo[pid] = rm
	}

	if len(memo[id]) == 0 {
		return nil, s.integrity("product", int64(id), "product resolves to no components")
	}

	delete(loaded, id)
	return &Explosion{
		Product:     *root,
		PerUnit:     memo[id],
		Components:  snapshot,
		SubProducts: loaded,
	}, nil
}

// checkReferences verifies every BOM line points at an existing entity.
// self is the product being edited (0 for a new product).
func (s *Service) checkReferences(ctx context.Context, self entities.ProductID, bom entities.BOM) error {
	for _, line := range bom.Components {
		if _, err := s.components.Get(ctx, line.ComponentID); err != nil {
			if errors.Is(err, entities.ErrNotFound) {
				return entities.NewValidationError("product", int64(self), "component %d does not exist", line.ComponentID)
			}
			return err
		}
	}
	for _, line := range bom.Products {
		if line.ChildProductID == self {
			return entities.NewValidationError("product", int64(self), "product cannot contain itself")
		}
		if _, err := s.products.Get(ctx, line.ChildProductID); err != nil {
			if errors.Is(err, entities.ErrNotFound) {
				return entities.NewValidationError("product", int64(self), "product %d does not exist", line.ChildProductID)
			}
			return err
		}
	}
	return nil
}

func (s *Service) childrenOf(ctx context.Context) func(entities.ProductID) ([]entities.ProductID, error) {
	return func(pid entities.ProductID) ([]entities.ProductID, error) {
		p, err := s.products.Get(ctx, pid)
		if err != nil {
			return nil, fmt.Errorf("load product %d: %w", pid, err)
		}
		return p.BOM.ChildProducts(), nil
	}
}

func (s *Service) integrity(entity string, id int64, format string, args ...any) error {
	err := entities.NewIntegrityError(entity, id, format, args...)
	s.logger.Error().Err(err).Msg("catalog integrity violation")
	return err
}
