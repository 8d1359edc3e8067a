package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/vsinha/stockmrp/pkg/domain/entities"
	"github.com/vsinha/stockmrp/pkg/domain/repositories"
)

// ProductRepository provides in-memory product storage.
// Product writes are rare and short, so a single RWMutex guards the whole graph.
type ProductRepository struct {
	mu       sync.RWMutex
	products map[entities.ProductID]*entities.Product
	names    map[string]entities.ProductID
	nextID   entities.ProductID
	clock    entities.Clock
}

// NewProductRepository creates a new in-memory product repository
func NewProductRepository(clock entities.Clock) *ProductRepository {
	if clock == nil {
		clock = entities.SystemClock
	}
	return &ProductRepository{
		products: make(map[entities.ProductID]*entities.Product),
		names:    make(map[string]entities.ProductID),
		clock:    clock,
	}
}

// Verify interface compliance
var _ repositories.ProductRepository = (*ProductRepository)(nil)

// Create stores a new product and assigns its id
func (r *ProductRepository) Create(ctx context.Context, product *entities.Product) (*entities.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.names[product.Name]; taken {
		return nil, entities.NewValidationError("product", 0, "product name %q already exists", product.Name)
	}

	r.nextID++
	now := r.clock()
	stored := product.Clone()
	stored.ID = r.nextID
	stored.CreatedAt = now
	stored.UpdatedAt = now

	r.products[stored.ID] = &stored
	r.names[stored.Name] = stored.ID

	out := stored.Clone()
	return &out, nil
}

// Get returns a copy of one product
func (r *ProductRepository) Get(ctx context.Context, id entities.ProductID) (*entities.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.products[id]
	if !ok {
		return nil, entities.NewNotFoundError("product", int64(id))
	}
	out := p.Clone()
	return &out, nil
}

// List returns every product ordered by id
func (r *ProductRepository) List(ctx context.Context) ([]*entities.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]entities.ProductID, 0, len(r.products))
	for id := range r.products {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	out := make([]*entities.Product, 0, len(ids))
	for _, id := range ids {
		p := r.products[id].Clone()
		out = append(out, &p)
	}
	return out, nil
}

// Update applies fn to a copy of the product and commits it when fn succeeds
func (r *ProductRepository) Update(ctx context.Context, id entities.ProductID, fn func(*entities.Product) error) (*entities.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.products[id]
	if !ok {
		return nil, entities.NewNotFoundError("product", int64(id))
	}

	working := current.Clone()
	if err := fn(&working); err != nil {
		return nil, err
	}
	working.ID = id

	if working.Name != current.Name {
		if owner, taken := r.names[working.Name]; taken && owner != id {
			return nil, entities.NewValidationError("product", int64(id), "product name %q already exists", working.Name)
		}
		delete(r.names, current.Name)
		r.names[working.Name] = id
	}

	working.UpdatedAt = r.clock()
	r.products[id] = &working
	out := working.Clone()
	return &out, nil
}

// Delete removes a product
func (r *ProductRepository) Delete(ctx context.Context, id entities.ProductID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.products[id]
	if !ok {
		return entities.NewNotFoundError("product", int64(id))
	}
	delete(r.names, p.Name)
	delete(r.products, id)
	return nil
}

// Restore replaces the repository contents
func (r *ProductRepository) Restore(products []entities.Product) error {
	byID := make(map[entities.ProductID]*entities.Product, len(products))
	names := make(map[string]entities.ProductID, len(products))
	var maxID entities.ProductID

	for _, p := range products {
		if _, dup := byID[p.ID]; dup || p.ID <= 0 {
			return entities.NewIntegrityError("product", int64(p.ID), "invalid or duplicate product id in snapshot")
		}
		if _, dup := names[p.Name]; dup {
			return entities.NewIntegrityError("product", int64(p.ID), "duplicate product name %q in snapshot", p.Name)
		}
		if p.InProgress < 0 || p.Shipped < 0 {
			return entities.NewIntegrityError("product", int64(p.ID), "negative production counters in snapshot")
		}
		stored := p.Clone()
		byID[p.ID] = &stored
		names[p.Name] = p.ID
		maxID = max(maxID, p.ID)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.products = byID
	r.names = names
	r.nextID = maxID
	return nil
}

// Len reports the number of products
func (r *ProductRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.products)
}
