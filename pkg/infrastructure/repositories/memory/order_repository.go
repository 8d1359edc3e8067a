package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/vsinha/stockmrp/pkg/domain/entities"
	"github.com/vsinha/stockmrp/pkg/domain/repositories"
)

type orderRecord struct {
	mu    sync.Mutex
	order entities.Order

	// productID never changes after creation and is read without mu
	productID entities.ProductID
}

// OrderRepository provides in-memory order storage with a lock per order
type OrderRepository struct {
	mu     sync.RWMutex
	orders map[entities.OrderID]*orderRecord
	nextID entities.OrderID
}

// NewOrderRepository creates a new in-memory order repository
func NewOrderRepository() *OrderRepository {
	return &OrderRepository{
		orders: make(map[entities.OrderID]*orderRecord),
	}
}

// Verify interface compliance
var _ repositories.OrderRepository = (*OrderRepository)(nil)

// Create stores a new order and assigns its id
func (r *OrderRepository) Create(ctx context.Context, order *entities.Order) (*entities.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	stored := order.Clone()
	stored.ID = r.nextID
	r.orders[stored.ID] = &orderRecord{order: stored, productID: stored.ProductID}

	out := stored.Clone()
	return &out, nil
}

// Get returns a copy of one order
func (r *OrderRepository) Get(ctx context.Context, id entities.OrderID) (*entities.Order, error) {
	rec, err := r.lookup(id)
	if err != nil {
		return nil, err
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	out := rec.order.Clone()
	return &out, nil
}

// List returns every order ordered by id
func (r *OrderRepository) List(ctx context.Context) ([]*entities.Order, error) {
	return r.filter(func(*entities.Order) bool { return true }), nil
}

// ListByStatus returns the orders currently in the given status, ordered by id
func (r *OrderRepository) ListByStatus(ctx context.Context, status entities.OrderStatus) ([]*entities.Order, error) {
	return r.filter(func(o *entities.Order) bool { return o.Status == status }), nil
}

// CountByProduct returns the number of orders placed for a product, in any status.
// It takes no order lock, so it is safe to call while an order transition is blocked on the caller.
func (r *OrderRepository) CountByProduct(ctx context.Context, productID entities.ProductID) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, rec := range r.orders {
		if rec.productID == productID {
			n++
		}
	}
	return n, nil
}

// Update runs fn against a copy of the order while holding the order's lock
func (r *OrderRepository) Update(ctx context.Context, id entities.OrderID, fn func(*entities.Order) error) (*entities.Order, error) {
	rec, err := r.lookup(id)
	if err != nil {
		return nil, err
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	working := rec.order.Clone()
	if err := fn(&working); err != nil {
		return nil, err
	}
	working.ID = id
	working.ProductID = rec.productID
	rec.order = working

	out := working.Clone()
	return &out, nil
}

// Restore replaces the repository contents
func (r *OrderRepository) Restore(orders []entities.Order) error {
	byID := make(map[entities.OrderID]*orderRecord, len(orders))
	var maxID entities.OrderID

	for _, o := range orders {
		if _, dup := byID[o.ID]; dup || o.ID <= 0 {
			return entities.NewIntegrityError("order", int64(o.ID), "invalid or duplicate order id in snapshot")
		}
		if o.Status != entities.OrderPending && len(o.Allocations) == 0 {
			return entities.NewIntegrityError("order", int64(o.ID), "order in status %s has no allocations", o.Status)
		}
		byID[o.ID] = &orderRecord{order: o.Clone(), productID: o.ProductID}
		maxID = max(maxID, o.ID)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders = byID
	r.nextID = maxID
	return nil
}

// Len reports the number of orders
func (r *OrderRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.orders)
}

func (r *OrderRepository) lookup(id entities.OrderID) (*orderRecord, error) {
	r.mu.RLock()
	rec, ok := r.orders[id]
	r.mu.RUnlock()
	if !ok {
		return nil, entities.NewNotFoundError("order", int64(id))
	}
	return rec, nil
}

func (r *OrderRepository) filter(keep func(*entities.Order) bool) []*entities.Order {
	r.mu.RLock()
	ids := make([]entities.OrderID, 0, len(r.orders))
	for id := range r.orders {
		ids = append(ids, id)
	}
	recs := make(map[entities.OrderID]*orderRecord, len(ids))
	for _, id := range ids {
		recs[id] = r.orders[id]
	}
	r.mu.RUnlock()
	slices.Sort(ids)

	out := make([]*entities.Order, 0, len(ids))
	for _, id := range ids {
		rec := recs[id]
		rec.mu.Lock()
		o := rec.order.Clone()
		rec.mu.Unlock()
		if keep(&o) {
			out = append(out, &o)
		}
	}
	return out
}
