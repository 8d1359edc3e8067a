package repositories

import (
	"context"

	"github.com/vsinha/stockmrp/pkg/domain/entities"
)

// OrderRepository provides access to production orders
type OrderRepository interface {
	Create(ctx context.Context, order *entities.Order) (*entities.Order, error)
	Get(ctx context.Context, id entities.OrderID) (*entities.Order, error)
	List(ctx context.Context) ([]*entities.Order, error)
	ListByStatus(ctx context.Context, status entities.OrderStatus) ([]*entities.Order, error)
	CountByProduct(ctx context.Context, productID entities.ProductID) (int, error)

	// Update holds the order's lock while fn runs against a copy.
	// The copy is committed only when fn returns nil.
	Update(ctx context.Context, id entities.OrderID, fn func(*entities.Order) error) (*entities.Order, error)

	Restore(orders []entities.Order) error
}
