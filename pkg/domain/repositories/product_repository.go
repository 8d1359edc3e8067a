package repositories

import (
	"context"

	"github.com/vsinha/stockmrp/pkg/domain/entities"
)

// ProductRepository provides access to product definitions and production counters
type ProductRepository interface {
	Create(ctx context.Context, product *entities.Product) (*entities.Product, error)
	Get(ctx context.Context, id entities.ProductID) (*entities.Product, error)
	List(ctx context.Context) ([]*entities.Product, error)
	Update(ctx context.Context, id entities.ProductID, fn func(*entities.Product) error) (*entities.Product, error)
	Delete(ctx context.Context, id entities.ProductID) error
	Restore(products []entities.Product) error
}
