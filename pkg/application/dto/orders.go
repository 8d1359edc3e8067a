package dto

import (
	"time"

	"github.com/vsinha/stockmrp/pkg/domain/entities"
)

// OrderView is an order with its product name resolved
type OrderView struct {
	ID          entities.OrderID      `json:"id" yaml:"id"`
	ProductID   entities.ProductID    `json:"product_id" yaml:"product_id"`
	ProductName string                `json:"product_name" yaml:"product_name"`
	Quantity    entities.Quantity     `json:"quantity" yaml:"quantity"`
	Status      entities.OrderStatus  `json:"status" yaml:"status"`
	CreatedAt   time.Time             `json:"created_at" yaml:"created_at"`
	CompletedAt *time.Time            `json:"completed_at" yaml:"completed_at"`
	Allocations []entities.Allocation `json:"allocations" yaml:"allocations"`
}

// NewOrderView builds the view of an order
func NewOrderView(o entities.Order, productName string) OrderView {
	allocations := o.Allocations
	if allocations == nil {
		allocations = []entities.Allocation{}
	}
	return OrderView{
		ID:          o.ID,
		ProductID:   o.ProductID,
		ProductName: productName,
		Quantity:    o.Quantity,
		Status:      o.Status,
		CreatedAt:   o.CreatedAt,
		CompletedAt: o.CompletedAt,
		Allocations: allocations,
	}
}

// OrderSummary is the order listing with per-status counts
type OrderSummary struct {
	Total      int         `json:"total" yaml:"total"`
	Pending    int         `json:"pending" yaml:"pending"`
	InProgress int         `json:"in_progress" yaml:"in_progress"`
	Completed  int         `json:"completed" yaml:"completed"`
	Orders     []OrderView `json:"orders" yaml:"orders"`
}

// OrderResult reports the outcome of createOrder. Allocated is false when
// stock was short; the order then stays pending and Shortages lists why.
type OrderResult struct {
	Order     OrderView           `json:"order" yaml:"order"`
	Allocated bool                `json:"allocated" yaml:"allocated"`
	Shortages []entities.Shortage `json:"shortages,omitempty" yaml:"shortages,omitempty"`
}
