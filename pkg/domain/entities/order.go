package entities

import (
	"fmt"
	"time"
)

// OrderStatus represents the lifecycle state of a production order
type OrderStatus int

const (
	OrderPending OrderStatus = iota
	OrderInProgress
	OrderCompleted
)

// String method for OrderStatus enum
func (s OrderStatus) String() string {
	switch s {
	case OrderPending:
		return "pending"
	case OrderInProgress:
		return "in_progress"
	case OrderCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// ParseOrderStatus converts the wire name of a status
func ParseOrderStatus(s string) (OrderStatus, error) {
	switch s {
	case "pending":
		return OrderPending, nil
	case "in_progress":
		return OrderInProgress, nil
	case "completed":
		return OrderCompleted, nil
	default:
		return OrderPending, fmt.Errorf("unknown order status %q", s)
	}
}

// MarshalText encodes the status by its wire name
func (s OrderStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes the status from its wire name
func (s *OrderStatus) UnmarshalText(text []byte) error {
	parsed, err := ParseOrderStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Allocation records units of a component committed to an order
type Allocation struct {
	ComponentID ComponentID `json:"component_id"`
	Quantity    Quantity    `json:"quantity_allocated"`
}

// Order is a request to produce Quantity units of a product
type Order struct {
	ID          OrderID      `json:"id"`
	ProductID   ProductID    `json:"product_id"`
	Quantity    Quantity     `json:"quantity"`
	Status      OrderStatus  `json:"status"`
	CreatedAt   time.Time    `json:"created_at"`
	CompletedAt *time.Time   `json:"completed_at,omitempty"`
	Allocations []Allocation `json:"allocations"`
}

// NewOrder creates a validated pending Order
func NewOrder(productID ProductID, quantity Quantity, createdAt time.Time) (*Order, error) {
	if productID <= 0 {
		return nil, NewValidationError("order", 0, "product id must be positive, got %d", productID)
	}
	if quantity < 1 {
		return nil, NewValidationError("order", 0, "quantity must be at least 1, got %d", quantity)
	}

	return &Order{
		ProductID: productID,
		Quantity:  quantity,
		Status:    OrderPending,
		CreatedAt: createdAt,
	}, nil
}

// Clone returns a deep copy
func (o Order) Clone() Order {
	o.Allocations = append([]Allocation(nil), o.Allocations...)
	if o.CompletedAt != nil {
		at := *o.CompletedAt
		o.CompletedAt = &at
	}
	return o
}

// MarkAllocated records the committed allocations and moves the order to in_progress
func (o *Order) MarkAllocated(allocations []Allocation) error {
	if o.Status != OrderPending {
		return NewInvalidStateError("order", int64(o.ID), "cannot allocate order in status %s", o.Status)
	}
	if len(allocations) == 0 {
		return NewIntegrityError("order", int64(o.ID), "allocation list cannot be empty")
	}
	o.Allocations = append([]Allocation(nil), allocations...)
	o.Status = OrderInProgress
	return nil
}

// MarkCompleted stamps completion on an in_progress order
func (o *Order) MarkCompleted(at time.Time) error {
	if o.Status != OrderInProgress {
		return NewInvalidStateError("order", int64(o.ID), "cannot complete order in status %s", o.Status)
	}
	o.Status = OrderCompleted
	o.CompletedAt = &at
	return nil
}
