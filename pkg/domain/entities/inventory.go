package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockBucket names one of the three quantity buckets a component moves through
type StockBucket int

const (
	InStock StockBucket = iota
	InProgress
	Shipped
)

// String method for StockBucket enum
func (b StockBucket) String() string {
	switch b {
	case InStock:
		return "in_stock"
	case InProgress:
		return "in_progress"
	case Shipped:
		return "shipped"
	default:
		return "unknown"
	}
}

// Component is a raw material tracked in three independent, non-negative buckets
type Component struct {
	ID                  ComponentID     `json:"id"`
	Name                string          `json:"name"`
	SpillageCoefficient decimal.Decimal `json:"spillage_coefficient"`
	InStock             Quantity        `json:"in_stock"`
	InProgress          Quantity        `json:"in_progress"`
	Shipped             Quantity        `json:"shipped"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

// NewComponent creates a validated Component with its initial stock
func NewComponent(name string, spillage decimal.Decimal, initialStock Quantity) (*Component, error) {
	normalized, err := NormalizeName("component", name)
	if err != nil {
		return nil, err
	}
	if err := ValidateSpillage(spillage); err != nil {
		return nil, err
	}
	if initialStock < 0 {
		return nil, NewValidationError("component", 0, "initial stock cannot be negative, got %d", initialStock)
	}

	return &Component{
		Name:                normalized,
		SpillageCoefficient: spillage,
		InStock:             initialStock,
	}, nil
}

// PerUnit returns the spillage-adjusted consumption for qty nominal units
func (c Component) PerUnit(qty Quantity) decimal.Decimal {
	return WithSpillage(qty, c.SpillageCoefficient)
}

// Validate checks the bucket invariant
func (c *Component) Validate() error {
	if c.InStock < 0 || c.InProgress < 0 || c.Shipped < 0 {
		return NewIntegrityError("component", int64(c.ID),
			"negative stock bucket (in_stock=%d, in_progress=%d, shipped=%d)", c.InStock, c.InProgress, c.Shipped)
	}
	return nil
}

// AdjustStock applies a signed correction to in_stock
func (c *Component) AdjustStock(delta Quantity) error {
	next, ok := AddQuantity(c.InStock, delta)
	if !ok {
		return NewValidationError("component", int64(c.ID),
			"invalid adjustment: adjustment %d is out of range for current stock %d", delta, c.InStock)
	}
	if next < 0 {
		return NewValidationError("component", int64(c.ID),
			"invalid adjustment: current stock %d, adjustment %d, result %d cannot be negative",
			c.InStock, delta, next)
	}
	c.InStock = next
	return nil
}

// Reserve moves qty units from in_stock to in_progress
func (c *Component) Reserve(qty Quantity) error {
	if qty < 0 {
		return NewValidationError("component", int64(c.ID), "reserve quantity cannot be negative, got %d", qty)
	}
	if c.InStock < qty {
		return &Error{
			Kind:    KindInsufficientStock,
			Entity:  "component",
			ID:      int64(c.ID),
			Message: "not enough stock to reserve",
			Shortages: []Shortage{{
				ComponentID: c.ID,
				Needed:      qty,
				Available:   c.InStock,
				Shortage:    qty - c.InStock,
			}},
		}
	}
	c.InStock -= qty
	c.InProgress += qty
	return nil
}

// Release moves qty units from in_progress to shipped
func (c *Component) Release(qty Quantity) error {
	if qty < 0 {
		return NewValidationError("component", int64(c.ID), "release quantity cannot be negative, got %d", qty)
	}
	if c.InProgress < qty {
		return NewIntegrityError("component", int64(c.ID),
			"insufficient in_progress inventory: have %d, releasing %d", c.InProgress, qty)
	}
	c.InProgress -= qty
	c.Shipped += qty
	return nil
}

// Total returns the units held across all buckets
func (c Component) Total() Quantity {
	return c.InStock + c.InProgress + c.Shipped
}
