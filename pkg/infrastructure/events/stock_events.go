package events

import (
	"fmt"
	"time"

	"github.com/vsinha/stockmrp/pkg/domain/entities"
)

const (
	ComponentCreatedEvent = "component.created"
	ComponentUpdatedEvent = "component.updated"
	ComponentDeletedEvent = "component.deleted"
	StockAdjustedEvent    = "stock.adjusted"

	ProductDefinedEvent = "product.defined"
	ProductUpdatedEvent = "product.updated"
	ProductDeletedEvent = "product.deleted"

	OrderCreatedEvent       = "order.created"
	OrderAllocatedEvent     = "order.allocated"
	AllocationRejectedEvent = "order.allocation_rejected"
	OrderCompletedEvent     = "order.completed"
)

// AllEventTypes lists every event type published by the engine
var AllEventTypes = []string{
	ComponentCreatedEvent, ComponentUpdatedEvent, ComponentDeletedEvent, StockAdjustedEvent,
	ProductDefinedEvent, ProductUpdatedEvent, ProductDeletedEvent,
	OrderCreatedEvent, OrderAllocatedEvent, AllocationRejectedEvent, OrderCompletedEvent,
}

type ComponentChanged struct {
	Component entities.Component `json:"component"`
}

type ComponentDeleted struct {
	ComponentID entities.ComponentID `json:"component_id"`
}

type StockAdjusted struct {
	ComponentID entities.ComponentID `json:"component_id"`
	Delta       entities.Quantity    `json:"delta"`
	InStock     entities.Quantity    `json:"in_stock"`
}

type ProductChanged struct {
	Product entities.Product `json:"product"`
}

type ProductDeleted struct {
	ProductID entities.ProductID `json:"product_id"`
}

type OrderChanged struct {
	Order entities.Order `json:"order"`
}

type AllocationRejected struct {
	OrderID   entities.OrderID    `json:"order_id"`
	Shortages []entities.Shortage `json:"shortages"`
}

func ComponentStream(id entities.ComponentID) string {
	return fmt.Sprintf("component-%d", id)
}

func ProductStream(id entities.ProductID) string {
	return fmt.Sprintf("product-%d", id)
}

func OrderStream(id entities.OrderID) string {
	return fmt.Sprintf("order-%d", id)
}

func NewComponentEvent(eventType string, c entities.Component, at time.Time) Event {
	return NewEvent(eventType, ComponentStream(c.ID), ComponentChanged{Component: c}, at)
}

func NewComponentDeletedEvent(id entities.ComponentID, at time.Time) Event {
	return NewEvent(ComponentDeletedEvent, ComponentStream(id), ComponentDeleted{ComponentID: id}, at)
}

func NewStockAdjustedEvent(c entities.Component, delta entities.Quantity, at time.Time) Event {
	return NewEvent(StockAdjustedEvent, ComponentStream(c.ID), StockAdjusted{
		ComponentID: c.ID,
		Delta:       delta,
		InStock:     c.InStock,
	}, at)
}

func NewProductEvent(eventType string, p entities.Product, at time.Time) Event {
	return NewEvent(eventType, ProductStream(p.ID), ProductChanged{Product: p}, at)
}

func NewProductDeletedEvent(id entities.ProductID, at time.Time) Event {
	return NewEvent(ProductDeletedEvent, ProductStream(id), ProductDeleted{ProductID: id}, at)
}

func NewOrderEvent(eventType string, o entities.Order, at time.Time) Event {
	return NewEvent(eventType, OrderStream(o.ID), OrderChanged{Order: o}, at)
}

func NewAllocationRejectedEvent(id entities.OrderID, shortages []entities.Shortage, at time.Time) Event {
	return NewEvent(AllocationRejectedEvent, OrderStream(id), AllocationRejected{OrderID: id, Shortages: shortages}, at)
}
