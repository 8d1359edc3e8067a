package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/stockmrp/pkg/domain/entities"
)

// ComponentLineDetail is a direct component line with spillage applied
type ComponentLineDetail struct {
	ComponentID          entities.ComponentID `json:"component_id" yaml:"component_id"`
	ComponentName        string               `json:"component_name" yaml:"component_name"`
	Quantity             entities.Quantity    `json:"quantity_required" yaml:"quantity_required"`
	SpillageCoefficient  decimal.Decimal      `json:"spillage_coefficient" yaml:"spillage_coefficient"`
	QuantityWithSpillage decimal.Decimal      `json:"quantity_with_spillage" yaml:"quantity_with_spillage"`
}

// ProductLineDetail is a direct sub-product line
type ProductLineDetail struct {
	ProductID   entities.ProductID `json:"product_id" yaml:"product_id"`
	ProductName string             `json:"product_name" yaml:"product_name"`
	Quantity    entities.Quantity  `json:"quantity_required" yaml:"quantity_required"`
}

// ExplodedLine is one leaf component of a fully exploded BOM, per unit of product
type ExplodedLine struct {
	ComponentID   entities.ComponentID `json:"component_id" yaml:"component_id"`
	ComponentName string               `json:"component_name" yaml:"component_name"`
	PerUnit       decimal.Decimal      `json:"quantity_per_unit" yaml:"quantity_per_unit"`
}

// ProductDetail is the read view of a product with its resolved BOM
type ProductDetail struct {
	ID          entities.ProductID    `json:"id" yaml:"id"`
	Name        string                `json:"name" yaml:"name"`
	InProgress  entities.Quantity     `json:"in_progress" yaml:"in_progress"`
	Shipped     entities.Quantity     `json:"shipped" yaml:"shipped"`
	Components  []ComponentLineDetail `json:"component_bom" yaml:"component_bom"`
	SubProducts []ProductLineDetail   `json:"product_bom" yaml:"product_bom"`
	Exploded    []ExplodedLine        `json:"exploded_bom" yaml:"exploded_bom"`
	CreatedAt   time.Time             `json:"created_at" yaml:"created_at"`
	UpdatedAt   time.Time             `json:"updated_at" yaml:"updated_at"`
}

// RequirementLine compares one component's need for an order against stock
type RequirementLine struct {
	ComponentID   entities.ComponentID `json:"component_id" yaml:"component_id"`
	ComponentName string               `json:"component_name" yaml:"component_name"`
	Needed        entities.Quantity    `json:"needed" yaml:"needed"`
	Available     entities.Quantity    `json:"available" yaml:"available"`
	Shortage      entities.Quantity    `json:"shortage" yaml:"shortage"`
	HasEnough     bool                 `json:"has_enough" yaml:"has_enough"`
}

// OrderRequirements is the allocation preview of one order
type OrderRequirements struct {
	OrderID      entities.OrderID   `json:"order_id" yaml:"order_id"`
	ProductID    entities.ProductID `json:"product_id" yaml:"product_id"`
	ProductName  string             `json:"product_name" yaml:"product_name"`
	Quantity     entities.Quantity  `json:"quantity" yaml:"quantity"`
	Requirements []RequirementLine  `json:"requirements" yaml:"requirements"`
	CanAllocate  bool               `json:"can_allocate" yaml:"can_allocate"`
}

// Shortages lists the lines that cannot be covered
func (r OrderRequirements) Shortages() []entities.Shortage {
	var out []entities.Shortage
	for _, line := range r.Requirements {
		if !line.HasEnough {
			out = append(out, entities.Shortage{
				ComponentID: line.ComponentID,
				Needed:      line.Needed,
				Available:   line.Available,
				Shortage:    line.Shortage,
			})
		}
	}
	return out
}

// ProductCapacity is one row of the capacity report
type ProductCapacity struct {
	ProductID             entities.ProductID    `json:"id" yaml:"id"`
	ProductName           string                `json:"name" yaml:"name"`
	InProgress            entities.Quantity     `json:"in_progress" yaml:"in_progress"`
	Shipped               entities.Quantity     `json:"shipped" yaml:"shipped"`
	MaxProducible         entities.Quantity     `json:"max_producible" yaml:"max_producible"`
	LimitingComponentID   *entities.ComponentID `json:"limiting_component_id" yaml:"limiting_component_id"`
	LimitingComponentName string                `json:"limiting_component,omitempty" yaml:"limiting_component,omitempty"`
}

// ProcurementLine is one component short across pending orders
type ProcurementLine struct {
	ComponentID    entities.ComponentID `json:"component_id" yaml:"component_id"`
	ComponentName  string               `json:"component_name" yaml:"component_name"`
	InStock        entities.Quantity    `json:"in_stock" yaml:"in_stock"`
	TotalNeeded    entities.Quantity    `json:"total_needed" yaml:"total_needed"`
	Shortage       entities.Quantity    `json:"shortage" yaml:"shortage"`
	OrdersAffected int                  `json:"orders_affected" yaml:"orders_affected"`
}

// ProcurementReport aggregates shortages over all pending orders
type ProcurementReport struct {
	Items         []ProcurementLine `json:"components_to_order" yaml:"components_to_order"`
	TotalItems    int               `json:"total_items" yaml:"total_items"`
	PendingOrders int               `json:"pending_orders" yaml:"pending_orders"`
	GeneratedAt   time.Time         `json:"generated_at" yaml:"generated_at"`
}
