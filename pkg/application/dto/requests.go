package dto

import (
	"github.com/shopspring/decimal"

	"github.com/vsinha/stockmrp/pkg/domain/entities"
)

// CreateComponentRequest is the body of POST /components
type CreateComponentRequest struct {
	Name                string          `json:"name" validate:"required,max=255"`
	SpillageCoefficient decimal.Decimal `json:"spillage_coefficient" validate:"gte=0,lt=10"`
	InStock             int64           `json:"in_stock" validate:"gte=0"`
}

// UpdateComponentRequest is the body of PUT /components/:id; omitted fields keep their value
type UpdateComponentRequest struct {
	Name                *string          `json:"name" validate:"omitempty,min=1,max=255"`
	SpillageCoefficient *decimal.Decimal `json:"spillage_coefficient"`
}

// AdjustStockRequest is the body of PATCH /components/:id/adjust-stock
type AdjustStockRequest struct {
	Adjustment int64 `json:"adjustment"`
}

// ComponentLineRequest is one direct component requirement
type ComponentLineRequest struct {
	ComponentID int64 `json:"component_id" validate:"required,gt=0"`
	Quantity    int64 `json:"quantity_required" validate:"required,gt=0"`
}

// ProductLineRequest is one direct sub-product requirement
type ProductLineRequest struct {
	ChildProductID int64 `json:"child_product_id" validate:"required,gt=0"`
	Quantity       int64 `json:"quantity_required" validate:"required,gt=0"`
}

// CreateProductRequest is the body of POST /products
type CreateProductRequest struct {
	Name         string                 `json:"name" validate:"required,max=255"`
	ComponentBOM []ComponentLineRequest `json:"component_bom" validate:"dive"`
	ProductBOM   []ProductLineRequest   `json:"product_bom" validate:"dive"`
}

// RenameProductRequest is the body of PUT /products/:id
type RenameProductRequest struct {
	Name string `json:"name" validate:"required,max=255"`
}

// UpdateBOMRequest is the body of PUT /products/:id/bom
type UpdateBOMRequest struct {
	ComponentBOM []ComponentLineRequest `json:"component_bom" validate:"dive"`
	ProductBOM   []ProductLineRequest   `json:"product_bom" validate:"dive"`
}

// Lines converts the request into domain BOM lines
func (r UpdateBOMRequest) Lines() ([]entities.ComponentLine, []entities.ProductLine) {
	return componentLines(r.ComponentBOM), productLines(r.ProductBOM)
}

// Lines converts the request into domain BOM lines
func (r CreateProductRequest) Lines() ([]entities.ComponentLine, []entities.ProductLine) {
	return componentLines(r.ComponentBOM), productLines(r.ProductBOM)
}

func componentLines(in []ComponentLineRequest) []entities.ComponentLine {
	out := make([]entities.ComponentLine, 0, len(in))
	for _, l := range in {
		out = append(out, entities.ComponentLine{ComponentID: entities.ComponentID(l.ComponentID), Quantity: entities.Quantity(l.Quantity)})
	}
	return out
}

func productLines(in []ProductLineRequest) []entities.ProductLine {
	out := make([]entities.ProductLine, 0, len(in))
	for _, l := range in {
		out = append(out, entities.ProductLine{ChildProductID: entities.ProductID(l.ChildProductID), Quantity: entities.Quantity(l.Quantity)})
	}
	return out
}

// CreateOrderRequest is the body of POST /orders
type CreateOrderRequest struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
	Quantity  int64 `json:"quantity" validate:"required,gte=1"`
}
