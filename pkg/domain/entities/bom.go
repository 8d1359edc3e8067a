package entities

// ComponentLine is a direct component requirement of a product
type ComponentLine struct {
	ComponentID ComponentID `json:"component_id"`
	Quantity    Quantity    `json:"quantity_required"`
}

// ProductLine is a direct sub-product requirement of a product
type ProductLine struct {
	ChildProductID ProductID `json:"child_product_id"`
	Quantity       Quantity  `json:"quantity_required"`
}

// BOM is the bill of materials for one unit of a product
type BOM struct {
	Components []ComponentLine `json:"component_bom"`
	Products   []ProductLine   `json:"product_bom"`
}

// NewBOM creates a validated BOM: positive quantities, unique ids per list, not empty
func NewBOM(components []ComponentLine, products []ProductLine) (BOM, error) {
	if len(components) == 0 && len(products) == 0 {
		return BOM{}, NewValidationError("product", 0, "bill of materials cannot be empty")
	}

	seenComponents := make(map[ComponentID]bool, len(components))
	for _, line := range components {
		if line.ComponentID <= 0 {
			return BOM{}, NewValidationError("product", 0, "component id must be positive, got %d", line.ComponentID)
		}
		if line.Quantity <= 0 {
			return BOM{}, NewValidationError("product", 0,
				"quantity required must be positive, got %d for component %d", line.Quantity, line.ComponentID)
		}
		if seenComponents[line.ComponentID] {
			return BOM{}, NewValidationError("product", 0, "BOM contains duplicate component id %d", line.ComponentID)
		}
		seenComponents[line.ComponentID] = true
	}

	seenProducts := make(map[ProductID]bool, len(products))
	for _, line := range products {
		if line.ChildProductID <= 0 {
			return BOM{}, NewValidationError("product", 0, "child product id must be positive, got %d", line.ChildProductID)
		}
		if line.Quantity <= 0 {
			return BOM{}, NewValidationError("product", 0,
				"quantity required must be positive, got %d for product %d", line.Quantity, line.ChildProductID)
		}
		if seenProducts[line.ChildProductID] {
			return BOM{}, NewValidationError("product", 0, "BOM contains duplicate child product id %d", line.ChildProductID)
		}
		seenProducts[line.ChildProductID] = true
	}

	return BOM{
		Components: append([]ComponentLine(nil), components...),
		Products:   append([]ProductLine(nil), products...),
	}, nil
}

// Clone returns a deep copy
func (b BOM) Clone() BOM {
	return BOM{
		Components: append([]ComponentLine(nil), b.Components...),
		Products:   append([]ProductLine(nil), b.Products...),
	}
}

// ChildProducts returns the ids of direct sub-products
func (b BOM) ChildProducts() []ProductID {
	ids := make([]ProductID, 0, len(b.Products))
	for _, line := range b.Products {
		ids = append(ids, line.ChildProductID)
	}
	return ids
}

// ReferencesComponent reports whether the component is a direct requirement
func (b BOM) ReferencesComponent(id ComponentID) bool {
	for _, line := range b.Components {
		if line.ComponentID == id {
			return true
		}
	}
	return false
}

// ReferencesProduct reports whether the product is a direct sub-product
func (b BOM) ReferencesProduct(id ProductID) bool {
	for _, line := range b.Products {
		if line.ChildProductID == id {
			return true
		}
	}
	return false
}
