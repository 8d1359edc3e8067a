package entities

import "time"

// Product is a buildable item defined by its bill of materials
type Product struct {
	ID         ProductID `json:"id"`
	Name       string    `json:"name"`
	InProgress Quantity  `json:"in_progress"`
	Shipped    Quantity  `json:"shipped"`
	BOM        BOM       `json:"bom"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// NewProduct creates a validated Product
func NewProduct(name string, bom BOM) (*Product, error) {
	normalized, err := NormalizeName("product", name)
	if err != nil {
		return nil, err
	}
	validated, err := NewBOM(bom.Components, bom.Products)
	if err != nil {
		return nil, err
	}
	return &Product{
		Name: normalized,
		BOM:  validated,
	}, nil
}

// Clone returns a deep copy
func (p Product) Clone() Product {
	p.BOM = p.BOM.Clone()
	return p
}

// AdjustCounters moves the production counters by the given deltas
func (p *Product) AdjustCounters(inProgressDelta, shippedDelta Quantity) error {
	inProgress := p.InProgress + inProgressDelta
	shipped := p.Shipped + shippedDelta
	if inProgress < 0 || shipped < 0 {
		return NewIntegrityError("product", int64(p.ID),
			"production counters would go negative (in_progress=%d, shipped=%d)", inProgress, shipped)
	}
	p.InProgress = inProgress
	p.Shipped = shipped
	return nil
}
