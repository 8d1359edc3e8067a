package entities

import (
	"errors"
	"testing"
)

func TestBOM_Validation(t *testing.T) {
	bom, err := NewBOM(
		[]ComponentLine{{ComponentID: 1, Quantity: 4}, {ComponentID: 2, Quantity: 1}},
		[]ProductLine{{ChildProductID: 3, Quantity: 2}},
	)
	if err != nil {
		t.Fatalf("Expected valid BOM creation to succeed: %v", err)
	}
	if !bom.ReferencesComponent(2) || bom.ReferencesComponent(9) {
		t.Errorf("Unexpected component references in %+v", bom)
	}
	if !bom.ReferencesProduct(3) {
		t.Errorf("Expected product 3 to be referenced")
	}

	testCases := []struct {
		name       string
		components []ComponentLine
		products   []ProductLine
	}{
		{"empty", nil, nil},
		{"zero quantity", []ComponentLine{{ComponentID: 1, Quantity: 0}}, nil},
		{"negative quantity", nil, []ProductLine{{ChildProductID: 1, Quantity: -2}}},
		{"duplicate component", []ComponentLine{{ComponentID: 1, Quantity: 1}, {ComponentID: 1, Quantity: 2}}, nil},
		{"duplicate product", nil, []ProductLine{{ChildProductID: 4, Quantity: 1}, {ChildProductID: 4, Quantity: 1}}},
		{"invalid component id", []ComponentLine{{ComponentID: 0, Quantity: 1}}, nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewBOM(tc.components, tc.products)
			if !errors.Is(err, ErrValidation) {
				t.Errorf("Expected validation error for %s, got %v", tc.name, err)
			}
		})
	}
}

func TestBOM_CloneIsIndependent(t *testing.T) {
	bom, err := NewBOM([]ComponentLine{{ComponentID: 1, Quantity: 4}}, nil)
	if err != nil {
		t.Fatal(err)
	}
	clone := bom.Clone()
	clone.Components[0].Quantity = 99
	if bom.Components[0].Quantity != 4 {
		t.Errorf("Clone shares backing storage with original")
	}
}

func TestProduct_AdjustCounters(t *testing.T) {
	p := &Product{ID: 1}
	if err := p.AdjustCounters(5, 0); err != nil {
		t.Fatal(err)
	}
	if err := p.AdjustCounters(-5, 5); err != nil {
		t.Fatal(err)
	}
	if p.InProgress != 0 || p.Shipped != 5 {
		t.Errorf("Expected 0/5, got %d/%d", p.InProgress, p.Shipped)
	}
	if err := p.AdjustCounters(-1, 1); !errors.Is(err, ErrIntegrity) {
		t.Errorf("Expected integrity error, got %v", err)
	}
}
