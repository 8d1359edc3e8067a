package entities

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestOrder_Lifecycle(t *testing.T) {
	created := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	order, err := NewOrder(1, 5, created)
	if err != nil {
		t.Fatalf("Expected valid order creation to succeed: %v", err)
	}
	if order.Status != OrderPending {
		t.Fatalf("Expected pending, got %s", order.Status)
	}

	if err := order.MarkCompleted(created); !errors.Is(err, ErrInvalidState) {
		t.Errorf("Expected invalid state when completing a pending order, got %v", err)
	}

	if err := order.MarkAllocated([]Allocation{{ComponentID: 1, Quantity: 55}}); err != nil {
		t.Fatalf("MarkAllocated failed: %v", err)
	}
	if order.Status != OrderInProgress {
		t.Errorf("Expected in_progress, got %s", order.Status)
	}
	if err := order.MarkAllocated([]Allocation{{ComponentID: 1, Quantity: 55}}); !errors.Is(err, ErrInvalidState) {
		t.Errorf("Expected invalid state on double allocation, got %v", err)
	}

	done := created.Add(time.Hour)
	if err := order.MarkCompleted(done); err != nil {
		t.Fatalf("MarkCompleted failed: %v", err)
	}
	if order.CompletedAt == nil || !order.CompletedAt.Equal(done) {
		t.Errorf("Expected completed_at %v, got %v", done, order.CompletedAt)
	}
	if err := order.MarkCompleted(done); !errors.Is(err, ErrInvalidState) {
		t.Errorf("Completed is terminal, got %v", err)
	}
}

func TestOrder_Validation(t *testing.T) {
	testCases := []struct {
		name      string
		productID ProductID
		quantity  Quantity
	}{
		{"zero product", 0, 1},
		{"zero quantity", 1, 0},
		{"negative quantity", 1, -3},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewOrder(tc.productID, tc.quantity, time.Now()); !errors.Is(err, ErrValidation) {
				t.Errorf("Expected validation error, got %v", err)
			}
		})
	}
}

func TestOrderStatus_JSON(t *testing.T) {
	data, err := json.Marshal(struct {
		Status OrderStatus `json:"status"`
	}{OrderInProgress})
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"status":"in_progress"}` {
		t.Errorf("Unexpected encoding %s", data)
	}

	var decoded struct {
		Status OrderStatus `json:"status"`
	}
	if err := json.Unmarshal([]byte(`{"status":"completed"}`), &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded.Status != OrderCompleted {
		t.Errorf("Expected completed, got %s", decoded.Status)
	}
}

func TestOrder_CloneIsIndependent(t *testing.T) {
	at := time.Now()
	o := Order{Allocations: []Allocation{{ComponentID: 1, Quantity: 2}}, CompletedAt: &at}
	c := o.Clone()
	c.Allocations[0].Quantity = 9
	*c.CompletedAt = at.Add(time.Hour)
	if o.Allocations[0].Quantity != 2 || !o.CompletedAt.Equal(at) {
		t.Errorf("Clone shares state with original")
	}
}
