package shared

import (
	"fmt"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/vsinha/stockmrp/pkg/domain/entities"
)

// RequirementMap holds exact per-component quantities, keyed by component id
type RequirementMap map[entities.ComponentID]decimal.Decimal

// NewRequirementMap creates a new empty requirement map
func NewRequirementMap() RequirementMap {
	return make(RequirementMap)
}

// Add accumulates qty for a component
func (rm RequirementMap) Add(id entities.ComponentID, qty decimal.Decimal) {
	if current, ok := rm[id]; ok {
		rm[id] = current.Add(qty)
		return
	}
	rm[id] = qty
}

// AddScaled accumulates every entry of other multiplied by factor
func (rm RequirementMap) AddScaled(other RequirementMap, factor entities.Quantity) {
	f := decimal.NewFromInt(int64(factor))
	for id, qty := range other {
		rm.Add(id, qty.Mul(f))
	}
}

// Get returns the requirement for a component, zero if absent
func (rm RequirementMap) Get(id entities.ComponentID) decimal.Decimal {
	return rm[id]
}

// ComponentIDs returns the component ids in ascending order
func (rm RequirementMap) ComponentIDs() []entities.ComponentID {
	ids := make([]entities.ComponentID, 0, len(rm))
	for id := range rm {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Clone returns an independent copy
func (rm RequirementMap) Clone() RequirementMap {
	out := make(RequirementMap, len(rm))
	for id, qty := range rm {
		out[id] = qty
	}
	return out
}

// Equal compares two maps by numeric value
func (rm RequirementMap) Equal(other RequirementMap) bool {
	if len(rm) != len(other) {
		return false
	}
	for id, qty := range rm {
		o, ok := other[id]
		if !ok || !qty.Equal(o) {
			return false
		}
	}
	return true
}

// WholeUnits scales the per-unit map by qty and rounds each entry up once, at the order boundary.
// A requirement too large for a Quantity is a validation error.
func (rm RequirementMap) WholeUnits(qty entities.Quantity) (map[entities.ComponentID]entities.Quantity, error) {
	f := decimal.NewFromInt(int64(qty))
	out := make(map[entities.ComponentID]entities.Quantity, len(rm))
	for _, id := range rm.ComponentIDs() {
		needed, ok := entities.CeilUnits(rm[id].Mul(f))
		if !ok {
			return nil, entities.NewValidationError("component", int64(id),
				"requirement for %d units (%s each) exceeds the largest supported quantity", qty, rm[id])
		}
		out[id] = needed
	}
	return out, nil
}

// String returns a string representation of the map for debugging
func (rm RequirementMap) String() string {
	if len(rm) == 0 {
		return "RequirementMap{empty}"
	}
	parts := make([]string, 0, len(rm))
	for _, id := range rm.ComponentIDs() {
		parts = append(parts, fmt.Sprintf("%d=%s", id, rm[id]))
	}
	return "RequirementMap{" + strings.Join(parts, ", ") + "}"
}
