package services

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/vsinha/stockmrp/pkg/domain/entities"
)

// BOMValidator provides validation for product hierarchy integrity
type BOMValidator struct{}

// NewBOMValidator creates a new BOM validator
func NewBOMValidator() *BOMValidator {
	return &BOMValidator{}
}

// DanglingReference is a BOM line pointing at an entity that does not exist
type DanglingReference struct {
	ProductID entities.ProductID `json:"product_id" yaml:"product_id"`
	Kind      string             `json:"kind" yaml:"kind"`
	MissingID int64              `json:"missing_id" yaml:"missing_id"`
}

// ValidationResult contains the results of catalog validation
type ValidationResult struct {
	HasCycles  bool                   `json:"has_cycles" yaml:"has_cycles"`
	CyclePaths [][]entities.ProductID `json:"cycle_paths" yaml:"cycle_paths"`
	Dangling   []DanglingReference    `json:"dangling" yaml:"dangling"`
	Errors     []string               `json:"errors" yaml:"errors"`
}

// Valid reports whether no problem was found
func (r *ValidationResult) Valid() bool {
	return len(r.Errors) == 0
}

// ValidateCatalog checks every product for cycles and references to unknown entities
func (v *BOMValidator) ValidateCatalog(products []entities.Product, componentIDs []entities.ComponentID) *ValidationResult {
	result := &ValidationResult{
		CyclePaths: make([][]entities.ProductID, 0),
		Dangling:   make([]DanglingReference, 0),
		Errors:     make([]string, 0),
	}

	knownComponents := make(map[entities.ComponentID]bool, len(componentIDs))
	for _, id := range componentIDs {
		knownComponents[id] = true
	}
	adjacency := make(map[entities.ProductID][]entities.ProductID, len(products))
	for _, p := range products {
		adjacency[p.ID] = p.BOM.ChildProducts()
	}

	for _, p := range products {
		for _, line := range p.BOM.Components {
			if !knownComponents[line.ComponentID] {
				result.Dangling = append(result.Dangling, DanglingReference{ProductID: p.ID, Kind: "component", MissingID: int64(line.ComponentID)})
			}
		}
		for _, line := range p.BOM.Products {
			if _, ok := adjacency[line.ChildProductID]; !ok {
				result.Dangling = append(result.Dangling, DanglingReference{ProductID: p.ID, Kind: "product", MissingID: int64(line.ChildProductID)})
			}
		}
	}

	result.CyclePaths = DetectCycles(adjacency)
	result.HasCycles = len(result.CyclePaths) > 0

	for _, cycle := range result.CyclePaths {
		result.Errors = append(result.Errors, fmt.Sprintf("BOM cycle detected: %v", cycle))
	}
	for _, d := range result.Dangling {
		result.Errors = append(result.Errors, fmt.Sprintf("product %d references unknown %s %d", d.ProductID, d.Kind, d.MissingID))
	}

	return result
}

// FindPath returns a path from any of the start nodes to target, or nil when target is unreachable.
// Used to reject a BOM whose sub-products already (transitively) contain the product being edited.
func (v *BOMValidator) FindPath(
	start []entities.ProductID,
	target entities.ProductID,
	children func(entities.ProductID) ([]entities.ProductID, error),
) ([]entities.ProductID, error) {
	return FindPath(start, target, children)
}

const (
	white uint8 = iota
	gray
	black
)

type frame[K any] struct {
	node K
	kids []K
	next int
}

// walker is an iterative depth-first traversal with gray/black coloring
type walker[K cmp.Ordered] struct {
	children func(K) ([]K, error)
	state    map[K]uint8
	stack    []frame[K]

	// onCycle receives the cycle path; returning false stops the walk
	onCycle func([]K) bool
	// onFinish is called once per node, children before parents
	onFinish func(K)
}

func newWalker[K cmp.Ordered](children func(K) ([]K, error)) *walker[K] {
	return &walker[K]{children: children, state: make(map[K]uint8)}
}

// visit walks everything reachable from root. It returns false if onCycle asked to stop.
func (w *walker[K]) visit(root K) (bool, error) {
	if w.state[root] != white {
		return true, nil
	}
	if err := w.push(root); err != nil {
		return false, err
	}

	for len(w.stack) > 0 {
		top := &w.stack[len(w.stack)-1]
		if top.next == len(top.kids) {
			w.state[top.node] = black
			if w.onFinish != nil {
				w.onFinish(top.node)
			}
			w.stack = w.stack[:len(w.stack)-1]
			continue
		}

		child := top.kids[top.next]
		top.next++

		switch w.state[child] {
		case black:
		case gray:
			if w.onCycle != nil && !w.onCycle(w.cyclePath(child)) {
				w.stack = w.stack[:0]
				return false, nil
			}
		default:
			if err := w.push(child); err != nil {
				w.stack = w.stack[:0]
				return false, err
			}
		}
	}
	return true, nil
}

func (w *walker[K]) push(node K) error {
	kids, err := w.children(node)
	if err != nil {
		return err
	}
	w.state[node] = gray
	w.stack = append(w.stack, frame[K]{node: node, kids: kids})
	return nil
}

func (w *walker[K]) cyclePath(closing K) []K {
	start := 0
	for i, f := range w.stack {
		if f.node == closing {
			start = i
			break
		}
	}
	path := make([]K, 0, len(w.stack)-start+1)
	for _, f := range w.stack[start:] {
		path = append(path, f.node)
	}
	return append(path, closing)
}

// DetectCycles returns every cycle found in the adjacency map.
// Roots are visited in ascending order so the result is deterministic.
func DetectCycles[K cmp.Ordered](adjacency map[K][]K) [][]K {
	cycles := make([][]K, 0)
	w := newWalker(func(k K) ([]K, error) { return adjacency[k], nil })
	w.onCycle = func(path []K) bool {
		cycles = append(cycles, path)
		return true
	}

	roots := make([]K, 0, len(adjacency))
	for k := range adjacency {
		roots = append(roots, k)
	}
	slices.Sort(roots)
	for _, root := range roots {
		// children never fails here
		_, _ = w.visit(root)
	}
	return cycles
}

// PostOrder returns the nodes reachable from root with every node listed after all of its descendants.
// A cycle is reported through the returned path and stops the walk.
func PostOrder[K cmp.Ordered](root K, children func(K) ([]K, error)) (order []K, cycle []K, err error) {
	w := newWalker(children)
	w.onCycle = func(path []K) bool {
		cycle = path
		return false
	}
	w.onFinish = func(k K) { order = append(order, k) }

	if _, err := w.visit(root); err != nil {
		return nil, nil, err
	}
	if cycle != nil {
		return nil, cycle, nil
	}
	return order, nil, nil
}

// FindPath returns a path from one of start to target, or nil when target is unreachable
func FindPath[K cmp.Ordered](start []K, target K, children func(K) ([]K, error)) ([]K, error) {
	var found []K
	w := newWalker(children)

	for _, s := range start {
		if s == target {
			return []K{target}, nil
		}
		if w.state[s] != white {
			continue
		}
		if err := w.push(s); err != nil {
			return nil, err
		}
		for len(w.stack) > 0 && found == nil {
			top := &w.stack[len(w.stack)-1]
			if top.next == len(top.kids) {
				w.state[top.node] = black
				w.stack = w.stack[:len(w.stack)-1]
				continue
			}
			child := top.kids[top.next]
			top.next++
			if child == target {
				found = make([]K, 0, len(w.stack)+1)
				for _, f := range w.stack {
					found = append(found, f.node)
				}
				found = append(found, target)
				break
			}
			if w.state[child] == white {
				if err := w.push(child); err != nil {
					return nil, err
				}
			}
		}
		if found != nil {
			return found, nil
		}
	}
	return nil, nil
}
