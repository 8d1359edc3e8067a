package engine

import (
	"context"
	"fmt"

	"github.com/vsinha/stockmrp/pkg/domain/entities"
	"github.com/vsinha/stockmrp/pkg/domain/services"
	"github.com/vsinha/stockmrp/pkg/infrastructure/repositories/csv"
)

// SeedResult summarizes what a scenario added
type SeedResult struct {
	Components int `json:"components" yaml:"components"`
	Products   int `json:"products" yaml:"products"`
	Orders     int `json:"orders" yaml:"orders"`
	Allocated  int `json:"allocated" yaml:"allocated"`
}

// Seed loads a name-based scenario through the regular service operations.
// Products may appear in any order; each is defined after the sub-products it names.
func (e *Engine) Seed(ctx context.Context, scenario *csv.Scenario) (*SeedResult, error) {
	result := &SeedResult{}

	componentIDs := make(map[string]entities.ComponentID, len(scenario.Components))
	for _, row := range scenario.Components {
		created, err := e.Inventory.CreateComponent(ctx, row.Name, row.Spillage, row.InStock)
		if err != nil {
			return nil, fmt.Errorf("component %q: %w", row.Name, err)
		}
		componentIDs[created.Name] = created.ID
		result.Components++
	}

	rows := make(map[string]csv.ProductRow, len(scenario.Products))
	for _, row := range scenario.Products {
		name, err := entities.NormalizeName("product", row.Name)
		if err != nil {
			return nil, err
		}
		rows[name] = row
	}

	productIDs := make(map[string]entities.ProductID, len(rows))
	children := func(name string) ([]string, error) {
		row, ok := rows[name]
		if !ok {
			return nil, entities.NewValidationError("product", 0, "unknown sub-product %q", name)
		}
		names := make([]string, 0, len(row.Products))
		for _, line := range row.Products {
			child, err := entities.NormalizeName("product", line.Name)
			if err != nil {
				return nil, err
			}
			names = append(names, child)
		}
		return names, nil
	}

	for _, row := range scenario.Products {
		root, _ := entities.NormalizeName("product", row.Name)
		order, cycle, err := services.PostOrder(root, children)
		if err != nil {
			return nil, err
		}
		if cycle != nil {
			return nil, entities.NewValidationError("product", 0, "scenario products form a cycle: %v", cycle)
		}

		for _, name := range order {
			if _, done := productIDs[name]; done {
				continue
			}
			id, err := e.defineNamed(ctx, rows[name], componentIDs, productIDs)
			if err != nil {
				return nil, fmt.Errorf("product %q: %w", name, err)
			}
			productIDs[name] = id
			result.Products++
		}
	}

	for i, row := range scenario.Orders {
		name, err := entities.NormalizeName("product", row.Product)
		if err != nil {
			return nil, fmt.Errorf("order %d: %w", i+1, err)
		}
		pid, ok := productIDs[name]
		if !ok {
			return nil, entities.NewValidationError("order", 0, "order %d references unknown product %q", i+1, row.Product)
		}
		placed, err := e.OrderFlow.CreateOrder(ctx, pid, row.Quantity)
		if err != nil {
			return nil, fmt.Errorf("order %d: %w", i+1, err)
		}
		result.Orders++
		if placed.Allocated {
			result.Allocated++
		}
	}

	e.logger.Info().
		Int("components", result.Components).
		Int("products", result.Products).
		Int("orders", result.Orders).
		Int("allocated", result.Allocated).
		Msg("scenario seeded")
	return result, nil
}

func (e *Engine) defineNamed(
	ctx context.Context,
	row csv.ProductRow,
	componentIDs map[string]entities.ComponentID,
	productIDs map[string]entities.ProductID,
) (entities.ProductID, error) {
	components := make([]entities.ComponentLine, 0, len(row.Components))
	for _, line := range row.Components {
		name, err := entities.NormalizeName("component", line.Name)
		if err != nil {
			return 0, err
		}
		id, ok := componentIDs[name]
		if !ok {
			return 0, entities.NewValidationError("product", 0, "unknown component %q", line.Name)
		}
		components = append(components, entities.ComponentLine{ComponentID: id, Quantity: line.Quantity})
	}

	products := make([]entities.ProductLine, 0, len(row.Products))
	for _, line := range row.Products {
		name, _ := entities.NormalizeName("product", line.Name)
		products = append(products, entities.ProductLine{ChildProductID: productIDs[name], Quantity: line.Quantity})
	}

	created, err := e.Catalog.DefineProduct(ctx, row.Name, components, products)
	if err != nil {
		return 0, err
	}
	return created.ID, nil
}
