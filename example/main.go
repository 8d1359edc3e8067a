package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/vsinha/stockmrp/pkg/domain/entities"
	"github.com/vsinha/stockmrp/pkg/engine"
	"github.com/vsinha/stockmrp/pkg/infrastructure/config"
)

func main() {
	ctx := context.Background()

	e, err := engine.New(*config.Default(), engine.WithoutAudit())
	if err != nil {
		fmt.Printf("❌ engine: %v\n", err)
		return
	}
	defer e.Close()

	bike, spoke, err := setupBicycle(ctx, e)
	if err != nil {
		fmt.Printf("❌ catalog: %v\n", err)
		return
	}

	// Exploded BOM per bike
	detail, err := e.Catalog.ProductDetail(ctx, bike)
	if err != nil {
		fmt.Printf("❌ explode: %v\n", err)
		return
	}
	fmt.Println("🚲 Exploded BOM for one Bike:")
	for _, line := range detail.Exploded {
		fmt.Printf("  %-12s %s\n", line.ComponentName, line.PerUnit.String())
	}
	fmt.Println()

	capacity, err := e.Capacity.CapacityOf(ctx, bike)
	if err != nil {
		fmt.Printf("❌ capacity: %v\n", err)
		return
	}
	fmt.Printf("📊 Stock can build %d bikes (limited by %s)\n\n", capacity.MaxProducible, capacity.LimitingComponentName)

	// Order more than stock allows; it stays pending
	result, err := e.OrderFlow.CreateOrder(ctx, bike, 8)
	if err != nil {
		fmt.Printf("❌ order: %v\n", err)
		return
	}
	order := result.Order.ID
	fmt.Printf("📝 Order #%d for 8 bikes: %s\n", order, result.Order.Status)
	for _, s := range result.Shortages {
		fmt.Printf("  ⚠️  component #%d: need %d, have %d (short %d)\n", s.ComponentID, s.Needed, s.Available, s.Shortage)
	}
	fmt.Println()

	report, err := e.Procurement.Needs(ctx)
	if err != nil {
		fmt.Printf("❌ procurement: %v\n", err)
		return
	}
	fmt.Println("🛒 Components to order:")
	for _, item := range report.Items {
		fmt.Printf("  %-12s short %d\n", item.ComponentName, item.Shortage)
	}
	fmt.Println()

	// Receive the missing spokes and retry
	for _, item := range report.Items {
		if _, err := e.Inventory.AdjustStock(ctx, item.ComponentID, item.Shortage); err != nil {
			fmt.Printf("❌ adjust stock: %v\n", err)
			return
		}
	}
	if _, err := e.OrderFlow.Allocate(ctx, order); err != nil {
		if errors.Is(err, entities.ErrInsufficientStock) {
			fmt.Printf("⚠️  still short: %v\n", err)
		} else {
			fmt.Printf("❌ allocate: %v\n", err)
		}
		return
	}
	reserved, _ := e.Inventory.GetComponent(ctx, spoke)
	fmt.Printf("📦 Order #%d allocated; spokes in stock %d, in progress %d\n", order, reserved.InStock, reserved.InProgress)

	if _, err := e.OrderFlow.Complete(ctx, order); err != nil {
		fmt.Printf("❌ complete: %v\n", err)
		return
	}
	shipped, _ := e.Inventory.GetComponent(ctx, spoke)
	fmt.Printf("✅ Order #%d completed; spokes shipped %d\n", order, shipped.Shipped)
}

// setupBicycle defines
//
//	Bike  = 1 Frame + 2 Wheel + 6 Bolt
//	Frame = 10 Steel Tube (10% spillage) + 4 Bolt
//	Wheel = 2 Rubber (5% spillage) + 36 Spoke (2% spillage)
func setupBicycle(ctx context.Context, e *engine.Engine) (bike entities.ProductID, spoke entities.ComponentID, err error) {
	ids := map[string]entities.ComponentID{}
	for _, c := range []struct {
		name     string
		spillage string
		stock    entities.Quantity
	}{
		{"Steel Tube", "0.10", 100},
		{"Bolt", "0", 200},
		{"Rubber", "0.05", 50},
		{"Spoke", "0.02", 500},
	} {
		created, err := e.Inventory.CreateComponent(ctx, c.name, decimal.RequireFromString(c.spillage), c.stock)
		if err != nil {
			return 0, 0, err
		}
		ids[c.name] = created.ID
	}

	frame, err := e.Catalog.DefineProduct(ctx, "Frame", []entities.ComponentLine{
		{ComponentID: ids["Steel Tube"], Quantity: 10},
		{ComponentID: ids["Bolt"], Quantity: 4},
	}, nil)
	if err != nil {
		return 0, 0, err
	}
	wheel, err := e.Catalog.DefineProduct(ctx, "Wheel", []entities.ComponentLine{
		{ComponentID: ids["Rubber"], Quantity: 2},
		{ComponentID: ids["Spoke"], Quantity: 36},
	}, nil)
	if err != nil {
		return 0, 0, err
	}
	b, err := e.Catalog.DefineProduct(ctx, "Bike",
		[]entities.ComponentLine{{ComponentID: ids["Bolt"], Quantity: 6}},
		[]entities.ProductLine{{ChildProductID: frame.ID, Quantity: 1}, {ChildProductID: wheel.ID, Quantity: 2}},
	)
	if err != nil {
		return 0, 0, err
	}
	return b.ID, ids["Spoke"], nil
}
