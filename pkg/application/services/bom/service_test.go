package bom

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/stockmrp/pkg/application/services/shared"
	"github.com/vsinha/stockmrp/pkg/domain/entities"
	"github.com/vsinha/stockmrp/pkg/infrastructure/events"
	fixtures "github.com/vsinha/stockmrp/pkg/infrastructure/testing"
)

func newService(c *fixtures.Catalog) *Service {
	return NewService(c.Products, c.Components, c.Orders, c.Events, c.Clock.Now, zerolog.Nop())
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestExplode_SingleLevelSpillage(t *testing.T) {
	c := fixtures.NewCatalog()
	a := c.AddComponent("A", "0.10", 100)
	svc := newService(c)

	p, err := svc.DefineProduct(context.Background(), "P", fixtures.Components(int64(a), 10), nil)
	require.NoError(t, err)

	exp, err := svc.Explode(context.Background(), p.ID)
	require.NoError(t, err)
	assert.True(t, exp.PerUnit[a].Equal(d("11")), "10 × 1.10 = 11, got %s", exp.PerUnit[a])
	assert.Equal(t, entities.Quantity(100), exp.Components[a].InStock)
}

func TestExplode_NestedBicycle(t *testing.T) {
	c, b := fixtures.BuildBicycleCatalog()
	svc := newService(c)

	exp, err := svc.Explode(context.Background(), b.Bike)
	require.NoError(t, err)

	want := shared.RequirementMap{
		b.SteelTube: d("11"),
		b.Bolt:      d("10"),
		b.Rubber:    d("4.2"),
		b.Spoke:     d("73.44"),
	}
	assert.True(t, want.Equal(exp.PerUnit), "got %s", exp.PerUnit)
	assert.Contains(t, exp.SubProducts, b.Frame)
	assert.Contains(t, exp.SubProducts, b.Wheel)
}

func TestExplode_AssociativeAcrossNesting(t *testing.T) {
	c := fixtures.NewCatalog()
	x := c.AddComponent("X", "0.25", 0)
	y := c.AddComponent("Y", "", 0)
	svc := newService(c)
	ctx := context.Background()

	// flat: 6 X + 2 Y
	flat, err := svc.DefineProduct(ctx, "Flat", fixtures.Components(int64(x), 6, int64(y), 2), nil)
	require.NoError(t, err)

	// nested: 2 × (1 Inner) + 2 X, Inner = 2 X + 1 Y
	inner, err := svc.DefineProduct(ctx, "Inner", fixtures.Components(int64(x), 2, int64(y), 1), nil)
	require.NoError(t, err)
	nested, err := svc.DefineProduct(ctx, "Nested", fixtures.Components(int64(x), 2), fixtures.Products(int64(inner.ID), 2))
	require.NoError(t, err)

	a, err := svc.Explode(ctx, flat.ID)
	require.NoError(t, err)
	b, err := svc.Explode(ctx, nested.ID)
	require.NoError(t, err)
	assert.True(t, a.PerUnit.Equal(b.PerUnit), "flat %s vs nested %s", a.PerUnit, b.PerUnit)
}

func TestExplode_SharedSubProductCountedPerPath(t *testing.T) {
	c := fixtures.NewCatalog()
	x := c.AddComponent("X", "", 0)
	svc := newService(c)
	ctx := context.Background()

	leaf, err := svc.DefineProduct(ctx, "Leaf", fixtures.Components(int64(x), 1), nil)
	require.NoError(t, err)
	left, err := svc.DefineProduct(ctx, "Left", nil, fixtures.Products(int64(leaf.ID), 2))
	require.NoError(t, err)
	right, err := svc.DefineProduct(ctx, "Right", nil, fixtures.Products(int64(leaf.ID), 3))
	require.NoError(t, err)
	top, err := svc.DefineProduct(ctx, "Top", nil, fixtures.Products(int64(left.ID), 1, int64(right.ID), 1))
	require.NoError(t, err)

	exp, err := svc.Explode(ctx, top.ID)
	require.NoError(t, err)
	assert.True(t, exp.PerUnit[x].Equal(d("5")))
}

func TestExplode_CycleInStoredDataIsIntegrityError(t *testing.T) {
	c := fixtures.NewCatalog()
	x := c.AddComponent("X", "", 0)
	p1 := c.AddProduct("P1", fixtures.Components(int64(x), 1), nil)
	p2 := c.AddProduct("P2", nil, fixtures.Products(int64(p1), 1))
	// corrupt the graph behind the service's back
	_, err := c.Products.Update(context.Background(), p1, func(p *entities.Product) error {
		p.BOM.Products = fixtures.Products(int64(p2), 1)
		return nil
	})
	require.NoError(t, err)

	_, err = newService(c).Explode(context.Background(), p2)
	assert.ErrorIs(t, err, entities.ErrIntegrity)
}

func TestDefineProduct_Validation(t *testing.T) {
	c := fixtures.NewCatalog()
	x := c.AddComponent("X", "", 0)
	svc := newService(c)
	ctx := context.Background()

	_, err := svc.DefineProduct(ctx, "Widget", fixtures.Components(int64(x), 1), nil)
	require.NoError(t, err)

	tests := []struct {
		name       string
		product    string
		components []entities.ComponentLine
		products   []entities.ProductLine
	}{
		{"duplicate_name", "Widget", fixtures.Components(int64(x), 1), nil},
		{"duplicate_name_after_normalization", "  Widget ", fixtures.Components(int64(x), 1), nil},
		{"empty_name", " ", fixtures.Components(int64(x), 1), nil},
		{"empty_bom", "Empty", nil, nil},
		{"missing_component", "Ghost", fixtures.Components(99, 1), nil},
		{"missing_product", "Orphan", nil, fixtures.Products(99, 1)},
		{"repeated_component", "Twice", fixtures.Components(int64(x), 1, int64(x), 2), nil},
		{"zero_quantity", "Zero", fixtures.Components(int64(x), 0), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.DefineProduct(ctx, tt.product, tt.components, tt.products)
			assert.ErrorIs(t, err, entities.ErrValidation)
		})
	}
}

func TestUpdateProductBOM_RejectsCycleAndKeepsPriorBOM(t *testing.T) {
	c, b := fixtures.BuildBicycleCatalog()
	svc := newService(c)
	ctx := context.Background()

	// Wheel -> Bike would close Bike -> Wheel -> Bike
	_, err := svc.UpdateProductBOM(ctx, b.Wheel, fixtures.Components(int64(b.Rubber), 2), fixtures.Products(int64(b.Bike), 1))
	require.ErrorIs(t, err, entities.ErrValidation)
	assert.Contains(t, err.Error(), "cycle")

	// self reference
	_, err = svc.UpdateProductBOM(ctx, b.Frame, nil, fixtures.Products(int64(b.Frame), 1))
	assert.ErrorIs(t, err, entities.ErrValidation)

	wheel, err := svc.GetProduct(ctx, b.Wheel)
	require.NoError(t, err)
	assert.Equal(t, fixtures.Components(int64(b.Rubber), 2, int64(b.Spoke), 36), wheel.BOM.Components)
	assert.Empty(t, wheel.BOM.Products)

	// a legal edit replaces both lists
	updated, err := svc.UpdateProductBOM(ctx, b.Wheel, fixtures.Components(int64(b.Spoke), 32), nil)
	require.NoError(t, err)
	assert.Equal(t, fixtures.Components(int64(b.Spoke), 32), updated.BOM.Components)

	exp, err := svc.Explode(ctx, b.Bike)
	require.NoError(t, err)
	_, hasRubber := exp.PerUnit[b.Rubber]
	assert.False(t, hasRubber)
}

func TestRemoveProduct_Guards(t *testing.T) {
	c, b := fixtures.BuildBicycleCatalog()
	svc := newService(c)
	ctx := context.Background()

	err := svc.RemoveProduct(ctx, b.Frame)
	assert.ErrorIs(t, err, entities.ErrConflict, "Frame is a sub-product of Bike")

	c.AddOrder(b.Bike, 1)
	err = svc.RemoveProduct(ctx, b.Bike)
	assert.ErrorIs(t, err, entities.ErrConflict, "Bike has orders")

	standalone := c.AddProduct("Standalone", fixtures.Components(int64(b.Bolt), 1), nil)
	_, err = c.Products.Update(ctx, standalone, func(p *entities.Product) error { return p.AdjustCounters(0, 2) })
	require.NoError(t, err)
	assert.ErrorIs(t, svc.RemoveProduct(ctx, standalone), entities.ErrConflict, "shipped units")

	spare := c.AddProduct("Spare", fixtures.Components(int64(b.Bolt), 1), nil)
	require.NoError(t, svc.RemoveProduct(ctx, spare))
	_, err = svc.GetProduct(ctx, spare)
	assert.ErrorIs(t, err, entities.ErrNotFound)
}

func TestRemoveComponent_Guards(t *testing.T) {
	c, b := fixtures.BuildBicycleCatalog()
	svc := newService(c)
	ctx := context.Background()

	err := svc.RemoveComponent(ctx, b.Bolt)
	require.ErrorIs(t, err, entities.ErrConflict)
	assert.Contains(t, err.Error(), "used by products")

	unused := c.AddComponent("Unused", "", 3)
	require.NoError(t, svc.RemoveComponent(ctx, unused))
	assert.ErrorIs(t, svc.RemoveComponent(ctx, unused), entities.ErrNotFound)
}

func TestProductDetail(t *testing.T) {
	c, b := fixtures.BuildBicycleCatalog()
	svc := newService(c)

	detail, err := svc.ProductDetail(context.Background(), b.Frame)
	require.NoError(t, err)

	assert.Equal(t, "Frame", detail.Name)
	require.Len(t, detail.Components, 2)
	assert.Equal(t, "Steel Tube", detail.Components[0].ComponentName)
	assert.True(t, detail.Components[0].QuantityWithSpillage.Equal(d("11")))
	assert.Empty(t, detail.SubProducts)
	require.Len(t, detail.Exploded, 2)
	assert.Equal(t, b.SteelTube, detail.Exploded[0].ComponentID)

	bike, err := svc.ProductDetail(context.Background(), b.Bike)
	require.NoError(t, err)
	require.Len(t, bike.SubProducts, 2)
	assert.Equal(t, "Wheel", bike.SubProducts[1].ProductName)
}

func TestRenameProduct(t *testing.T) {
	c, b := fixtures.BuildBicycleCatalog()
	svc := newService(c)
	ctx := context.Background()

	_, err := svc.RenameProduct(ctx, b.Frame, "Wheel")
	assert.ErrorIs(t, err, entities.ErrValidation)

	renamed, err := svc.RenameProduct(ctx, b.Frame, "Road Frame")
	require.NoError(t, err)
	assert.Equal(t, "Road Frame", renamed.Name)

	c.Events.Flush()
	stream, err := c.Events.ReadEvents(events.ProductStream(b.Frame), 0)
	require.NoError(t, err)
	require.Len(t, stream, 1)
	assert.Equal(t, events.ProductUpdatedEvent, stream[0].Type())
}

func TestValidate(t *testing.T) {
	c, _ := fixtures.BuildBicycleCatalog()
	result, err := newService(c).Validate(context.Background())
	require.NoError(t, err)
	assert.True(t, result.Valid(), "%v", result.Errors)
}
