package procurement

import (
	"context"
	"math"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/stockmrp/pkg/application/dto"
	"github.com/vsinha/stockmrp/pkg/application/services/bom"
	"github.com/vsinha/stockmrp/pkg/application/services/orders"
	"github.com/vsinha/stockmrp/pkg/domain/entities"
	fixtures "github.com/vsinha/stockmrp/pkg/infrastructure/testing"
)

type harness struct {
	*fixtures.Catalog
	orders     *orders.Service
	aggregator *Aggregator
}

func newHarness(c *fixtures.Catalog) *harness {
	catalog := bom.NewService(c.Products, c.Components, c.Orders, c.Events, c.Clock.Now, zerolog.Nop())
	return &harness{
		Catalog:    c,
		orders:     orders.NewService(c.Orders, c.Products, c.Components, catalog, c.Events, c.Clock.Now, zerolog.Nop()),
		aggregator: NewAggregator(c.Orders, c.Components, catalog, c.Clock.Now, zerolog.Nop()),
	}
}

func TestNeeds_NoPendingOrders(t *testing.T) {
	c, _ := fixtures.BuildBicycleCatalog()
	report, err := newHarness(c).aggregator.Needs(context.Background())
	require.NoError(t, err)
	assert.Empty(t, report.Items)
	assert.NotNil(t, report.Items)
	assert.Zero(t, report.TotalItems)
	assert.Zero(t, report.PendingOrders)
}

func TestNeeds_SumsPerOrderShortages(t *testing.T) {
	c := fixtures.NewCatalog()
	a := c.AddComponent("A", "0.10", 50)
	b := c.AddComponent("B", "", 1000)
	p := c.AddProduct("P", fixtures.Components(int64(a), 10, int64(b), 1), nil)
	q := c.AddProduct("Q", fixtures.Components(int64(a), 2), nil)
	h := newHarness(c)
	ctx := context.Background()

	// 55 A each; a single order is already short by 5
	first := c.AddOrder(p, 5)
	c.AddOrder(p, 5)
	// 2.2 A -> 3 A, not short on its own
	c.AddOrder(q, 1)

	report, err := h.aggregator.Needs(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, report.PendingOrders)
	require.Equal(t, 1, report.TotalItems)
	assert.Equal(t, dto.ProcurementLine{
		ComponentID:    a,
		ComponentName:  "A",
		InStock:        50,
		TotalNeeded:    113,
		Shortage:       10,
		OrdersAffected: 2,
	}, report.Items[0])

	// the sum matches what each order's preview reports
	var fromPreviews entities.Quantity
	for _, o := range []entities.OrderID{first, first + 1, first + 2} {
		reqs, err := h.orders.ComputeRequirements(ctx, o)
		require.NoError(t, err)
		for _, line := range reqs.Requirements {
			if line.ComponentID == a {
				fromPreviews += line.Shortage
			}
		}
	}
	assert.Equal(t, report.Items[0].Shortage, fromPreviews)
}

func TestNeeds_IgnoresAllocatedOrdersAndRecomputes(t *testing.T) {
	c, bike := fixtures.BuildBicycleCatalog()
	h := newHarness(c)
	ctx := context.Background()

	// allocates, so it no longer counts
	_, err := h.orders.CreateOrder(ctx, bike.Wheel, 1)
	require.NoError(t, err)
	pendingResult, err := h.orders.CreateOrder(ctx, bike.Bike, 10)
	require.NoError(t, err)
	require.False(t, pendingResult.Allocated)

	report, err := h.aggregator.Needs(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.PendingOrders)

	short := make(map[entities.ComponentID]entities.Quantity)
	for _, line := range report.Items {
		short[line.ComponentID] = line.Shortage
	}
	// after the wheel: Steel 100, Bolt 200, Rubber 47, Spoke 463
	// bike x10 needs Steel 110, Bolt 100, Rubber 42, Spoke 735
	assert.Equal(t, map[entities.ComponentID]entities.Quantity{
		bike.SteelTube: 10,
		bike.Spoke:     272,
	}, short)

	// a receipt is reflected on the next call
	_, err = c.Components.Update(ctx, bike.Spoke, func(comp *entities.Component) error {
		return comp.AdjustStock(272)
	})
	require.NoError(t, err)

	report, err = h.aggregator.Needs(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, report.TotalItems)
	assert.Equal(t, bike.SteelTube, report.Items[0].ComponentID)
}

func TestNeeds_CombinedTotalOutOfRange(t *testing.T) {
	c := fixtures.NewCatalog()
	a := c.AddComponent("A", "0", 0)
	p := c.AddProduct("P", fixtures.Components(int64(a), 1), nil)
	h := newHarness(c)

	// each order fits on its own, the two together do not
	c.AddOrder(p, math.MaxInt64/2+1)
	c.AddOrder(p, math.MaxInt64/2+1)

	_, err := h.aggregator.Needs(context.Background())
	require.ErrorIs(t, err, entities.ErrValidation)
	assert.ErrorContains(t, err, "combined requirement")
}
