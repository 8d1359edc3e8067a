package testing

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/vsinha/stockmrp/pkg/domain/entities"
	"github.com/vsinha/stockmrp/pkg/infrastructure/events"
	"github.com/vsinha/stockmrp/pkg/infrastructure/repositories/memory"
)

// StepClock is a deterministic clock that advances by a fixed step on every read
type StepClock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

// NewStepClock creates a clock starting at start
func NewStepClock(start time.Time, step time.Duration) *StepClock {
	return &StepClock{now: start, step: step}
}

// Now returns the current reading and advances the clock
func (c *StepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	at := c.now
	c.now = c.now.Add(c.step)
	return at
}

// Catalog bundles the in-memory repositories a service test needs
type Catalog struct {
	Components *memory.ComponentLedger
	Products   *memory.ProductRepository
	Orders     *memory.OrderRepository
	Events     *events.InMemoryEventStore
	Clock      *StepClock
}

// NewCatalog creates empty repositories sharing a deterministic clock
func NewCatalog() *Catalog {
	clock := NewStepClock(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), time.Second)
	return &Catalog{
		Components: memory.NewComponentLedger(clock.Now),
		Products:   memory.NewProductRepository(clock.Now),
		Orders:     memory.NewOrderRepository(),
		Events:     events.NewInMemoryEventStore(zerolog.Nop()),
		Clock:      clock,
	}
}

// AddComponent stores a component directly in the ledger - panics on validation error
func (c *Catalog) AddComponent(name, spillage string, stock entities.Quantity) entities.ComponentID {
	s := decimal.Zero
	if spillage != "" {
		s = decimal.RequireFromString(spillage)
	}
	component, err := entities.NewComponent(name, s, stock)
	if err != nil {
		panic(err)
	}
	created, err := c.Components.Create(context.Background(), component)
	if err != nil {
		panic(err)
	}
	return created.ID
}

// AddProduct stores a product directly, bypassing reference and cycle checks - panics on validation error
func (c *Catalog) AddProduct(name string, components []entities.ComponentLine, products []entities.ProductLine) entities.ProductID {
	product, err := entities.NewProduct(name, entities.BOM{Components: components, Products: products})
	if err != nil {
		panic(err)
	}
	created, err := c.Products.Create(context.Background(), product)
	if err != nil {
		panic(err)
	}
	return created.ID
}

// AddOrder stores a pending order directly - panics on validation error
func (c *Catalog) AddOrder(productID entities.ProductID, qty entities.Quantity) entities.OrderID {
	order, err := entities.NewOrder(productID, qty, c.Clock.Now())
	if err != nil {
		panic(err)
	}
	created, err := c.Orders.Create(context.Background(), order)
	if err != nil {
		panic(err)
	}
	return created.ID
}

// Stock returns the current buckets of a component - panics if it does not exist
func (c *Catalog) Stock(id entities.ComponentID) entities.Component {
	component, err := c.Components.Get(context.Background(), id)
	if err != nil {
		panic(err)
	}
	return *component
}

// Components returns a component BOM from alternating id, quantity pairs
func Components(pairs ...int64) []entities.ComponentLine {
	lines := make([]entities.ComponentLine, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		lines = append(lines, entities.ComponentLine{ComponentID: entities.ComponentID(pairs[i]), Quantity: entities.Quantity(pairs[i+1])})
	}
	return lines
}

// Products returns a sub-product BOM from alternating id, quantity pairs
func Products(pairs ...int64) []entities.ProductLine {
	lines := make([]entities.ProductLine, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		lines = append(lines, entities.ProductLine{ChildProductID: entities.ProductID(pairs[i]), Quantity: entities.Quantity(pairs[i+1])})
	}
	return lines
}

// Bicycle holds the ids of the nested bicycle scenario
type Bicycle struct {
	SteelTube, Bolt, Rubber, Spoke entities.ComponentID
	Wheel, Frame, Bike             entities.ProductID
}

// BuildBicycleCatalog builds a two-level scenario:
//
//	Bike  = 1 Frame + 2 Wheel + 6 Bolt
//	Frame = 10 Steel Tube (10% spillage) + 4 Bolt
//	Wheel = 2 Rubber (5% spillage) + 36 Spoke (2% spillage)
func BuildBicycleCatalog() (*Catalog, Bicycle) {
	c := NewCatalog()
	var b Bicycle

	b.SteelTube = c.AddComponent("Steel Tube", "0.10", 100)
	b.Bolt = c.AddComponent("Bolt", "", 200)
	b.Rubber = c.AddComponent("Rubber", "0.05", 50)
	b.Spoke = c.AddComponent("Spoke", "0.02", 500)

	b.Frame = c.AddProduct("Frame", Components(int64(b.SteelTube), 10, int64(b.Bolt), 4), nil)
	b.Wheel = c.AddProduct("Wheel", Components(int64(b.Rubber), 2, int64(b.Spoke), 36), nil)
	b.Bike = c.AddProduct("Bike",
		Components(int64(b.Bolt), 6),
		Products(int64(b.Frame), 1, int64(b.Wheel), 2),
	)
	return c, b
}
