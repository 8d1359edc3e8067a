package procurement

import (
	"cmp"
	"context"
	"slices"

	"github.com/rs/zerolog"

	"github.com/vsinha/stockmrp/pkg/application/dto"
	"github.com/vsinha/stockmrp/pkg/application/services/bom"
	"github.com/vsinha/stockmrp/pkg/application/services/shared"
	"github.com/vsinha/stockmrp/pkg/domain/entities"
	"github.com/vsinha/stockmrp/pkg/domain/repositories"
)

// Aggregator reports what must be procured to cover every pending order
type Aggregator struct {
	orders  repositories.OrderRepository
	ledger  repositories.ComponentLedger
	catalog *bom.Service
	clock   entities.Clock
	logger  zerolog.Logger
}

// NewAggregator creates a procurement aggregator
func NewAggregator(
	orders repositories.OrderRepository,
	ledger repositories.ComponentLedger,
	catalog *bom.Service,
	clock entities.Clock,
	logger zerolog.Logger,
) *Aggregator {
	if clock == nil {
		clock = entities.SystemClock
	}
	return &Aggregator{
		orders:  orders,
		ledger:  ledger,
		catalog: catalog,
		clock:   clock,
		logger:  logger.With().Str("service", "procurement").Logger(),
	}
}

// Needs sums, per component, the shortage each pending order would report on its own.
// Every order is compared against the same ledger snapshot.
func (a *Aggregator) Needs(ctx context.Context) (*dto.ProcurementReport, error) {
	pending, err := a.orders.ListByStatus(ctx, entities.OrderPending)
	if err != nil {
		return nil, err
	}

	report := &dto.ProcurementReport{
		Items:         make([]dto.ProcurementLine, 0),
		PendingOrders: len(pending),
		GeneratedAt:   a.clock(),
	}
	if len(pending) == 0 {
		return report, nil
	}

	// Step 1: explode each distinct product once
	perUnit := make(map[entities.ProductID]shared.RequirementMap)
	var componentIDs []entities.ComponentID
	for _, o := range pending {
		if _, done := perUnit[o.ProductID]; done {
			continue
		}
		exp, err := a.catalog.Explode(ctx, o.ProductID)
		if err != nil {
			return nil, err
		}
		perUnit[o.ProductID] = exp.PerUnit
		componentIDs = append(componentIDs, exp.PerUnit.ComponentIDs()...)
	}

	// Step 2: one consistent read of every component involved
	stock, err := a.ledger.Snapshot(ctx, componentIDs)
	if err != nil {
		return nil, err
	}

	// Step 3: per-order shortages against that snapshot
	lines := make(map[entities.ComponentID]*dto.ProcurementLine)
	for _, o := range pending {
		needs, err := perUnit[o.ProductID].WholeUnits(o.Quantity)
		if err != nil {
			return nil, err
		}
		for cid, needed := range needs {
			c := stock[cid]
			line, ok := lines[cid]
			if !ok {
				line = &dto.ProcurementLine{ComponentID: cid, ComponentName: c.Name, InStock: c.InStock}
				lines[cid] = line
			}
			if line.TotalNeeded, ok = entities.AddQuantity(line.TotalNeeded, needed); !ok {
				return nil, totalOutOfRange(cid)
			}
			if shortage := needed - c.InStock; shortage > 0 {
				if line.Shortage, ok = entities.AddQuantity(line.Shortage, shortage); !ok {
					return nil, totalOutOfRange(cid)
				}
				line.OrdersAffected++
			}
		}
	}

	for _, line := range lines {
		if line.Shortage > 0 {
			report.Items = append(report.Items, *line)
		}
	}
	slices.SortFunc(report.Items, func(x, y dto.ProcurementLine) int {
		return cmp.Compare(x.ComponentID, y.ComponentID)
	})
	report.TotalItems = len(report.Items)

	a.logger.Debug().
		Int("pending_orders", report.PendingOrders).
		Int("short_components", report.TotalItems).
		Msg("procurement needs computed")
	return report, nil
}

func totalOutOfRange(cid entities.ComponentID) error {
	return entities.NewValidationError("component", int64(cid),
		"combined requirement of pending orders exceeds the largest supported quantity")
}
