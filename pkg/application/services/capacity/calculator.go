package capacity

import (
	"context"
	"errors"
	"iter"
	"sync"

	"github.com/rs/zerolog"

	"github.com/vsinha/stockmrp/pkg/application/dto"
	"github.com/vsinha/stockmrp/pkg/application/services/bom"
	"github.com/vsinha/stockmrp/pkg/domain/entities"
)

// Calculator computes how many whole units of each product current stock can build
type Calculator struct {
	catalog *bom.Service
	logger  zerolog.Logger
}

// NewCalculator creates a capacity calculator
func NewCalculator(catalog *bom.Service, logger zerolog.Logger) *Calculator {
	return &Calculator{
		catalog: catalog,
		logger:  logger.With().Str("service", "capacity").Logger(),
	}
}

// CapacityOf returns the producible units of one product and the component that bounds it.
// Ties go to the lowest component id.
func (c *Calculator) CapacityOf(ctx context.Context, id entities.ProductID) (dto.ProductCapacity, error) {
	exp, err := c.catalog.Explode(ctx, id)
	if err != nil {
		return dto.ProductCapacity{}, err
	}
	return fromExplosion(exp)
}

func fromExplosion(exp *bom.Explosion) (dto.ProductCapacity, error) {
	result := dto.ProductCapacity{
		ProductID:   exp.Product.ID,
		ProductName: exp.Product.Name,
		InProgress:  exp.Product.InProgress,
		Shipped:     exp.Product.Shipped,
	}

	bounded := false
	for _, cid := range exp.PerUnit.ComponentIDs() {
		perUnit := exp.PerUnit[cid]
		if !perUnit.IsPositive() {
			continue
		}
		component := exp.Components[cid]
		units := entities.FloorDiv(component.InStock, perUnit)
		if !bounded || units < result.MaxProducible {
			bounded = true
			result.MaxProducible = units
			limiting := cid
			result.LimitingComponentID = &limiting
			result.LimitingComponentName = component.Name
		}
	}

	if !bounded {
		return dto.ProductCapacity{}, entities.NewIntegrityError("product", int64(exp.Product.ID),
			"product has no positive component requirement")
	}
	return result, nil
}

// CapacityOfAll yields the capacity of every product in id order. Each product is
// exploded against its own snapshot; products removed while iterating are skipped.
func (c *Calculator) CapacityOfAll(ctx context.Context) iter.Seq2[dto.ProductCapacity, error] {
	return func(yield func(dto.ProductCapacity, error) bool) {
		products, err := c.catalog.ListProducts(ctx)
		if err != nil {
			yield(dto.ProductCapacity{}, err)
			return
		}
		for _, p := range products {
			if err := ctx.Err(); err != nil {
				yield(dto.ProductCapacity{}, err)
				return
			}
			row, err := c.CapacityOf(ctx, p.ID)
			if errors.Is(err, entities.ErrNotFound) {
				continue
			}
			if !yield(row, err) {
				return
			}
		}
	}
}

// Report computes the capacity of every product using up to workers goroutines.
// Rows come back in product id order.
func (c *Calculator) Report(ctx context.Context, workers int) ([]dto.ProductCapacity, error) {
	products, err := c.catalog.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	if workers < 1 {
		workers = 1
	}

	rows := make([]dto.ProductCapacity, len(products))
	found := make([]bool, len(products))
	errs := make([]error, len(products))

	jobs := make(chan int)
	var wg sync.WaitGroup
	for range min(workers, max(len(products), 1)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				row, err := c.CapacityOf(ctx, products[i].ID)
				switch {
				case errors.Is(err, entities.ErrNotFound):
				case err != nil:
					errs[i] = err
				default:
					rows[i] = row
					found[i] = true
				}
			}
		}()
	}

	for i := range products {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	out := make([]dto.ProductCapacity, 0, len(rows))
	for i, row := range rows {
		if found[i] {
			out = append(out, row)
		}
	}
	c.logger.Debug().Int("products", len(out)).Int("workers", workers).Msg("capacity report computed")
	return out, nil
}
