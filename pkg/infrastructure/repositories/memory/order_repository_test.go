package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/stockmrp/pkg/domain/entities"
)

func TestOrderRepository_StatusQueries(t *testing.T) {
	ctx := context.Background()
	repo := NewOrderRepository()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	for _, pid := range []entities.ProductID{1, 2, 1} {
		o, err := entities.NewOrder(pid, 2, now)
		require.NoError(t, err)
		_, err = repo.Create(ctx, o)
		require.NoError(t, err)
	}

	_, err := repo.Update(ctx, 2, func(o *entities.Order) error {
		return o.MarkAllocated([]entities.Allocation{{ComponentID: 1, Quantity: 4}})
	})
	require.NoError(t, err)

	pending, err := repo.ListByStatus(ctx, entities.OrderPending)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, entities.OrderID(1), pending[0].ID)
	assert.Equal(t, entities.OrderID(3), pending[1].ID)

	count, err := repo.CountByProduct(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	_, err = repo.Update(ctx, 2, func(o *entities.Order) error {
		return o.MarkAllocated([]entities.Allocation{{ComponentID: 1, Quantity: 4}})
	})
	assert.ErrorIs(t, err, entities.ErrInvalidState)

	_, err = repo.Get(ctx, 99)
	assert.ErrorIs(t, err, entities.ErrNotFound)
}

func TestOrderRepository_UpdateSerializesPerOrder(t *testing.T) {
	ctx := context.Background()
	repo := NewOrderRepository()
	o, err := entities.NewOrder(1, 1, time.Now())
	require.NoError(t, err)
	created, err := repo.Create(ctx, o)
	require.NoError(t, err)

	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Update(ctx, created.ID, func(o *entities.Order) error {
				return o.MarkAllocated([]entities.Allocation{{ComponentID: 1, Quantity: 1}})
			})
			if err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins, "exactly one transition out of pending")
}

func TestOrderRepository_RestoreRejectsAllocatedWithoutAllocations(t *testing.T) {
	repo := NewOrderRepository()
	err := repo.Restore([]entities.Order{{ID: 1, ProductID: 1, Quantity: 1, Status: entities.OrderInProgress}})
	assert.ErrorIs(t, err, entities.ErrIntegrity)
}
