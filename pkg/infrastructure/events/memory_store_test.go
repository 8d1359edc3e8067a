package events

import (
	"bytes"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/stockmrp/pkg/domain/entities"
)

type recordingHandler struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (h *recordingHandler) CanHandle(string) bool { return true }

func (h *recordingHandler) Handle(e Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, e)
	return h.err
}

func TestInMemoryEventStore_AppendAndRead(t *testing.T) {
	store := NewInMemoryEventStore(zerolog.Nop())
	at := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	c := entities.Component{ID: 3, Name: "Bolt", InStock: 10}
	require.NoError(t, store.AppendEvent(ComponentStream(3), NewComponentEvent(ComponentCreatedEvent, c, at)))
	require.NoError(t, store.AppendEvent(ComponentStream(3), NewStockAdjustedEvent(c, 5, at)))
	require.NoError(t, store.AppendEvent(OrderStream(1), NewOrderEvent(OrderCreatedEvent, entities.Order{ID: 1}, at)))

	stream, err := store.ReadEvents("component-3", 0)
	require.NoError(t, err)
	require.Len(t, stream, 2)
	assert.Equal(t, 1, stream[0].Version())
	assert.Equal(t, 2, stream[1].Version())
	assert.Equal(t, StockAdjustedEvent, stream[1].Type())
	assert.NotEmpty(t, stream[1].ID())

	tail, err := store.ReadEvents("component-3", 2)
	require.NoError(t, err)
	assert.Len(t, tail, 1)

	all, err := store.ReadAllEvents(1)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestInMemoryEventStore_HistoryIsBounded(t *testing.T) {
	store := NewInMemoryEventStore(zerolog.Nop(), WithHistory(3))
	at := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	c := entities.Component{ID: 3, Name: "Bolt"}
	for i := range 5 {
		require.NoError(t, store.AppendEvent(ComponentStream(3), NewStockAdjustedEvent(c, entities.Quantity(i+1), at)))
	}

	stream, err := store.ReadEvents(ComponentStream(3), 0)
	require.NoError(t, err)
	require.Len(t, stream, 3)
	assert.Equal(t, 3, stream[0].Version())
	assert.Equal(t, 5, stream[2].Version(), "versions keep counting past dropped events")

	tail, err := store.ReadEvents(ComponentStream(3), 5)
	require.NoError(t, err)
	require.Len(t, tail, 1)
	assert.Equal(t, 5, tail[0].Version())

	empty, err := store.ReadEvents(ComponentStream(3), 6)
	require.NoError(t, err)
	assert.Empty(t, empty)

	all, err := store.ReadAllEvents(0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	// absolute position 3 is the fourth event ever appended
	fromFourth, err := store.ReadAllEvents(3)
	require.NoError(t, err)
	require.Len(t, fromFourth, 2)
	assert.Equal(t, 4, fromFourth[0].Version())
}

func TestInMemoryEventStore_SubscribersAndFlush(t *testing.T) {
	var buf bytes.Buffer
	store := NewInMemoryEventStore(zerolog.New(&buf))
	handler := &recordingHandler{err: errors.New("boom")}
	require.NoError(t, store.Subscribe([]string{OrderCompletedEvent}, handler))

	at := time.Now()
	Publish(store, NewOrderEvent(OrderCompletedEvent, entities.Order{ID: 7}, at))
	Publish(store, NewOrderEvent(OrderCreatedEvent, entities.Order{ID: 8}, at))
	store.Flush()

	handler.mu.Lock()
	assert.Len(t, handler.events, 1)
	handler.mu.Unlock()
	assert.Contains(t, buf.String(), "event handler failed")

	require.NoError(t, store.Unsubscribe(handler))
	Publish(store, NewOrderEvent(OrderCompletedEvent, entities.Order{ID: 9}, at))
	store.Flush()
	handler.mu.Lock()
	assert.Len(t, handler.events, 1)
	handler.mu.Unlock()

	// nil publisher is a no-op
	Publish(nil, NewOrderEvent(OrderCreatedEvent, entities.Order{ID: 1}, at))
}

func TestAuditLogHandler(t *testing.T) {
	var buf bytes.Buffer
	h := NewAuditLogHandler(zerolog.New(&buf))

	order := entities.Order{ID: 4, ProductID: 2, Quantity: 5, Status: entities.OrderInProgress}
	require.NoError(t, h.Handle(NewOrderEvent(OrderAllocatedEvent, order, time.Now())))

	out := buf.String()
	assert.Contains(t, out, `"event_type":"order.allocated"`)
	assert.Contains(t, out, `"status":"in_progress"`)
	assert.Contains(t, out, `"stream":"order-4"`)
}
