package events

import (
	"sync"

	"github.com/rs/zerolog"
)

// DefaultHistory is how many events the store keeps, overall and per stream
const DefaultHistory = 10000

// InMemoryEventStore keeps the most recent events in memory and notifies subscribers asynchronously.
// Positions and versions keep counting after old events are dropped.
type InMemoryEventStore struct {
	streams     map[string][]Event
	versions    map[string]int
	subscribers map[string][]EventHandler
	mutex       sync.RWMutex
	position    int
	dropped     int
	allEvents   []Event
	history     int
	pending     sync.WaitGroup
	logger      zerolog.Logger
}

// StoreOption configures an InMemoryEventStore
type StoreOption func(*InMemoryEventStore)

// WithHistory bounds the retained events; n <= 0 keeps DefaultHistory
func WithHistory(n int) StoreOption {
	return func(s *InMemoryEventStore) {
		if n > 0 {
			s.history = n
		}
	}
}

func NewInMemoryEventStore(logger zerolog.Logger, opts ...StoreOption) *InMemoryEventStore {
	s := &InMemoryEventStore{
		streams:     make(map[string][]Event),
		versions:    make(map[string]int),
		subscribers: make(map[string][]EventHandler),
		allEvents:   make([]Event, 0),
		history:     DefaultHistory,
		logger:      logger.With().Str("component", "event_store").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ EventStore = (*InMemoryEventStore)(nil)

func (s *InMemoryEventStore) AppendEvent(streamID string, event Event) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	eventWithVersion := BaseEvent{
		EventID:      event.ID(),
		EventType:    event.Type(),
		Stream:       streamID,
		EventData:    event.Data(),
		EventTime:    event.Timestamp(),
		EventVersion: s.versions[streamID] + 1,
	}
	s.versions[streamID]++

	// reslicing lets append reallocate with only the retained tail
	stream := append(s.streams[streamID], eventWithVersion)
	if len(stream) > s.history {
		stream = stream[len(stream)-s.history:]
	}
	s.streams[streamID] = stream

	s.allEvents = append(s.allEvents, eventWithVersion)
	if over := len(s.allEvents) - s.history; over > 0 {
		s.allEvents = s.allEvents[over:]
		s.dropped += over
	}
	s.position++

	handlers := append([]EventHandler(nil), s.subscribers[event.Type()]...)
	s.notifySubscribers(handlers, eventWithVersion)

	return nil
}

func (s *InMemoryEventStore) ReadEvents(streamID string, fromVersion int) ([]Event, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	events, exists := s.streams[streamID]
	if !exists || len(events) == 0 {
		return []Event{}, nil
	}

	start := max(fromVersion-events[0].Version(), 0)
	if start >= len(events) {
		return []Event{}, nil
	}

	return append([]Event(nil), events[start:]...), nil
}

func (s *InMemoryEventStore) ReadAllEvents(fromPosition int) ([]Event, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	start := max(fromPosition-s.dropped, 0)
	if start >= len(s.allEvents) {
		return []Event{}, nil
	}

	return append([]Event(nil), s.allEvents[start:]...), nil
}

func (s *InMemoryEventStore) Subscribe(eventTypes []string, handler EventHandler) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for _, eventType := range eventTypes {
		s.subscribers[eventType] = append(s.subscribers[eventType], handler)
	}

	return nil
}

func (s *InMemoryEventStore) Unsubscribe(handler EventHandler) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for eventType, handlers := range s.subscribers {
		newHandlers := make([]EventHandler, 0, len(handlers))
		for _, h := range handlers {
			if h != handler {
				newHandlers = append(newHandlers, h)
			}
		}
		s.subscribers[eventType] = newHandlers
	}

	return nil
}

// Flush blocks until every notification started so far has been handled
func (s *InMemoryEventStore) Flush() {
	s.pending.Wait()
}

// notifySubscribers runs each handler in its own goroutine.
// Called with the store lock held so Flush observes the Add.
func (s *InMemoryEventStore) notifySubscribers(handlers []EventHandler, event Event) {
	for _, handler := range handlers {
		if !handler.CanHandle(event.Type()) {
			continue
		}
		s.pending.Add(1)
		go func(h EventHandler, e Event) {
			defer s.pending.Done()
			if err := h.Handle(e); err != nil {
				s.logger.Error().Err(err).
					Str("event_type", e.Type()).
					Str("event_id", e.ID()).
					Msg("event handler failed")
			}
		}(handler, event)
	}
}
