package events

import (
	"github.com/rs/zerolog"
)

// AuditLogHandler writes every domain event to the structured log
type AuditLogHandler struct {
	logger zerolog.Logger
}

func NewAuditLogHandler(logger zerolog.Logger) *AuditLogHandler {
	return &AuditLogHandler{logger: logger.With().Str("component", "audit").Logger()}
}

func (h *AuditLogHandler) CanHandle(eventType string) bool {
	return true
}

func (h *AuditLogHandler) Handle(event Event) error {
	e := h.logger.Info().
		Str("event_id", event.ID()).
		Str("event_type", event.Type()).
		Str("stream", event.StreamID()).
		Int("version", event.Version()).
		Time("at", event.Timestamp())

	switch data := event.Data().(type) {
	case StockAdjusted:
		e = e.Int64("component_id", int64(data.ComponentID)).
			Int64("delta", int64(data.Delta)).
			Int64("in_stock", int64(data.InStock))
	case OrderChanged:
		e = e.Int64("order_id", int64(data.Order.ID)).
			Int64("product_id", int64(data.Order.ProductID)).
			Int64("quantity", int64(data.Order.Quantity)).
			Str("status", data.Order.Status.String())
	case AllocationRejected:
		e = e.Int64("order_id", int64(data.OrderID)).
			Int("short_components", len(data.Shortages))
	}

	e.Msg("domain event")
	return nil
}
