package orders

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	EventOrderPlaced        = "OrderPlaced"
	EventOrderSettled       = "OrderSettled"
	EventOrderStatusChanged = "OrderStatusChanged"
)

const EventVersion = 1

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // order id
	Payload       json.RawMessage `json:"payload"`
}

type OrderPlacedPayload struct {
	OrderID string          `json:"order_id"`
	Items   []LineItem      `json:"items"`
	Total   decimal.Decimal `json:"total"`
}

type OrderSettledPayload struct {
	OrderID string          `json:"order_id"`
	Status  Status          `json:"status"` // paid | failed
	Amount  decimal.Decimal `json:"amount"`
	Reason  string          `json:"reason,omitempty"`
	Restock bool            `json:"restocked,omitempty"`
}

type OrderStatusChangedPayload struct {
	OrderID string `json:"order_id"`
	Status  Status `json:"status"`
}

// NewEnvelope wraps payload into a v1 envelope correlated to orderID.
func NewEnvelope(eventType, producer, orderID, traceID string, payload any) (Envelope, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	return Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  EventVersion,
		OccurredAt:    time.Now().UTC(),
		Producer:      producer,
		TraceID:       traceID,
		CorrelationID: orderID,
		Payload:       b,
	}, nil
}

// TopicFor maps an event type to its topic.
func TopicFor(eventType string) string {
	switch eventType {
	case EventOrderPlaced:
		return TopicOrderPlaced
	case EventOrderSettled:
		return TopicOrderSettled
	default:
		return TopicOrderStatusChanged
	}
}
