package market

import (
	"encoding/json"
	"time"
)

const (
	EventOrderCreated       = "OrderCreated"
	EventOrderCancelled     = "OrderCancelled"
	EventOrderStatusChanged = "OrderStatusChanged"
	EventPaymentRecorded    = "PaymentRecorded"
)

type Envelope struct {
	EventID       string          `json:"event_id"` // uuid
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"` // RFC3339
	Producer      string          `json:"producer"`
	CorrelationID string          `json:"correlation_id,omitempty"` // order_id
	Payload       json.RawMessage `json:"payload"`
}

type OrderCreatedPayload struct {
	OrderID    int64       `json:"order_id"`
	CustomerID int64       `json:"cus_id"`
	Items      []OrderItem `json:"items"`
	GrandTotal int64       `json:"grand_total"`
}

type OrderCancelledPayload struct {
	OrderID    int64   `json:"order_id"`
	ProductIDs []int64 `json:"product_ids"` // inventory returned to available
}

type OrderStatusChangedPayload struct {
	OrderID int64  `json:"order_id"`
	From    Status `json:"from"`
	To      Status `json:"to"`
}

type PaymentRecordedPayload struct {
	OrderID   int64         `json:"order_id"`
	PaymentID int64         `json:"payment_id"`
	Method    PaymentMethod `json:"method"`
	Amount    int64         `json:"amount"`
}
