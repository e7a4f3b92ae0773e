package kafka

import (
	"context"
	"strconv"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/preloved/marketplace/internal/market"
)

var topicByEvent = map[string]string{
	market.EventOrderCreated:       market.TopicOrderCreated,
	market.EventOrderCancelled:     market.TopicOrderCancelled,
	market.EventOrderStatusChanged: market.TopicOrderStatus,
	market.EventPaymentRecorded:    market.TopicPayment,
}

// EventPublisher adapts the async producer to the workflow engine's
// publishing port.
type EventPublisher struct {
	p *Producer
}

func NewEventPublisher(p *Producer) *EventPublisher {
	return &EventPublisher{p: p}
}

func (e *EventPublisher) Publish(ctx context.Context, env market.Envelope) {
	topic, ok := topicByEvent[env.EventType]
	if !ok {
		return
	}
	e.p.Publish(topic,
		[]byte(env.CorrelationID),
		MustMarshal(env),
		kafkago.Header{Key: "x-event-type", Value: []byte(env.EventType)},
		kafkago.Header{Key: "x-event-version", Value: []byte(strconv.Itoa(env.EventVersion))},
	)
}
