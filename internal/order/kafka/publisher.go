package kafka

import (
	"encoding/json"
	"time"

	"storefront/internal/config"
	kafkawrap "storefront/internal/kafka"
	"storefront/internal/models"
)

// Publisher streams order lifecycle events onto the configured topics.
// Callers treat publish failures as best-effort.
type Publisher struct {
	Producer *kafkawrap.Producer
	Topics   config.TopicConfig
}

func NewPublisher(producer *kafkawrap.Producer, topics config.TopicConfig) *Publisher {
	return &Publisher{Producer: producer, Topics: topics}
}

// Noop satisfies the publisher contract when Kafka is disabled.
type Noop struct{}

func (Noop) PublishOrderCreated(models.Order) error { return nil }

func (Noop) PublishOrderPaid(string) error { return nil }

func (Noop) PublishOrderPaymentFailed(string) error { return nil }

func (Noop) PublishOrderShipped(string, string) error { return nil }

type paymentEvent struct {
	PaymentIntentID string    `json:"payment_intent_id"`
	Timestamp       time.Time `json:"timestamp"`
}

type shippedEvent struct {
	OrderID        string    `json:"order_id"`
	TrackingNumber string    `json:"tracking_number"`
	Timestamp      time.Time `json:"timestamp"`
}

func (p *Publisher) PublishOrderCreated(order models.Order) error {
	msgBytes, err := json.Marshal(order)
	if err != nil {
		return err
	}
	return p.Producer.Publish(p.Topics.OrderCreated, order.ID, msgBytes)
}

func (p *Publisher) PublishOrderPaid(paymentIntentID string) error {
	msgBytes, err := json.Marshal(paymentEvent{PaymentIntentID: paymentIntentID, Timestamp: time.Now().UTC()})
	if err != nil {
		return err
	}
	return p.Producer.Publish(p.Topics.OrderPaid, paymentIntentID, msgBytes)
}

func (p *Publisher) PublishOrderPaymentFailed(paymentIntentID string) error {
	msgBytes, err := json.Marshal(paymentEvent{PaymentIntentID: paymentIntentID, Timestamp: time.Now().UTC()})
	if err != nil {
		return err
	}
	return p.Producer.Publish(p.Topics.OrderFailed, paymentIntentID, msgBytes)
}

func (p *Publisher) PublishOrderShipped(orderID, trackingNumber string) error {
	msgBytes, err := json.Marshal(shippedEvent{OrderID: orderID, TrackingNumber: trackingNumber, Timestamp: time.Now().UTC()})
	if err != nil {
		return err
	}
	return p.Producer.Publish(p.Topics.OrderShipped, orderID, msgBytes)
}
