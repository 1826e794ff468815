package rabbit

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"mileage/mq/mq"
)

const (
	exchangeName = "mileage_changes_exchange" // All table change events go through this exchange
)

// routingKey is the table name, e.g. "table.trips".
func routingKey(table mq.Table) string {
	return "table." + string(table)
}

type rabbitConsumer struct {
	channel *amqp091.Channel
	out     chan mq.ChangeMessage
	done    chan struct{}
}

// rabbitChangeMessageQueue implements mq.ChangeMessageQueue for RabbitMQ.
// Every subscriber owns an exclusive queue, so each one sees every message
// of its table no matter which process published it.
type rabbitChangeMessageQueue struct {
	conn      *amqp091.Connection
	channel   *amqp091.Channel // publishing only
	pubMu     sync.Mutex
	mu        sync.Mutex // Protects the consumers map
	consumers map[uuid.UUID]*rabbitConsumer
}

// NewRabbitChangeMessageQueue creates a change bus on conn.
func NewRabbitChangeMessageQueue(conn *amqp091.Connection) (mq.ChangeMessageQueue, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}
	err = ch.ExchangeDeclare(exchangeName, "topic", true, false, false, false, nil)
	if err != nil {
		ch.Close()
		return nil, fmt.Errorf("failed to declare exchange %s: %w", exchangeName, err)
	}

	return &rabbitChangeMessageQueue{
		conn:      conn,
		channel:   ch,
		consumers: make(map[uuid.UUID]*rabbitConsumer),
	}, nil
}

// Publish sends msg to the exchange routed by its table.
func (q *rabbitChangeMessageQueue) Publish(msg mq.ChangeMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// amqp channels are not safe for concurrent publishing
	q.pubMu.Lock()
	defer q.pubMu.Unlock()
	err = q.channel.PublishWithContext(ctx,
		exchangeName,          // exchange
		routingKey(msg.Table), // routing key
		false,                 // mandatory
		false,                 // immediate
		amqp091.Publishing{
			ContentType: "application/json",
			Body:        body,
		})
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}
	return nil
}

// Subscribe declares a private queue bound to table and returns its messages.
func (q *rabbitChangeMessageQueue) Subscribe(table mq.Table) (uuid.UUID, <-chan mq.ChangeMessage, error) {
	ch, err := q.conn.Channel()
	if err != nil {
		return uuid.Nil, nil, fmt.Errorf("failed to open a channel: %w", err)
	}
	queueName, err := DeclareQueueAndExchange(ch, "", exchangeName, routingKey(table))
	if err != nil {
		ch.Close()
		return uuid.Nil, nil, err
	}

	subscriberID := uuid.New()
	msgs, err := ch.Consume(
		queueName,             // queue
		subscriberID.String(), // consumer
		true,                  // auto-ack
		true,                  // exclusive
		false,                 // no-local
		false,                 // no-wait
		nil,                   // args
	)
	if err != nil {
		ch.Close()
		return uuid.Nil, nil, fmt.Errorf("failed to register a consumer: %w", err)
	}

	consumer := &rabbitConsumer{
		channel: ch,
		out:     make(chan mq.ChangeMessage, 16),
		done:    make(chan struct{}),
	}
	q.mu.Lock()
	q.consumers[subscriberID] = consumer
	q.mu.Unlock()

	go func() {
		defer close(consumer.out)
		for d := range msgs {
			var msg mq.ChangeMessage
			if err := json.Unmarshal(d.Body, &msg); err != nil {
				logrus.Warnf("Failed to unmarshal ChangeMessage: %v", err)
				continue
			}
			select {
			case consumer.out <- msg:
			case <-consumer.done:
				return
			case <-time.After(1 * time.Second): // Prevent blocking indefinitely
				logrus.Warnf("Timeout sending change message to consumer %s. Skipping.", subscriberID)
			}
		}
	}()

	return subscriberID, consumer.out, nil
}

// DeSubscribe removes a subscriber by its ID. Its channel is closed once the
// delivery goroutine has stopped.
func (q *rabbitChangeMessageQueue) DeSubscribe(subscriberID uuid.UUID) error {
	q.mu.Lock()
	consumer, ok := q.consumers[subscriberID]
	delete(q.consumers, subscriberID)
	q.mu.Unlock()

	if !ok {
		return fmt.Errorf("consumer with ID %s not found", subscriberID)
	}
	close(consumer.done)
	// closing the channel ends the delivery range and drops the exclusive queue
	return consumer.channel.Close()
}

// Close closes all channels and the RabbitMQ connection.
func (q *rabbitChangeMessageQueue) Close() {
	q.mu.Lock()
	consumers := q.consumers
	q.consumers = make(map[uuid.UUID]*rabbitConsumer)
	q.mu.Unlock()

	for _, c := range consumers {
		close(c.done)
		c.channel.Close()
	}
	if q.channel != nil {
		q.channel.Close()
	}
	if q.conn != nil {
		q.conn.Close()
	}
}
