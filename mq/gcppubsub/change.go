package gcppubsub

import (
	"context"

	"cloud.google.com/go/pubsub"
	"github.com/google/uuid"

	"mileage/mq/mq"
)

const changeTopicID = "mileage-changes"

// pubSubChangeMessageQueue implements mq.ChangeMessageQueue on one Pub/Sub
// topic, subscribers filtering by table.
type pubSubChangeMessageQueue struct {
	client         *pubsub.Client
	genericService *GenericPubSubService[mq.ChangeMessage]
}

// NewGCPChangeMessageQueue creates a change bus using GCP Pub/Sub.
func NewGCPChangeMessageQueue(ctx context.Context, client *pubsub.Client) (mq.ChangeMessageQueue, error) {
	gs, err := NewGenericPubSubService[mq.ChangeMessage](ctx, client, changeTopicID)
	if err != nil {
		return nil, err
	}
	return &pubSubChangeMessageQueue{client: client, genericService: gs}, nil
}

func (q *pubSubChangeMessageQueue) Publish(msg mq.ChangeMessage) error {
	return q.genericService.Publish(msg)
}

func (q *pubSubChangeMessageQueue) Subscribe(table mq.Table) (uuid.UUID, <-chan mq.ChangeMessage, error) {
	return q.genericService.Subscribe(string(table))
}

func (q *pubSubChangeMessageQueue) DeSubscribe(id uuid.UUID) error {
	return q.genericService.DeSubscribe(id)
}

func (q *pubSubChangeMessageQueue) Close() {
	q.genericService.Close()
	q.client.Close()
}
