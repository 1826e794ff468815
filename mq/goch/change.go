package goch

import (
	"github.com/google/uuid"

	"mileage/mq/mq"
)

// DefaultBufferSize is used by the server for the in-process bus.
const DefaultBufferSize = 64

// ChannelChangeMessageQueue implements mq.ChangeMessageQueue in process.
type ChannelChangeMessageQueue struct {
	core *fanOutQueueCore[mq.ChangeMessage]
}

// NewGoChanChangeMessageQueue creates a new in-process change bus.
func NewGoChanChangeMessageQueue(bufferSize int) mq.ChangeMessageQueue {
	return &ChannelChangeMessageQueue{
		core: newFanOutQueueCore[mq.ChangeMessage](bufferSize),
	}
}

func (q *ChannelChangeMessageQueue) Publish(msg mq.ChangeMessage) error {
	return q.core.Publish(msg)
}

func (q *ChannelChangeMessageQueue) Subscribe(table mq.Table) (uuid.UUID, <-chan mq.ChangeMessage, error) {
	return q.core.Subscribe(string(table))
}

func (q *ChannelChangeMessageQueue) DeSubscribe(id uuid.UUID) error {
	return q.core.DeSubscribe(id)
}

func (q *ChannelChangeMessageQueue) Close() {
	q.core.Stop()
}
