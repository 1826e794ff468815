package mq

import "github.com/google/uuid"

// TopicProvider is anything that knows the topic it is published on.
type TopicProvider interface {
	GetTopic() string
}

// ChangeMessageQueue fans change messages out to every subscriber of the
// message's table.
type ChangeMessageQueue interface {
	Publish(msg ChangeMessage) error
	Subscribe(table Table) (uuid.UUID, <-chan ChangeMessage, error)
	DeSubscribe(id uuid.UUID) error
	Close()
}
