package goch

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"mileage/mq/mq"
)

type subscription[T any] struct {
	topic string
	ch    chan T
}

// fanOutQueueCore delivers every published item to each subscriber of the
// item's topic. Delivery never blocks the publisher: a subscriber whose
// buffer is full misses the item.
type fanOutQueueCore[T mq.TopicProvider] struct {
	publishChan chan T
	subscribers map[uuid.UUID]subscription[T]
	mu          sync.RWMutex
	quit        chan struct{}
	done        chan struct{}
	stopOnce    sync.Once
	bufferSize  int
}

// newFanOutQueueCore starts the dispatch loop. bufferSize is used for the
// publish channel and for every subscriber channel.
func newFanOutQueueCore[T mq.TopicProvider](bufferSize int) *fanOutQueueCore[T] {
	core := &fanOutQueueCore[T]{
		publishChan: make(chan T, bufferSize),
		subscribers: make(map[uuid.UUID]subscription[T]),
		quit:        make(chan struct{}),
		done:        make(chan struct{}),
		bufferSize:  bufferSize,
	}
	go core.run()
	return core
}

func (c *fanOutQueueCore[T]) run() {
	defer close(c.done)
	for {
		select {
		case item := <-c.publishChan:
			c.dispatch(item)
		case <-c.quit:
			c.mu.Lock()
			for id, sub := range c.subscribers {
				close(sub.ch)
				delete(c.subscribers, id)
			}
			c.mu.Unlock()
			return
		}
	}
}

func (c *fanOutQueueCore[T]) dispatch(item T) {
	topic := item.GetTopic()
	c.mu.RLock()
	defer c.mu.RUnlock()
	for id, sub := range c.subscribers {
		if sub.topic != topic {
			continue
		}
		select {
		case sub.ch <- item:
		default:
			logrus.Debugf("subscriber %s on %s is full, dropping item", id, topic)
		}
	}
}

func (c *fanOutQueueCore[T]) stopped() bool {
	select {
	case <-c.quit:
		return true
	default:
		return false
	}
}

// Publish hands item to the dispatch loop without blocking.
func (c *fanOutQueueCore[T]) Publish(item T) error {
	if c.stopped() {
		return ErrQueueClosed
	}
	select {
	case c.publishChan <- item:
		return nil
	default:
		return ErrQueueFull
	}
}

func (c *fanOutQueueCore[T]) Subscribe(topic string) (uuid.UUID, <-chan T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped() {
		return uuid.Nil, nil, ErrQueueClosed
	}

	size := c.bufferSize
	if size < 1 {
		size = 1
	}
	id := uuid.New()
	ch := make(chan T, size)
	c.subscribers[id] = subscription[T]{topic: topic, ch: ch}
	return id, ch, nil
}

func (c *fanOutQueueCore[T]) DeSubscribe(id uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	sub, ok := c.subscribers[id]
	if !ok {
		return fmt.Errorf("subscriber with ID %s not found", id)
	}
	delete(c.subscribers, id)
	close(sub.ch)
	return nil
}

// Stop ends the dispatch loop and closes every subscriber channel.
func (c *fanOutQueueCore[T]) Stop() {
	c.stopOnce.Do(func() {
		close(c.quit)
	})
	<-c.done
}

// --- Error Definitions ---
type QueueError string

func (e QueueError) Error() string {
	return string(e)
}

const (
	ErrQueueFull   QueueError = "message queue is full"
	ErrQueueClosed QueueError = "message queue is closed"
)
