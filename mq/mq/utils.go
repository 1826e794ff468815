package mq

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Subscriber is any service that can be subscribed to by table.
// M is the message type it delivers.
type Subscriber[M any] interface {
	Subscribe(table Table) (uuid.UUID, <-chan M, error)
	DeSubscribe(id uuid.UUID) error
}

// SubscribeProcessor subscribes service to table and feeds every transformed
// message into outputStream until ctx is done or the subscription closes.
// outputStream is closed on exit, so it must be owned by this call.
func SubscribeProcessor[S Subscriber[M], M any, O any](
	table Table,
	ctx context.Context,
	service S,
	transformFunc func(msg M) (O, bool, error),
	outputStream chan<- O,
) error {
	uid, inputCh, err := service.Subscribe(table)
	if err != nil {
		close(outputStream)
		return err
	}

	go func() {
		defer func() {
			if err := service.DeSubscribe(uid); err != nil {
				logrus.Debugf("de-subscribing %s: %v", uid, err)
			}
			close(outputStream)
		}()

		for {
			select {
			case msg, ok := <-inputCh:
				if !ok {
					// parent closed the channel
					return
				}

				output, skip, err := transformFunc(msg)
				if err != nil {
					logrus.Warnf("transforming message for subscription %s: %v", uid, err)
					continue
				}
				if skip {
					continue
				}

				select {
				case outputStream <- output:
				case <-ctx.Done():
					return
				}

			case <-ctx.Done():
				return
			}
		}
	}()
	return nil
}
