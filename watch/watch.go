// Package watch turns one-shot queries into live streams driven by table
// change messages.
package watch

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"mileage/libs/diff"
	"mileage/mq/mq"
)

// Query loads the full current result set.
type Query[T any] func(ctx context.Context) (T, error)

// Observe runs query at once and again after every change to one of tables,
// sending each result that differs from the one sent before. Changes made by
// other users are ignored when userID is set. The returned channel is closed
// once ctx is done; cancelling ctx releases every subscription.
func Observe[T any](ctx context.Context, bus mq.ChangeMessageQueue, userID string, query Query[T], tables ...mq.Table) (<-chan T, error) {
	if len(tables) == 0 {
		return nil, fmt.Errorf("observe needs at least one table")
	}
	for _, table := range tables {
		if !table.Valid() {
			return nil, fmt.Errorf("unknown table %q", table)
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	dirty := make(chan struct{}, 1)

	for _, table := range tables {
		changes := make(chan struct{})
		err := mq.SubscribeProcessor[mq.ChangeMessageQueue, mq.ChangeMessage, struct{}](table, ctx, bus,
			func(msg mq.ChangeMessage) (struct{}, bool, error) {
				skip := userID != "" && msg.UserID != "" && msg.UserID != userID
				return struct{}{}, skip, nil
			}, changes)
		if err != nil {
			cancel()
			return nil, fmt.Errorf("failed to watch %s: %w", table, err)
		}
		go coalesce(changes, dirty)
	}

	out := make(chan T)
	go func() {
		defer cancel()
		defer close(out)

		differ := diff.GetCustomDiffer()
		var (
			last T
			sent bool
		)
		emit := func() bool {
			snapshot, err := query(ctx)
			if err != nil {
				if ctx.Err() == nil {
					logrus.WithField("tables", tables).Errorf("observe query failed: %v", err)
				}
				return true
			}
			if sent {
				changed, err := diff.Changed(differ, last, snapshot)
				if err != nil {
					logrus.Debugf("comparing snapshots: %v", err)
				}
				if !changed {
					return true
				}
			}
			select {
			case out <- snapshot:
				last, sent = snapshot, true
				return true
			case <-ctx.Done():
				return false
			}
		}

		if !emit() {
			return
		}
		for {
			select {
			case <-ctx.Done():
				return
			case <-dirty:
				if !emit() {
					return
				}
			}
		}
	}()
	return out, nil
}

// coalesce folds any number of pending change signals into one.
func coalesce(changes <-chan struct{}, dirty chan<- struct{}) {
	for range changes {
		select {
		case dirty <- struct{}{}:
		default:
		}
	}
}
