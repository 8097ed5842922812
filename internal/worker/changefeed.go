// Package worker bridges the AMQP change feed into the local store. Each
// consumed message pokes the store, which re-pushes snapshots to every
// subscriber of the changed identity/collection.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"fintrack/internal/amqp"
	"fintrack/internal/store"
)

type ChangeFeedWorker struct {
	notifier store.Notifier
}

func NewChangeFeedWorker(notifier store.Notifier) *ChangeFeedWorker {
	return &ChangeFeedWorker{notifier: notifier}
}

// HandleChangeMessage processes one change notification.
func (w *ChangeFeedWorker) HandleChangeMessage(ctx context.Context, msg *amqp.ChangeMessage) error {
	if msg.Identity == "" || msg.Collection == "" {
		return fmt.Errorf("incomplete change message: identity=%q collection=%q", msg.Identity, msg.Collection)
	}

	slog.DebugContext(ctx, "Applying change message",
		"identity", msg.Identity,
		"collection", msg.Collection,
		"timestamp", msg.Timestamp)

	w.notifier.Poke(msg.Collection, msg.Identity)
	return nil
}

// Run consumes the change feed until ctx is canceled, reconnecting on
// broker failures.
func (w *ChangeFeedWorker) Run(ctx context.Context, url, exchange, queue string) error {
	return amqp.ConsumeChangesWithReconnect(ctx, url, exchange, queue, func(msg *amqp.ChangeMessage) error {
		return w.HandleChangeMessage(ctx, msg)
	})
}
