// Package notifier announces postponed fixtures.
//
// DryRunNotifier prints the messages to a writer; TelegramNotifier posts them
// to a chat through the Telegram Bot API.
package notifier

import (
	"context"

	"github.com/pfrederiksen/rota-da-festa/internal/reconcile"
)

// Notifier defines the interface for posting postponement notices
type Notifier interface {
	// Notify posts one message per change
	Notify(ctx context.Context, changes []reconcile.Change) error
}
