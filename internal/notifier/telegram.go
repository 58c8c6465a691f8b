package notifier

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"

	"github.com/pfrederiksen/rota-da-festa/internal/logger"
	"github.com/pfrederiksen/rota-da-festa/internal/reconcile"
)

// SummaryThreshold is the change count above which one digest replaces
// individual messages
const SummaryThreshold = 10

// DefaultSendInterval spaces consecutive messages to the same chat
const DefaultSendInterval = 2 * time.Second

// MessageSender is the part of tgbotapi.BotAPI the notifier uses
type MessageSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramNotifier posts postponements to a Telegram chat
type TelegramNotifier struct {
	bot     MessageSender
	chatID  int64
	limiter *rate.Limiter
}

// NewTelegramNotifier authenticates the bot token against the Bot API
func NewTelegramNotifier(token string, chatID int64) (*TelegramNotifier, error) {
	if token == "" {
		return nil, errors.New("bot token is required")
	}
	if chatID == 0 {
		return nil, errors.New("chat ID is required")
	}
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, errors.Wrap(err, "connecting to telegram")
	}
	return NewTelegramNotifierWithSender(bot, chatID, DefaultSendInterval), nil
}

// NewTelegramNotifierWithSender wraps an existing sender. interval <= 0 disables spacing.
func NewTelegramNotifierWithSender(bot MessageSender, chatID int64, interval time.Duration) *TelegramNotifier {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &TelegramNotifier{bot: bot, chatID: chatID, limiter: rate.NewLimiter(limit, 1)}
}

// Notify posts one message per change, or a single digest for large batches.
// It stops at the first failed send.
func (n *TelegramNotifier) Notify(ctx context.Context, changes []reconcile.Change) error {
	if len(changes) == 0 {
		return nil
	}

	var messages []string
	if len(changes) > SummaryThreshold {
		messages = []string{FormatSummary(changes)}
	} else {
		for _, c := range changes {
			messages = append(messages, FormatChange(c))
		}
	}

	for i, text := range messages {
		if err := n.limiter.Wait(ctx); err != nil {
			return errors.Wrap(err, "waiting to send")
		}

		msg := tgbotapi.NewMessage(n.chatID, text)
		msg.ParseMode = tgbotapi.ModeHTML
		msg.DisableWebPagePreview = true

		if _, err := n.bot.Send(msg); err != nil {
			return errors.Wrapf(err, "sending message %d/%d", i+1, len(messages))
		}
		logger.Debug("telegram message sent", logger.Fields{"chat_id": n.chatID, "index": i + 1})
	}
	return nil
}
