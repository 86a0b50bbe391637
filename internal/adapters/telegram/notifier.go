package telegram

import (
	"context"
	"fmt"

	"rangepulse/internal/domain"
	"rangepulse/internal/ports"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Notifier implements ports.Notifier on top of the Telegram Bot API. Each
// accepted signal is broadcast to every registered subscriber chat.
type Notifier struct {
	bot         *tgbotapi.BotAPI
	subscribers ports.SubscriberRepository
	logger      ports.Logger
}

// Config holds configuration for the Telegram notifier.
type Config struct {
	BotToken    string
	Subscribers ports.SubscriberRepository
	Logger      ports.Logger
}

// New creates a Telegram notifier. The bot token is validated against the
// Telegram API at construction time.
func New(cfg Config) (*Notifier, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for Telegram notifier")
	}
	if cfg.Subscribers == nil {
		return nil, fmt.Errorf("subscriber repository is required for Telegram notifier")
	}
	if cfg.BotToken == "" {
		return nil, fmt.Errorf("bot token is required for Telegram notifier: %w", ports.ErrConfigurationError)
	}

	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Telegram bot: %w: %w", ports.ErrAuthenticationFailed, err)
	}
	cfg.Logger.Info(context.Background(), "Telegram bot authorized", map[string]interface{}{"account": bot.Self.UserName})

	return &Notifier{
		bot:         bot,
		subscribers: cfg.Subscribers,
		logger:      cfg.Logger,
	}, nil
}

// Broadcast sends the signal's formatted message to every subscriber. A
// failed delivery to one chat does not abort the rest; the error reports
// how many deliveries failed.
func (n *Notifier) Broadcast(ctx context.Context, sig *domain.Signal) error {
	chatIDs, err := n.subscribers.ListSubscribers(ctx)
	if err != nil {
		return fmt.Errorf("broadcast aborted, could not list subscribers: %w", err)
	}
	if len(chatIDs) == 0 {
		n.logger.Warn(ctx, "Broadcast skipped: no subscribers registered", map[string]interface{}{"symbol": sig.Symbol})
		return nil
	}

	failed := 0
	for _, chatID := range chatIDs {
		msg := tgbotapi.NewMessage(chatID, sig.Message)
		msg.ParseMode = tgbotapi.ModeMarkdown
		if _, sendErr := n.bot.Send(msg); sendErr != nil {
			failed++
			n.logger.Error(ctx, sendErr, "Failed to deliver signal to subscriber",
				map[string]interface{}{"chatID": chatID, "symbol": sig.Symbol})
		}
	}

	n.logger.Info(ctx, "Signal broadcast complete", map[string]interface{}{
		"symbol": sig.Symbol, "tier": sig.Tier, "subscribers": len(chatIDs), "failed": failed,
	})
	if failed == len(chatIDs) {
		return fmt.Errorf("%w: all %d deliveries failed for %s", ports.ErrNotifyFailed, failed, sig.Symbol)
	}
	return nil
}
