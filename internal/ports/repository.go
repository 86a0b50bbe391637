package ports

import (
	"context"
	"time"

	"rangepulse/internal/domain"
)

// SignalRepository defines the interface for journaling emitted signals.
type SignalRepository interface {
	// CreateSignal saves an accepted signal and returns its assigned ID.
	CreateSignal(ctx context.Context, sig *domain.Signal) (int64, error)
	// FindBySymbol retrieves the most recent signals for a symbol, up to a limit.
	FindBySymbol(ctx context.Context, symbol string, limit int) ([]*domain.Signal, error)
	// CountSince counts signals accepted at or after the given time.
	CountSince(ctx context.Context, since time.Time) (int, error)
}

// SubscriberRepository defines the interface for the broadcast recipient list.
// Administration of the list (add/remove flows) lives outside the scanner;
// the scanner only reads it at delivery time.
type SubscriberRepository interface {
	// ListSubscribers returns all registered chat IDs.
	ListSubscribers(ctx context.Context) ([]int64, error)
	// AddSubscriber registers a chat ID, ignoring duplicates.
	AddSubscriber(ctx context.Context, chatID int64) error
}
