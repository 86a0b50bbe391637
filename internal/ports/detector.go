package ports

import (
	"context"

	"rangepulse/internal/domain"
)

// Detector identifies candidate range-manipulation setups from a closed-bar
// snapshot. Detection is a pure function of the snapshot and configuration:
// no side effects, no network calls.
type Detector interface {
	// Detect returns a candidate setup, or nil when the snapshot does not
	// match the pattern. Candles are ordered oldest first and all closed.
	Detect(ctx context.Context, candles []*domain.Candle) *domain.Detection

	// MinCandles returns the minimum history length the detector needs.
	MinCandles() int

	// Name returns the configured strategy name.
	Name() string
}

// ContextProvider supplies the higher-timeframe verdict used as a signal
// filter. Implementations must return a neutral, always-aligned context
// instead of propagating fetch failures.
type ContextProvider interface {
	Query(ctx context.Context, symbol string) *domain.HTFContext
}
