package ports

import (
	"context"

	"rangepulse/internal/domain"
)

// SymbolStats summarizes a symbol's 24h activity, used for volume screening.
type SymbolStats struct {
	Symbol      string
	QuoteVolume float64
	LastPrice   float64
}

// MarketDataClient defines the interface to the exchange's market data.
// This abstraction decouples the scanner from a specific exchange client.
type MarketDataClient interface {
	// GetKlines retrieves historical candles for the given symbol, oldest first.
	GetKlines(ctx context.Context, symbol, interval string, limit int) ([]*domain.Candle, error)

	// TopVolumeSymbols returns up to maxPairs USDT-quoted perpetual symbols
	// whose 24h quote volume is at least minQuoteVolume, ordered by volume
	// descending.
	TopVolumeSymbols(ctx context.Context, maxPairs int, minQuoteVolume float64) ([]string, error)

	// StreamKlines opens one multiplexed candle subscription covering all
	// given symbols at the given interval. Valid updates are passed to
	// handler in arrival order from a single goroutine; malformed messages
	// are dropped. The returned done channel closes when the connection
	// ends; sending on stop tears the connection down.
	StreamKlines(ctx context.Context, symbols []string, interval string, handler func(candle *domain.Candle), errHandler func(err error)) (doneCh chan struct{}, stopCh chan struct{}, err error)

	// Ping checks connectivity to the exchange API.
	Ping(ctx context.Context) error
}
