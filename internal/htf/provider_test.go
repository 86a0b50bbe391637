package htf

import (
	"context"
	"errors"
	"testing"
	"time"

	"rangepulse/internal/domain"
	"rangepulse/internal/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ ports.MarketDataClient = (*mockMarketData)(nil)

type mockMarketData struct {
	klines    map[string][]*domain.Candle // keyed by interval
	klinesErr error
	calls     int
}

func (m *mockMarketData) GetKlines(ctx context.Context, symbol, interval string, limit int) ([]*domain.Candle, error) {
	m.calls++
	if m.klinesErr != nil {
		return nil, m.klinesErr
	}
	return m.klines[interval], nil
}

func (m *mockMarketData) TopVolumeSymbols(ctx context.Context, maxPairs int, minQuoteVolume float64) ([]string, error) {
	return nil, nil
}

func (m *mockMarketData) StreamKlines(ctx context.Context, symbols []string, interval string, handler func(candle *domain.Candle), errHandler func(err error)) (chan struct{}, chan struct{}, error) {
	return nil, nil, nil
}

func (m *mockMarketData) Ping(ctx context.Context) error { return nil }

type mockLogger struct{}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
}

// flat produces n identical candles.
func flat(n int, price float64) []*domain.Candle {
	out := make([]*domain.Candle, n)
	for i := range out {
		out[i] = &domain.Candle{
			Open: price, High: price + 1, Low: price - 1, Close: price,
			IsFinal: true,
		}
	}
	return out
}

// trending produces n candles whose highs and lows both drift by totalShift
// from first to last.
func trending(n int, start, totalShift float64) []*domain.Candle {
	out := make([]*domain.Candle, n)
	for i := range out {
		p := start + totalShift*float64(i)/float64(n-1)
		out[i] = &domain.Candle{
			Open: p, High: p + 0.5, Low: p - 0.5, Close: p,
			IsFinal: true,
		}
	}
	return out
}

func newTestProvider(md *mockMarketData) *Provider {
	return NewProvider(md, &mockLogger{}, Config{})
}

func TestQueryNeutralOnFetchFailure(t *testing.T) {
	md := &mockMarketData{klinesErr: errors.New("connection reset")}
	p := newTestProvider(md)

	got := p.Query(context.Background(), "ETHUSDT")
	require.NotNil(t, got)
	assert.Equal(t, domain.NeutralHTFContext(), got)
	assert.True(t, got.Aligned(domain.SideLong))
	assert.True(t, got.Aligned(domain.SideShort))
}

func TestQueryFlatMarketIsRanging(t *testing.T) {
	md := &mockMarketData{klines: map[string][]*domain.Candle{
		"1h":  flat(150, 100),
		"15m": flat(150, 100),
	}}
	p := newTestProvider(md)

	got := p.Query(context.Background(), "ETHUSDT")
	assert.Equal(t, domain.TrendRange, got.Trend1h)
	assert.True(t, got.IsRanging1h)
	assert.True(t, got.OKLong)
	assert.True(t, got.OKShort)
}

func TestQueryOverextendedUptrendBlocksLong(t *testing.T) {
	// Both frames trend up hard, closing at the top of their windows:
	// premium on 1h and 15m with an UP 1h trend vetoes longs only.
	md := &mockMarketData{klines: map[string][]*domain.Candle{
		"1h":  trending(150, 100, 20),
		"15m": trending(150, 100, 20),
	}}
	p := newTestProvider(md)

	got := p.Query(context.Background(), "ETHUSDT")
	assert.Equal(t, domain.TrendUp, got.Trend1h)
	assert.Equal(t, domain.PositionPremium, got.Pos1h)
	assert.Equal(t, domain.PositionPremium, got.Pos15m)
	assert.False(t, got.OKLong)
	assert.True(t, got.OKShort)
	assert.False(t, got.Aligned(domain.SideLong))
}

func TestQueryOverextendedDowntrendBlocksShort(t *testing.T) {
	md := &mockMarketData{klines: map[string][]*domain.Candle{
		"1h":  trending(150, 100, -20),
		"15m": trending(150, 100, -20),
	}}
	p := newTestProvider(md)

	got := p.Query(context.Background(), "ETHUSDT")
	assert.Equal(t, domain.TrendDown, got.Trend1h)
	assert.Equal(t, domain.PositionDiscount, got.Pos1h)
	assert.True(t, got.OKLong)
	assert.False(t, got.OKShort)
}

func TestQueryShortHistoryReadsRange(t *testing.T) {
	md := &mockMarketData{klines: map[string][]*domain.Candle{
		"1h":  trending(10, 100, 20),
		"15m": trending(10, 100, 20),
	}}
	p := newTestProvider(md)

	got := p.Query(context.Background(), "ETHUSDT")
	assert.Equal(t, domain.TrendRange, got.Trend1h, "too little history must not produce a trend call")
}

func TestQueryCachesVerdict(t *testing.T) {
	md := &mockMarketData{klines: map[string][]*domain.Candle{
		"1h":  flat(150, 100),
		"15m": flat(150, 100),
	}}
	p := newTestProvider(md)

	first := p.Query(context.Background(), "ETHUSDT")
	callsAfterFirst := md.calls
	second := p.Query(context.Background(), "ETHUSDT")

	assert.Same(t, first, second)
	assert.Equal(t, callsAfterFirst, md.calls, "cached verdict must not refetch")
}

func TestQueryCacheExpires(t *testing.T) {
	md := &mockMarketData{klines: map[string][]*domain.Candle{
		"1h":  flat(150, 100),
		"15m": flat(150, 100),
	}}
	p := newTestProvider(md)

	clock := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return clock }

	p.Query(context.Background(), "ETHUSDT")
	callsAfterFirst := md.calls

	clock = clock.Add(11 * time.Minute)
	p.Query(context.Background(), "ETHUSDT")
	assert.Greater(t, md.calls, callsAfterFirst, "expired verdict must refetch")
}
