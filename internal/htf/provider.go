package htf

import (
	"context"
	"sync"
	"time"

	"rangepulse/internal/domain"
	"rangepulse/internal/ports"
)

// Config holds the higher-timeframe classification parameters.
type Config struct {
	TrendInterval    string  // interval used for the trend read (default "1h")
	ConfirmInterval  string  // faster interval for the second position read (default "15m")
	KlineLimit       int     // candles fetched per interval (default 150)
	MinTrendCandles  int     // below this the trend reads RANGE (default 20)
	SwingGridSize    int     // number of grid samples for the swing read (default 10)
	HighTrendRatio   float64 // swing-high shift required for a trend call (default 0.01)
	LowTrendRatio    float64 // swing-low shift required for a trend call (default 0.005)
	PositionWindow   int     // candles in the discount/premium window (default 60)
	DiscountBand     float64 // position at or below this is DISCOUNT (default 0.35)
	PremiumBand      float64 // position at or above this is PREMIUM (default 0.65)
	CacheTTL         time.Duration // verdict cache lifetime (default 10m)
}

// DefaultConfig returns the production classification parameters.
func DefaultConfig() Config {
	return Config{
		TrendInterval:   "1h",
		ConfirmInterval: "15m",
		KlineLimit:      150,
		MinTrendCandles: 20,
		SwingGridSize:   10,
		HighTrendRatio:  0.01,
		LowTrendRatio:   0.005,
		PositionWindow:  60,
		DiscountBand:    0.35,
		PremiumBand:     0.65,
		CacheTTL:        10 * time.Minute,
	}
}

type cacheEntry struct {
	ctx     *domain.HTFContext
	expires time.Time
}

// Provider classifies the higher-timeframe state of a symbol from REST
// klines. Verdicts are cached per symbol so the scanner does not refetch on
// every closed bar. Fetch failures degrade to the neutral context.
type Provider struct {
	client ports.MarketDataClient
	logger ports.Logger
	cfg    Config
	now    func() time.Time

	mu    sync.Mutex
	cache map[string]cacheEntry
}

// NewProvider creates a provider, substituting defaults for zero config
// fields.
func NewProvider(client ports.MarketDataClient, logger ports.Logger, cfg Config) *Provider {
	def := DefaultConfig()
	if cfg.TrendInterval == "" {
		cfg.TrendInterval = def.TrendInterval
	}
	if cfg.ConfirmInterval == "" {
		cfg.ConfirmInterval = def.ConfirmInterval
	}
	if cfg.KlineLimit <= 0 {
		cfg.KlineLimit = def.KlineLimit
	}
	if cfg.MinTrendCandles <= 0 {
		cfg.MinTrendCandles = def.MinTrendCandles
	}
	if cfg.SwingGridSize <= 0 {
		cfg.SwingGridSize = def.SwingGridSize
	}
	if cfg.HighTrendRatio <= 0 {
		cfg.HighTrendRatio = def.HighTrendRatio
	}
	if cfg.LowTrendRatio <= 0 {
		cfg.LowTrendRatio = def.LowTrendRatio
	}
	if cfg.PositionWindow <= 0 {
		cfg.PositionWindow = def.PositionWindow
	}
	if cfg.DiscountBand <= 0 {
		cfg.DiscountBand = def.DiscountBand
	}
	if cfg.PremiumBand <= 0 {
		cfg.PremiumBand = def.PremiumBand
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = def.CacheTTL
	}
	return &Provider{
		client: client,
		logger: logger,
		cfg:    cfg,
		now:    time.Now,
		cache:  make(map[string]cacheEntry),
	}
}

// Query returns the higher-timeframe verdict for symbol. It never fails:
// when either fetch errors out, the neutral always-aligned context is
// returned and the failure is logged.
func (p *Provider) Query(ctx context.Context, symbol string) *domain.HTFContext {
	now := p.now()
	p.mu.Lock()
	if entry, ok := p.cache[symbol]; ok && now.Before(entry.expires) {
		p.mu.Unlock()
		return entry.ctx
	}
	p.mu.Unlock()

	verdict := p.classify(ctx, symbol)

	p.mu.Lock()
	p.cache[symbol] = cacheEntry{ctx: verdict, expires: now.Add(p.cfg.CacheTTL)}
	p.mu.Unlock()
	return verdict
}

func (p *Provider) classify(ctx context.Context, symbol string) *domain.HTFContext {
	trendCandles, err := p.client.GetKlines(ctx, symbol, p.cfg.TrendInterval, p.cfg.KlineLimit)
	if err != nil {
		p.logger.Warn(ctx, "higher-timeframe fetch failed, using neutral context",
			map[string]interface{}{"symbol": symbol, "interval": p.cfg.TrendInterval, "error": err.Error()})
		return domain.NeutralHTFContext()
	}
	confirmCandles, err := p.client.GetKlines(ctx, symbol, p.cfg.ConfirmInterval, p.cfg.KlineLimit)
	if err != nil {
		p.logger.Warn(ctx, "higher-timeframe fetch failed, using neutral context",
			map[string]interface{}{"symbol": symbol, "interval": p.cfg.ConfirmInterval, "error": err.Error()})
		return domain.NeutralHTFContext()
	}
	if len(trendCandles) == 0 || len(confirmCandles) == 0 {
		return domain.NeutralHTFContext()
	}

	trend := p.detectTrend(trendCandles)
	posTrend := p.pricePosition(trendCandles)
	posConfirm := p.pricePosition(confirmCandles)

	okLong := true
	okShort := true
	// A strongly trending market with price stretched to the same extreme on
	// both frames is a poor base for a counter-range entry.
	if trend == domain.TrendUp && posTrend == domain.PositionPremium && posConfirm == domain.PositionPremium {
		okLong = false
	}
	if trend == domain.TrendDown && posTrend == domain.PositionDiscount && posConfirm == domain.PositionDiscount {
		okShort = false
	}

	return &domain.HTFContext{
		Trend1h:     trend,
		Pos1h:       posTrend,
		Pos15m:      posConfirm,
		IsRanging1h: trend == domain.TrendRange,
		OKLong:      okLong,
		OKShort:     okShort,
	}
}

// detectTrend reads a coarse direction from the shift between the first and
// last samples of a sparse swing grid. It only needs to separate UP, DOWN
// and RANGE; precision does not matter.
func (p *Provider) detectTrend(candles []*domain.Candle) domain.TrendDirection {
	n := len(candles)
	if n < p.cfg.MinTrendCandles {
		return domain.TrendRange
	}

	step := n / p.cfg.SwingGridSize
	if step < 2 {
		step = 2
	}
	var swingHighs, swingLows []float64
	for i := 0; i < n; i += step {
		swingHighs = append(swingHighs, candles[i].High)
		swingLows = append(swingLows, candles[i].Low)
	}
	if len(swingHighs) < 3 {
		return domain.TrendRange
	}

	firstH, lastH := swingHighs[0], swingHighs[len(swingHighs)-1]
	firstL, lastL := swingLows[0], swingLows[len(swingLows)-1]

	if lastH > firstH*(1+p.cfg.HighTrendRatio) && lastL > firstL*(1+p.cfg.LowTrendRatio) {
		return domain.TrendUp
	}
	if lastH < firstH*(1-p.cfg.HighTrendRatio) && lastL < firstL*(1-p.cfg.LowTrendRatio) {
		return domain.TrendDown
	}
	return domain.TrendRange
}

// pricePosition locates the last close inside the high/low range of the
// trailing window.
func (p *Provider) pricePosition(candles []*domain.Candle) domain.PricePosition {
	n := len(candles)
	if n < 5 {
		return domain.PositionMid
	}

	start := n - p.cfg.PositionWindow
	if start < 0 {
		start = 0
	}
	high := candles[start].High
	low := candles[start].Low
	for _, c := range candles[start:] {
		if c.High > high {
			high = c.High
		}
		if c.Low < low {
			low = c.Low
		}
	}
	if high <= low {
		return domain.PositionMid
	}

	pos := (candles[n-1].Close - low) / (high - low)
	switch {
	case pos <= p.cfg.DiscountBand:
		return domain.PositionDiscount
	case pos >= p.cfg.PremiumBand:
		return domain.PositionPremium
	default:
		return domain.PositionMid
	}
}
