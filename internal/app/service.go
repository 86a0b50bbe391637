package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rangepulse/config"
	"rangepulse/internal/cooldown"
	"rangepulse/internal/domain"
	"rangepulse/internal/levels"
	"rangepulse/internal/ohlc"
	"rangepulse/internal/ports"
	"rangepulse/internal/scoring"

	"github.com/jpillora/backoff"
)

const (
	eventBufferSize = 1024 // Slack between the websocket read loop and the pipeline
	stableStreamAge = time.Minute
)

// Teardown reasons reported by the inner stream loop. None of them are
// failures; the outer loop dispatches on them without backing off.
var (
	// errSoftRestart tears down the current stream so the outer loop
	// re-preloads and resubscribes.
	errSoftRestart = errors.New("soft restart requested")
	// errRefreshDue tears down the stream so the outer loop rebuilds the
	// symbol universe, either on schedule or by operator request.
	errRefreshDue = errors.New("symbol universe refresh due")
	// errStopRequested ends the scanner via the runtime state.
	errStopRequested = errors.New("stop requested")
)

// Scanner orchestrates the signal pipeline: stream ingestion, per-symbol
// buffering, detection, level building, scoring, gating and delivery.
type Scanner struct {
	cfg      *config.Config
	logger   ports.Logger
	market   ports.MarketDataClient
	signals  ports.SignalRepository
	notifier ports.Notifier
	detector ports.Detector
	htf      ports.ContextProvider

	builder *levels.Builder
	scorer  *scoring.Scorer
	gate    *cooldown.Gate
	buffers *ohlc.Manager
	state   *State

	symbols     []string
	lastRefresh time.Time
	now         func() time.Time
}

// NewScanner creates a new application service instance.
func NewScanner(
	cfg *config.Config,
	logger ports.Logger,
	market ports.MarketDataClient,
	signals ports.SignalRepository,
	notifier ports.Notifier,
	detector ports.Detector,
	htf ports.ContextProvider,
) (*Scanner, error) {

	// Validate dependencies
	if cfg == nil || logger == nil || market == nil || signals == nil || notifier == nil || detector == nil {
		return nil, fmt.Errorf("missing required dependencies for Scanner")
	}
	if cfg.UseHTFFilter && htf == nil {
		return nil, fmt.Errorf("HTF filter enabled but no context provider supplied")
	}
	if cfg.BufferCapacity <= 0 || cfg.PreloadLimit <= 0 {
		return nil, fmt.Errorf("buffer capacity and preload limit must be positive")
	}
	if cfg.MinRRToTP2 <= 0 {
		return nil, fmt.Errorf("configuration MinRRToTP2 must be positive")
	}

	cooldownWindow := time.Duration(cfg.CooldownSeconds) * time.Second
	return &Scanner{
		cfg:      cfg,
		logger:   logger,
		market:   market,
		signals:  signals,
		notifier: notifier,
		detector: detector,
		htf:      htf,
		builder: levels.NewBuilder(levels.Config{
			RR1: cfg.RR1,
			RR2: cfg.RR2,
			RR3: cfg.RR3,
		}),
		scorer:  scoring.NewScorer(scoring.Config{}),
		gate:    cooldown.New(cooldownWindow),
		buffers: ohlc.NewManager(cfg.BufferCapacity),
		state:   NewState(cfg.MinTierToSend, cooldownWindow),
		now:     time.Now,
	}, nil
}

// State exposes the runtime controls for an operator surface.
func (s *Scanner) State() *State {
	return s.state
}

// Start runs the scanner until the context is cancelled, a shutdown signal
// arrives, or the runtime state requests a stop. Stream drops are handled
// here with exponential backoff; they never kill the process.
func (s *Scanner) Start(ctx context.Context) error {
	s.logger.Info(ctx, "Starting scanner...", map[string]interface{}{
		"interval": s.cfg.EntryInterval, "strategy": s.detector.Name(),
	})

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		s.logger.Info(ctx, "Received shutdown signal", map[string]interface{}{"signal": sig.String()})
		cancel()
	}()

	if err := s.market.Ping(ctx); err != nil {
		return fmt.Errorf("exchange unreachable at startup: %w", err)
	}

	retry := &backoff.Backoff{
		Min:    s.cfg.ReconnectDelay,
		Max:    5 * time.Minute,
		Factor: 2,
		Jitter: true,
	}

	for {
		if ctx.Err() != nil {
			s.logger.Info(ctx, "Scanner stopped.")
			return nil
		}
		if !s.state.Snapshot().Running {
			s.logger.Info(ctx, "Scanner stopped via runtime state.")
			return nil
		}

		s.state.setPhase(PhaseConnecting)
		if err := s.refreshUniverse(ctx); err != nil {
			s.state.setPhase(PhaseDisconnected)
			s.logger.Error(ctx, err, "Failed to build symbol universe, retrying")
			if !sleepCtx(ctx, retry.Duration()) {
				return nil
			}
			continue
		}

		s.preload(ctx)

		connectedAt := s.now()
		s.state.setPhase(PhaseConnected)
		err := s.runStream(ctx, s.symbols)
		s.state.setPhase(PhaseDraining)
		switch {
		case ctx.Err() != nil:
			s.logger.Info(ctx, "Scanner stopped.")
			return nil
		case errors.Is(err, errStopRequested):
			s.logger.Info(ctx, "Scanner stopped via runtime state.")
			return nil
		case errors.Is(err, errSoftRestart):
			s.logger.Info(ctx, "Soft restart: rebuilding buffers and resubscribing")
			s.buffers.Reset()
			retry.Reset()
		case errors.Is(err, errRefreshDue):
			s.logger.Info(ctx, "Refresh due: rebuilding the symbol universe")
			retry.Reset()
		default:
			if s.now().Sub(connectedAt) > stableStreamAge {
				retry.Reset()
			}
			delay := retry.Duration()
			s.logger.Warn(ctx, "Stream ended, reconnecting", map[string]interface{}{
				"error": fmt.Sprint(err), "delay": delay.String(),
			})
			if !sleepCtx(ctx, delay) {
				return nil
			}
		}
		s.state.setPhase(PhaseDisconnected)
	}
}

// refreshUniverse rebuilds the scanned symbol set when it is stale, empty,
// or a refresh was requested at runtime.
func (s *Scanner) refreshUniverse(ctx context.Context) error {
	forced := s.state.consumeRefresh()
	fresh := s.now().Sub(s.lastRefresh) < s.cfg.PairRefresh
	if len(s.symbols) > 0 && fresh && !forced {
		return nil
	}

	symbols, err := s.market.TopVolumeSymbols(ctx, s.cfg.MaxUSDTPairs, s.cfg.MinVolumeUSDT)
	if err != nil {
		return fmt.Errorf("volume screen failed: %w", err)
	}
	if len(symbols) == 0 {
		return fmt.Errorf("volume screen returned no symbols (minVolume=%.0f)", s.cfg.MinVolumeUSDT)
	}

	s.symbols = symbols
	s.lastRefresh = s.now()
	s.buffers.Reset()
	s.logger.Info(ctx, "Symbol universe refreshed", map[string]interface{}{
		"count": len(symbols), "forced": forced,
	})
	return nil
}

// preload seeds each symbol's buffer with recent history. A symbol whose
// fetch fails is scanned anyway; its buffer fills from the live stream.
func (s *Scanner) preload(ctx context.Context) {
	loaded := 0
	for _, symbol := range s.symbols {
		history, err := s.market.GetKlines(ctx, symbol, s.cfg.EntryInterval, s.cfg.PreloadLimit)
		if err != nil {
			s.logger.Warn(ctx, "Preload failed for symbol, continuing without history",
				map[string]interface{}{"symbol": symbol, "error": err.Error()})
			continue
		}
		s.buffers.Preload(symbol, history)
		loaded++
	}
	s.logger.Info(ctx, "Preload complete", map[string]interface{}{
		"symbols": len(s.symbols), "loaded": loaded,
	})
}

// runStream opens one combined subscription and consumes it until the
// connection drops, the stream goes silent, or shutdown/restart is
// requested. All pipeline work happens on this goroutine so detection sees
// each buffer in a consistent state.
func (s *Scanner) runStream(ctx context.Context, symbols []string) error {
	events := make(chan *domain.Candle, eventBufferSize)
	handler := func(c *domain.Candle) {
		enqueueCandle(ctx, events, c)
	}
	errHandler := func(err error) {
		s.logger.Warn(ctx, "WebSocket stream error reported", map[string]interface{}{"error": err.Error()})
	}

	doneCh, stopCh, err := s.market.StreamKlines(ctx, symbols, s.cfg.EntryInterval, handler, errHandler)
	if err != nil {
		return fmt.Errorf("failed to open kline stream: %w", err)
	}
	stopStream := func() {
		select {
		case stopCh <- struct{}{}:
		default:
		}
	}

	recvTimer := time.NewTimer(s.cfg.RecvTimeout)
	defer recvTimer.Stop()

	for {
		select {
		case <-ctx.Done():
			stopStream()
			return ctx.Err()
		case <-doneCh:
			return ports.ErrStreamClosed
		case candle := <-events:
			if !recvTimer.Stop() {
				<-recvTimer.C
			}
			recvTimer.Reset(s.cfg.RecvTimeout)

			snap := s.state.Snapshot()
			if halt := s.controlHalt(snap); halt != nil {
				stopStream()
				return halt
			}
			s.buffers.Update(candle.Symbol, candle)
			if candle.IsFinal && snap.Scanning {
				s.processClosedBar(ctx, candle.Symbol, snap)
			}
		case <-recvTimer.C:
			// Silence on the stream is not an error. Re-check the runtime
			// controls and keep waiting; a dead connection surfaces through
			// the done channel instead.
			if halt := s.controlHalt(s.state.Snapshot()); halt != nil {
				stopStream()
				return halt
			}
			recvTimer.Reset(s.cfg.RecvTimeout)
		}
	}
}

// controlHalt reports the teardown the current runtime controls demand, or
// nil while the stream may keep running. A stale symbol universe forces the
// same teardown as a closed connection so the refresh path runs even when
// the stream never drops on its own.
func (s *Scanner) controlHalt(snap Snapshot) error {
	switch {
	case !snap.Running:
		return errStopRequested
	case snap.SoftRestart:
		s.state.consumeSoftRestart()
		return errSoftRestart
	case snap.ForceRefresh || s.now().Sub(s.lastRefresh) >= s.cfg.PairRefresh:
		return errRefreshDue
	}
	return nil
}

// enqueueCandle hands one stream event to the pipeline. The send blocks when
// the pipeline lags so backpressure reaches the websocket read loop; closed
// bars are never coalesced or dropped.
func enqueueCandle(ctx context.Context, events chan<- *domain.Candle, c *domain.Candle) {
	select {
	case events <- c:
	case <-ctx.Done():
	}
}

// processClosedBar runs the full pipeline for one symbol after a bar close:
// detect, build levels, guard reward-to-risk, consult the higher timeframe,
// score, gate and deliver.
func (s *Scanner) processClosedBar(ctx context.Context, symbol string, snap Snapshot) {
	closed := s.buffers.Closed(symbol)
	if len(closed) < s.detector.MinCandles() {
		return
	}

	det := s.detector.Detect(ctx, closed)
	if det == nil {
		return
	}

	trigger := closed[len(closed)-1]
	if det.SweepIdx >= 0 && det.SweepIdx < len(closed) {
		trigger = closed[det.SweepIdx]
	}
	lastClose := closed[len(closed)-1].Close

	lv := s.builder.Build(det, trigger, lastClose)

	rrTP2 := absFloat(lv.TP2-lv.Entry) / lv.Risk
	if rrTP2 < s.cfg.MinRRToTP2 {
		s.logger.Debug(ctx, "Candidate rejected: reward-to-risk below minimum", map[string]interface{}{
			"symbol": symbol, "rrTP2": rrTP2, "min": s.cfg.MinRRToTP2,
		})
		return
	}

	htfAligned := true
	if s.cfg.UseHTFFilter && s.htf != nil {
		htfAligned = s.htf.Query(ctx, symbol).Aligned(det.Side)
	}

	score, tier := s.scorer.Evaluate(scoring.Inputs{
		Flags:       det.Flags,
		RROk:        true,
		HTFAligned:  htfAligned,
		StopLossPct: lv.StopLossPct,
	})
	if !scoring.ShouldSend(tier, snap.MinTier) {
		s.logger.Debug(ctx, "Candidate below minimum tier", map[string]interface{}{
			"symbol": symbol, "tier": tier, "score": score, "minTier": snap.MinTier,
		})
		return
	}

	now := s.now()
	s.gate.SetWindow(snap.Cooldown)
	if !s.gate.Allow(symbol, now) {
		s.logger.Debug(ctx, "Candidate suppressed by cooldown", map[string]interface{}{"symbol": symbol})
		return
	}

	sig := &domain.Signal{
		Symbol:      symbol,
		Side:        det.Side,
		Entry:       lv.Entry,
		StopLoss:    lv.StopLoss,
		TP1:         lv.TP1,
		TP2:         lv.TP2,
		TP3:         lv.TP3,
		StopLossPct: lv.StopLossPct,
		LeverageMin: lv.LeverageMin,
		LeverageMax: lv.LeverageMax,
		Tier:        tier,
		Score:       score,
		RangeLow:    det.RangeLow,
		RangeHigh:   det.RangeHigh,
		CreatedAt:   now,
	}
	sig.Message = formatSignalMessage(sig, s.detector.Name())

	// Delivery and journaling failures are logged, never fatal: a flaky
	// notifier must not stall the stream consumer.
	if err := s.notifier.Broadcast(ctx, sig); err != nil {
		s.logger.Error(ctx, err, "Signal broadcast failed", map[string]interface{}{"symbol": symbol})
	}
	if _, err := s.signals.CreateSignal(ctx, sig); err != nil {
		s.logger.Error(ctx, err, "Signal journaling failed", map[string]interface{}{"symbol": symbol})
	}
	s.gate.Record(symbol, now)

	s.logger.Info(ctx, "Signal emitted", map[string]interface{}{
		"symbol": symbol, "side": sig.Side, "tier": tier, "score": score,
		"entry": sig.Entry, "stopLoss": sig.StopLoss,
	})
}

// formatSignalMessage renders the Markdown message delivered to subscribers.
func formatSignalMessage(sig *domain.Signal, strategyName string) string {
	emoji := "🟢"
	label := "LONG"
	if sig.Side == domain.SideShort {
		emoji = "🔴"
		label = "SHORT"
	}
	return fmt.Sprintf(
		"%s RANGE SIGNAL — %s (%s)\n"+
			"Entry : `%.6f`\n"+
			"SL    : `%.6f`\n"+
			"TP1   : `%.6f`\n"+
			"TP2   : `%.6f`\n"+
			"TP3   : `%.6f`\n"+
			"Model : %s\n"+
			"Leverage : %.0fx–%.0fx (SL %.2f%%)\n"+
			"Tier : %s (Score %d)",
		emoji, sig.Symbol, label,
		sig.Entry, sig.StopLoss, sig.TP1, sig.TP2, sig.TP3,
		strategyName,
		sig.LeverageMin, sig.LeverageMax, sig.StopLossPct,
		sig.Tier, sig.Score,
	)
}

// sleepCtx sleeps for d, returning false if the context ends first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	select {
	case <-time.After(d):
		return true
	case <-ctx.Done():
		return false
	}
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
