package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"rangepulse/internal/adapters/logger"
	"rangepulse/internal/levels"
	"rangepulse/internal/ohlc"
	"rangepulse/internal/scoring"
	"rangepulse/internal/strategy"
	"rangepulse/internal/utils"
)

// Replays an exported candle CSV through the detection pipeline and prints
// every candidate that clears the reward-to-risk guard, with its score and
// tier. Useful for eyeballing how a strategy variant behaves on history
// without touching the exchange or Telegram.
func main() {
	file := flag.String("file", "", "candle CSV produced by cmd/fetch_candles (required)")
	mode := flag.String("mode", "fakeout", "strategy mode to replay")
	minRR := flag.Float64("min-rr", 1.5, "minimum reward-to-risk at TP2")
	flag.Parse()

	if *file == "" {
		log.Fatal("FATAL: -file is required")
	}

	appLogger := logger.NewStdLogger(logger.LevelWarn)
	ctx := context.Background()

	candles, err := utils.ReadCandlesFromCSV(*file)
	if err != nil {
		log.Fatalf("FATAL: Failed to read candles: %v", err)
	}
	if len(candles) == 0 {
		log.Fatal("FATAL: CSV contains no candles")
	}

	engine, err := strategy.New(strategy.Config{Mode: strategy.Mode(*mode)}, appLogger)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize detection engine: %v", err)
	}

	builder := levels.NewBuilder(levels.Config{})
	scorer := scoring.NewScorer(scoring.Config{})
	buffer := ohlc.NewBuffer(0) // default capacity

	fmt.Printf("Replaying %d candles of %s (%s) through %s\n\n",
		len(candles), candles[0].Symbol, candles[0].Interval, engine.Name())

	emitted := 0
	for _, c := range candles {
		buffer.Update(c)
		closed := buffer.Closed()
		if len(closed) < engine.MinCandles() {
			continue
		}

		det := engine.Detect(ctx, closed)
		if det == nil {
			continue
		}

		trigger := closed[len(closed)-1]
		if det.SweepIdx >= 0 && det.SweepIdx < len(closed) {
			trigger = closed[det.SweepIdx]
		}
		lv := builder.Build(det, trigger, closed[len(closed)-1].Close)

		rr := lv.TP2 - lv.Entry
		if rr < 0 {
			rr = -rr
		}
		if rr/lv.Risk < *minRR {
			continue
		}

		score, tier := scorer.Evaluate(scoring.Inputs{
			Flags:       det.Flags,
			RROk:        true,
			HTFAligned:  true, // no HTF fetch during offline replay
			StopLossPct: lv.StopLossPct,
		})

		emitted++
		fmt.Printf("%s  %-5s  entry=%.6f sl=%.6f tp2=%.6f slPct=%.2f%%  tier=%s score=%d\n",
			c.CloseTime.Format("2006-01-02 15:04"), det.Side, lv.Entry, lv.StopLoss, lv.TP2, lv.StopLossPct, tier, score)
	}

	fmt.Printf("\n%d candidates over %d candles\n", emitted, len(candles))
}
