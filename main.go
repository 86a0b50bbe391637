package main

import (
	"context"
	"log" // Use standard log only for initial fatal errors before logger is set up

	"rangepulse/config"
	"rangepulse/internal/adapters/binanceclient"
	"rangepulse/internal/adapters/logger"
	"rangepulse/internal/adapters/sqlite"
	"rangepulse/internal/adapters/telegram"
	"rangepulse/internal/app"
	"rangepulse/internal/htf"
	"rangepulse/internal/strategy"
	"rangepulse/internal/strategy/strategies"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err) // Use standard log before logger is ready
	}

	// 2. Initialize Logger
	appLogger := logger.NewStdLogger(cfg.LogLevel)
	appLogger.Info(context.Background(), "Logger initialized", map[string]interface{}{"level": cfg.LogLevel.String()})

	// 3. Initialize Repository (Database Adapter)
	repo, err := sqlite.NewRepository(sqlite.Config{
		DBPath: cfg.DBPath,
		Logger: appLogger,
	})
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize database repository")
		log.Fatalf("FATAL: Failed to initialize database repository: %v", err) // Also log to stderr
	}
	defer func() {
		if err := repo.Close(); err != nil {
			appLogger.Error(context.Background(), err, "Error closing database repository")
		}
	}()
	appLogger.Info(context.Background(), "Database repository initialized")

	// Seed the subscriber list from configuration so a fresh deployment can
	// deliver signals without a separate registration flow.
	for _, chatID := range cfg.SeedChatIDs {
		if err := repo.AddSubscriber(context.Background(), chatID); err != nil {
			appLogger.Error(context.Background(), err, "Failed to seed subscriber", map[string]interface{}{"chatID": chatID})
		}
	}

	// 4. Initialize Exchange Client (Binance Adapter)
	binanceClient, err := binanceclient.New(binanceclient.Config{
		APIKey:     cfg.APIKey,
		SecretKey:  cfg.SecretKey,
		UseTestnet: cfg.IsTestnet,
		Logger:     appLogger,
	})
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize Binance client")
		log.Fatalf("FATAL: Failed to initialize Binance client: %v", err)
	}
	appLogger.Info(context.Background(), "Binance client initialized")

	// 5. Initialize Telegram Notifier
	notifier, err := telegram.New(telegram.Config{
		BotToken:    cfg.TelegramToken,
		Subscribers: repo,
		Logger:      appLogger,
	})
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize Telegram notifier")
		log.Fatalf("FATAL: Failed to initialize Telegram notifier: %v", err)
	}
	appLogger.Info(context.Background(), "Telegram notifier initialized")

	// 6. Initialize Detection Engine
	engine, err := strategy.New(strategy.Config{
		Mode: strategy.Mode(cfg.StrategyMode),
		Fakeout: strategies.FakeoutConfig{
			MinRangePct:       cfg.MinRangePct,
			MinPenetrationPct: cfg.SweepPenetrationMinPct,
		},
		BreakoutRetest: strategies.BreakoutRetestConfig{
			MinRangePct:      cfg.MinRangePct,
			MaxRangeWidthPct: cfg.MaxRangeWidthPct,
		},
		Reversion: strategies.ReversionConfig{
			MinRangePct: cfg.MinRangePct,
		},
		SweepDisplacement: strategies.SweepDisplacementConfig{
			MinRangePct:        cfg.MinRangePct,
			MaxRangeWidthPct:   cfg.MaxRangeWidthPct,
			MinPenetrationPct:  cfg.SweepPenetrationMinPct,
			DisplacementFactor: cfg.DisplacementFactor,
		},
	}, appLogger)
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize detection engine")
		log.Fatalf("FATAL: Failed to initialize detection engine: %v", err)
	}
	appLogger.Info(context.Background(), "Detection engine initialized", map[string]interface{}{"strategy": engine.Name()})

	// 7. Initialize Higher-Timeframe Context Provider
	htfProvider := htf.NewProvider(binanceClient, appLogger, htf.Config{
		CacheTTL: cfg.HTFCacheTTL,
	})

	// 8. Initialize Application Service
	scanner, err := app.NewScanner(
		cfg,
		appLogger,
		binanceClient, // Pass the concrete implementation, service expects the interface
		repo,          // Pass the concrete implementation, service expects the interface
		notifier,
		engine,
		htfProvider,
	)
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize scanner")
		log.Fatalf("FATAL: Failed to initialize scanner: %v", err)
	}
	appLogger.Info(context.Background(), "Scanner initialized")

	// 9. Start the Service
	// Use context.Background() as the base context for the application run
	if err := scanner.Start(context.Background()); err != nil {
		appLogger.Error(context.Background(), err, "Scanner exited with error")
		log.Fatalf("FATAL: Scanner exited with error: %v", err)
	}

	appLogger.Info(context.Background(), "Application finished gracefully.")
}
