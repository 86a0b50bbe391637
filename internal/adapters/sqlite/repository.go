package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"rangepulse/internal/domain"
	"rangepulse/internal/ports"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Repository implements the ports.SignalRepository and
// ports.SubscriberRepository interfaces using SQLite.
type Repository struct {
	db     *sql.DB
	logger ports.Logger
}

// Config holds configuration for the SQLite repository.
type Config struct {
	DBPath string
	Logger ports.Logger
}

// NewRepository creates a new SQLite repository instance.
func NewRepository(cfg Config) (*Repository, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for SQLite repository")
	}
	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath = "./data/rangepulse.db" // Default path
	}

	// Create data directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		err = fmt.Errorf("failed to create data directory '%s': %w", filepath.Dir(dbPath), err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	// Open database connection
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000") // WAL mode for better concurrency
	if err != nil {
		err = fmt.Errorf("failed to open database at '%s': %w", dbPath, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close() // Close the connection if ping fails
		err = fmt.Errorf("failed to ping database at '%s': %w", dbPath, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	// Set connection pool settings (important for SQLite)
	db.SetMaxOpenConns(1) // SQLite handles concurrency internally, but Go driver benefits from limiting connections
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	cfg.Logger.Info(context.Background(), "SQLite database connection established", map[string]interface{}{"path": dbPath})

	repo := &Repository{db: db, logger: cfg.Logger}

	if err := repo.initializeSchema(context.Background()); err != nil {
		db.Close()
		err = fmt.Errorf("failed to initialize database schema: %w", err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}
	cfg.Logger.Info(context.Background(), "Database schema initialized/verified")

	return repo, nil
}

// initializeSchema creates tables if they don't exist.
// NOTE: This is a basic approach. A proper migration tool is recommended for production.
func (r *Repository) initializeSchema(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS signals (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		symbol TEXT NOT NULL,
		side TEXT NOT NULL,
		entry REAL NOT NULL,
		stop_loss REAL NOT NULL,
		tp1 REAL NOT NULL,
		tp2 REAL NOT NULL,
		tp3 REAL NOT NULL,
		stop_loss_pct REAL NOT NULL,
		leverage_min REAL NOT NULL,
		leverage_max REAL NOT NULL,
		tier TEXT NOT NULL,
		score INTEGER NOT NULL,
		range_low REAL NOT NULL,
		range_high REAL NOT NULL,
		message TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS subscribers (
		chat_id INTEGER PRIMARY KEY,
		added_at TIMESTAMP NOT NULL
	);
	-- Add indexes for common lookups
	CREATE INDEX IF NOT EXISTS idx_signals_symbol_created_at ON signals (symbol, created_at);
	CREATE INDEX IF NOT EXISTS idx_signals_created_at ON signals (created_at);
	`
	_, err := r.db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("failed to execute schema initialization: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	if r.db != nil {
		r.logger.Info(context.Background(), "Closing SQLite database connection")
		return r.db.Close()
	}
	return nil
}

// --- SignalRepository Implementation ---

// CreateSignal saves an accepted signal and returns its assigned ID.
func (r *Repository) CreateSignal(ctx context.Context, sig *domain.Signal) (int64, error) {
	const query = `
	INSERT INTO signals (symbol, side, entry, stop_loss, tp1, tp2, tp3, stop_loss_pct,
	                     leverage_min, leverage_max, tier, score, range_low, range_high, message, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	result, err := r.db.ExecContext(ctx, query,
		sig.Symbol, string(sig.Side), sig.Entry, sig.StopLoss, sig.TP1, sig.TP2, sig.TP3, sig.StopLossPct,
		sig.LeverageMin, sig.LeverageMax, string(sig.Tier), sig.Score, sig.RangeLow, sig.RangeHigh, sig.Message, sig.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("failed to insert signal for symbol %s: %w: %w", sig.Symbol, ports.ErrQueryFailed, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for signal %s: %w", sig.Symbol, err)
	}
	sig.ID = id // Update the domain object with the ID
	r.logger.Debug(ctx, "Signal journaled", map[string]interface{}{"signalID": id, "symbol": sig.Symbol, "tier": sig.Tier})
	return id, nil
}

// FindBySymbol retrieves the most recent signals for a given symbol, up to a limit.
func (r *Repository) FindBySymbol(ctx context.Context, symbol string, limit int) ([]*domain.Signal, error) {
	const query = `
	SELECT id, symbol, side, entry, stop_loss, tp1, tp2, tp3, stop_loss_pct,
	       leverage_min, leverage_max, tier, score, range_low, range_high, message, created_at
	FROM signals
	WHERE symbol = ? ORDER BY created_at DESC LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query signals for symbol %s: %w: %w", symbol, ports.ErrQueryFailed, err)
	}
	defer rows.Close()

	signals := make([]*domain.Signal, 0)
	for rows.Next() {
		sig, err := scanSignal(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan signal during FindBySymbol: %w", err)
		}
		signals = append(signals, sig)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating signal rows: %w", err)
	}
	return signals, nil
}

// CountSince counts signals accepted at or after the given time.
func (r *Repository) CountSince(ctx context.Context, since time.Time) (int, error) {
	const query = `SELECT COUNT(*) FROM signals WHERE created_at >= ?`
	var count int
	err := r.db.QueryRowContext(ctx, query, since).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count signals since %s: %w: %w", since, ports.ErrQueryFailed, err)
	}
	return count, nil
}

// --- SubscriberRepository Implementation ---

// ListSubscribers returns all registered chat IDs.
func (r *Repository) ListSubscribers(ctx context.Context) ([]int64, error) {
	const query = `SELECT chat_id FROM subscribers ORDER BY added_at`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query subscribers: %w: %w", ports.ErrQueryFailed, err)
	}
	defer rows.Close()

	chatIDs := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan subscriber row: %w", err)
		}
		chatIDs = append(chatIDs, id)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating subscriber rows: %w", err)
	}
	return chatIDs, nil
}

// AddSubscriber registers a chat ID, ignoring duplicates.
func (r *Repository) AddSubscriber(ctx context.Context, chatID int64) error {
	const query = `INSERT OR IGNORE INTO subscribers (chat_id, added_at) VALUES (?, ?)`

	_, err := r.db.ExecContext(ctx, query, chatID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to insert subscriber %d: %w: %w", chatID, ports.ErrQueryFailed, err)
	}
	r.logger.Debug(ctx, "Subscriber registered", map[string]interface{}{"chatID": chatID})
	return nil
}

// scanner abstracts sql.Row and sql.Rows for the scan helper.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanSignal(s scanner) (*domain.Signal, error) {
	var sig domain.Signal
	var side, tier string
	err := s.Scan(
		&sig.ID, &sig.Symbol, &side, &sig.Entry, &sig.StopLoss,
		&sig.TP1, &sig.TP2, &sig.TP3, &sig.StopLossPct,
		&sig.LeverageMin, &sig.LeverageMax, &tier, &sig.Score,
		&sig.RangeLow, &sig.RangeHigh, &sig.Message, &sig.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	sig.Side = domain.Side(side)
	sig.Tier = domain.ParseTier(tier)
	return &sig, nil
}
