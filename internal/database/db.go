package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"aster-trading-bot/config"
)

// DB wraps the PostgreSQL connection pool
type DB struct {
	Pool *pgxpool.Pool
}

// NewDB creates a new database connection
func NewDB(cfg config.DatabaseConfig) (*DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode,
	)

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database config: %w", err)
	}

	poolConfig.MaxConns = 25
	poolConfig.MinConns = 5
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	log.Printf("Successfully connected to PostgreSQL database: %s", cfg.Database)

	return &DB{Pool: pool}, nil
}

// Close closes the database connection
func (db *DB) Close() {
	if db.Pool != nil {
		db.Pool.Close()
		log.Println("Database connection closed")
	}
}

// RunMigrations executes database migrations
func (db *DB) RunMigrations(ctx context.Context) error {
	log.Println("Running database migrations...")

	migrations := []string{
		// Position tranches: independently tracked slices of a position.
		// tranche_id is scoped per (symbol, position_side).
		`CREATE TABLE IF NOT EXISTS position_tranches (
			id SERIAL PRIMARY KEY,
			tranche_id INTEGER NOT NULL,
			symbol VARCHAR(20) NOT NULL,
			position_side VARCHAR(5) NOT NULL,
			total_quantity DECIMAL(20, 8) NOT NULL DEFAULT 0,
			avg_entry_price DECIMAL(20, 8) NOT NULL DEFAULT 0,
			tp_order_id BIGINT,
			sl_order_id BIGINT,
			unrealized_pnl DECIMAL(20, 8) NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (symbol, position_side, tranche_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_tranches_symbol_side ON position_tranches(symbol, position_side)`,

		// Trade audit log, one row per order event
		`CREATE TABLE IF NOT EXISTS trades (
			id SERIAL PRIMARY KEY,
			order_id BIGINT NOT NULL,
			symbol VARCHAR(20) NOT NULL,
			side VARCHAR(4) NOT NULL,
			order_type VARCHAR(30) NOT NULL,
			parent_order_id BIGINT,
			tranche_id INTEGER,
			quantity DECIMAL(20, 8) NOT NULL,
			price DECIMAL(20, 8) NOT NULL DEFAULT 0,
			filled_qty DECIMAL(20, 8) NOT NULL DEFAULT 0,
			avg_price DECIMAL(20, 8) NOT NULL DEFAULT 0,
			status VARCHAR(20) NOT NULL,
			timestamp TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_trades_symbol ON trades(symbol)`,
		`CREATE INDEX IF NOT EXISTS idx_trades_order_id ON trades(order_id)`,
		`CREATE INDEX IF NOT EXISTS idx_trades_timestamp ON trades(timestamp DESC)`,

		// Append-only event log linking tranches to protective orders.
		// Never updated in place: the latest row per tranche wins.
		`CREATE TABLE IF NOT EXISTS order_relationships (
			id SERIAL PRIMARY KEY,
			symbol VARCHAR(20) NOT NULL,
			position_side VARCHAR(5),
			tranche_id INTEGER,
			tp_order_id BIGINT,
			sl_order_id BIGINT,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_relationships_symbol_side ON order_relationships(symbol, position_side)`,
		`CREATE INDEX IF NOT EXISTS idx_relationships_created_at ON order_relationships(created_at DESC)`,

		// Best-effort snapshot of order state for orders no longer open
		`CREATE TABLE IF NOT EXISTS order_status (
			order_id BIGINT PRIMARY KEY,
			symbol VARCHAR(20) NOT NULL,
			side VARCHAR(4) NOT NULL,
			quantity DECIMAL(20, 8) NOT NULL DEFAULT 0,
			price DECIMAL(20, 8),
			position_side VARCHAR(5) NOT NULL DEFAULT 'BOTH',
			status VARCHAR(20),
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_order_status_symbol ON order_status(symbol)`,
	}

	for i, migration := range migrations {
		if _, err := db.Pool.Exec(ctx, migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	log.Println("Database migrations completed successfully")
	return nil
}

// HealthCheck performs a database health check
func (db *DB) HealthCheck(ctx context.Context) error {
	return db.Pool.Ping(ctx)
}
