package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/polycopy/copytrader/internal/execution"
	"github.com/polycopy/copytrader/pkg/types"
)

// PostgresStore implements Store using PostgreSQL.
type PostgresStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// PostgresConfig holds PostgreSQL configuration.
type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
	SSLMode  string
	Logger   *zap.Logger
}

// NewPostgresStore creates a new PostgreSQL store.
func NewPostgresStore(cfg *PostgresConfig) (*PostgresStore, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	cfg.Logger.Info("postgres-store-connected",
		zap.String("host", cfg.Host),
		zap.String("database", cfg.Database))

	return &PostgresStore{
		db:     db,
		logger: cfg.Logger,
	}, nil
}

// NewPostgresStoreWithDB wraps an existing database handle. Used by tests.
func NewPostgresStoreWithDB(db *sql.DB, logger *zap.Logger) *PostgresStore {
	return &PostgresStore{db: db, logger: logger}
}

// UpsertPosition inserts or replaces one position snapshot, keyed by
// (address, asset, market).
func (p *PostgresStore) UpsertPosition(ctx context.Context, address string, pos *types.Position) error {
	query := `
		INSERT INTO positions (
			address, asset, condition_id, size, avg_price, cur_price,
			current_value, cash_pnl, realized_pnl, redeemable, title,
			outcome, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13
		)
		ON CONFLICT (address, asset, condition_id) DO UPDATE SET
			size = EXCLUDED.size,
			avg_price = EXCLUDED.avg_price,
			cur_price = EXCLUDED.cur_price,
			current_value = EXCLUDED.current_value,
			cash_pnl = EXCLUDED.cash_pnl,
			realized_pnl = EXCLUDED.realized_pnl,
			redeemable = EXCLUDED.redeemable,
			title = EXCLUDED.title,
			outcome = EXCLUDED.outcome,
			updated_at = EXCLUDED.updated_at
	`

	_, err := p.db.ExecContext(ctx, query,
		address,
		pos.Asset,
		pos.ConditionID,
		pos.Size,
		pos.AvgPrice,
		pos.CurPrice,
		pos.CurrentValue,
		pos.CashPnL,
		pos.RealizedPnL,
		pos.Redeemable,
		pos.Title,
		pos.Outcome,
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("upsert position: %w", err)
	}

	p.logger.Debug("position-upserted",
		zap.String("address", address),
		zap.String("asset", pos.Asset),
		zap.Float64("size", pos.Size))

	return nil
}

// RecordActivity stores one observed trade event.
func (p *PostgresStore) RecordActivity(ctx context.Context, trade *types.TradeActivity) error {
	query := `
		INSERT INTO activity (
			proxy_wallet, condition_id, asset, side, size, usdc_size,
			price, event_timestamp, recorded_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9
		)
	`

	_, err := p.db.ExecContext(ctx, query,
		trade.ProxyWallet,
		trade.ConditionID,
		trade.Asset,
		trade.Side,
		trade.Size,
		trade.USDCSize,
		trade.Price,
		trade.Time().UTC(),
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert activity: %w", err)
	}

	return nil
}

// RecordExecution stores the terminal result of one fill loop.
func (p *PostgresStore) RecordExecution(ctx context.Context, res *execution.Result) error {
	query := `
		INSERT INTO executions (
			attempt_id, asset, side, outcome, filled_tokens,
			filled_notional, unfilled_tokens, unfilled_usd, iterations,
			reason, recorded_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11
		)
	`

	_, err := p.db.ExecContext(ctx, query,
		res.AttemptID,
		res.Asset,
		res.Side,
		string(res.Outcome),
		res.FilledTokens,
		res.FilledNotional,
		res.UnfilledTokens,
		res.UnfilledUSD,
		res.Iterations,
		res.Reason,
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert execution: %w", err)
	}

	p.logger.Debug("execution-recorded",
		zap.String("attempt-id", res.AttemptID),
		zap.String("outcome", string(res.Outcome)))

	return nil
}

// PositionCount returns the number of stored positions for an address.
func (p *PostgresStore) PositionCount(ctx context.Context, address string) (int, error) {
	var count int
	err := p.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM positions WHERE address = $1`, address).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count positions: %w", err)
	}
	return count, nil
}

// Close closes the database connection.
func (p *PostgresStore) Close() error {
	p.logger.Info("closing-postgres-store")
	return p.db.Close()
}
