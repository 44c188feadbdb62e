package engine

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/tradeforge/marginbt/internal/logger"
	"github.com/tradeforge/marginbt/internal/types"
	"go.uber.org/zap"
)

// BacktestState is the run ledger. Every order event and every closed trade
// is appended to an in-memory DuckDB so the run can be queried and exported
// after the fact. Position tracking lives in the venue; the ledger is the
// durable record.
type BacktestState struct {
	db     *sql.DB
	logger *logger.Logger
}

func NewBacktestState(logger *logger.Logger) *BacktestState {
	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		logger.Error("Failed to open database", zap.Error(err))
		return nil
	}

	return &BacktestState{
		logger: logger,
		db:     db,
	}
}

// Initialize creates the tables for tracking orders, fills and closed trades
func (b *BacktestState) Initialize() error {
	_, err := b.db.Exec(`CREATE SEQUENCE IF NOT EXISTS order_seq`)
	if err != nil {
		return fmt.Errorf("failed to create sequence: %w", err)
	}

	_, err = b.db.Exec(`
		CREATE TABLE IF NOT EXISTS orders (
			seq INTEGER PRIMARY KEY DEFAULT nextval('order_seq'),
			order_id TEXT,
			group_id TEXT,
			symbol TEXT,
			side TEXT,
			kind TEXT,
			role TEXT,
			quantity DOUBLE,
			price DOUBLE,
			leverage INTEGER,
			timestamp TIMESTAMP,
			status TEXT,
			reason TEXT,
			message TEXT,
			strategy_name TEXT,
			fee DOUBLE
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create orders table: %w", err)
	}

	_, err = b.db.Exec(`
		CREATE TABLE IF NOT EXISTS fills (
			order_id TEXT,
			group_id TEXT,
			role TEXT,
			side TEXT,
			price DOUBLE,
			quantity DOUBLE,
			commission DOUBLE,
			timestamp TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create fills table: %w", err)
	}

	_, err = b.db.Exec(`
		CREATE TABLE IF NOT EXISTS closed_trades (
			symbol TEXT,
			entry_price DOUBLE,
			exit_price DOUBLE,
			size DOUBLE,
			leverage INTEGER,
			gross_pnl DOUBLE,
			net_pnl DOUBLE,
			commission DOUBLE,
			open_time TIMESTAMP,
			close_time TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create closed_trades table: %w", err)
	}

	return nil
}

// RecordOrder appends one order event. Status transitions append a new row
// rather than mutating the old one, so the full lifecycle stays queryable.
func (b *BacktestState) RecordOrder(order types.Order) error {
	query, args, err := sq.Insert("orders").
		Columns("order_id", "group_id", "symbol", "side", "kind", "role",
			"quantity", "price", "leverage", "timestamp", "status",
			"reason", "message", "strategy_name", "fee").
		Values(order.OrderID, order.GroupID, order.Symbol, order.Side, order.Kind, order.Role,
			order.Quantity, order.Price, order.Leverage, order.Timestamp, order.Status,
			order.Reason.Reason, order.Reason.Message, order.StrategyName, order.Fee).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build order insert: %w", err)
	}

	if _, err := b.db.Exec(query, args...); err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	return nil
}

// RecordFill appends one execution.
func (b *BacktestState) RecordFill(fill types.Fill) error {
	query, args, err := sq.Insert("fills").
		Columns("order_id", "group_id", "role", "side", "price", "quantity", "commission", "timestamp").
		Values(fill.OrderID, fill.GroupID, fill.Role, fill.Side, fill.Price, fill.Quantity, fill.Commission, fill.Timestamp).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build fill insert: %w", err)
	}

	if _, err := b.db.Exec(query, args...); err != nil {
		return fmt.Errorf("failed to insert fill: %w", err)
	}

	return nil
}

// RecordClosedTrade appends one round trip.
func (b *BacktestState) RecordClosedTrade(trade types.ClosedTrade) error {
	query, args, err := sq.Insert("closed_trades").
		Columns("symbol", "entry_price", "exit_price", "size", "leverage",
			"gross_pnl", "net_pnl", "commission", "open_time", "close_time").
		Values(trade.Symbol, trade.EntryPrice, trade.ExitPrice, trade.Size, trade.Leverage,
			trade.GrossPnL, trade.NetPnL, trade.Commission, trade.OpenTime, trade.CloseTime).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build closed trade insert: %w", err)
	}

	if _, err := b.db.Exec(query, args...); err != nil {
		return fmt.Errorf("failed to insert closed trade: %w", err)
	}

	return nil
}

// GetAllClosedTrades returns every round trip in close-time order.
func (b *BacktestState) GetAllClosedTrades() ([]types.ClosedTrade, error) {
	query, args, err := sq.Select("symbol", "entry_price", "exit_price", "size", "leverage",
		"gross_pnl", "net_pnl", "commission", "open_time", "close_time").
		From("closed_trades").
		OrderBy("close_time ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build closed trades query: %w", err)
	}

	rows, err := b.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query closed trades: %w", err)
	}
	defer rows.Close()

	var trades []types.ClosedTrade
	for rows.Next() {
		var trade types.ClosedTrade
		err := rows.Scan(
			&trade.Symbol,
			&trade.EntryPrice,
			&trade.ExitPrice,
			&trade.Size,
			&trade.Leverage,
			&trade.GrossPnL,
			&trade.NetPnL,
			&trade.Commission,
			&trade.OpenTime,
			&trade.CloseTime,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan closed trade: %w", err)
		}
		trades = append(trades, trade)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating closed trades: %w", err)
	}

	return trades, nil
}

// TradeStats are the ledger-side aggregates reported next to the metrics
// summary.
type TradeStats struct {
	OrderEvents     int     `yaml:"order_events" json:"order_events"`
	Fills           int     `yaml:"fills" json:"fills"`
	ClosedTrades    int     `yaml:"closed_trades" json:"closed_trades"`
	TotalCommission float64 `yaml:"total_commission" json:"total_commission"`
	TotalNetPnL     float64 `yaml:"total_net_pnl" json:"total_net_pnl"`
	BestTrade       float64 `yaml:"best_trade" json:"best_trade"`
	WorstTrade      float64 `yaml:"worst_trade" json:"worst_trade"`
}

// GetTradeStats aggregates the ledger tables.
func (b *BacktestState) GetTradeStats() (TradeStats, error) {
	var stats TradeStats

	if err := b.db.QueryRow(`SELECT COUNT(*) FROM orders`).Scan(&stats.OrderEvents); err != nil {
		return stats, fmt.Errorf("failed to count orders: %w", err)
	}

	if err := b.db.QueryRow(`SELECT COUNT(*) FROM fills`).Scan(&stats.Fills); err != nil {
		return stats, fmt.Errorf("failed to count fills: %w", err)
	}

	err := b.db.QueryRow(`
		SELECT
			COUNT(*),
			COALESCE(SUM(commission), 0),
			COALESCE(SUM(net_pnl), 0),
			COALESCE(MAX(net_pnl), 0),
			COALESCE(MIN(net_pnl), 0)
		FROM closed_trades
	`).Scan(&stats.ClosedTrades, &stats.TotalCommission, &stats.TotalNetPnL, &stats.BestTrade, &stats.WorstTrade)
	if err != nil {
		return stats, fmt.Errorf("failed to aggregate closed trades: %w", err)
	}

	return stats, nil
}

// Cleanup resets the database state
func (b *BacktestState) Cleanup() error {
	_, err := b.db.Exec(`
		DROP TABLE IF EXISTS closed_trades;
		DROP TABLE IF EXISTS fills;
		DROP TABLE IF EXISTS orders;
		DROP SEQUENCE IF EXISTS order_seq;
	`)
	if err != nil {
		return fmt.Errorf("failed to cleanup tables: %w", err)
	}

	return b.Initialize()
}

// Close releases the underlying database.
func (b *BacktestState) Close() error {
	return b.db.Close()
}

// Write saves the backtest results to Parquet files in the specified directory
func (b *BacktestState) Write(path string) error {
	if err := os.MkdirAll(path, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	ordersPath := filepath.Join(path, "orders.parquet")
	_, err := b.db.Exec(fmt.Sprintf(`COPY orders TO '%s' (FORMAT PARQUET)`, ordersPath))
	if err != nil {
		return fmt.Errorf("failed to export orders to Parquet: %w", err)
	}

	fillsPath := filepath.Join(path, "fills.parquet")
	_, err = b.db.Exec(fmt.Sprintf(`COPY fills TO '%s' (FORMAT PARQUET)`, fillsPath))
	if err != nil {
		return fmt.Errorf("failed to export fills to Parquet: %w", err)
	}

	tradesPath := filepath.Join(path, "closed_trades.parquet")
	_, err = b.db.Exec(fmt.Sprintf(`COPY closed_trades TO '%s' (FORMAT PARQUET)`, tradesPath))
	if err != nil {
		return fmt.Errorf("failed to export closed trades to Parquet: %w", err)
	}

	b.logger.Info("Successfully exported backtest results to Parquet files",
		zap.String("orders", ordersPath),
		zap.String("fills", fillsPath),
		zap.String("closed_trades", tradesPath),
	)

	return nil
}
