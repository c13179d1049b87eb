package database

import (
	"context"
	"fmt"
	"time"
)

const tradeColumns = `id, order_id, symbol, side, order_type, parent_order_id, tranche_id,
	quantity, price, filled_qty, avg_price, status, timestamp`

// InsertTrade appends a row to the trade audit log
func (db *DB) InsertTrade(ctx context.Context, trade *Trade) error {
	query := `
		INSERT INTO trades (
			order_id, symbol, side, order_type, parent_order_id, tranche_id,
			quantity, price, filled_qty, avg_price, status, timestamp
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id`

	if trade.Timestamp.IsZero() {
		trade.Timestamp = time.Now()
	}

	err := db.Pool.QueryRow(ctx, query,
		trade.OrderID, trade.Symbol, trade.Side, trade.OrderType,
		trade.ParentOrderID, trade.TrancheID, trade.Quantity, trade.Price,
		trade.FilledQty, trade.AvgPrice, trade.Status, trade.Timestamp,
	).Scan(&trade.ID)

	if err != nil {
		return fmt.Errorf("failed to insert trade: %w", err)
	}
	return nil
}

// ListTrades retrieves recent trades for a symbol and position side,
// newest first. The side filter matches entry direction: LONG positions
// enter with BUY, SHORT with SELL. Child orders follow their parent's
// side so a hedge-mode LONG listing never picks up SHORT protective fills.
func (db *DB) ListTrades(ctx context.Context, symbol, positionSide string, limit int) ([]Trade, error) {
	if limit <= 0 {
		limit = 50
	}
	entrySide := "BUY"
	if positionSide == "SHORT" {
		entrySide = "SELL"
	}

	query := `
		SELECT t.id, t.order_id, t.symbol, t.side, t.order_type, t.parent_order_id, t.tranche_id,
			t.quantity, t.price, t.filled_qty, t.avg_price, t.status, t.timestamp
		FROM trades t
		LEFT JOIN trades p ON p.order_id = t.parent_order_id AND p.symbol = t.symbol
		WHERE t.symbol = $1
			AND ((t.parent_order_id IS NULL AND t.side = $2)
				OR (t.parent_order_id IS NOT NULL AND COALESCE(p.side, $2) = $2))
		ORDER BY t.timestamp DESC
		LIMIT $3`

	rows, err := db.Pool.Query(ctx, query, symbol, entrySide, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list trades: %w", err)
	}
	defer rows.Close()

	return scanTrades(rows)
}

// TradeFilter holds optional filters for querying the trade log
type TradeFilter struct {
	Symbol string
	Status string
	Hours  int
	Limit  int
}

// ListTradesFiltered retrieves trades matching the filter, newest first
func (db *DB) ListTradesFiltered(ctx context.Context, filter TradeFilter) ([]Trade, error) {
	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	query := `SELECT ` + tradeColumns + ` FROM trades WHERE 1=1`
	args := []interface{}{}

	if filter.Symbol != "" {
		args = append(args, filter.Symbol)
		query += fmt.Sprintf(" AND symbol = $%d", len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filter.Hours > 0 {
		args = append(args, time.Now().Add(-time.Duration(filter.Hours)*time.Hour))
		query += fmt.Sprintf(" AND timestamp >= $%d", len(args))
	}

	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY timestamp DESC LIMIT $%d", len(args))

	rows, err := db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list trades: %w", err)
	}
	defer rows.Close()

	return scanTrades(rows)
}

// GetTradeByOrderID retrieves a single trade by exchange order id.
// Returns nil when the order has no audit row.
func (db *DB) GetTradeByOrderID(ctx context.Context, orderID int64) (*Trade, error) {
	query := `SELECT ` + tradeColumns + ` FROM trades WHERE order_id = $1 ORDER BY timestamp DESC LIMIT 1`

	t := &Trade{}
	err := db.Pool.QueryRow(ctx, query, orderID).Scan(
		&t.ID, &t.OrderID, &t.Symbol, &t.Side, &t.OrderType,
		&t.ParentOrderID, &t.TrancheID, &t.Quantity, &t.Price,
		&t.FilledQty, &t.AvgPrice, &t.Status, &t.Timestamp,
	)
	if err != nil {
		if err.Error() == "no rows in result set" {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get trade: %w", err)
	}

	t.TradeCategory = deriveTradeCategory(t.OrderType, t.ParentOrderID)
	return t, nil
}

// ListTradesByParent retrieves the child trades (TP/SL orders) of an entry order
func (db *DB) ListTradesByParent(ctx context.Context, parentOrderID int64) ([]Trade, error) {
	query := `SELECT ` + tradeColumns + ` FROM trades WHERE parent_order_id = $1 ORDER BY timestamp ASC`

	rows, err := db.Pool.Query(ctx, query, parentOrderID)
	if err != nil {
		return nil, fmt.Errorf("failed to list child trades: %w", err)
	}
	defer rows.Close()

	return scanTrades(rows)
}

type tradeRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanTrades(rows tradeRows) ([]Trade, error) {
	var trades []Trade
	for rows.Next() {
		var t Trade
		err := rows.Scan(
			&t.ID, &t.OrderID, &t.Symbol, &t.Side, &t.OrderType,
			&t.ParentOrderID, &t.TrancheID, &t.Quantity, &t.Price,
			&t.FilledQty, &t.AvgPrice, &t.Status, &t.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trade: %w", err)
		}
		t.TradeCategory = deriveTradeCategory(t.OrderType, t.ParentOrderID)
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

// deriveTradeCategory classifies a trade from its order type and parentage.
// Orders without a parent are position entries; children are protective
// orders whose kind follows from the order type.
func deriveTradeCategory(orderType string, parentOrderID *int64) string {
	if parentOrderID == nil {
		return TradeCategoryEntry
	}
	switch orderType {
	case "TAKE_PROFIT_MARKET", "TAKE_PROFIT":
		return TradeCategoryTakeProfit
	case "STOP_MARKET", "STOP":
		return TradeCategoryStopLoss
	default:
		return orderType
	}
}
