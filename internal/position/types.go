package position

import (
	"context"
	"time"

	"aster-trading-bot/internal/database"
)

// Ledger is the persistence surface the reconciliation engine reads from
// and the close path audits to. *database.DB satisfies it.
type Ledger interface {
	ListTranches(ctx context.Context, symbol, positionSide string) ([]database.Tranche, error)
	ListRelationships(ctx context.Context, symbol, positionSide string) ([]database.OrderRelationship, error)
	ListTrades(ctx context.Context, symbol, positionSide string, limit int) ([]database.Trade, error)
	ListOrderStatuses(ctx context.Context, symbol string, orderIDs []int64) ([]database.OrderStatusRecord, error)
	InsertTrade(ctx context.Context, trade *database.Trade) error
	UpsertOrderStatus(ctx context.Context, record *database.OrderStatusRecord) error
	DeleteTranches(ctx context.Context, symbol, positionSide string) error
}

// Summary is the single authoritative position aggregate. Its quantity,
// entry price, PnL and margin all come from one source: the live exchange
// position when present, otherwise tranche arithmetic.
type Summary struct {
	TotalQuantity float64 `json:"total_quantity"`
	AvgEntryPrice float64 `json:"avg_entry_price"`
	UnrealizedPnl float64 `json:"unrealized_pnl"`
	TotalMargin   float64 `json:"total_margin"`
	NumTranches   int     `json:"num_tranches"`
}

// TrancheView is a tranche as presented to callers. UnrealizedPnl may be
// overridden to 0 when the live exchange total is authoritative.
type TrancheView struct {
	TrancheID     int       `json:"tranche_id"`
	TotalQuantity float64   `json:"total_quantity"`
	AvgEntryPrice float64   `json:"avg_entry_price"`
	TPOrderID     *int64    `json:"tp_order_id"`
	SLOrderID     *int64    `json:"sl_order_id"`
	UnrealizedPnl float64   `json:"unrealized_pnl"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// OrderStatusView is the resolved state of one TP/SL order, merged from
// live open orders and the local status cache
type OrderStatusView struct {
	OrderID     int64   `json:"order_id"`
	Status      string  `json:"status"`
	Quantity    float64 `json:"quantity"`
	Price       float64 `json:"price"`
	Side        string  `json:"side"`
	Type        string  `json:"type"`
	ExecutedQty float64 `json:"executed_qty"`
}

// Detail is the full reconciled view for one (symbol, side)
type Detail struct {
	Symbol             string                       `json:"symbol"`
	Side               string                       `json:"side"`
	Summary            Summary                      `json:"summary"`
	Tranches           []TrancheView                `json:"tranches"`
	OrderRelationships []database.OrderRelationship `json:"order_relationships"`
	OrderStatuses      map[int64]OrderStatusView    `json:"order_statuses"`
	Trades             []database.Trade             `json:"trades"`
}

// CloseResult is the outcome of a close-position request
type CloseResult struct {
	Success   bool    `json:"success"`
	Simulated bool    `json:"simulated,omitempty"`
	OrderID   int64   `json:"order_id,omitempty"`
	OrderSide string  `json:"order_side,omitempty"`
	Quantity  float64 `json:"quantity,omitempty"`
	Message   string  `json:"message"`
}

// Effective order type labels produced by the classifier
const (
	typeTPLimit   = "TP_LIMIT"
	typeSLStop    = "SL_STOP"
	typeTPOrder   = "TP_ORDER"
	typeSLOrder   = "SL_ORDER"
	typeTPSL      = "TP/SL"
	statusUnknown = "UNKNOWN"
)
