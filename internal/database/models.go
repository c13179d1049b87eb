package database

import "time"

// Trade category values derived from a trade's order type and parentage
const (
	TradeCategoryEntry      = "ENTRY"
	TradeCategoryTakeProfit = "TAKE_PROFIT"
	TradeCategoryStopLoss   = "STOP_LOSS"
)

// Tranche is an independently tracked slice of a position with its own
// entry price and protective orders
type Tranche struct {
	ID            int64     `json:"-"`
	TrancheID     int       `json:"tranche_id"`
	Symbol        string    `json:"symbol"`
	PositionSide  string    `json:"position_side"`
	TotalQuantity float64   `json:"total_quantity"`
	AvgEntryPrice float64   `json:"avg_entry_price"`
	TPOrderID     *int64    `json:"tp_order_id"`
	SLOrderID     *int64    `json:"sl_order_id"`
	UnrealizedPnl float64   `json:"unrealized_pnl"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Trade is one row of the trade audit log
type Trade struct {
	ID            int64     `json:"id"`
	OrderID       int64     `json:"order_id"`
	Symbol        string    `json:"symbol"`
	Side          string    `json:"side"`
	OrderType     string    `json:"order_type"`
	ParentOrderID *int64    `json:"parent_order_id"`
	TrancheID     *int      `json:"tranche_id"`
	Quantity      float64   `json:"quantity"`
	Price         float64   `json:"price"`
	FilledQty     float64   `json:"filled_qty"`
	AvgPrice      float64   `json:"avg_price"`
	Status        string    `json:"status"`
	Timestamp     time.Time `json:"timestamp"`

	// Derived, not persisted
	TradeCategory string `json:"trade_category,omitempty"`
}

// OrderRelationship is one event in the tranche-to-order link log
type OrderRelationship struct {
	ID           int64     `json:"id"`
	Symbol       string    `json:"symbol"`
	PositionSide *string   `json:"position_side"`
	TrancheID    *int      `json:"tranche_id"`
	TPOrderID    *int64    `json:"tp_order_id"`
	SLOrderID    *int64    `json:"sl_order_id"`
	CreatedAt    time.Time `json:"created_at"`
}

// OrderStatusRecord is the persisted snapshot of an order's last known state
type OrderStatusRecord struct {
	OrderID      int64     `json:"order_id"`
	Symbol       string    `json:"symbol"`
	Side         string    `json:"side"`
	Quantity     float64   `json:"quantity"`
	Price        *float64  `json:"price"`
	PositionSide string    `json:"position_side"`
	Status       string    `json:"status"`
	UpdatedAt    time.Time `json:"updated_at"`
}
