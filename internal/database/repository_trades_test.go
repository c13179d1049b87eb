package database

import "testing"

func int64Ptr(v int64) *int64 { return &v }

func TestDeriveTradeCategory(t *testing.T) {
	tests := []struct {
		name      string
		orderType string
		parent    *int64
		want      string
	}{
		{"market entry without parent", "MARKET", nil, TradeCategoryEntry},
		{"limit entry without parent", "LIMIT", nil, TradeCategoryEntry},
		{"take profit market child", "TAKE_PROFIT_MARKET", int64Ptr(100), TradeCategoryTakeProfit},
		{"take profit limit child", "TAKE_PROFIT", int64Ptr(100), TradeCategoryTakeProfit},
		{"stop market child", "STOP_MARKET", int64Ptr(100), TradeCategoryStopLoss},
		{"stop limit child", "STOP", int64Ptr(100), TradeCategoryStopLoss},
		{"unknown child keeps raw type", "TRAILING_STOP_MARKET", int64Ptr(100), "TRAILING_STOP_MARKET"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := deriveTradeCategory(tt.orderType, tt.parent)
			if got != tt.want {
				t.Errorf("deriveTradeCategory(%q, parent=%v) = %q, want %q",
					tt.orderType, tt.parent, got, tt.want)
			}
		})
	}
}
