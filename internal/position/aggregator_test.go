package position

import (
	"math"
	"testing"

	"aster-trading-bot/internal/exchange"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestAggregateLivePositionTakesPrecedence(t *testing.T) {
	live := &exchange.Position{
		Symbol:        "BTCUSDT",
		PositionAmt:   1.5,
		EntryPrice:    60000,
		MarkPrice:     61000,
		InitialMargin: 9000,
	}
	tranches := []TrancheView{
		{TrancheID: 0, TotalQuantity: 1.0, AvgEntryPrice: 59000, UnrealizedPnl: 500},
		{TrancheID: 1, TotalQuantity: 0.5, AvgEntryPrice: 62000, UnrealizedPnl: -200},
	}

	summary := Aggregate(live, tranches, 10)

	if !almostEqual(summary.TotalQuantity, 1.5) {
		t.Errorf("expected quantity 1.5, got %v", summary.TotalQuantity)
	}
	if !almostEqual(summary.AvgEntryPrice, 60000) {
		t.Errorf("expected entry 60000, got %v", summary.AvgEntryPrice)
	}
	if !almostEqual(summary.UnrealizedPnl, 1500) {
		t.Errorf("expected pnl 1500, got %v", summary.UnrealizedPnl)
	}
	if !almostEqual(summary.TotalMargin, 9000) {
		t.Errorf("expected margin 9000, got %v", summary.TotalMargin)
	}
	if summary.NumTranches != 2 {
		t.Errorf("expected 2 tranches, got %d", summary.NumTranches)
	}
	for _, tr := range tranches {
		if tr.UnrealizedPnl != 0 {
			t.Errorf("tranche %d pnl not zeroed: %v", tr.TrancheID, tr.UnrealizedPnl)
		}
	}
}

func TestAggregateShortPositionPnl(t *testing.T) {
	live := &exchange.Position{
		Symbol:      "ETHUSDT",
		PositionAmt: -2,
		EntryPrice:  3000,
		MarkPrice:   2900,
	}

	summary := Aggregate(live, nil, 10)

	if !almostEqual(summary.TotalQuantity, 2) {
		t.Errorf("expected quantity 2, got %v", summary.TotalQuantity)
	}
	if !almostEqual(summary.UnrealizedPnl, 200) {
		t.Errorf("expected pnl 200, got %v", summary.UnrealizedPnl)
	}
}

func TestAggregateTrancheFallback(t *testing.T) {
	tranches := []TrancheView{
		{TrancheID: 0, TotalQuantity: 2, AvgEntryPrice: 100, UnrealizedPnl: 10},
		{TrancheID: 1, TotalQuantity: 3, AvgEntryPrice: 200, UnrealizedPnl: -4},
	}

	t.Run("weighted average entry", func(t *testing.T) {
		summary := Aggregate(nil, tranches, 10)
		if !almostEqual(summary.TotalQuantity, 5) {
			t.Errorf("expected quantity 5, got %v", summary.TotalQuantity)
		}
		if !almostEqual(summary.AvgEntryPrice, 160) {
			t.Errorf("expected weighted entry 160, got %v", summary.AvgEntryPrice)
		}
		if !almostEqual(summary.UnrealizedPnl, 6) {
			t.Errorf("expected pnl 6, got %v", summary.UnrealizedPnl)
		}
		if !almostEqual(summary.TotalMargin, 80) {
			t.Errorf("expected margin 80, got %v", summary.TotalMargin)
		}
	})

	t.Run("zero leverage yields zero margin", func(t *testing.T) {
		summary := Aggregate(nil, tranches, 0)
		if summary.TotalMargin != 0 {
			t.Errorf("expected margin 0, got %v", summary.TotalMargin)
		}
	})
}

func TestAggregateEmpty(t *testing.T) {
	summary := Aggregate(nil, nil, 10)
	if summary.TotalQuantity != 0 || summary.AvgEntryPrice != 0 || summary.UnrealizedPnl != 0 || summary.TotalMargin != 0 {
		t.Errorf("expected zeroed summary, got %+v", summary)
	}
	if summary.NumTranches != 0 {
		t.Errorf("expected 0 tranches, got %d", summary.NumTranches)
	}
}
