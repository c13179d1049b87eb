package position

import (
	"math"

	"aster-trading-bot/internal/exchange"
)

// Aggregate computes the authoritative position summary. Live exchange
// data takes strict precedence; tranche arithmetic is the fallback. When
// the live position is authoritative the per-tranche PnL figures are
// zeroed in place: the live total cannot be attributed to individual
// tranches without fabricating a split.
func Aggregate(live *exchange.Position, tranches []TrancheView, leverage int) Summary {
	summary := Summary{NumTranches: len(tranches)}

	if live != nil {
		summary.TotalQuantity = math.Abs(live.PositionAmt)
		summary.AvgEntryPrice = live.EntryPrice
		summary.TotalMargin = live.InitialMargin

		switch {
		case live.PositionAmt > 0:
			summary.UnrealizedPnl = (live.MarkPrice - live.EntryPrice) * live.PositionAmt
		case live.PositionAmt < 0:
			summary.UnrealizedPnl = (live.EntryPrice - live.MarkPrice) * math.Abs(live.PositionAmt)
		}

		for i := range tranches {
			tranches[i].UnrealizedPnl = 0.0
		}
		return summary
	}

	if len(tranches) == 0 {
		return summary
	}

	var weightedEntry float64
	for _, t := range tranches {
		summary.TotalQuantity += t.TotalQuantity
		weightedEntry += t.TotalQuantity * t.AvgEntryPrice
		summary.UnrealizedPnl += t.UnrealizedPnl
	}

	if summary.TotalQuantity > 0 {
		summary.AvgEntryPrice = weightedEntry / summary.TotalQuantity
	}
	if leverage > 0 {
		summary.TotalMargin = (summary.TotalQuantity * summary.AvgEntryPrice) / float64(leverage)
	}

	return summary
}
