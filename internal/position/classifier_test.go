package position

import (
	"testing"

	"github.com/rs/zerolog"

	"aster-trading-bot/internal/database"
	"aster-trading-bot/internal/exchange"
)

func TestClassifyOrdersLiveRefinement(t *testing.T) {
	tranches := []database.Tranche{
		{TrancheID: 0, Symbol: "BTCUSDT", PositionSide: "LONG", TPOrderID: int64Ref(101), SLOrderID: int64Ref(102)},
	}
	openOrders := []exchange.Order{
		{OrderId: 101, Type: "LIMIT", Status: "NEW", OrigQty: 1, Price: 65000, Side: "SELL", ExecutedQty: 0.25},
		{OrderId: 102, Type: "STOP_MARKET", Status: "NEW", OrigQty: 1, StopPrice: 55000, Side: "SELL"},
		{OrderId: 999, Type: "LIMIT", Status: "NEW", OrigQty: 5, Price: 50000, Side: "BUY"},
	}

	result := ClassifyOrders(tranches, nil, openOrders, nil, zerolog.Nop())

	tp, ok := result[101]
	if !ok {
		t.Fatal("expected tp order in result")
	}
	if tp.Type != "TP_LIMIT" {
		t.Errorf("expected TP_LIMIT, got %s", tp.Type)
	}
	if tp.Price != 65000 {
		t.Errorf("expected price 65000, got %v", tp.Price)
	}
	if tp.ExecutedQty != 0.25 {
		t.Errorf("expected executed qty 0.25, got %v", tp.ExecutedQty)
	}

	sl, ok := result[102]
	if !ok {
		t.Fatal("expected sl order in result")
	}
	if sl.Type != "SL_STOP" {
		t.Errorf("expected SL_STOP, got %s", sl.Type)
	}
	if sl.Price != 55000 {
		t.Errorf("expected stop price fallback 55000, got %v", sl.Price)
	}

	if _, ok := result[999]; ok {
		t.Error("plain limit order unrelated to any tranche should be excluded")
	}
}

func TestClassifyOrdersCacheFallback(t *testing.T) {
	price := 64000.0
	tranches := []database.Tranche{
		{TrancheID: 0, TPOrderID: int64Ref(201), SLOrderID: int64Ref(202)},
	}
	cached := []database.OrderStatusRecord{
		{OrderID: 201, Status: "FILLED", Quantity: 1, Price: &price, Side: "SELL"},
		{OrderID: 202, Quantity: 1, Side: "SELL"},
	}

	result := ClassifyOrders(tranches, nil, nil, cached, zerolog.Nop())

	tp, ok := result[201]
	if !ok {
		t.Fatal("expected cached tp order in result")
	}
	if tp.Type != "TP_ORDER" {
		t.Errorf("expected TP_ORDER, got %s", tp.Type)
	}
	if tp.Status != "FILLED" {
		t.Errorf("expected FILLED, got %s", tp.Status)
	}
	if tp.ExecutedQty != 0 {
		t.Errorf("cache fallback must not report fills, got %v", tp.ExecutedQty)
	}

	sl, ok := result[202]
	if !ok {
		t.Fatal("expected cached sl order in result")
	}
	if sl.Type != "SL_ORDER" {
		t.Errorf("expected SL_ORDER, got %s", sl.Type)
	}
	if sl.Status != "UNKNOWN" {
		t.Errorf("empty cached status should resolve to UNKNOWN, got %s", sl.Status)
	}
}

func TestClassifyOrdersUnmatchedIDsDropped(t *testing.T) {
	tranches := []database.Tranche{
		{TrancheID: 0, TPOrderID: int64Ref(301)},
	}

	result := ClassifyOrders(tranches, nil, nil, nil, zerolog.Nop())

	if len(result) != 0 {
		t.Errorf("ids with no live or cached record should be dropped, got %d entries", len(result))
	}
}

func TestClassifyOrdersRelationshipIDsIncluded(t *testing.T) {
	relationships := []database.OrderRelationship{
		{TrancheID: intRef(0), TPOrderID: int64Ref(401), SLOrderID: int64Ref(402)},
	}
	openOrders := []exchange.Order{
		{OrderId: 401, Type: "LIMIT", Status: "NEW", OrigQty: 2, Price: 70000, Side: "SELL"},
	}

	result := ClassifyOrders(nil, relationships, openOrders, nil, zerolog.Nop())

	if got := result[401].Type; got != "TP_LIMIT" {
		t.Errorf("expected relationship-sourced id classified TP_LIMIT, got %s", got)
	}
}

func TestClassifyOrdersConflictingIDPrefersTakeProfit(t *testing.T) {
	tranches := []database.Tranche{
		{TrancheID: 0, TPOrderID: int64Ref(501), SLOrderID: int64Ref(501)},
	}
	openOrders := []exchange.Order{
		{OrderId: 501, Type: "LIMIT", Status: "NEW", OrigQty: 1, Price: 66000, Side: "SELL"},
	}

	result := ClassifyOrders(tranches, nil, openOrders, nil, zerolog.Nop())

	if got := result[501].Type; got != "TP_LIMIT" {
		t.Errorf("expected conflicting id to classify as TP_LIMIT, got %s", got)
	}
}
