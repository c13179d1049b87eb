package position

import (
	"context"
	"errors"

	"aster-trading-bot/internal/database"
	"aster-trading-bot/internal/exchange"
)

var errBackend = errors.New("backend unavailable")

// fakeClient substitutes the exchange API with canned responses and call
// counters. Nil function fields return empty results.
type fakeClient struct {
	positions     []exchange.Position
	positionsErr  error
	openOrders    []exchange.Order
	openOrdersErr error
	orderResp     *exchange.OrderResponse
	orderErr      error

	positionRiskCalls int
	openOrderCalls    int
	placedOrders      []exchange.OrderParams
}

func (f *fakeClient) GetPositionRisk(symbol string) ([]exchange.Position, error) {
	f.positionRiskCalls++
	return f.positions, f.positionsErr
}

func (f *fakeClient) GetOpenOrders(symbol string) ([]exchange.Order, error) {
	f.openOrderCalls++
	return f.openOrders, f.openOrdersErr
}

func (f *fakeClient) PlaceOrder(params exchange.OrderParams) (*exchange.OrderResponse, error) {
	f.placedOrders = append(f.placedOrders, params)
	if f.orderErr != nil {
		return nil, f.orderErr
	}
	if f.orderResp != nil {
		return f.orderResp, nil
	}
	return &exchange.OrderResponse{OrderId: 1, Symbol: params.Symbol, Status: "NEW"}, nil
}

func (f *fakeClient) GetAccountInfo() (*exchange.AccountInfo, error) {
	return &exchange.AccountInfo{}, nil
}

func (f *fakeClient) GetExchangeInfo() (*exchange.ExchangeInfo, error) {
	return &exchange.ExchangeInfo{}, nil
}

// fakeLedger substitutes the database with in-memory state
type fakeLedger struct {
	tranches      []database.Tranche
	relationships []database.OrderRelationship
	trades        []database.Trade
	statuses      []database.OrderStatusRecord

	queryErr  error
	writeErr  error
	inserted  []database.Trade
	upserted  []database.OrderStatusRecord
	deletions []string
}

func (f *fakeLedger) ListTranches(ctx context.Context, symbol, positionSide string) ([]database.Tranche, error) {
	return f.tranches, f.queryErr
}

func (f *fakeLedger) ListRelationships(ctx context.Context, symbol, positionSide string) ([]database.OrderRelationship, error) {
	return f.relationships, f.queryErr
}

func (f *fakeLedger) ListTrades(ctx context.Context, symbol, positionSide string, limit int) ([]database.Trade, error) {
	return f.trades, f.queryErr
}

func (f *fakeLedger) ListOrderStatuses(ctx context.Context, symbol string, orderIDs []int64) ([]database.OrderStatusRecord, error) {
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	wanted := make(map[int64]bool, len(orderIDs))
	for _, id := range orderIDs {
		wanted[id] = true
	}
	var out []database.OrderStatusRecord
	for _, s := range f.statuses {
		if wanted[s.OrderID] {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeLedger) InsertTrade(ctx context.Context, trade *database.Trade) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	f.inserted = append(f.inserted, *trade)
	return nil
}

func (f *fakeLedger) UpsertOrderStatus(ctx context.Context, record *database.OrderStatusRecord) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	f.upserted = append(f.upserted, *record)
	return nil
}

func (f *fakeLedger) DeleteTranches(ctx context.Context, symbol, positionSide string) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	f.deletions = append(f.deletions, symbol+"/"+positionSide)
	return nil
}

func int64Ref(v int64) *int64 { return &v }

func intRef(v int) *int { return &v }
