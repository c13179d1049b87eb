package position

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"aster-trading-bot/config"
	"aster-trading-bot/internal/database"
	"aster-trading-bot/internal/exchange"
)

// Service reconciles the exchange's live state with the local ledger into
// one consistent position view, and delegates closes to the Closer.
//
// Reads are best-effort: every sub-fetch degrades independently and the
// service answers even when all sources fail, with zeroed fields. Only
// malformed input is an error.
type Service struct {
	client exchange.Client
	ledger Ledger
	closer *Closer
	cfg    config.TradingConfig
	logger zerolog.Logger
}

// NewService creates a new reconciliation service
func NewService(client exchange.Client, ledger Ledger, cfg config.TradingConfig, logger zerolog.Logger) *Service {
	return &Service{
		client: client,
		ledger: ledger,
		closer: NewCloser(client, ledger, cfg, logger),
		cfg:    cfg,
		logger: logger.With().Str("component", "PositionService").Logger(),
	}
}

// Closer exposes the write-side executor
func (s *Service) Closer() *Closer {
	return s.closer
}

// validateInput rejects malformed symbol/side shapes. Everything else is
// handled by degradation, never by erroring.
func validateInput(symbol, side string) error {
	if symbol == "" {
		return ErrInvalidSymbol
	}
	if side != "LONG" && side != "SHORT" {
		return fmt.Errorf("%w: %q", ErrInvalidSide, side)
	}
	return nil
}

// GetPositionDetail returns the reconciled position view for a symbol and
// position side (LONG or SHORT).
func (s *Service) GetPositionDetail(ctx context.Context, symbol, side string) (*Detail, error) {
	if err := validateInput(symbol, side); err != nil {
		return nil, err
	}

	// The two exchange calls and the ledger reads are independent
	// snapshots with no shared mutable state; merge happens after all
	// complete.
	var (
		wg         sync.WaitGroup
		live       *exchange.Position
		openOrders []exchange.Order
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		positions, err := s.client.GetPositionRisk(symbol)
		if err != nil {
			s.logger.Warn().Err(err).Str("symbol", symbol).
				Msg("Live position fetch failed, falling back to ledger")
			return
		}
		live = matchLivePosition(positions, symbol, side)
	}()
	go func() {
		defer wg.Done()
		orders, err := s.client.GetOpenOrders(symbol)
		if err != nil {
			s.logger.Warn().Err(err).Str("symbol", symbol).
				Msg("Open orders fetch failed, classifying from cache only")
			return
		}
		openOrders = orders
	}()

	tranches, err := s.ledger.ListTranches(ctx, symbol, side)
	if err != nil {
		s.logger.Warn().Err(err).Str("symbol", symbol).Msg("Tranche query failed")
		tranches = nil
	}

	relationshipLog, err := s.ledger.ListRelationships(ctx, symbol, side)
	if err != nil {
		s.logger.Warn().Err(err).Str("symbol", symbol).Msg("Relationship query failed")
		relationshipLog = nil
	}
	relationships := latestRelationships(relationshipLog)

	trades, err := s.ledger.ListTrades(ctx, symbol, side, 100)
	if err != nil {
		s.logger.Warn().Err(err).Str("symbol", symbol).Msg("Trade query failed")
		trades = nil
	}

	wg.Wait()

	// Resolve orders that have fallen out of the live open set from the
	// local status cache
	cachedIDs := unresolvedOrderIDs(tranches, relationships, openOrders)
	var cached []database.OrderStatusRecord
	if len(cachedIDs) > 0 {
		cached, err = s.ledger.ListOrderStatuses(ctx, symbol, cachedIDs)
		if err != nil {
			s.logger.Warn().Err(err).Str("symbol", symbol).Msg("Order status cache query failed")
			cached = nil
		}
	}

	views := buildTrancheViews(tranches, relationships)
	orderStatuses := ClassifyOrders(tranches, relationships, openOrders, cached, s.logger)
	summary := Aggregate(live, views, s.cfg.LeverageFor(symbol))

	detail := &Detail{
		Symbol:             symbol,
		Side:               side,
		Summary:            summary,
		Tranches:           views,
		OrderRelationships: relationships,
		OrderStatuses:      orderStatuses,
		Trades:             trades,
	}
	if detail.Tranches == nil {
		detail.Tranches = []TrancheView{}
	}
	if detail.OrderRelationships == nil {
		detail.OrderRelationships = []database.OrderRelationship{}
	}
	if detail.Trades == nil {
		detail.Trades = []database.Trade{}
	}
	return detail, nil
}

// matchLivePosition finds the live position for a concrete side. In hedge
// mode the exchange reports positionSide directly; in one-way mode the
// sign of positionAmt carries the direction.
func matchLivePosition(positions []exchange.Position, symbol, side string) *exchange.Position {
	for i := range positions {
		pos := &positions[i]
		if pos.Symbol != symbol || pos.PositionAmt == 0 {
			continue
		}
		switch pos.PositionSide {
		case side:
			return pos
		case string(exchange.PositionSideBoth):
			if (side == "LONG") == (pos.PositionAmt > 0) {
				return pos
			}
		}
	}
	return nil
}

// unresolvedOrderIDs collects ledger-claimed TP/SL ids that are absent
// from the live open-order set
func unresolvedOrderIDs(tranches []database.Tranche, relationships []database.OrderRelationship, openOrders []exchange.Order) []int64 {
	open := make(map[int64]bool, len(openOrders))
	for _, o := range openOrders {
		open[o.OrderId] = true
	}

	seen := make(map[int64]bool)
	var ids []int64
	add := func(id *int64) {
		if id == nil || open[*id] || seen[*id] {
			return
		}
		seen[*id] = true
		ids = append(ids, *id)
	}

	for i := range tranches {
		add(tranches[i].TPOrderID)
		add(tranches[i].SLOrderID)
	}
	for i := range relationships {
		add(relationships[i].TPOrderID)
		add(relationships[i].SLOrderID)
	}
	return ids
}

// buildTrancheViews converts ledger tranches to presentation views,
// filling TP/SL ids from the latest relationship rows when the tranche
// row itself has none.
func buildTrancheViews(tranches []database.Tranche, relationships []database.OrderRelationship) []TrancheView {
	relByTranche := make(map[int]database.OrderRelationship, len(relationships))
	for _, r := range relationships {
		if r.TrancheID != nil {
			relByTranche[*r.TrancheID] = r
		}
	}

	views := make([]TrancheView, 0, len(tranches))
	for _, t := range tranches {
		v := TrancheView{
			TrancheID:     t.TrancheID,
			TotalQuantity: t.TotalQuantity,
			AvgEntryPrice: t.AvgEntryPrice,
			TPOrderID:     t.TPOrderID,
			SLOrderID:     t.SLOrderID,
			UnrealizedPnl: t.UnrealizedPnl,
			CreatedAt:     t.CreatedAt,
			UpdatedAt:     t.UpdatedAt,
		}
		if rel, ok := relByTranche[t.TrancheID]; ok {
			if v.TPOrderID == nil {
				v.TPOrderID = rel.TPOrderID
			}
			if v.SLOrderID == nil {
				v.SLOrderID = rel.SLOrderID
			}
		}
		views = append(views, v)
	}
	return views
}
