package position

import (
	"strings"

	"github.com/rs/zerolog"

	"aster-trading-bot/internal/database"
	"aster-trading-bot/internal/exchange"
)

// ClassifyOrders resolves, per order id, whether it is a take-profit or
// stop-loss order and in what live status. Ids are collected from tranche
// rows and from the latest relationship row per tranche; live open orders
// supply current state, with the local status cache as fallback for orders
// no longer open. Pure merge, no side effects.
func ClassifyOrders(
	tranches []database.Tranche,
	relationships []database.OrderRelationship,
	openOrders []exchange.Order,
	cached []database.OrderStatusRecord,
	logger zerolog.Logger,
) map[int64]OrderStatusView {
	tpIds := make(map[int64]bool)
	slIds := make(map[int64]bool)

	for _, t := range tranches {
		if t.TPOrderID != nil {
			tpIds[*t.TPOrderID] = true
		}
		if t.SLOrderID != nil {
			slIds[*t.SLOrderID] = true
		}
	}
	for _, r := range relationships {
		if r.TPOrderID != nil {
			tpIds[*r.TPOrderID] = true
		}
		if r.SLOrderID != nil {
			slIds[*r.SLOrderID] = true
		}
	}

	// An id claimed as both TP and SL means the ledger disagrees with
	// itself. TP wins for classification, matching prior behavior, but
	// the conflict is surfaced for operational visibility.
	for id := range tpIds {
		if slIds[id] {
			logger.Warn().
				Int64("order_id", id).
				Msg("Order id recorded as both take-profit and stop-loss")
		}
	}

	result := make(map[int64]OrderStatusView)

	for _, o := range openOrders {
		isProtective := strings.Contains(o.Type, "TAKE_PROFIT") || strings.Contains(o.Type, "STOP")
		if !isProtective && !tpIds[o.OrderId] && !slIds[o.OrderId] {
			continue
		}

		effectiveType := o.Type
		switch {
		case tpIds[o.OrderId] && o.Type == string(exchange.OrderTypeLimit):
			effectiveType = typeTPLimit
		case slIds[o.OrderId] && strings.Contains(o.Type, "STOP"):
			effectiveType = typeSLStop
		}

		price := o.Price
		if price == 0 {
			price = o.StopPrice
		}

		result[o.OrderId] = OrderStatusView{
			OrderID:     o.OrderId,
			Status:      o.Status,
			Quantity:    o.OrigQty,
			Price:       price,
			Side:        o.Side,
			Type:        effectiveType,
			ExecutedQty: o.ExecutedQty,
		}
	}

	cachedByID := make(map[int64]database.OrderStatusRecord, len(cached))
	for _, c := range cached {
		cachedByID[c.OrderID] = c
	}

	resolveFromCache := func(id int64) {
		if _, done := result[id]; done {
			return
		}
		c, ok := cachedByID[id]
		if !ok {
			// Expected for very old or expired orders: drop silently
			return
		}

		var effectiveType string
		switch {
		case tpIds[id]:
			effectiveType = typeTPOrder
		case slIds[id]:
			effectiveType = typeSLOrder
		default:
			effectiveType = typeTPSL
		}

		status := c.Status
		if status == "" {
			status = statusUnknown
		}
		var price float64
		if c.Price != nil {
			price = *c.Price
		}

		result[id] = OrderStatusView{
			OrderID:  id,
			Status:   status,
			Quantity: c.Quantity,
			Price:    price,
			Side:     c.Side,
			Type:     effectiveType,
			// Cache does not track partial fills
			ExecutedQty: 0,
		}
	}

	for id := range tpIds {
		resolveFromCache(id)
	}
	for id := range slIds {
		resolveFromCache(id)
	}

	return result
}
