package position

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"aster-trading-bot/config"
	"aster-trading-bot/internal/database"
	"aster-trading-bot/internal/exchange"
)

// Closer executes position closes against the live exchange. Each request
// is a single submission attempt: LOCATING re-reads live state so a stale
// quantity is never reused, and there is no retry loop.
type Closer struct {
	client exchange.Client
	ledger Ledger
	cfg    config.TradingConfig
	logger zerolog.Logger

	// Serializes closes per symbol. The exchange is the final arbiter of
	// position state, so this only guards against issuing duplicate
	// submissions from this process.
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewCloser creates a new Closer
func NewCloser(client exchange.Client, ledger Ledger, cfg config.TradingConfig, logger zerolog.Logger) *Closer {
	return &Closer{
		client: client,
		ledger: ledger,
		cfg:    cfg,
		logger: logger.With().Str("component", "Closer").Logger(),
		locks:  make(map[string]*sync.Mutex),
	}
}

func (c *Closer) symbolLock(symbol string) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	if l, ok := c.locks[symbol]; ok {
		return l
	}
	l := &sync.Mutex{}
	c.locks[symbol] = l
	return l
}

// ClosePosition closes the live position for symbol/side with a market
// order in the opposite direction. side may be LONG, SHORT, or BOTH
// (accept whichever non-zero position exists for the symbol).
func (c *Closer) ClosePosition(ctx context.Context, symbol, side string) (*CloseResult, error) {
	lock := c.symbolLock(symbol)
	lock.Lock()
	defer lock.Unlock()

	// LOCATING
	positions, err := c.client.GetPositionRisk(symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch position data: %w", err)
	}

	var target *exchange.Position
	for i := range positions {
		pos := &positions[i]
		if pos.Symbol != symbol || pos.PositionAmt == 0 {
			continue
		}
		if side != string(exchange.PositionSideBoth) {
			currentSide := "LONG"
			if pos.PositionAmt < 0 {
				currentSide = "SHORT"
			}
			if currentSide != side {
				continue
			}
		}
		target = pos
		break
	}

	if target == nil {
		return nil, fmt.Errorf("%w for %s %s", ErrPositionNotFound, symbol, side)
	}

	// VALIDATING: checked independently of the LOCATING filter since
	// intervening state could change
	if target.PositionAmt == 0 {
		return nil, fmt.Errorf("%w for %s %s", ErrNoPositionSize, symbol, side)
	}

	quantity := math.Abs(target.PositionAmt)
	orderSide := "SELL"
	if target.PositionAmt < 0 {
		orderSide = "BUY"
	}

	params := exchange.OrderParams{
		Symbol:       symbol,
		Side:         orderSide,
		Type:         exchange.OrderTypeMarket,
		Quantity:     quantity,
		PositionSide: exchange.PositionSide(target.PositionSide),
		// In hedge mode positionSide alone disambiguates direction;
		// reduceOnly is only valid in one-way mode
		ReduceOnly: target.PositionSide == string(exchange.PositionSideBoth),
	}

	if c.cfg.SimulateOnly {
		c.logger.Info().
			Str("symbol", symbol).
			Str("side", side).
			Float64("quantity", quantity).
			Msg("Simulate-only: close order not submitted")
		return &CloseResult{
			Success:   true,
			Simulated: true,
			OrderSide: orderSide,
			Quantity:  quantity,
			Message:   fmt.Sprintf("Simulated closing %s %s position of %v units", symbol, side, quantity),
		}, nil
	}

	// SUBMITTING: single attempt, the exchange's rejection is propagated verbatim
	orderResp, err := c.client.PlaceOrder(params)
	if err != nil {
		return nil, fmt.Errorf("failed to place close order: %w", err)
	}

	c.logger.Info().
		Str("symbol", symbol).
		Str("side", side).
		Str("order_side", orderSide).
		Float64("quantity", quantity).
		Int64("order_id", orderResp.OrderId).
		Msg("Close order submitted")

	c.audit(ctx, symbol, orderSide, target.PositionSide, quantity, orderResp)

	return &CloseResult{
		Success:   true,
		OrderID:   orderResp.OrderId,
		OrderSide: orderSide,
		Quantity:  quantity,
		Message:   fmt.Sprintf("Successfully initiated close order for %s %s", symbol, side),
	}, nil
}

// CloseAll closes every non-zero live position. Failures on individual
// symbols are logged and counted, not fatal to the sweep.
func (c *Closer) CloseAll(ctx context.Context) (closed, failed int, err error) {
	positions, err := c.client.GetPositionRisk("")
	if err != nil {
		return 0, 0, fmt.Errorf("failed to fetch positions: %w", err)
	}

	for _, pos := range positions {
		if pos.PositionAmt == 0 {
			continue
		}
		side := pos.PositionSide
		if side == "" {
			side = string(exchange.PositionSideBoth)
		}
		if _, cerr := c.ClosePosition(ctx, pos.Symbol, side); cerr != nil {
			c.logger.Error().
				Err(cerr).
				Str("symbol", pos.Symbol).
				Str("side", side).
				Msg("Failed to close position during close-all")
			failed++
			continue
		}
		closed++
	}

	return closed, failed, nil
}

// audit records the close in the ledger. The order is already live on the
// exchange, so every failure here is logged and swallowed: reporting an
// error would misrepresent a close that genuinely happened.
func (c *Closer) audit(ctx context.Context, symbol, orderSide, positionSide string, quantity float64, resp *exchange.OrderResponse) {
	trade := &database.Trade{
		OrderID:   resp.OrderId,
		Symbol:    symbol,
		Side:      orderSide,
		OrderType: string(exchange.OrderTypeMarket),
		Quantity:  quantity,
		FilledQty: quantity,
		AvgPrice:  resp.AvgPrice,
		Status:    "SUCCESS",
		Timestamp: time.Now(),
	}
	if err := c.ledger.InsertTrade(ctx, trade); err != nil {
		c.logger.Error().
			Err(err).
			Str("symbol", symbol).
			Int64("order_id", resp.OrderId).
			Msg("Failed to log close position trade")
	}

	status := &database.OrderStatusRecord{
		OrderID:      resp.OrderId,
		Symbol:       symbol,
		Side:         orderSide,
		Quantity:     quantity,
		PositionSide: positionSide,
		Status:       resp.Status,
		UpdatedAt:    time.Now(),
	}
	if err := c.ledger.UpsertOrderStatus(ctx, status); err != nil {
		c.logger.Error().
			Err(err).
			Int64("order_id", resp.OrderId).
			Msg("Failed to record close order status")
	}

	closedSide := "LONG"
	if orderSide == "BUY" {
		closedSide = "SHORT"
	}
	if positionSide != string(exchange.PositionSideBoth) {
		closedSide = positionSide
	}
	if err := c.ledger.DeleteTranches(ctx, symbol, closedSide); err != nil {
		c.logger.Error().
			Err(err).
			Str("symbol", symbol).
			Str("side", closedSide).
			Msg("Failed to clear tranches after close")
	}
}
