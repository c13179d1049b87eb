package api

import (
	"errors"
	"net/http"
	"strings"

	"aster-trading-bot/internal/cache"
	"aster-trading-bot/internal/exchange"
	"aster-trading-bot/internal/position"

	"github.com/gin-gonic/gin"
)

// positionParams normalizes the :symbol/:side path parameters
func positionParams(c *gin.Context) (string, string) {
	symbol := strings.ToUpper(strings.TrimSpace(c.Param("symbol")))
	side := strings.ToUpper(strings.TrimSpace(c.Param("side")))
	return symbol, side
}

// handleGetPositionDetail returns the reconciled position view for one
// symbol and side, served from cache when fresh.
func (s *Server) handleGetPositionDetail(c *gin.Context) {
	symbol, side := positionParams(c)
	ctx := c.Request.Context()

	if s.cacheSvc != nil {
		var cached position.Detail
		key := cache.PositionDetailKey(symbol, side)
		if err := s.cacheSvc.GetJSON(ctx, key, &cached); err == nil {
			successResponse(c, cached)
			return
		}
	}

	detail, err := s.positions.GetPositionDetail(ctx, symbol, side)
	if err != nil {
		if errors.Is(err, position.ErrInvalidSymbol) || errors.Is(err, position.ErrInvalidSide) {
			errorResponse(c, http.StatusBadRequest, err.Error())
			return
		}
		errorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	if s.cacheSvc != nil {
		key := cache.PositionDetailKey(symbol, side)
		if err := s.cacheSvc.SetJSON(ctx, key, detail, s.cacheSvc.DetailTTL()); err != nil {
			s.logger.Debug().Err(err).Str("key", key).Msg("Position detail cache write skipped")
		}
	}

	successResponse(c, detail)
}

// handleClosePosition closes the live position for :symbol/:side with a
// market order
func (s *Server) handleClosePosition(c *gin.Context) {
	symbol, side := positionParams(c)
	if symbol == "" {
		errorResponse(c, http.StatusBadRequest, "symbol is required")
		return
	}
	if side != "LONG" && side != "SHORT" && side != "BOTH" {
		errorResponse(c, http.StatusBadRequest, "side must be LONG, SHORT or BOTH")
		return
	}

	result, err := s.positions.Closer().ClosePosition(c.Request.Context(), symbol, side)
	if err != nil {
		s.writeCloseError(c, err)
		return
	}

	s.invalidatePositionCache(c, symbol)
	successResponse(c, result)
}

// handleCloseAll market-closes every open position
func (s *Server) handleCloseAll(c *gin.Context) {
	closed, failed, err := s.positions.Closer().CloseAll(c.Request.Context())
	if err != nil {
		s.writeCloseError(c, err)
		return
	}

	if s.cacheSvc != nil {
		if derr := s.cacheSvc.Delete(c.Request.Context(), cache.PrefixPositionsList); derr != nil {
			s.logger.Debug().Err(derr).Msg("Positions list cache invalidation skipped")
		}
	}

	successResponse(c, gin.H{"closed": closed, "failed": failed})
}

func (s *Server) writeCloseError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, position.ErrPositionNotFound):
		errorResponse(c, http.StatusNotFound, err.Error())
	case errors.Is(err, position.ErrNoPositionSize):
		errorResponse(c, http.StatusBadRequest, err.Error())
	default:
		if apiErr, ok := exchange.AsAPIError(err); ok {
			errorResponse(c, apiErr.StatusCode, err.Error())
			return
		}
		errorResponse(c, http.StatusBadGateway, err.Error())
	}
}

func (s *Server) invalidatePositionCache(c *gin.Context, symbol string) {
	if s.cacheSvc == nil {
		return
	}
	s.cacheSvc.InvalidatePosition(c.Request.Context(), symbol)
}

// enrichedPosition is a live position annotated with its protective order
// trigger prices
type enrichedPosition struct {
	exchange.Position
	TakeProfitPrice float64 `json:"takeProfitPrice"`
	StopLossPrice   float64 `json:"stopLossPrice"`
}

// handleListPositions returns all non-zero live positions with TP/SL
// trigger prices resolved from the open-order set
func (s *Server) handleListPositions(c *gin.Context) {
	ctx := c.Request.Context()

	if s.cacheSvc != nil {
		var cached []enrichedPosition
		if err := s.cacheSvc.GetJSON(ctx, cache.PrefixPositionsList, &cached); err == nil {
			successResponse(c, cached)
			return
		}
	}

	livePositions, err := s.client.GetPositionRisk("")
	if err != nil {
		s.writeUpstreamError(c, err)
		return
	}

	openOrders, err := s.client.GetOpenOrders("")
	if err != nil {
		// Positions still render without trigger prices
		s.logger.Warn().Err(err).Msg("Open orders fetch failed, returning positions without TP/SL prices")
		openOrders = nil
	}

	result := make([]enrichedPosition, 0)
	for _, pos := range livePositions {
		if pos.PositionAmt == 0 {
			continue
		}
		ep := enrichedPosition{Position: pos}
		for _, o := range openOrders {
			if o.Symbol != pos.Symbol {
				continue
			}
			if o.PositionSide != pos.PositionSide && o.PositionSide != string(exchange.PositionSideBoth) {
				continue
			}
			price := o.StopPrice
			if price == 0 {
				price = o.Price
			}
			switch {
			case strings.Contains(o.Type, "TAKE_PROFIT"):
				ep.TakeProfitPrice = price
			case strings.Contains(o.Type, "STOP"):
				ep.StopLossPrice = price
			}
		}
		result = append(result, ep)
	}

	if s.cacheSvc != nil {
		if err := s.cacheSvc.SetJSON(ctx, cache.PrefixPositionsList, result, s.cacheSvc.DetailTTL()); err != nil {
			s.logger.Debug().Err(err).Msg("Positions list cache write skipped")
		}
	}

	successResponse(c, result)
}

func (s *Server) writeUpstreamError(c *gin.Context, err error) {
	if apiErr, ok := exchange.AsAPIError(err); ok {
		errorResponse(c, apiErr.StatusCode, err.Error())
		return
	}
	errorResponse(c, http.StatusBadGateway, err.Error())
}
