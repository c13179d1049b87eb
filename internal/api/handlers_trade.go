package api

import (
	"net/http"
	"strconv"
	"strings"

	"aster-trading-bot/internal/database"

	"github.com/gin-gonic/gin"
)

// handleListTrades returns the trade audit log, newest first. Supports
// symbol, status, hours and limit query filters.
func (s *Server) handleListTrades(c *gin.Context) {
	filter := database.TradeFilter{
		Symbol: strings.ToUpper(strings.TrimSpace(c.Query("symbol"))),
		Status: strings.ToUpper(strings.TrimSpace(c.Query("status"))),
	}

	if hours := c.Query("hours"); hours != "" {
		v, err := strconv.Atoi(hours)
		if err != nil || v < 0 {
			errorResponse(c, http.StatusBadRequest, "hours must be a non-negative integer")
			return
		}
		filter.Hours = v
	}
	if limit := c.Query("limit"); limit != "" {
		v, err := strconv.Atoi(limit)
		if err != nil || v < 0 {
			errorResponse(c, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		filter.Limit = v
	}

	trades, err := s.db.ListTradesFiltered(c.Request.Context(), filter)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	successResponse(c, gin.H{"trades": trades, "count": len(trades)})
}

// handleGetTrade returns one trade by its exchange order id, along with
// any child protective-order trades that reference it.
func (s *Server) handleGetTrade(c *gin.Context) {
	orderID, err := strconv.ParseInt(c.Param("order_id"), 10, 64)
	if err != nil {
		errorResponse(c, http.StatusBadRequest, "order_id must be an integer")
		return
	}

	trade, err := s.db.GetTradeByOrderID(c.Request.Context(), orderID)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}
	if trade == nil {
		errorResponse(c, http.StatusNotFound, "trade not found")
		return
	}

	children, err := s.db.ListTradesByParent(c.Request.Context(), orderID)
	if err != nil {
		s.logger.Warn().Err(err).Int64("order_id", orderID).Msg("Child trade query failed")
		children = nil
	}

	successResponse(c, gin.H{"trade": trade, "children": children})
}
