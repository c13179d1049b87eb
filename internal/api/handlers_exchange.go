package api

import (
	"time"

	"aster-trading-bot/internal/cache"
	"aster-trading-bot/internal/exchange"

	"github.com/gin-gonic/gin"
)

// exchangeInfoTTL bounds how long the symbol list is cached. Symbol
// metadata changes rarely, listings aside.
const exchangeInfoTTL = time.Hour

// handleGetAccount returns futures account balances and margin totals
func (s *Server) handleGetAccount(c *gin.Context) {
	ctx := c.Request.Context()

	if s.cacheSvc != nil {
		var cached exchange.AccountInfo
		if err := s.cacheSvc.GetJSON(ctx, cache.PrefixAccountInfo, &cached); err == nil {
			successResponse(c, cached)
			return
		}
	}

	account, err := s.client.GetAccountInfo()
	if err != nil {
		s.writeUpstreamError(c, err)
		return
	}

	if s.cacheSvc != nil {
		if err := s.cacheSvc.SetJSON(ctx, cache.PrefixAccountInfo, account, s.cacheSvc.DetailTTL()); err != nil {
			s.logger.Debug().Err(err).Msg("Account cache write skipped")
		}
	}

	successResponse(c, account)
}

// handleGetExchangeSymbols returns tradeable symbols with their precision
// metadata
func (s *Server) handleGetExchangeSymbols(c *gin.Context) {
	ctx := c.Request.Context()

	if s.cacheSvc != nil {
		var cached []exchange.SymbolInfo
		if err := s.cacheSvc.GetJSON(ctx, cache.PrefixExchangeInfo, &cached); err == nil {
			successResponse(c, cached)
			return
		}
	}

	info, err := s.client.GetExchangeInfo()
	if err != nil {
		s.writeUpstreamError(c, err)
		return
	}

	symbols := make([]exchange.SymbolInfo, 0, len(info.Symbols))
	for _, sym := range info.Symbols {
		if sym.Status == "TRADING" {
			symbols = append(symbols, sym)
		}
	}

	if s.cacheSvc != nil {
		if err := s.cacheSvc.SetJSON(ctx, cache.PrefixExchangeInfo, symbols, exchangeInfoTTL); err != nil {
			s.logger.Debug().Err(err).Msg("Exchange info cache write skipped")
		}
	}

	successResponse(c, symbols)
}
