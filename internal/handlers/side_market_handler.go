package handlers

import (
	"fmt"
	"net/http"

	"match-escrow/internal/models"
	"match-escrow/internal/services"

	"github.com/gin-gonic/gin"
)

// SideMarketHandler serves the goal-band and both-scored pools of a match
type SideMarketHandler struct {
	markets *services.SideMarketService
}

func NewSideMarketHandler(markets *services.SideMarketService) *SideMarketHandler {
	return &SideMarketHandler{markets: markets}
}

func marketParam(c *gin.Context) (models.SideMarket, bool) {
	market, err := models.ParseSideMarket(c.Param("market"))
	if err != nil {
		respondError(c, fmt.Errorf("%w: %s", services.ErrInvalidMarket, c.Param("market")))
		return 0, false
	}
	return market, true
}

// GetMarkets returns all three side markets of an escrow
// GET /api/markets/:address
func (h *SideMarketHandler) GetMarkets(c *gin.Context) {
	markets, err := h.markets.Markets(c.Request.Context(), c.Param("address"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"address": c.Param("address"),
		"markets": markets,
	})
}

// GetMarket returns one side market
// GET /api/markets/:address/:market
func (h *SideMarketHandler) GetMarket(c *gin.Context) {
	market, ok := marketParam(c)
	if !ok {
		return
	}

	view, err := h.markets.Market(c.Request.Context(), c.Param("address"), market)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// HasBet reports whether bettor holds a position in one side market
// GET /api/markets/:address/:market/bets/:bettor
func (h *SideMarketHandler) HasBet(c *gin.Context) {
	market, ok := marketParam(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"bettor":  c.Param("bettor"),
		"market":  market.String(),
		"has_bet": h.markets.HasBet(c.Request.Context(), c.Param("address"), market, c.Param("bettor")),
	})
}

// PlaceBet stakes the caller in one side market
// POST /api/markets/:address/:market/bets
func (h *SideMarketHandler) PlaceBet(c *gin.Context) {
	caller, ok := callerAddress(c)
	if !ok {
		return
	}
	market, ok := marketParam(c)
	if !ok {
		return
	}

	var req models.PlaceBetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	bet, err := h.markets.Bet(c.Request.Context(), c.Param("address"), market, caller, req.Value)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, bet)
}
