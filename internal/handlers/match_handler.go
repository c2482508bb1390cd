package handlers

import (
	"context"
	"net/http"

	"match-escrow/internal/models"
	"match-escrow/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type MatchHandler struct {
	matches *services.MatchService
}

func NewMatchHandler(matches *services.MatchService) *MatchHandler {
	return &MatchHandler{matches: matches}
}

// ListMatches returns one page of match views, in creation order unless
// sorted by start time
// GET /api/matches?status=upcoming|started|history&search=&sort=asc|desc&limit=&offset=
func (h *MatchHandler) ListMatches(c *gin.Context) {
	var filter models.MatchFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	filter.Limit, filter.Offset = pagination(c)

	matches, total, err := h.matches.ListMatches(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"matches": matches,
		"total":   total,
		"limit":   filter.Limit,
		"offset":  filter.Offset,
	})
}

// GetMatch returns one match view
// GET /api/matches/:address
func (h *MatchHandler) GetMatch(c *gin.Context) {
	match, err := h.matches.GetMatch(c.Request.Context(), c.Param("address"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, match)
}

// GetBet returns a bettor's primary-market choice
// GET /api/matches/:address/bets/:bettor
func (h *MatchHandler) GetBet(c *gin.Context) {
	choice := h.matches.Bets(c.Request.Context(), c.Param("address"), c.Param("bettor"))

	c.JSON(http.StatusOK, gin.H{
		"bettor": c.Param("bettor"),
		"choice": choice,
		"label":  choice.String(),
	})
}

// BetOnHome places the caller's stake on the home team
// POST /api/matches/:address/bets/home
func (h *MatchHandler) BetOnHome(c *gin.Context) {
	h.placeBet(c, h.matches.BetOnHome)
}

// BetOnAway places the caller's stake on the away team
// POST /api/matches/:address/bets/away
func (h *MatchHandler) BetOnAway(c *gin.Context) {
	h.placeBet(c, h.matches.BetOnAway)
}

type betFunc func(ctx context.Context, matchAddress, caller string, value decimal.Decimal) (*models.MatchBet, error)

func (h *MatchHandler) placeBet(c *gin.Context, bet betFunc) {
	caller, ok := callerAddress(c)
	if !ok {
		return
	}

	var req models.PlaceBetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	placed, err := bet(c.Request.Context(), c.Param("address"), caller, req.Value)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, placed)
}

// GameFinished records the final score and settles the match
// POST /api/matches/:address/result
func (h *MatchHandler) GameFinished(c *gin.Context) {
	caller, ok := callerAddress(c)
	if !ok {
		return
	}

	var req models.GameFinishedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	report, err := h.matches.GameFinished(c.Request.Context(), c.Param("address"), caller, *req.HomeGoals, *req.AwayGoals)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}
