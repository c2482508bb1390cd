package handlers

import (
	"net/http"

	"match-escrow/internal/models"
	"match-escrow/internal/services"

	"github.com/gin-gonic/gin"
)

// RegistryHandler serves the organiser reputation registry
type RegistryHandler struct {
	registry *services.RegistryService
}

func NewRegistryHandler(registry *services.RegistryService) *RegistryHandler {
	return &RegistryHandler{registry: registry}
}

// CreateMatch deploys a match with the caller as organiser
// POST /api/registry/matches
func (h *RegistryHandler) CreateMatch(c *gin.Context) {
	caller, ok := callerAddress(c)
	if !ok {
		return
	}

	var req models.CreateMatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	match, err := h.registry.CreateMatch(c.Request.Context(), caller, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"address": match.Address,
		"markets": match.MarketsAddress,
		"match":   match,
	})
}

// GetMatches lists every match address in creation order
// GET /api/registry/matches
func (h *RegistryHandler) GetMatches(c *gin.Context) {
	matches, err := h.registry.GetMatches(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"matches": matches,
		"total":   len(matches),
	})
}

// GetOrganisers lists every organiser in registration order
// GET /api/registry/organisers
func (h *RegistryHandler) GetOrganisers(c *gin.Context) {
	organisers, err := h.registry.GetOrganisers(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"organisers": organisers,
		"total":      len(organisers),
	})
}

// GetRating returns an organiser's rating record
// GET /api/registry/ratings/:organiser
func (h *RegistryHandler) GetRating(c *gin.Context) {
	rating, err := h.registry.Rating(c.Request.Context(), c.Param("organiser"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, rating)
}

// HasVoted reports whether voter rated organiser for a match
// GET /api/registry/votes?organiser=&match=&voter=
func (h *RegistryHandler) HasVoted(c *gin.Context) {
	organiser, match, voter := c.Query("organiser"), c.Query("match"), c.Query("voter")
	if organiser == "" || match == "" || voter == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "organiser, match and voter are required"})
		return
	}

	voted, err := h.registry.HasVoted(c.Request.Context(), organiser, match, voter)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"has_voted": voted})
}

// CanVote reports the caller's eligibility to rate organiser for a match
// GET /api/registry/can-vote?organiser=&match=
func (h *RegistryHandler) CanVote(c *gin.Context) {
	caller, ok := callerAddress(c)
	if !ok {
		return
	}

	organiser, match := c.Query("organiser"), c.Query("match")
	if organiser == "" || match == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "organiser and match are required"})
		return
	}

	eligibility, err := h.registry.CheckVoteEligibility(c.Request.Context(), caller, organiser, match)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, eligibility)
}

// Vote rates an organiser for a match the caller bet on
// POST /api/registry/votes
func (h *RegistryHandler) Vote(c *gin.Context) {
	caller, ok := callerAddress(c)
	if !ok {
		return
	}

	var req models.VoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.registry.Vote(c.Request.Context(), caller, req.Organiser, req.MatchAddress, *req.Rating); err != nil {
		respondError(c, err)
		return
	}

	rating, err := h.registry.Rating(c.Request.Context(), req.Organiser)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, rating)
}
