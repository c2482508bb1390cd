package handlers

import (
	"net/http"
	"time"

	"match-escrow/internal/auth"

	"github.com/gin-gonic/gin"
)

// Handlers groups every HTTP handler mounted by RegisterRoutes.
type Handlers struct {
	Auth        *AuthHandler
	Registry    *RegistryHandler
	Matches     *MatchHandler
	SideMarkets *SideMarketHandler
	Accounts    *AccountHandler
}

// RegisterRoutes mounts the public and authenticated API on router.
func RegisterRoutes(router *gin.Engine, h *Handlers) {
	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// Authentication routes (public)
	authRoutes := router.Group("/auth")
	{
		authRoutes.POST("/wallet", h.Auth.WalletLogin)
		authRoutes.POST("/logout", h.Auth.Logout)
	}

	authProtected := router.Group("/auth")
	authProtected.Use(auth.AuthMiddleware())
	{
		authProtected.GET("/me", h.Auth.GetMe)
	}

	// Public read routes
	public := router.Group("/api")
	{
		public.GET("/registry/matches", h.Registry.GetMatches)
		public.GET("/registry/organisers", h.Registry.GetOrganisers)
		public.GET("/registry/ratings/:organiser", h.Registry.GetRating)
		public.GET("/registry/votes", h.Registry.HasVoted)

		public.GET("/matches", h.Matches.ListMatches)
		public.GET("/matches/:address", h.Matches.GetMatch)
		public.GET("/matches/:address/bets/:bettor", h.Matches.GetBet)

		public.GET("/markets/:address", h.SideMarkets.GetMarkets)
		public.GET("/markets/:address/:market", h.SideMarkets.GetMarket)
		public.GET("/markets/:address/:market/bets/:bettor", h.SideMarkets.HasBet)

		public.GET("/accounts/:address", h.Accounts.GetAccount)
	}

	// API routes (protected)
	api := router.Group("/api")
	api.Use(auth.AuthMiddleware())
	{
		api.POST("/registry/matches", h.Registry.CreateMatch)
		api.GET("/registry/can-vote", h.Registry.CanVote)
		api.POST("/registry/votes", h.Registry.Vote)

		api.POST("/matches/:address/bets/home", h.Matches.BetOnHome)
		api.POST("/matches/:address/bets/away", h.Matches.BetOnAway)
		api.POST("/matches/:address/result", h.Matches.GameFinished)

		api.POST("/markets/:address/:market/bets", h.SideMarkets.PlaceBet)

		api.POST("/accounts/withdraw", h.Accounts.Withdraw)
		api.POST("/accounts/receive-policy", h.Accounts.SetReceivePolicy)
		api.POST("/accounts/faucet", h.Accounts.Faucet)
	}
}
