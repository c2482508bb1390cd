package handlers

import (
	"errors"
	"log"
	"net/http"

	"match-escrow/internal/auth"
	"match-escrow/internal/models"
	"match-escrow/internal/services"

	"github.com/gin-gonic/gin"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	accounts    *services.AccountService
	authMessage string
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(accounts *services.AccountService, authMessage string) *AuthHandler {
	return &AuthHandler{
		accounts:    accounts,
		authMessage: authMessage,
	}
}

// WalletLogin authenticates a caller by their Solana wallet address and a
// signature over the configured auth message.
// POST /auth/wallet
func (h *AuthHandler) WalletLogin(c *gin.Context) {
	var req models.WalletLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := auth.VerifyWalletSignature(req.WalletAddress, req.Signature, []byte(h.authMessage))
	switch {
	case errors.Is(err, auth.ErrInvalidWallet):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid wallet address"})
		return
	case err != nil:
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
		return
	}

	token, err := auth.GenerateToken(req.WalletAddress)
	if err != nil {
		log.Printf("[AuthHandler] Failed to generate token: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":          token,
		"wallet_address": req.WalletAddress,
	})
}

// Logout handles caller logout (stateless JWT, client-side only)
// POST /auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Successfully logged out",
	})
}

// GetMe returns the authenticated caller's account
// GET /auth/me
func (h *AuthHandler) GetMe(c *gin.Context) {
	caller, ok := callerAddress(c)
	if !ok {
		return
	}

	account, err := h.accounts.GetAccount(c.Request.Context(), caller)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"wallet_address": caller,
		"account":        account,
	})
}
