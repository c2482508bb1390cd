package handlers

import (
	"net/http"

	"match-escrow/internal/models"
	"match-escrow/internal/services"

	"github.com/gin-gonic/gin"
)

// AccountHandler exposes ledger balances, credits and withdrawals
type AccountHandler struct {
	accounts *services.AccountService
	payouts  *services.PayoutService
}

func NewAccountHandler(accounts *services.AccountService, payouts *services.PayoutService) *AccountHandler {
	return &AccountHandler{
		accounts: accounts,
		payouts:  payouts,
	}
}

// GetAccount returns the balance and unclaimed credits of an address
// GET /api/accounts/:address
func (h *AccountHandler) GetAccount(c *gin.Context) {
	account, err := h.accounts.GetAccount(c.Request.Context(), c.Param("address"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, account)
}

// Withdraw claims every credit an escrow owes the caller
// POST /api/accounts/withdraw
func (h *AccountHandler) Withdraw(c *gin.Context) {
	caller, ok := callerAddress(c)
	if !ok {
		return
	}

	var req models.WithdrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	amount, err := h.payouts.Withdraw(c.Request.Context(), caller, req.Escrow)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"escrow": req.Escrow,
		"amount": amount,
	})
}

// SetReceivePolicy toggles whether value may be pushed to the caller
// POST /api/accounts/receive-policy
func (h *AccountHandler) SetReceivePolicy(c *gin.Context) {
	caller, ok := callerAddress(c)
	if !ok {
		return
	}

	var req models.ReceivePolicyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	account, err := h.accounts.SetReceivePolicy(c.Request.Context(), caller, *req.Accept)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, account)
}

// Faucet funds the caller's account on test deployments
// POST /api/accounts/faucet
func (h *AccountHandler) Faucet(c *gin.Context) {
	caller, ok := callerAddress(c)
	if !ok {
		return
	}

	var req models.FaucetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	receipt, err := h.accounts.Faucet(c.Request.Context(), caller, req.Amount)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, receipt)
}
