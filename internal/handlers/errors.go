package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"match-escrow/internal/auth"
	"match-escrow/internal/ledger"
	"match-escrow/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// statusFor maps a service error onto an HTTP status code.
func statusFor(err error) int {
	var ve validator.ValidationErrors
	switch {
	case errors.As(err, &ve),
		errors.Is(err, services.ErrRatingOutOfRange),
		errors.Is(err, services.ErrInvalidStartTime),
		errors.Is(err, services.ErrInvalidStake),
		errors.Is(err, services.ErrInvalidGoals),
		errors.Is(err, services.ErrInvalidMarket),
		errors.Is(err, services.ErrInvalidFilter),
		errors.Is(err, ledger.ErrInvalidAddress),
		errors.Is(err, ledger.ErrInvalidAmount),
		errors.Is(err, ledger.ErrSameAccount):
		return http.StatusBadRequest
	case errors.Is(err, ledger.ErrInsufficientFunds):
		return http.StatusPaymentRequired
	case errors.Is(err, services.ErrUnauthorized),
		errors.Is(err, services.ErrNotEligible),
		errors.Is(err, services.ErrFaucetDisabled):
		return http.StatusForbidden
	case errors.Is(err, services.ErrMatchNotFound),
		errors.Is(err, services.ErrNothingToWithdraw):
		return http.StatusNotFound
	case errors.Is(err, services.ErrStakeMismatch),
		errors.Is(err, services.ErrDuplicateBet),
		errors.Is(err, services.ErrAlreadySettled),
		errors.Is(err, services.ErrBettingClosed),
		errors.Is(err, services.ErrTooEarly),
		errors.Is(err, ledger.ErrRecipientRejected):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Printf("[Handlers] %s %s failed: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// callerAddress returns the authenticated wallet or writes a 401.
func callerAddress(c *gin.Context) (string, bool) {
	caller, ok := auth.GetWalletAddress(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return "", false
	}
	return caller, true
}

func pagination(c *gin.Context) (int, int) {
	limit := 20
	offset := 0

	if limitStr := c.Query("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 100 {
			limit = l
		}
	}

	if offsetStr := c.Query("offset"); offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			offset = o
		}
	}

	return limit, offset
}
