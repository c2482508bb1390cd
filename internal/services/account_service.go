package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"match-escrow/internal/ledger"
	"match-escrow/internal/models"
	"match-escrow/internal/repository"

	"github.com/shopspring/decimal"
)

var ErrFaucetDisabled = errors.New("faucet is disabled")

// AccountService exposes ledger balances and the caller-controlled account
// settings.
type AccountService struct {
	ledger        *ledger.Ledger
	repo          *repository.Repository
	faucetEnabled bool
}

func NewAccountService(l *ledger.Ledger, repo *repository.Repository, faucetEnabled bool) *AccountService {
	return &AccountService{
		ledger:        l,
		repo:          repo,
		faucetEnabled: faucetEnabled,
	}
}

// GetAccount returns the balance, receive policy and unclaimed credits of
// address.
func (as *AccountService) GetAccount(ctx context.Context, address string) (*models.AccountView, error) {
	acc, err := as.ledger.LoadAccount(address)
	if err != nil {
		return nil, err
	}
	credits, err := as.repo.GetCreditsByBeneficiary(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("failed to get credits: %w", err)
	}
	if credits == nil {
		credits = []models.PendingCredit{}
	}
	return &models.AccountView{
		Address:         acc.Address,
		Balance:         acc.Balance,
		RejectsIncoming: acc.RejectsIncoming,
		PendingCredits:  credits,
	}, nil
}

// SetReceivePolicy sets whether caller accepts value pushed to it.
func (as *AccountService) SetReceivePolicy(ctx context.Context, caller string, accept bool) (*models.Account, error) {
	if _, err := ledger.ParseAddress(caller); err != nil {
		return nil, err
	}

	var acc *models.Account
	err := as.ledger.Execute(ctx, func(tx *ledger.Tx) error {
		var err error
		acc, err = tx.SetRejectsIncoming(caller, !accept)
		return err
	})
	if err != nil {
		return nil, err
	}
	return acc, nil
}

// Faucet mints amount into caller's account when enabled.
func (as *AccountService) Faucet(ctx context.Context, caller string, amount decimal.Decimal) (*models.Transfer, error) {
	if !as.faucetEnabled {
		return nil, ErrFaucetDisabled
	}
	if _, err := ledger.ParseAddress(caller); err != nil {
		return nil, err
	}
	if !amount.IsInteger() {
		return nil, ledger.ErrInvalidAmount
	}

	var receipt *models.Transfer
	err := as.ledger.Execute(ctx, func(tx *ledger.Tx) error {
		var err error
		receipt, err = tx.Deposit(caller, amount, "faucet")
		return err
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[AccountService] Faucet credited %s to %s", amount, caller)
	return receipt, nil
}
