package ledger

import (
	"errors"
	"fmt"

	"match-escrow/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LoadAccount returns the account at address, or an empty one if it has
// never been touched.
func (tx *Tx) LoadAccount(address string) (*models.Account, error) {
	return loadAccount(tx.db, address)
}

func loadAccount(db *gorm.DB, address string) (*models.Account, error) {
	var acc models.Account
	err := db.Where("address = ?", address).First(&acc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &models.Account{Address: address, Balance: decimal.Zero}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load account %s: %w", address, err)
	}
	return &acc, nil
}

func (tx *Tx) saveAccount(acc *models.Account) error {
	return tx.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "address"}},
		DoUpdates: clause.AssignmentColumns([]string{"balance", "rejects_incoming", "updated_at"}),
	}).Create(acc).Error
}

// Balance returns the balance held at address.
func (tx *Tx) Balance(address string) (decimal.Decimal, error) {
	acc, err := tx.LoadAccount(address)
	if err != nil {
		return decimal.Zero, err
	}
	return acc.Balance, nil
}

// Deposit credits amount to address from outside the ledger (genesis or
// faucet funding). It ignores the recipient's receive policy.
func (tx *Tx) Deposit(to string, amount decimal.Decimal, reference string) (*models.Transfer, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	acc, err := tx.LoadAccount(to)
	if err != nil {
		return nil, err
	}
	acc.Balance = acc.Balance.Add(amount)
	if err := tx.saveAccount(acc); err != nil {
		return nil, fmt.Errorf("failed to credit %s: %w", to, err)
	}
	return tx.record("", to, amount, models.TransferKindDeposit, reference)
}

// Transfer moves amount from one account to another. It fails with
// ErrInsufficientFunds or ErrRecipientRejected without touching either
// balance.
func (tx *Tx) Transfer(
	from string,
	to string,
	amount decimal.Decimal,
	kind models.TransferKind,
	reference string,
) (*models.Transfer, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if from == to {
		return nil, ErrSameAccount
	}

	accFrom, err := tx.LoadAccount(from)
	if err != nil {
		return nil, err
	}
	if accFrom.Balance.LessThan(amount) {
		return nil, fmt.Errorf("%w: %s holds %s, needs %s", ErrInsufficientFunds, from, accFrom.Balance, amount)
	}

	accTo, err := tx.LoadAccount(to)
	if err != nil {
		return nil, err
	}
	if accTo.RejectsIncoming {
		return nil, fmt.Errorf("%w: %s", ErrRecipientRejected, to)
	}

	accFrom.Balance = accFrom.Balance.Sub(amount)
	accTo.Balance = accTo.Balance.Add(amount)

	if err := tx.saveAccount(accFrom); err != nil {
		return nil, fmt.Errorf("failed to debit %s: %w", from, err)
	}
	if err := tx.saveAccount(accTo); err != nil {
		return nil, fmt.Errorf("failed to credit %s: %w", to, err)
	}

	return tx.record(from, to, amount, kind, reference)
}

// SetRejectsIncoming sets the receive policy of address.
func (tx *Tx) SetRejectsIncoming(address string, rejects bool) (*models.Account, error) {
	acc, err := tx.LoadAccount(address)
	if err != nil {
		return nil, err
	}
	acc.RejectsIncoming = rejects
	if err := tx.saveAccount(acc); err != nil {
		return nil, fmt.Errorf("failed to update account %s: %w", address, err)
	}
	return acc, nil
}

func (tx *Tx) record(
	from, to string,
	amount decimal.Decimal,
	kind models.TransferKind,
	reference string,
) (*models.Transfer, error) {
	receipt := &models.Transfer{
		ID:         uuid.New(),
		From:       from,
		To:         to,
		Amount:     amount,
		Kind:       kind,
		Reference:  reference,
		LedgerTime: tx.now,
	}
	if err := tx.db.Create(receipt).Error; err != nil {
		return nil, fmt.Errorf("failed to record transfer: %w", err)
	}
	return receipt, nil
}

// LoadAccount reads an account outside of an execution.
func (l *Ledger) LoadAccount(address string) (*models.Account, error) {
	return loadAccount(l.db, address)
}
