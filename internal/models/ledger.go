package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Account is a ledger balance. RejectsIncoming marks a recipient that cannot
// accept pushed value.
type Account struct {
	Address         string          `gorm:"primaryKey;size:64" json:"address"`
	Balance         decimal.Decimal `gorm:"type:numeric(78,0);not null" json:"balance"`
	RejectsIncoming bool            `gorm:"not null" json:"rejects_incoming"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func (Account) TableName() string {
	return "accounts"
}

type TransferKind string

const (
	TransferKindDeposit    TransferKind = "DEPOSIT"
	TransferKindStake      TransferKind = "STAKE"
	TransferKindPayout     TransferKind = "PAYOUT"
	TransferKindRefund     TransferKind = "REFUND"
	TransferKindFee        TransferKind = "FEE"
	TransferKindWithdrawal TransferKind = "WITHDRAWAL"
)

// Transfer is the receipt of a completed value movement.
type Transfer struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	From       string          `gorm:"column:from_account;size:64;index" json:"from"`
	To         string          `gorm:"column:to_account;size:64;not null;index" json:"to"`
	Amount     decimal.Decimal `gorm:"type:numeric(78,0);not null" json:"amount"`
	Kind       TransferKind    `gorm:"size:20;not null" json:"kind"`
	Reference  string          `gorm:"size:64;index" json:"reference"`
	LedgerTime int64           `gorm:"not null" json:"ledger_time"`
	CreatedAt  time.Time       `json:"created_at"`
}

func (Transfer) TableName() string {
	return "transfers"
}

type PayoutKind string

const (
	PayoutKindWinnings PayoutKind = "WINNINGS"
	PayoutKindRefund   PayoutKind = "REFUND"
	PayoutKindFee      PayoutKind = "FEE"
)

// TransferKind maps a payout line to the receipt kind used when it moves.
func (k PayoutKind) TransferKind() TransferKind {
	switch k {
	case PayoutKindRefund:
		return TransferKindRefund
	case PayoutKindFee:
		return TransferKindFee
	default:
		return TransferKindPayout
	}
}

// PrimaryMarket labels payouts of the home/away market.
const PrimaryMarket = "PRIMARY"

// Payout is a recorded settlement line, written before value moves.
type Payout struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Escrow      string          `gorm:"size:64;not null;index" json:"escrow"`
	Market      string          `gorm:"size:16;not null" json:"market"`
	Beneficiary string          `gorm:"size:64;not null;index" json:"beneficiary"`
	Kind        PayoutKind      `gorm:"size:16;not null" json:"kind"`
	Amount      decimal.Decimal `gorm:"type:numeric(78,0);not null" json:"amount"`
	Delivered   bool            `gorm:"not null" json:"delivered"`
	CreatedAt   time.Time       `json:"created_at"`
}

func (Payout) TableName() string {
	return "payouts"
}

// PendingCredit is value an escrow owes a beneficiary that has not been
// delivered yet. It is claimed at most once.
type PendingCredit struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	PayoutID    uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex" json:"payout_id"`
	Escrow      string          `gorm:"size:64;not null;index:idx_credit_owner" json:"escrow"`
	Beneficiary string          `gorm:"size:64;not null;index:idx_credit_owner" json:"beneficiary"`
	Amount      decimal.Decimal `gorm:"type:numeric(78,0);not null" json:"amount"`
	Kind        PayoutKind      `gorm:"size:16;not null" json:"kind"`
	Reason      string          `gorm:"size:255" json:"reason"`
	ClaimedAt   *time.Time      `gorm:"index" json:"claimed_at,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

func (PendingCredit) TableName() string {
	return "pending_credits"
}

// AccountView is the account read returned to collaborators.
type AccountView struct {
	Address         string          `json:"address"`
	Balance         decimal.Decimal `json:"balance"`
	RejectsIncoming bool            `json:"rejects_incoming"`
	PendingCredits  []PendingCredit `json:"pending_credits"`
}

// SettlementReport summarises one gameFinished call.
type SettlementReport struct {
	Match       string                 `json:"match"`
	Outcome     MatchOutcome           `json:"outcome"`
	HomeGoals   uint32                 `json:"home_goals"`
	AwayGoals   uint32                 `json:"away_goals"`
	TotalPool   decimal.Decimal        `json:"total_pool"`
	Fee         decimal.Decimal        `json:"fee"`
	Payouts     []Payout               `json:"payouts"`
	SideMarkets []SideMarketSettlement `json:"side_markets"`
}

// SideMarketSettlement summarises one settled side market.
type SideMarketSettlement struct {
	Market  SideMarket      `json:"market"`
	Code    string          `json:"code"`
	Won     bool            `json:"won"`
	Pool    decimal.Decimal `json:"pool"`
	Fee     decimal.Decimal `json:"fee"`
	Payouts []Payout        `json:"payouts"`
}
