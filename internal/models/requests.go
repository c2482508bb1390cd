package models

import "github.com/shopspring/decimal"

// CreateMatchRequest is the createMatch payload.
type CreateMatchRequest struct {
	HomeTeam  string          `json:"home_team" binding:"required" validate:"required,max=255"`
	AwayTeam  string          `json:"away_team" binding:"required" validate:"required,max=255,nefield=HomeTeam"`
	StartTime int64           `json:"start_time" binding:"required" validate:"required,gt=0"`
	Stake     decimal.Decimal `json:"stake"`
}

// PlaceBetRequest carries the value attached to a payable bet call.
type PlaceBetRequest struct {
	Value decimal.Decimal `json:"value"`
}

// GameFinishedRequest is the final score submitted by the organiser.
type GameFinishedRequest struct {
	HomeGoals *int `json:"home_goals" binding:"required,min=0,max=4294967295"`
	AwayGoals *int `json:"away_goals" binding:"required,min=0,max=4294967295"`
}

// VoteRequest rates an organiser for a match.
type VoteRequest struct {
	Organiser    string `json:"organiser" binding:"required"`
	MatchAddress string `json:"match" binding:"required"`
	Rating       *int   `json:"rating" binding:"required"`
}

// WithdrawRequest claims credits owed by one escrow.
type WithdrawRequest struct {
	Escrow string `json:"escrow" binding:"required"`
}

// ReceivePolicyRequest toggles whether the caller accepts pushed value.
type ReceivePolicyRequest struct {
	Accept *bool `json:"accept" binding:"required"`
}

// FaucetRequest funds the caller's account when the faucet is enabled.
type FaucetRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// WalletLoginRequest authenticates a caller by signing the auth message.
type WalletLoginRequest struct {
	WalletAddress string `json:"wallet_address" binding:"required"`
	Signature     string `json:"signature" binding:"required"`
}
