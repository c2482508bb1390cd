package services

import (
	"fmt"

	"match-escrow/internal/models"
)

// RoundingPolicy decides who receives the base units left over when a pool
// does not divide evenly between winners.
type RoundingPolicy string

const (
	// RoundingFirstWinners gives one unit each to the earliest winners.
	RoundingFirstWinners RoundingPolicy = "first_winners"
	// RoundingOrganiser adds the remainder to the organiser fee.
	RoundingOrganiser RoundingPolicy = "organiser"
)

// PayoutMode selects how settlement delivers value.
type PayoutMode string

const (
	// PayoutPush transfers at settlement and defers only failed transfers.
	PayoutPush PayoutMode = "push"
	// PayoutPull records every payout as a credit claimed through Withdraw.
	PayoutPull PayoutMode = "pull"
)

const (
	DefaultFeeBps        = 500
	DefaultUnderMaxGoals = 2
	DefaultOverMinGoals  = 3
)

// EscrowConfig holds the settlement parameters every escrow is created with.
type EscrowConfig struct {
	FeeBps     int64
	SideFeeBps int64
	Thresholds models.GoalThresholds
	Rounding   RoundingPolicy
	PayoutMode PayoutMode
}

func DefaultEscrowConfig() EscrowConfig {
	return EscrowConfig{
		FeeBps:     DefaultFeeBps,
		SideFeeBps: 0,
		Thresholds: models.GoalThresholds{
			UnderMaxGoals: DefaultUnderMaxGoals,
			OverMinGoals:  DefaultOverMinGoals,
		},
		Rounding:   RoundingFirstWinners,
		PayoutMode: PayoutPush,
	}
}

func (c EscrowConfig) Validate() error {
	if c.FeeBps < 0 || c.FeeBps > 10000 {
		return fmt.Errorf("fee bps out of range: %d", c.FeeBps)
	}
	if c.SideFeeBps < 0 || c.SideFeeBps > 10000 {
		return fmt.Errorf("side fee bps out of range: %d", c.SideFeeBps)
	}
	if c.Thresholds.OverMinGoals <= c.Thresholds.UnderMaxGoals {
		return fmt.Errorf("over threshold %d must exceed under threshold %d",
			c.Thresholds.OverMinGoals, c.Thresholds.UnderMaxGoals)
	}
	switch c.Rounding {
	case RoundingFirstWinners, RoundingOrganiser:
	default:
		return fmt.Errorf("unknown rounding policy %q", c.Rounding)
	}
	switch c.PayoutMode {
	case PayoutPush, PayoutPull:
	default:
		return fmt.Errorf("unknown payout mode %q", c.PayoutMode)
	}
	return nil
}
