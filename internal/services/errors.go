package services

import "errors"

var (
	ErrStakeMismatch     = errors.New("value does not match the match stake")
	ErrDuplicateBet      = errors.New("caller already holds a bet in this market")
	ErrUnauthorized      = errors.New("caller is not authorized")
	ErrTooEarly          = errors.New("match has not started yet")
	ErrAlreadySettled    = errors.New("already settled")
	ErrNotEligible       = errors.New("caller is not eligible to vote")
	ErrRatingOutOfRange  = errors.New("rating must be between 0 and 5")
	ErrBettingClosed     = errors.New("betting is closed for this match")
	ErrInvalidStartTime  = errors.New("start time must be in the future")
	ErrInvalidStake      = errors.New("stake must be positive")
	ErrInvalidGoals      = errors.New("goal counts must be between 0 and 4294967295")
	ErrInvalidMarket     = errors.New("unknown side market")
	ErrInvalidFilter     = errors.New("unknown match status or sort order")
	ErrMatchNotFound     = errors.New("match not found")
	ErrNothingToWithdraw = errors.New("nothing to withdraw")
)
