package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SideMarket identifies one of the three supplementary pools of a match.
type SideMarket uint8

const (
	MarketUnderThreshold SideMarket = iota // UG_0_2
	MarketOverThreshold                    // UG_3_PLUS
	MarketBothScored                       // GG
)

// SideMarkets lists every side market in id order.
var SideMarkets = []SideMarket{MarketUnderThreshold, MarketOverThreshold, MarketBothScored}

func (m SideMarket) Valid() bool {
	return m <= MarketBothScored
}

func (m SideMarket) String() string {
	switch m {
	case MarketUnderThreshold:
		return "UG_0_2"
	case MarketOverThreshold:
		return "UG_3_PLUS"
	case MarketBothScored:
		return "GG"
	}
	return "UNKNOWN"
}

// ParseSideMarket accepts the numeric id, the market code or a short alias.
func ParseSideMarket(s string) (SideMarket, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ug_0_2", "under":
		return MarketUnderThreshold, nil
	case "ug_3_plus", "over":
		return MarketOverThreshold, nil
	case "gg", "both":
		return MarketBothScored, nil
	}
	id, err := strconv.ParseUint(s, 10, 8)
	if err != nil || !SideMarket(id).Valid() {
		return 0, fmt.Errorf("unknown side market %q", s)
	}
	return SideMarket(id), nil
}

// GoalThresholds configures the goal-band markets.
type GoalThresholds struct {
	UnderMaxGoals uint32
	OverMinGoals  uint32
}

// Wins reports whether market m is a winner for the final score.
func (m SideMarket) Wins(homeGoals, awayGoals uint32, th GoalThresholds) bool {
	total := uint64(homeGoals) + uint64(awayGoals)
	switch m {
	case MarketUnderThreshold:
		return total <= uint64(th.UnderMaxGoals)
	case MarketOverThreshold:
		return total >= uint64(th.OverMinGoals)
	case MarketBothScored:
		return homeGoals >= 1 && awayGoals >= 1
	}
	return false
}

// SideMarketEscrow is the supplementary escrow owned by a match.
type SideMarketEscrow struct {
	ID            uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	Address       string     `gorm:"size:64;uniqueIndex;not null" json:"address"`
	MatchID       uint       `gorm:"not null;uniqueIndex" json:"match_id"`
	Parent        string     `gorm:"size:64;not null" json:"parent"`
	UnderMaxGoals uint32     `gorm:"not null" json:"under_max_goals"`
	OverMinGoals  uint32     `gorm:"not null" json:"over_min_goals"`
	IsSettled     bool       `gorm:"not null" json:"is_settled"`
	CreatedAt     time.Time  `json:"created_at"`
	SettledAt     *time.Time `json:"settled_at,omitempty"`
}

func (SideMarketEscrow) TableName() string {
	return "side_market_escrows"
}

func (e *SideMarketEscrow) Thresholds() GoalThresholds {
	return GoalThresholds{UnderMaxGoals: e.UnderMaxGoals, OverMinGoals: e.OverMinGoals}
}

// SideMarketPool holds the running totals of one market.
type SideMarketPool struct {
	EscrowID  uint            `gorm:"primaryKey;autoIncrement:false" json:"escrow_id"`
	Market    SideMarket      `gorm:"primaryKey;autoIncrement:false" json:"market"`
	TotalBets int64           `gorm:"not null" json:"total_bets"`
	Pool      decimal.Decimal `gorm:"type:numeric(78,0);not null" json:"pool"`
	Won       *bool           `json:"won,omitempty"`
}

func (SideMarketPool) TableName() string {
	return "side_market_pools"
}

// SideMarketBet is a single position in one side market.
type SideMarketBet struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	EscrowID  uint            `gorm:"not null;uniqueIndex:idx_side_market_bettor" json:"escrow_id"`
	Market    SideMarket      `gorm:"not null;uniqueIndex:idx_side_market_bettor" json:"market"`
	Bettor    string          `gorm:"size:64;not null;uniqueIndex:idx_side_market_bettor" json:"bettor"`
	Amount    decimal.Decimal `gorm:"type:numeric(78,0);not null" json:"amount"`
	Sequence  int64           `gorm:"not null" json:"sequence"`
	PlacedAt  int64           `gorm:"not null" json:"placed_at"`
	CreatedAt time.Time       `json:"created_at"`
}

func (SideMarketBet) TableName() string {
	return "side_market_bets"
}

// SideMarketView summarises one market for readers.
type SideMarketView struct {
	Escrow    string          `json:"escrow"`
	Market    SideMarket      `json:"market"`
	Code      string          `json:"code"`
	TotalBets int64           `json:"total_bets"`
	PoolSize  decimal.Decimal `json:"pool_size"`
	IsSettled bool            `json:"is_settled"`
	Won       *bool           `json:"won,omitempty"`
}
