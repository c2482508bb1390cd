package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BetChoice is a bettor's position on the primary market.
// Numeric values match the on-chain encoding (0 none, 1 home, 2 away).
type BetChoice int16

const (
	BetNone BetChoice = iota
	BetHome
	BetAway
)

func (c BetChoice) String() string {
	switch c {
	case BetNone:
		return "NONE"
	case BetHome:
		return "HOME"
	case BetAway:
		return "AWAY"
	}
	return "UNKNOWN"
}

type MatchPhase string

const (
	MatchPhaseOpen               MatchPhase = "OPEN"
	MatchPhaseAwaitingSettlement MatchPhase = "AWAITING_SETTLEMENT"
	MatchPhaseSettled            MatchPhase = "SETTLED"
)

type MatchOutcome string

const (
	MatchOutcomeNone MatchOutcome = ""
	MatchOutcomeHome MatchOutcome = "HOME"
	MatchOutcomeAway MatchOutcome = "AWAY"
	MatchOutcomeDraw MatchOutcome = "DRAW"
)

// OutcomeFor derives the primary-market outcome from a final score.
func OutcomeFor(homeGoals, awayGoals uint32) MatchOutcome {
	switch {
	case homeGoals > awayGoals:
		return MatchOutcomeHome
	case homeGoals < awayGoals:
		return MatchOutcomeAway
	default:
		return MatchOutcomeDraw
	}
}

// Match is one deployed match escrow. ID is the registry ordinal.
type Match struct {
	ID             uint            `gorm:"primaryKey;autoIncrement" json:"id"`
	Address        string          `gorm:"size:64;uniqueIndex;not null" json:"address"`
	MarketsAddress string          `gorm:"size:64;uniqueIndex;not null" json:"markets_address"`
	HomeTeam       string          `gorm:"size:255;not null" json:"home_team"`
	AwayTeam       string          `gorm:"size:255;not null" json:"away_team"`
	Stake          decimal.Decimal `gorm:"type:numeric(78,0);not null" json:"stake"`
	StartTime      int64           `gorm:"not null;index" json:"start_time"`
	Organiser      string          `gorm:"size:64;not null;index" json:"organiser"`
	TotalHomeBets  int64           `gorm:"not null" json:"total_home_bets"`
	TotalAwayBets  int64           `gorm:"not null" json:"total_away_bets"`
	HomeTeamPool   decimal.Decimal `gorm:"type:numeric(78,0);not null" json:"home_team_pool"`
	AwayTeamPool   decimal.Decimal `gorm:"type:numeric(78,0);not null" json:"away_team_pool"`
	HomeTeamGoals  uint32          `gorm:"not null" json:"home_team_goals"`
	AwayTeamGoals  uint32          `gorm:"not null" json:"away_team_goals"`
	Outcome        MatchOutcome    `gorm:"size:16" json:"outcome"`
	FeeCollected   decimal.Decimal `gorm:"type:numeric(78,0);not null" json:"fee_collected"`
	IsSettled      bool            `gorm:"not null;index" json:"is_settled"`
	CreatedAt      time.Time       `json:"created_at"`
	SettledAt      *time.Time      `json:"settled_at,omitempty"`
}

func (Match) TableName() string {
	return "matches"
}

// Phase reports the lifecycle phase at ledger time now (unix seconds).
func (m *Match) Phase(now int64) MatchPhase {
	if m.IsSettled {
		return MatchPhaseSettled
	}
	if now < m.StartTime {
		return MatchPhaseOpen
	}
	return MatchPhaseAwaitingSettlement
}

// MatchFilter narrows a match listing. Status selects a lifecycle phase:
// "upcoming" (open), "started" (awaiting settlement) or "history" (settled).
// Search matches either team name once it is at least two characters long.
// Sort orders by start time; empty keeps creation order.
type MatchFilter struct {
	Status string `form:"status" binding:"omitempty,oneof=upcoming started history"`
	Search string `form:"search"`
	Sort   string `form:"sort" binding:"omitempty,oneof=asc desc"`
	Limit  int    `form:"-"`
	Offset int    `form:"-"`
}

// Phase maps the listing status onto a match phase. An empty status matches
// every phase.
func (f MatchFilter) Phase() (MatchPhase, bool) {
	switch f.Status {
	case "":
		return "", true
	case "upcoming":
		return MatchPhaseOpen, true
	case "started":
		return MatchPhaseAwaitingSettlement, true
	case "history":
		return MatchPhaseSettled, true
	}
	return "", false
}

func (m *Match) TotalPool() decimal.Decimal {
	return m.HomeTeamPool.Add(m.AwayTeamPool)
}

// MatchBet records a bettor's position on a match. (match_id, bettor) is unique.
type MatchBet struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	MatchID   uint            `gorm:"not null;uniqueIndex:idx_match_bettor" json:"match_id"`
	Bettor    string          `gorm:"size:64;not null;uniqueIndex:idx_match_bettor;index" json:"bettor"`
	Choice    BetChoice       `gorm:"not null" json:"choice"`
	Amount    decimal.Decimal `gorm:"type:numeric(78,0);not null" json:"amount"`
	Sequence  int64           `gorm:"not null" json:"sequence"`
	PlacedAt  int64           `gorm:"not null" json:"placed_at"`
	CreatedAt time.Time       `json:"created_at"`
}

func (MatchBet) TableName() string {
	return "match_bets"
}

// MatchView is the read model returned to collaborators.
type MatchView struct {
	Address        string          `json:"address"`
	MarketsAddress string          `json:"markets"`
	HomeTeam       string          `json:"home_team"`
	AwayTeam       string          `json:"away_team"`
	Stake          decimal.Decimal `json:"stake"`
	StartTime      int64           `json:"start_time"`
	Organiser      string          `json:"organiser"`
	TotalHomeBets  int64           `json:"total_home_bets"`
	TotalAwayBets  int64           `json:"total_away_bets"`
	HomeTeamPool   decimal.Decimal `json:"home_team_pool"`
	AwayTeamPool   decimal.Decimal `json:"away_team_pool"`
	HomeTeamGoals  uint32          `json:"home_team_goals"`
	AwayTeamGoals  uint32          `json:"away_team_goals"`
	IsSettled      bool            `json:"is_settled"`
	Phase          MatchPhase      `json:"phase"`
	Outcome        MatchOutcome    `json:"outcome,omitempty"`
	FeeCollected   decimal.Decimal `json:"fee_collected"`
}

func NewMatchView(m *Match, now int64) *MatchView {
	return &MatchView{
		Address:        m.Address,
		MarketsAddress: m.MarketsAddress,
		HomeTeam:       m.HomeTeam,
		AwayTeam:       m.AwayTeam,
		Stake:          m.Stake,
		StartTime:      m.StartTime,
		Organiser:      m.Organiser,
		TotalHomeBets:  m.TotalHomeBets,
		TotalAwayBets:  m.TotalAwayBets,
		HomeTeamPool:   m.HomeTeamPool,
		AwayTeamPool:   m.AwayTeamPool,
		HomeTeamGoals:  m.HomeTeamGoals,
		AwayTeamGoals:  m.AwayTeamGoals,
		IsSettled:      m.IsSettled,
		Phase:          m.Phase(now),
		Outcome:        m.Outcome,
		FeeCollected:   m.FeeCollected,
	}
}
