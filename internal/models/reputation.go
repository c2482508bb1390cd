package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrganiserRating aggregates votes for one organiser. ID preserves
// registration order.
type OrganiserRating struct {
	ID                 uint      `gorm:"primaryKey;autoIncrement" json:"-"`
	Organiser          string    `gorm:"size:64;uniqueIndex;not null" json:"organiser"`
	Active             bool      `gorm:"not null" json:"active"`
	TotalRate          int64     `gorm:"not null" json:"total_rate"`
	NumberOfTimesRated int64     `gorm:"not null" json:"number_of_times_rated"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

func (OrganiserRating) TableName() string {
	return "organiser_ratings"
}

// Average returns TotalRate / NumberOfTimesRated, or zero when unrated.
func (r *OrganiserRating) Average() decimal.Decimal {
	if r.NumberOfTimesRated == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(r.TotalRate).DivRound(decimal.NewFromInt(r.NumberOfTimesRated), 4)
}

// Vote is one entry of the append-only vote record.
type Vote struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Organiser    string    `gorm:"size:64;not null;uniqueIndex:idx_vote_triple" json:"organiser"`
	MatchAddress string    `gorm:"size:64;not null;uniqueIndex:idx_vote_triple" json:"match_address"`
	Voter        string    `gorm:"size:64;not null;uniqueIndex:idx_vote_triple" json:"voter"`
	Rating       int       `gorm:"not null" json:"rating"`
	CastAt       int64     `gorm:"not null" json:"cast_at"`
	CreatedAt    time.Time `json:"created_at"`
}

func (Vote) TableName() string {
	return "votes"
}

// RatingView is the ratings(organiser) read.
type RatingView struct {
	Organiser          string          `json:"organiser"`
	Active             bool            `json:"active"`
	TotalRate          int64           `json:"total_rate"`
	NumberOfTimesRated int64           `json:"number_of_times_rated"`
	Average            decimal.Decimal `json:"average"`
}

// VoteEligibility breaks canVote down into its individual conditions.
type VoteEligibility struct {
	Eligible         bool   `json:"eligible"`
	HasBet           bool   `json:"has_bet"`
	OrganiserMatches bool   `json:"organiser_matches"`
	MatchStarted     bool   `json:"match_started"`
	AlreadyVoted     bool   `json:"already_voted"`
	IsOrganiser      bool   `json:"is_organiser"`
	Reason           string `json:"reason,omitempty"`
}
