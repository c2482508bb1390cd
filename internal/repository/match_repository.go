package repository

import (
	"context"
	"strings"
	"time"

	"match-escrow/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CreateMatch inserts a newly deployed match escrow
func (r *Repository) CreateMatch(ctx context.Context, match *models.Match) error {
	return r.db.WithContext(ctx).Create(match).Error
}

// CountMatches returns the number of deployed matches, used as the registry nonce
func (r *Repository) CountMatches(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Match{}).Count(&count).Error
	return count, err
}

// GetMatchByAddress retrieves a match by its escrow address
func (r *Repository) GetMatchByAddress(ctx context.Context, address string) (*models.Match, error) {
	var match models.Match
	err := r.db.WithContext(ctx).Where("address = ?", address).First(&match).Error
	if err != nil {
		return nil, err
	}
	return &match, nil
}

// GetMatchByMarketsAddress retrieves the match owning a side-market escrow
func (r *Repository) GetMatchByMarketsAddress(ctx context.Context, address string) (*models.Match, error) {
	var match models.Match
	err := r.db.WithContext(ctx).Where("markets_address = ?", address).First(&match).Error
	if err != nil {
		return nil, err
	}
	return &match, nil
}

// ListMatchAddresses returns every match address in creation order
func (r *Repository) ListMatchAddresses(ctx context.Context) ([]string, error) {
	var addresses []string
	err := r.db.WithContext(ctx).
		Model(&models.Match{}).
		Order("id ASC").
		Pluck("address", &addresses).Error
	if err != nil {
		return nil, err
	}
	return addresses, nil
}

// ListMatches returns one page of matches in phase at ledger time now, along
// with the number of matches the filter selects across all pages
func (r *Repository) ListMatches(
	ctx context.Context,
	phase models.MatchPhase,
	filter models.MatchFilter,
	now int64,
) ([]*models.Match, int64, error) {
	var matches []*models.Match
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Match{})
	switch phase {
	case models.MatchPhaseOpen:
		query = query.Where("is_settled = ? AND start_time > ?", false, now)
	case models.MatchPhaseAwaitingSettlement:
		query = query.Where("is_settled = ? AND start_time <= ?", false, now)
	case models.MatchPhaseSettled:
		query = query.Where("is_settled = ?", true)
	}
	if search := strings.ToLower(strings.TrimSpace(filter.Search)); len(search) >= 2 {
		pattern := "%" + search + "%"
		query = query.Where("(LOWER(home_team) LIKE ? OR LOWER(away_team) LIKE ?)", pattern, pattern)
	}
	query = query.Session(&gorm.Session{})

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	switch filter.Sort {
	case "asc":
		query = query.Order("start_time ASC").Order("id ASC")
	case "desc":
		query = query.Order("start_time DESC").Order("id DESC")
	default:
		query = query.Order("id ASC")
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if err := query.Offset(filter.Offset).Find(&matches).Error; err != nil {
		return nil, 0, err
	}
	return matches, total, nil
}

// IncrementMatchPool adds one bet of amount to the pool of choice
func (r *Repository) IncrementMatchPool(
	ctx context.Context,
	matchID uint,
	choice models.BetChoice,
	amount decimal.Decimal,
) error {
	countCol, poolCol := "total_home_bets", "home_team_pool"
	if choice == models.BetAway {
		countCol, poolCol = "total_away_bets", "away_team_pool"
	}
	return r.db.WithContext(ctx).
		Model(&models.Match{}).
		Where("id = ?", matchID).
		Updates(map[string]interface{}{
			countCol: gorm.Expr(countCol+" + ?", 1),
			poolCol:  gorm.Expr(poolCol+" + ?", amount),
		}).Error
}

// MarkMatchSettled records the final score and flips the settled flag. It
// reports false when the match was already settled.
func (r *Repository) MarkMatchSettled(
	ctx context.Context,
	matchID uint,
	homeGoals, awayGoals uint32,
	outcome models.MatchOutcome,
	fee decimal.Decimal,
	settledAt time.Time,
) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Match{}).
		Where("id = ? AND is_settled = ?", matchID, false).
		Updates(map[string]interface{}{
			"home_team_goals": homeGoals,
			"away_team_goals": awayGoals,
			"outcome":         outcome,
			"fee_collected":   fee,
			"is_settled":      true,
			"settled_at":      settledAt,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// CreateMatchBet records a primary-market bet
func (r *Repository) CreateMatchBet(ctx context.Context, bet *models.MatchBet) error {
	return r.db.WithContext(ctx).Create(bet).Error
}

// GetMatchBet retrieves a bettor's position, or nil if they have none
func (r *Repository) GetMatchBet(ctx context.Context, matchID uint, bettor string) (*models.MatchBet, error) {
	var bet models.MatchBet
	err := r.db.WithContext(ctx).
		Where("match_id = ? AND bettor = ?", matchID, bettor).
		First(&bet).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &bet, nil
}

// GetMatchBets retrieves all bets on a match in placement order
func (r *Repository) GetMatchBets(ctx context.Context, matchID uint) ([]*models.MatchBet, error) {
	var bets []*models.MatchBet
	err := r.db.WithContext(ctx).
		Where("match_id = ?", matchID).
		Order("sequence ASC").
		Find(&bets).Error
	if err != nil {
		return nil, err
	}
	return bets, nil
}
