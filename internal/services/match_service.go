package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"match-escrow/internal/ledger"
	"match-escrow/internal/models"
	"match-escrow/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// MatchService runs the primary home/away escrow of every match.
type MatchService struct {
	ledger  *ledger.Ledger
	repo    *repository.Repository
	payouts *PayoutService
	markets *SideMarketService
	cfg     EscrowConfig
}

func NewMatchService(
	l *ledger.Ledger,
	repo *repository.Repository,
	payouts *PayoutService,
	markets *SideMarketService,
	cfg EscrowConfig,
) *MatchService {
	return &MatchService{
		ledger:  l,
		repo:    repo,
		payouts: payouts,
		markets: markets,
		cfg:     cfg,
	}
}

func (ms *MatchService) BetOnHome(ctx context.Context, matchAddress, caller string, value decimal.Decimal) (*models.MatchBet, error) {
	return ms.placeBet(ctx, matchAddress, caller, models.BetHome, value)
}

func (ms *MatchService) BetOnAway(ctx context.Context, matchAddress, caller string, value decimal.Decimal) (*models.MatchBet, error) {
	return ms.placeBet(ctx, matchAddress, caller, models.BetAway, value)
}

func (ms *MatchService) placeBet(
	ctx context.Context,
	matchAddress string,
	caller string,
	choice models.BetChoice,
	value decimal.Decimal,
) (*models.MatchBet, error) {
	if _, err := ledger.ParseAddress(caller); err != nil {
		return nil, err
	}

	var bet *models.MatchBet
	err := ms.ledger.Execute(ctx, func(tx *ledger.Tx) error {
		repo := ms.repo.WithTx(tx.DB())

		match, err := loadMatch(ctx, repo, matchAddress)
		if err != nil {
			return err
		}
		if match.Phase(tx.Now()) != models.MatchPhaseOpen {
			return ErrBettingClosed
		}
		if !value.Equal(match.Stake) {
			return fmt.Errorf("%w: sent %s, stake is %s", ErrStakeMismatch, value, match.Stake)
		}

		existing, err := repo.GetMatchBet(ctx, match.ID, caller)
		if err != nil {
			return fmt.Errorf("failed to get bet: %w", err)
		}
		if existing != nil {
			return ErrDuplicateBet
		}

		if _, err := tx.Transfer(caller, match.Address, value, models.TransferKindStake, match.Address); err != nil {
			return err
		}

		bet = &models.MatchBet{
			ID:       uuid.New(),
			MatchID:  match.ID,
			Bettor:   caller,
			Choice:   choice,
			Amount:   value,
			Sequence: match.TotalHomeBets + match.TotalAwayBets + 1,
			PlacedAt: tx.Now(),
		}
		if err := repo.CreateMatchBet(ctx, bet); err != nil {
			return fmt.Errorf("failed to record bet: %w", err)
		}
		if err := repo.IncrementMatchPool(ctx, match.ID, choice, value); err != nil {
			return fmt.Errorf("failed to update pool: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[MatchService] %s bet %s on %s (%s)", caller, choice, matchAddress, value)
	return bet, nil
}

// GetMatch returns the match view, or ErrMatchNotFound.
func (ms *MatchService) GetMatch(ctx context.Context, address string) (*models.MatchView, error) {
	match, err := loadMatch(ctx, ms.repo, address)
	if err != nil {
		return nil, err
	}
	return models.NewMatchView(match, ms.ledger.Now()), nil
}

// Snapshot is the field-level read: unknown or unreadable matches yield a
// zero view rather than an error.
func (ms *MatchService) Snapshot(ctx context.Context, address string) models.MatchView {
	view, err := ms.GetMatch(ctx, address)
	if err != nil {
		if !errors.Is(err, ErrMatchNotFound) {
			log.Printf("[MatchService] Failed to read match %s: %v", address, err)
		}
		return models.MatchView{}
	}
	return *view
}

// ListMatches returns one page of match views selected by filter and the
// number of matches the filter selects in total. Without a sort the page
// is in creation order.
func (ms *MatchService) ListMatches(ctx context.Context, filter models.MatchFilter) ([]*models.MatchView, int64, error) {
	phase, ok := filter.Phase()
	if !ok {
		return nil, 0, ErrInvalidFilter
	}
	if filter.Sort != "" && filter.Sort != "asc" && filter.Sort != "desc" {
		return nil, 0, ErrInvalidFilter
	}

	now := ms.ledger.Now()
	matches, total, err := ms.repo.ListMatches(ctx, phase, filter, now)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list matches: %w", err)
	}

	views := make([]*models.MatchView, 0, len(matches))
	for _, m := range matches {
		views = append(views, models.NewMatchView(m, now))
	}
	return views, total, nil
}

// Bets returns bettor's choice on a match. Unknown matches and bettors read
// as BetNone.
func (ms *MatchService) Bets(ctx context.Context, matchAddress, bettor string) models.BetChoice {
	match, err := loadMatch(ctx, ms.repo, matchAddress)
	if err != nil {
		return models.BetNone
	}
	bet, err := ms.repo.GetMatchBet(ctx, match.ID, bettor)
	if err != nil || bet == nil {
		return models.BetNone
	}
	return bet.Choice
}

// Markets returns the side-market escrow address of a match, or "".
func (ms *MatchService) Markets(ctx context.Context, matchAddress string) string {
	return ms.Snapshot(ctx, matchAddress).MarketsAddress
}

func loadMatch(ctx context.Context, repo *repository.Repository, address string) (*models.Match, error) {
	match, err := repo.GetMatchByAddress(ctx, address)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrMatchNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get match: %w", err)
	}
	return match, nil
}
