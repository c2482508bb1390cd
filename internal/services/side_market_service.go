package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"match-escrow/internal/ledger"
	"match-escrow/internal/models"
	"match-escrow/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SideMarketService runs the goal-band and both-teams-scored pools that sit
// next to each match.
type SideMarketService struct {
	ledger  *ledger.Ledger
	repo    *repository.Repository
	payouts *PayoutService
	cfg     EscrowConfig
}

func NewSideMarketService(
	l *ledger.Ledger,
	repo *repository.Repository,
	payouts *PayoutService,
	cfg EscrowConfig,
) *SideMarketService {
	return &SideMarketService{
		ledger:  l,
		repo:    repo,
		payouts: payouts,
		cfg:     cfg,
	}
}

func (ss *SideMarketService) BetUnderThreshold(ctx context.Context, address, caller string, value decimal.Decimal) (*models.SideMarketBet, error) {
	return ss.Bet(ctx, address, models.MarketUnderThreshold, caller, value)
}

func (ss *SideMarketService) BetOverThreshold(ctx context.Context, address, caller string, value decimal.Decimal) (*models.SideMarketBet, error) {
	return ss.Bet(ctx, address, models.MarketOverThreshold, caller, value)
}

func (ss *SideMarketService) BetBothScored(ctx context.Context, address, caller string, value decimal.Decimal) (*models.SideMarketBet, error) {
	return ss.Bet(ctx, address, models.MarketBothScored, caller, value)
}

// Bet places caller's stake in one market. Each market takes at most one bet
// per address; a caller may hold all three.
func (ss *SideMarketService) Bet(
	ctx context.Context,
	address string,
	market models.SideMarket,
	caller string,
	value decimal.Decimal,
) (*models.SideMarketBet, error) {
	if !market.Valid() {
		return nil, ErrInvalidMarket
	}
	if _, err := ledger.ParseAddress(caller); err != nil {
		return nil, err
	}

	var bet *models.SideMarketBet
	err := ss.ledger.Execute(ctx, func(tx *ledger.Tx) error {
		repo := ss.repo.WithTx(tx.DB())

		escrow, match, err := loadSideMarkets(ctx, repo, address)
		if err != nil {
			return err
		}
		if escrow.IsSettled || match.Phase(tx.Now()) != models.MatchPhaseOpen {
			return ErrBettingClosed
		}
		if !value.Equal(match.Stake) {
			return fmt.Errorf("%w: sent %s, stake is %s", ErrStakeMismatch, value, match.Stake)
		}

		exists, err := repo.HasSideMarketBet(ctx, escrow.ID, market, caller)
		if err != nil {
			return fmt.Errorf("failed to check bet: %w", err)
		}
		if exists {
			return ErrDuplicateBet
		}

		pool, err := repo.GetSideMarketPool(ctx, escrow.ID, market)
		if err != nil {
			return fmt.Errorf("failed to get pool: %w", err)
		}

		if _, err := tx.Transfer(caller, escrow.Address, value, models.TransferKindStake, escrow.Address); err != nil {
			return err
		}

		bet = &models.SideMarketBet{
			ID:       uuid.New(),
			EscrowID: escrow.ID,
			Market:   market,
			Bettor:   caller,
			Amount:   value,
			Sequence: pool.TotalBets + 1,
			PlacedAt: tx.Now(),
		}
		if err := repo.CreateSideMarketBet(ctx, bet); err != nil {
			return fmt.Errorf("failed to record bet: %w", err)
		}
		if err := repo.IncrementSideMarketPool(ctx, escrow.ID, market, value); err != nil {
			return fmt.Errorf("failed to update pool: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[SideMarketService] %s bet %s on %s (%s)", caller, market, address, value)
	return bet, nil
}

// settle pays out every market from the final score. caller must be the
// parent match escrow and the escrow settles once.
func (ss *SideMarketService) settle(
	ctx context.Context,
	tx *ledger.Tx,
	caller string,
	address string,
	homeGoals, awayGoals uint32,
) ([]models.SideMarketSettlement, error) {
	repo := ss.repo.WithTx(tx.DB())

	escrow, match, err := loadSideMarkets(ctx, repo, address)
	if err != nil {
		return nil, err
	}
	if caller != escrow.Parent {
		return nil, ErrUnauthorized
	}

	ok, err := repo.MarkSideMarketEscrowSettled(ctx, escrow.ID, time.Unix(tx.Now(), 0).UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to settle side markets: %w", err)
	}
	if !ok {
		return nil, ErrAlreadySettled
	}

	thresholds := escrow.Thresholds()
	results := make([]models.SideMarketSettlement, 0, len(models.SideMarkets))
	for _, market := range models.SideMarkets {
		won := market.Wins(homeGoals, awayGoals, thresholds)
		if err := repo.SetSideMarketResult(ctx, escrow.ID, market, won); err != nil {
			return nil, fmt.Errorf("failed to record %s result: %w", market, err)
		}

		bets, err := repo.GetSideMarketBets(ctx, escrow.ID, market)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s bets: %w", market, err)
		}

		positions := make([]Position, 0, len(bets))
		for _, b := range bets {
			positions = append(positions, Position{Beneficiary: b.Bettor, Amount: b.Amount, Sequence: b.Sequence})
		}
		var winners []Position
		if won {
			winners = positions
		}
		plan := PlanSettlement(positions, winners, ss.cfg.SideFeeBps, ss.cfg.Rounding)

		payouts, err := ss.payouts.disburse(ctx, tx, escrow.Address, market.String(), match.Organiser, plan)
		if err != nil {
			return nil, err
		}

		results = append(results, models.SideMarketSettlement{
			Market:  market,
			Code:    market.String(),
			Won:     won,
			Pool:    plan.Total,
			Fee:     plan.Fee,
			Payouts: payouts,
		})
	}

	log.Printf("[SideMarketService] Side markets %s settled for %d-%d", address, homeGoals, awayGoals)
	return results, nil
}

// HasBet reports whether bettor holds a position in market.
func (ss *SideMarketService) HasBet(ctx context.Context, address string, market models.SideMarket, bettor string) bool {
	escrow, err := ss.repo.GetSideMarketEscrowByAddress(ctx, address)
	if err != nil {
		return false
	}
	ok, err := ss.repo.HasSideMarketBet(ctx, escrow.ID, market, bettor)
	return err == nil && ok
}

// TotalBets returns the number of bets in market, or zero if unknown.
func (ss *SideMarketService) TotalBets(ctx context.Context, address string, market models.SideMarket) int64 {
	view, err := ss.Market(ctx, address, market)
	if err != nil {
		return 0
	}
	return view.TotalBets
}

// PoolSize returns the value staked in market, or zero if unknown.
func (ss *SideMarketService) PoolSize(ctx context.Context, address string, market models.SideMarket) decimal.Decimal {
	view, err := ss.Market(ctx, address, market)
	if err != nil {
		return decimal.Zero
	}
	return view.PoolSize
}

// Market returns the view of one market.
func (ss *SideMarketService) Market(ctx context.Context, address string, market models.SideMarket) (*models.SideMarketView, error) {
	if !market.Valid() {
		return nil, ErrInvalidMarket
	}
	escrow, err := ss.repo.GetSideMarketEscrowByAddress(ctx, address)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrMatchNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get side markets: %w", err)
	}
	pool, err := ss.repo.GetSideMarketPool(ctx, escrow.ID, market)
	if err != nil {
		return nil, fmt.Errorf("failed to get pool: %w", err)
	}
	return sideMarketView(escrow, pool), nil
}

// Markets returns the view of every market of an escrow.
func (ss *SideMarketService) Markets(ctx context.Context, address string) ([]*models.SideMarketView, error) {
	escrow, err := ss.repo.GetSideMarketEscrowByAddress(ctx, address)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrMatchNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get side markets: %w", err)
	}
	pools, err := ss.repo.GetSideMarketPools(ctx, escrow.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get pools: %w", err)
	}

	views := make([]*models.SideMarketView, 0, len(pools))
	for _, p := range pools {
		views = append(views, sideMarketView(escrow, p))
	}
	return views, nil
}

func sideMarketView(escrow *models.SideMarketEscrow, pool *models.SideMarketPool) *models.SideMarketView {
	return &models.SideMarketView{
		Escrow:    escrow.Address,
		Market:    pool.Market,
		Code:      pool.Market.String(),
		TotalBets: pool.TotalBets,
		PoolSize:  pool.Pool,
		IsSettled: escrow.IsSettled,
		Won:       pool.Won,
	}
}

func loadSideMarkets(
	ctx context.Context,
	repo *repository.Repository,
	address string,
) (*models.SideMarketEscrow, *models.Match, error) {
	escrow, err := repo.GetSideMarketEscrowByAddress(ctx, address)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, ErrMatchNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get side markets: %w", err)
	}
	match, err := repo.GetMatchByMarketsAddress(ctx, address)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get parent match: %w", err)
	}
	return escrow, match, nil
}
