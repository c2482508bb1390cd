package services

import (
	"context"
	"fmt"
	"log"
	"math"
	"time"

	"match-escrow/internal/ledger"
	"match-escrow/internal/models"
)

// validGoals reports whether n fits the stored goal count.
func validGoals(n int) bool {
	return n >= 0 && uint64(n) <= math.MaxUint32
}

// GameFinished settles a match with its final score. Only the organiser may
// call it, once, after the match has started. The primary market pays out
// first and the side markets settle in the same execution.
func (ms *MatchService) GameFinished(
	ctx context.Context,
	matchAddress string,
	caller string,
	homeGoals, awayGoals int,
) (*models.SettlementReport, error) {
	var report *models.SettlementReport

	err := ms.ledger.Execute(ctx, func(tx *ledger.Tx) error {
		repo := ms.repo.WithTx(tx.DB())

		match, err := loadMatch(ctx, repo, matchAddress)
		if err != nil {
			return err
		}
		if caller != match.Organiser {
			return ErrUnauthorized
		}
		if tx.Now() < match.StartTime {
			return ErrTooEarly
		}
		if match.IsSettled {
			return ErrAlreadySettled
		}
		if !validGoals(homeGoals) || !validGoals(awayGoals) {
			return ErrInvalidGoals
		}

		home, away := uint32(homeGoals), uint32(awayGoals)
		outcome := models.OutcomeFor(home, away)

		bets, err := repo.GetMatchBets(ctx, match.ID)
		if err != nil {
			return fmt.Errorf("failed to load bets: %w", err)
		}

		var plan *PayoutPlan
		positions, winners := primaryPositions(bets, outcome)
		if outcome == models.MatchOutcomeDraw {
			plan = PlanRefund(positions)
		} else {
			plan = PlanSettlement(positions, winners, ms.cfg.FeeBps, ms.cfg.Rounding)
		}

		settledAt := time.Unix(tx.Now(), 0).UTC()
		ok, err := repo.MarkMatchSettled(ctx, match.ID, home, away, outcome, plan.Fee, settledAt)
		if err != nil {
			return fmt.Errorf("failed to settle match: %w", err)
		}
		if !ok {
			return ErrAlreadySettled
		}

		payouts, err := ms.payouts.disburse(ctx, tx, match.Address, models.PrimaryMarket, match.Organiser, plan)
		if err != nil {
			return err
		}

		sides, err := ms.markets.settle(ctx, tx, match.Address, match.MarketsAddress, home, away)
		if err != nil {
			return fmt.Errorf("failed to settle side markets: %w", err)
		}

		report = &models.SettlementReport{
			Match:       match.Address,
			Outcome:     outcome,
			HomeGoals:   home,
			AwayGoals:   away,
			TotalPool:   plan.Total,
			Fee:         plan.Fee,
			Payouts:     payouts,
			SideMarkets: sides,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[MatchService] Match %s settled %d-%d (%s): pool %s, fee %s, %d payouts",
		report.Match, report.HomeGoals, report.AwayGoals, report.Outcome,
		report.TotalPool, report.Fee, len(report.Payouts))

	return report, nil
}

// primaryPositions converts bets to positions and picks the winning side.
// A draw has no winners.
func primaryPositions(bets []*models.MatchBet, outcome models.MatchOutcome) ([]Position, []Position) {
	var winning models.BetChoice
	switch outcome {
	case models.MatchOutcomeHome:
		winning = models.BetHome
	case models.MatchOutcomeAway:
		winning = models.BetAway
	}

	positions := make([]Position, 0, len(bets))
	var winners []Position
	for _, b := range bets {
		p := Position{Beneficiary: b.Bettor, Amount: b.Amount, Sequence: b.Sequence}
		positions = append(positions, p)
		if winning != models.BetNone && b.Choice == winning {
			winners = append(winners, p)
		}
	}
	return positions, winners
}

