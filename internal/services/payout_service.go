package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"match-escrow/internal/ledger"
	"match-escrow/internal/models"
	"match-escrow/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var basisPoints = decimal.NewFromInt(10000)

// Position is one bettor's stake in a pool.
type Position struct {
	Beneficiary string
	Amount      decimal.Decimal
	Sequence    int64
}

// Share is one planned payout to a bettor.
type Share struct {
	Beneficiary string
	Amount      decimal.Decimal
	Kind        models.PayoutKind
}

// PayoutPlan is the full distribution of a pool. Fee + sum(Shares) == Total.
type PayoutPlan struct {
	Total  decimal.Decimal
	Fee    decimal.Decimal
	Dust   decimal.Decimal
	Shares []Share
	Void   bool
}

// CalculateFee returns floor(total * bps / 10000).
func CalculateFee(total decimal.Decimal, bps int64) decimal.Decimal {
	fee, _ := total.Mul(decimal.NewFromInt(bps)).QuoRem(basisPoints, 0)
	return fee
}

func sumPositions(positions []Position) decimal.Decimal {
	total := decimal.Zero
	for _, p := range positions {
		total = total.Add(p.Amount)
	}
	return total
}

// PlanRefund returns every position its stake with no fee.
func PlanRefund(positions []Position) *PayoutPlan {
	plan := &PayoutPlan{
		Total: sumPositions(positions),
		Fee:   decimal.Zero,
		Dust:  decimal.Zero,
		Void:  true,
	}
	for _, p := range positions {
		plan.Shares = append(plan.Shares, Share{
			Beneficiary: p.Beneficiary,
			Amount:      p.Amount,
			Kind:        models.PayoutKindRefund,
		})
	}
	return plan
}

// PlanSettlement splits the pool formed by positions between winners pro rata
// by stake after taking feeBps. With no winners the pool is refunded.
func PlanSettlement(
	positions []Position,
	winners []Position,
	feeBps int64,
	rounding RoundingPolicy,
) *PayoutPlan {
	if len(winners) == 0 {
		return PlanRefund(positions)
	}

	ordered := make([]Position, len(winners))
	copy(ordered, winners)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Sequence < ordered[j].Sequence
	})

	total := sumPositions(positions)
	fee := CalculateFee(total, feeBps)
	remaining := total.Sub(fee)
	winningPool := sumPositions(ordered)

	shares := make([]Share, len(ordered))
	distributed := decimal.Zero
	for i, w := range ordered {
		amount, _ := remaining.Mul(w.Amount).QuoRem(winningPool, 0)
		shares[i] = Share{
			Beneficiary: w.Beneficiary,
			Amount:      amount,
			Kind:        models.PayoutKindWinnings,
		}
		distributed = distributed.Add(amount)
	}

	dust := remaining.Sub(distributed)
	switch rounding {
	case RoundingOrganiser:
		fee = fee.Add(dust)
	default:
		// dust < len(shares): each floor loses less than one unit
		one := decimal.NewFromInt(1)
		left := dust
		for i := 0; left.IsPositive(); i = (i + 1) % len(shares) {
			shares[i].Amount = shares[i].Amount.Add(one)
			left = left.Sub(one)
		}
	}

	return &PayoutPlan{
		Total:  total,
		Fee:    fee,
		Dust:   dust,
		Shares: shares,
	}
}

type PayoutService struct {
	ledger *ledger.Ledger
	repo   *repository.Repository
	mode   PayoutMode
}

func NewPayoutService(
	l *ledger.Ledger,
	repo *repository.Repository,
	mode PayoutMode,
) *PayoutService {
	return &PayoutService{
		ledger: l,
		repo:   repo,
		mode:   mode,
	}
}

func (ps *PayoutService) Mode() PayoutMode {
	return ps.mode
}

// disburse records the plan's payout lines and then moves value out of the
// escrow. A transfer the recipient refuses becomes a pending credit.
func (ps *PayoutService) disburse(
	ctx context.Context,
	tx *ledger.Tx,
	escrow string,
	market string,
	organiser string,
	plan *PayoutPlan,
) ([]models.Payout, error) {
	repo := ps.repo.WithTx(tx.DB())

	payouts := make([]models.Payout, 0, len(plan.Shares)+1)
	if plan.Fee.IsPositive() {
		payouts = append(payouts, models.Payout{
			ID:          uuid.New(),
			Escrow:      escrow,
			Market:      market,
			Beneficiary: organiser,
			Kind:        models.PayoutKindFee,
			Amount:      plan.Fee,
		})
	}
	for _, share := range plan.Shares {
		if !share.Amount.IsPositive() {
			continue
		}
		payouts = append(payouts, models.Payout{
			ID:          uuid.New(),
			Escrow:      escrow,
			Market:      market,
			Beneficiary: share.Beneficiary,
			Kind:        share.Kind,
			Amount:      share.Amount,
		})
	}

	if err := repo.CreatePayouts(ctx, payouts); err != nil {
		return nil, fmt.Errorf("failed to record payouts: %w", err)
	}

	delivered := make([]uuid.UUID, 0, len(payouts))
	for i := range payouts {
		p := &payouts[i]

		if ps.mode == PayoutPull {
			if err := ps.deferPayout(ctx, repo, p, "pull mode"); err != nil {
				return nil, err
			}
			continue
		}

		_, err := tx.Transfer(escrow, p.Beneficiary, p.Amount, p.Kind.TransferKind(), escrow)
		if errors.Is(err, ledger.ErrRecipientRejected) {
			log.Printf("[PayoutService] Transfer of %s to %s refused, deferring", p.Amount, p.Beneficiary)
			if err := ps.deferPayout(ctx, repo, p, err.Error()); err != nil {
				return nil, err
			}
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to pay %s: %w", p.Beneficiary, err)
		}
		p.Delivered = true
		delivered = append(delivered, p.ID)
	}

	if err := repo.MarkPayoutsDelivered(ctx, delivered); err != nil {
		return nil, fmt.Errorf("failed to mark payouts delivered: %w", err)
	}

	return payouts, nil
}

func (ps *PayoutService) deferPayout(ctx context.Context, repo *repository.Repository, p *models.Payout, reason string) error {
	credit := &models.PendingCredit{
		ID:          uuid.New(),
		PayoutID:    p.ID,
		Escrow:      p.Escrow,
		Beneficiary: p.Beneficiary,
		Amount:      p.Amount,
		Kind:        p.Kind,
		Reason:      reason,
	}
	if err := repo.CreatePendingCredit(ctx, credit); err != nil {
		return fmt.Errorf("failed to record pending credit: %w", err)
	}
	return nil
}

// Withdraw pays the caller every credit escrow owes them and returns the
// amount moved.
func (ps *PayoutService) Withdraw(ctx context.Context, caller, escrow string) (decimal.Decimal, error) {
	if _, err := ledger.ParseAddress(caller); err != nil {
		return decimal.Zero, err
	}

	total := decimal.Zero
	err := ps.ledger.Execute(ctx, func(tx *ledger.Tx) error {
		repo := ps.repo.WithTx(tx.DB())

		credits, err := repo.GetUnclaimedCredits(ctx, escrow, caller)
		if err != nil {
			return fmt.Errorf("failed to load credits: %w", err)
		}
		if len(credits) == 0 {
			return ErrNothingToWithdraw
		}

		for _, c := range credits {
			total = total.Add(c.Amount)
		}
		if _, err := tx.Transfer(escrow, caller, total, models.TransferKindWithdrawal, escrow); err != nil {
			return err
		}

		return ps.claim(ctx, repo, tx, credits)
	})
	if err != nil {
		return decimal.Zero, err
	}

	log.Printf("[PayoutService] %s withdrew %s from %s", caller, total, escrow)
	return total, nil
}

// RetryDeferred pushes unclaimed credits to beneficiaries that accept value
// again. It returns the number of credits delivered.
func (ps *PayoutService) RetryDeferred(ctx context.Context, limit int) (int, error) {
	delivered := 0
	err := ps.ledger.Execute(ctx, func(tx *ledger.Tx) error {
		repo := ps.repo.WithTx(tx.DB())

		credits, err := repo.ListDeliverableCredits(ctx, limit)
		if err != nil {
			return fmt.Errorf("failed to list credits: %w", err)
		}

		for _, c := range credits {
			if _, err := tx.Transfer(c.Escrow, c.Beneficiary, c.Amount, c.Kind.TransferKind(), c.Escrow); err != nil {
				return fmt.Errorf("failed to deliver credit %s: %w", c.ID, err)
			}
			if err := ps.claim(ctx, repo, tx, []*models.PendingCredit{c}); err != nil {
				return err
			}
			delivered++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return delivered, nil
}

func (ps *PayoutService) claim(
	ctx context.Context,
	repo *repository.Repository,
	tx *ledger.Tx,
	credits []*models.PendingCredit,
) error {
	claimedAt := time.Unix(tx.Now(), 0).UTC()
	payoutIDs := make([]uuid.UUID, 0, len(credits))
	for _, c := range credits {
		ok, err := repo.ClaimCredit(ctx, c.ID, claimedAt)
		if err != nil {
			return fmt.Errorf("failed to claim credit: %w", err)
		}
		if !ok {
			return fmt.Errorf("credit %s: %w", c.ID, ErrAlreadySettled)
		}
		payoutIDs = append(payoutIDs, c.PayoutID)
	}
	return repo.MarkPayoutsDelivered(ctx, payoutIDs)
}
