package repository

import (
	"context"
	"time"

	"match-escrow/internal/models"

	"github.com/google/uuid"
)

// CreatePayouts records settlement lines before any value moves
func (r *Repository) CreatePayouts(ctx context.Context, payouts []models.Payout) error {
	if len(payouts) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&payouts).Error
}

// MarkPayoutsDelivered flags payout lines whose value reached the beneficiary
func (r *Repository) MarkPayoutsDelivered(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.Payout{}).
		Where("id IN ?", ids).
		Update("delivered", true).Error
}

// GetPayoutsByEscrow retrieves the settlement lines of an escrow
func (r *Repository) GetPayoutsByEscrow(ctx context.Context, escrow string) ([]*models.Payout, error) {
	var payouts []*models.Payout
	err := r.db.WithContext(ctx).
		Where("escrow = ?", escrow).
		Order("created_at ASC").
		Find(&payouts).Error
	if err != nil {
		return nil, err
	}
	return payouts, nil
}

// CreatePendingCredit records value owed to a beneficiary
func (r *Repository) CreatePendingCredit(ctx context.Context, credit *models.PendingCredit) error {
	return r.db.WithContext(ctx).Create(credit).Error
}

// GetUnclaimedCredits retrieves credits an escrow owes a beneficiary
func (r *Repository) GetUnclaimedCredits(
	ctx context.Context,
	escrow string,
	beneficiary string,
) ([]*models.PendingCredit, error) {
	var credits []*models.PendingCredit
	err := r.db.WithContext(ctx).
		Where("escrow = ? AND beneficiary = ? AND claimed_at IS NULL", escrow, beneficiary).
		Order("created_at ASC").
		Find(&credits).Error
	if err != nil {
		return nil, err
	}
	return credits, nil
}

// GetCreditsByBeneficiary retrieves every unclaimed credit owed to an account
func (r *Repository) GetCreditsByBeneficiary(ctx context.Context, beneficiary string) ([]models.PendingCredit, error) {
	var credits []models.PendingCredit
	err := r.db.WithContext(ctx).
		Where("beneficiary = ? AND claimed_at IS NULL", beneficiary).
		Order("created_at ASC").
		Find(&credits).Error
	if err != nil {
		return nil, err
	}
	return credits, nil
}

// ListDeliverableCredits retrieves the oldest unclaimed credits whose
// beneficiary currently accepts incoming value
func (r *Repository) ListDeliverableCredits(ctx context.Context, limit int) ([]*models.PendingCredit, error) {
	var credits []*models.PendingCredit
	err := r.db.WithContext(ctx).
		Where("claimed_at IS NULL").
		Where("NOT EXISTS (SELECT 1 FROM accounts a WHERE a.address = pending_credits.beneficiary AND a.rejects_incoming = ?)", true).
		Order("created_at ASC").
		Limit(limit).
		Find(&credits).Error
	if err != nil {
		return nil, err
	}
	return credits, nil
}

// ClaimCredit marks a credit claimed. It reports false if it was claimed
// already.
func (r *Repository) ClaimCredit(ctx context.Context, id uuid.UUID, claimedAt time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.PendingCredit{}).
		Where("id = ? AND claimed_at IS NULL", id).
		Update("claimed_at", claimedAt)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}
