package repository

import (
	"context"
	"time"

	"match-escrow/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CreateSideMarketEscrow inserts the escrow and an empty pool per market
func (r *Repository) CreateSideMarketEscrow(ctx context.Context, escrow *models.SideMarketEscrow) error {
	db := r.db.WithContext(ctx)
	if err := db.Create(escrow).Error; err != nil {
		return err
	}

	pools := make([]models.SideMarketPool, 0, len(models.SideMarkets))
	for _, market := range models.SideMarkets {
		pools = append(pools, models.SideMarketPool{
			EscrowID: escrow.ID,
			Market:   market,
			Pool:     decimal.Zero,
		})
	}
	return db.Create(&pools).Error
}

// GetSideMarketEscrowByAddress retrieves a side-market escrow by address
func (r *Repository) GetSideMarketEscrowByAddress(ctx context.Context, address string) (*models.SideMarketEscrow, error) {
	var escrow models.SideMarketEscrow
	err := r.db.WithContext(ctx).Where("address = ?", address).First(&escrow).Error
	if err != nil {
		return nil, err
	}
	return &escrow, nil
}

// GetSideMarketPool retrieves the running totals of one market
func (r *Repository) GetSideMarketPool(
	ctx context.Context,
	escrowID uint,
	market models.SideMarket,
) (*models.SideMarketPool, error) {
	var pool models.SideMarketPool
	err := r.db.WithContext(ctx).
		Where("escrow_id = ? AND market = ?", escrowID, market).
		First(&pool).Error
	if err != nil {
		return nil, err
	}
	return &pool, nil
}

// GetSideMarketPools retrieves all pools of an escrow in market order
func (r *Repository) GetSideMarketPools(ctx context.Context, escrowID uint) ([]*models.SideMarketPool, error) {
	var pools []*models.SideMarketPool
	err := r.db.WithContext(ctx).
		Where("escrow_id = ?", escrowID).
		Order("market ASC").
		Find(&pools).Error
	if err != nil {
		return nil, err
	}
	return pools, nil
}

// IncrementSideMarketPool adds one bet of amount to a market
func (r *Repository) IncrementSideMarketPool(
	ctx context.Context,
	escrowID uint,
	market models.SideMarket,
	amount decimal.Decimal,
) error {
	return r.db.WithContext(ctx).
		Model(&models.SideMarketPool{}).
		Where("escrow_id = ? AND market = ?", escrowID, market).
		Updates(map[string]interface{}{
			"total_bets": gorm.Expr("total_bets + ?", 1),
			"pool":       gorm.Expr("pool + ?", amount),
		}).Error
}

// SetSideMarketResult records whether a market won
func (r *Repository) SetSideMarketResult(
	ctx context.Context,
	escrowID uint,
	market models.SideMarket,
	won bool,
) error {
	return r.db.WithContext(ctx).
		Model(&models.SideMarketPool{}).
		Where("escrow_id = ? AND market = ?", escrowID, market).
		Update("won", won).Error
}

// MarkSideMarketEscrowSettled flips the settled flag. It reports false when
// the escrow was already settled.
func (r *Repository) MarkSideMarketEscrowSettled(ctx context.Context, escrowID uint, settledAt time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.SideMarketEscrow{}).
		Where("id = ? AND is_settled = ?", escrowID, false).
		Updates(map[string]interface{}{
			"is_settled": true,
			"settled_at": settledAt,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// CreateSideMarketBet records a side-market bet
func (r *Repository) CreateSideMarketBet(ctx context.Context, bet *models.SideMarketBet) error {
	return r.db.WithContext(ctx).Create(bet).Error
}

// HasSideMarketBet reports whether bettor holds a position in market
func (r *Repository) HasSideMarketBet(
	ctx context.Context,
	escrowID uint,
	market models.SideMarket,
	bettor string,
) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.SideMarketBet{}).
		Where("escrow_id = ? AND market = ? AND bettor = ?", escrowID, market, bettor).
		Count(&count).Error
	return count > 0, err
}

// GetSideMarketBets retrieves a market's bets in placement order
func (r *Repository) GetSideMarketBets(
	ctx context.Context,
	escrowID uint,
	market models.SideMarket,
) ([]*models.SideMarketBet, error) {
	var bets []*models.SideMarketBet
	err := r.db.WithContext(ctx).
		Where("escrow_id = ? AND market = ?", escrowID, market).
		Order("sequence ASC").
		Find(&bets).Error
	if err != nil {
		return nil, err
	}
	return bets, nil
}
