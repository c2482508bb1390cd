package repository

import (
	"context"

	"match-escrow/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EnsureOrganiser registers an organiser with an empty active rating. Existing
// records are left untouched.
func (r *Repository) EnsureOrganiser(ctx context.Context, organiser string) error {
	rating := models.OrganiserRating{
		Organiser: organiser,
		Active:    true,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "organiser"}},
			DoNothing: true,
		}).
		Create(&rating).Error
}

// GetOrganiserRating retrieves an organiser's rating, or nil if unknown
func (r *Repository) GetOrganiserRating(ctx context.Context, organiser string) (*models.OrganiserRating, error) {
	var rating models.OrganiserRating
	err := r.db.WithContext(ctx).Where("organiser = ?", organiser).First(&rating).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rating, nil
}

// ListOrganisers returns organisers in registration order
func (r *Repository) ListOrganisers(ctx context.Context) ([]string, error) {
	var organisers []string
	err := r.db.WithContext(ctx).
		Model(&models.OrganiserRating{}).
		Order("id ASC").
		Pluck("organiser", &organisers).Error
	if err != nil {
		return nil, err
	}
	return organisers, nil
}

// IncrementRating applies one vote to an organiser's aggregate
func (r *Repository) IncrementRating(ctx context.Context, organiser string, rating int) error {
	return r.db.WithContext(ctx).
		Model(&models.OrganiserRating{}).
		Where("organiser = ?", organiser).
		Updates(map[string]interface{}{
			"total_rate":            gorm.Expr("total_rate + ?", rating),
			"number_of_times_rated": gorm.Expr("number_of_times_rated + ?", 1),
		}).Error
}

// CreateVote appends to the vote record
func (r *Repository) CreateVote(ctx context.Context, vote *models.Vote) error {
	return r.db.WithContext(ctx).Create(vote).Error
}

// HasVoted reports whether the (organiser, match, voter) triple is recorded
func (r *Repository) HasVoted(ctx context.Context, organiser, matchAddress, voter string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Vote{}).
		Where("organiser = ? AND match_address = ? AND voter = ?", organiser, matchAddress, voter).
		Count(&count).Error
	return count > 0, err
}
