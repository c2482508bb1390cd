package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"match-escrow/internal/ledger"
	"match-escrow/internal/models"
	"match-escrow/internal/repository"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	MinRating = 0
	MaxRating = 5
)

// RegistryService is the organiser reputation registry. It deploys match
// escrows and records organiser ratings.
type RegistryService struct {
	ledger   *ledger.Ledger
	repo     *repository.Repository
	cfg      EscrowConfig
	validate *validator.Validate
}

func NewRegistryService(l *ledger.Ledger, repo *repository.Repository, cfg EscrowConfig) *RegistryService {
	return &RegistryService{
		ledger:   l,
		repo:     repo,
		cfg:      cfg,
		validate: validator.New(),
	}
}

// CreateMatch deploys a match escrow and its side-market escrow with the
// caller as organiser.
func (rs *RegistryService) CreateMatch(
	ctx context.Context,
	caller string,
	req *models.CreateMatchRequest,
) (*models.Match, error) {
	organiserKey, err := ledger.ParseAddress(caller)
	if err != nil {
		return nil, err
	}
	if err := rs.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("invalid match: %w", err)
	}
	if !req.Stake.IsPositive() || !req.Stake.IsInteger() {
		return nil, ErrInvalidStake
	}

	var match *models.Match
	err = rs.ledger.Execute(ctx, func(tx *ledger.Tx) error {
		if req.StartTime <= tx.Now() {
			return ErrInvalidStartTime
		}

		repo := rs.repo.WithTx(tx.DB())

		nonce, err := repo.CountMatches(ctx)
		if err != nil {
			return fmt.Errorf("failed to count matches: %w", err)
		}

		address, err := tx.DeriveAddress([]byte("match"), organiserKey[:], ledger.Uint64Seed(uint64(nonce)))
		if err != nil {
			return err
		}
		matchKey, err := ledger.ParseAddress(address)
		if err != nil {
			return err
		}
		marketsAddress, err := tx.DeriveAddress([]byte("markets"), matchKey[:])
		if err != nil {
			return err
		}

		match = &models.Match{
			Address:        address,
			MarketsAddress: marketsAddress,
			HomeTeam:       req.HomeTeam,
			AwayTeam:       req.AwayTeam,
			Stake:          req.Stake,
			StartTime:      req.StartTime,
			Organiser:      caller,
		}
		if err := repo.CreateMatch(ctx, match); err != nil {
			return fmt.Errorf("failed to create match: %w", err)
		}

		escrow := &models.SideMarketEscrow{
			Address:       marketsAddress,
			MatchID:       match.ID,
			Parent:        address,
			UnderMaxGoals: rs.cfg.Thresholds.UnderMaxGoals,
			OverMinGoals:  rs.cfg.Thresholds.OverMinGoals,
		}
		if err := repo.CreateSideMarketEscrow(ctx, escrow); err != nil {
			return fmt.Errorf("failed to create side markets: %w", err)
		}

		if err := repo.EnsureOrganiser(ctx, caller); err != nil {
			return fmt.Errorf("failed to register organiser: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[RegistryService] Match %s created by %s: %s vs %s, stake %s, starts %d",
		match.Address, caller, match.HomeTeam, match.AwayTeam, match.Stake, match.StartTime)

	return match, nil
}

// GetMatches returns every deployed match address in creation order
func (rs *RegistryService) GetMatches(ctx context.Context) ([]string, error) {
	addresses, err := rs.repo.ListMatchAddresses(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}
	if addresses == nil {
		addresses = []string{}
	}
	return addresses, nil
}

// GetOrganisers returns every registered organiser in registration order
func (rs *RegistryService) GetOrganisers(ctx context.Context) ([]string, error) {
	organisers, err := rs.repo.ListOrganisers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list organisers: %w", err)
	}
	if organisers == nil {
		organisers = []string{}
	}
	return organisers, nil
}

// Rating returns an organiser's aggregate. Unknown organisers read as an
// inactive zero record.
func (rs *RegistryService) Rating(ctx context.Context, organiser string) (*models.RatingView, error) {
	rating, err := rs.repo.GetOrganiserRating(ctx, organiser)
	if err != nil {
		return nil, fmt.Errorf("failed to get rating: %w", err)
	}
	if rating == nil {
		rating = &models.OrganiserRating{Organiser: organiser}
	}
	return &models.RatingView{
		Organiser:          rating.Organiser,
		Active:             rating.Active,
		TotalRate:          rating.TotalRate,
		NumberOfTimesRated: rating.NumberOfTimesRated,
		Average:            rating.Average(),
	}, nil
}

func (rs *RegistryService) HasVoted(ctx context.Context, organiser, matchAddress, voter string) (bool, error) {
	return rs.repo.HasVoted(ctx, organiser, matchAddress, voter)
}

// CheckVoteEligibility evaluates every voting condition for caller.
func (rs *RegistryService) CheckVoteEligibility(
	ctx context.Context,
	caller, organiser, matchAddress string,
) (*models.VoteEligibility, error) {
	return voteEligibility(ctx, rs.repo, rs.ledger.Now(), caller, organiser, matchAddress)
}

// CanVote reports whether caller may rate organiser for matchAddress.
func (rs *RegistryService) CanVote(ctx context.Context, caller, organiser, matchAddress string) (bool, error) {
	e, err := rs.CheckVoteEligibility(ctx, caller, organiser, matchAddress)
	if err != nil {
		return false, err
	}
	return e.Eligible, nil
}

// Vote records caller's rating of organiser for one match.
func (rs *RegistryService) Vote(
	ctx context.Context,
	caller, organiser, matchAddress string,
	rating int,
) error {
	if rating < MinRating || rating > MaxRating {
		return ErrRatingOutOfRange
	}
	if _, err := ledger.ParseAddress(caller); err != nil {
		return err
	}

	err := rs.ledger.Execute(ctx, func(tx *ledger.Tx) error {
		repo := rs.repo.WithTx(tx.DB())

		e, err := voteEligibility(ctx, repo, tx.Now(), caller, organiser, matchAddress)
		if err != nil {
			return err
		}
		if !e.Eligible {
			return fmt.Errorf("%w: %s", ErrNotEligible, e.Reason)
		}

		vote := &models.Vote{
			ID:           uuid.New(),
			Organiser:    organiser,
			MatchAddress: matchAddress,
			Voter:        caller,
			Rating:       rating,
			CastAt:       tx.Now(),
		}
		if err := repo.CreateVote(ctx, vote); err != nil {
			return fmt.Errorf("failed to record vote: %w", err)
		}
		if err := repo.IncrementRating(ctx, organiser, rating); err != nil {
			return fmt.Errorf("failed to update rating: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	log.Printf("[RegistryService] %s rated organiser %s %d for match %s", caller, organiser, rating, matchAddress)
	return nil
}

func voteEligibility(
	ctx context.Context,
	repo *repository.Repository,
	now int64,
	caller, organiser, matchAddress string,
) (*models.VoteEligibility, error) {
	e := &models.VoteEligibility{}

	match, err := repo.GetMatchByAddress(ctx, matchAddress)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		e.Reason = "match not found"
		return e, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get match: %w", err)
	}

	bet, err := repo.GetMatchBet(ctx, match.ID, caller)
	if err != nil {
		return nil, fmt.Errorf("failed to get bet: %w", err)
	}
	voted, err := repo.HasVoted(ctx, organiser, matchAddress, caller)
	if err != nil {
		return nil, fmt.Errorf("failed to check vote record: %w", err)
	}

	e.HasBet = bet != nil && bet.Choice != models.BetNone
	e.OrganiserMatches = match.Organiser == organiser
	e.MatchStarted = now >= match.StartTime
	e.AlreadyVoted = voted
	e.IsOrganiser = caller == match.Organiser

	switch {
	case !e.HasBet:
		e.Reason = "caller has no bet on this match"
	case !e.OrganiserMatches:
		e.Reason = "organiser does not match the match organiser"
	case !e.MatchStarted:
		e.Reason = "match has not started"
	case e.AlreadyVoted:
		e.Reason = "already voted for this organiser and match"
	case e.IsOrganiser:
		e.Reason = "organiser cannot rate their own match"
	default:
		e.Eligible = true
	}
	return e, nil
}
