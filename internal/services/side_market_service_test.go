package services

import (
	"context"
	"errors"
	"math"
	"testing"

	"match-escrow/internal/ledger"
	"match-escrow/internal/models"
)

func TestSideMarketWins(t *testing.T) {
	th := models.GoalThresholds{UnderMaxGoals: DefaultUnderMaxGoals, OverMinGoals: DefaultOverMinGoals}

	tests := []struct {
		home, away uint32
		under      bool
		over       bool
		both       bool
	}{
		{0, 0, true, false, false},
		{1, 0, true, false, false},
		{1, 1, true, false, true},
		{2, 0, true, false, false},
		{2, 1, false, true, true},
		{3, 0, false, true, false},
		{4, 4, false, true, true},
		{1 << 31, 1 << 31, false, true, true},
		{math.MaxUint32, math.MaxUint32, false, true, true},
		{math.MaxUint32, 0, false, true, false},
	}

	for _, tt := range tests {
		if got := models.MarketUnderThreshold.Wins(tt.home, tt.away, th); got != tt.under {
			t.Errorf("%d-%d under: expected %v, got %v", tt.home, tt.away, tt.under, got)
		}
		if got := models.MarketOverThreshold.Wins(tt.home, tt.away, th); got != tt.over {
			t.Errorf("%d-%d over: expected %v, got %v", tt.home, tt.away, tt.over, got)
		}
		if got := models.MarketBothScored.Wins(tt.home, tt.away, th); got != tt.both {
			t.Errorf("%d-%d both scored: expected %v, got %v", tt.home, tt.away, tt.both, got)
		}
	}
}

func TestSideMarketBetsAreIndependent(t *testing.T) {
	env := newTestEnv(t, DefaultEscrowConfig())
	ctx := context.Background()

	organiser := env.wallet(t, 0)
	alice := env.wallet(t, 10*unit)
	match := env.createMatch(t, organiser, unit)
	markets := match.MarketsAddress

	env.betHome(t, match, alice)
	if _, err := env.markets.BetUnderThreshold(ctx, markets, alice, match.Stake); err != nil {
		t.Fatalf("BetUnderThreshold failed: %v", err)
	}
	if _, err := env.markets.BetOverThreshold(ctx, markets, alice, match.Stake); err != nil {
		t.Fatalf("BetOverThreshold failed: %v", err)
	}
	if _, err := env.markets.BetBothScored(ctx, markets, alice, match.Stake); err != nil {
		t.Fatalf("BetBothScored failed: %v", err)
	}

	for _, m := range models.SideMarkets {
		if !env.markets.HasBet(ctx, markets, m, alice) {
			t.Errorf("expected bet in %s", m)
		}
		if got := env.markets.TotalBets(ctx, markets, m); got != 1 {
			t.Errorf("%s: expected 1 bet, got %d", m, got)
		}
		if got := env.markets.PoolSize(ctx, markets, m); !got.Equal(match.Stake) {
			t.Errorf("%s: expected pool %s, got %s", m, match.Stake, got)
		}
		if _, err := env.markets.Bet(ctx, markets, m, alice, match.Stake); !errors.Is(err, ErrDuplicateBet) {
			t.Errorf("%s: expected ErrDuplicateBet, got %v", m, err)
		}
	}

	if got := env.balance(t, alice); !got.Equal(d(6 * unit)) {
		t.Errorf("expected four stakes debited, balance %s", got)
	}
	if got := env.balance(t, markets); !got.Equal(d(3 * unit)) {
		t.Errorf("side escrow should hold 3 units, holds %s", got)
	}
}

func TestSideMarketPreconditions(t *testing.T) {
	env := newTestEnv(t, DefaultEscrowConfig())
	ctx := context.Background()

	organiser := env.wallet(t, 0)
	alice := env.wallet(t, 10*unit)
	match := env.createMatch(t, organiser, unit)

	if _, err := env.markets.BetBothScored(ctx, match.MarketsAddress, alice, d(2*unit)); !errors.Is(err, ErrStakeMismatch) {
		t.Errorf("expected ErrStakeMismatch, got %v", err)
	}
	if _, err := env.markets.Bet(ctx, match.MarketsAddress, models.SideMarket(7), alice, match.Stake); !errors.Is(err, ErrInvalidMarket) {
		t.Errorf("expected ErrInvalidMarket, got %v", err)
	}
	if _, err := env.markets.BetBothScored(ctx, "nowhere", alice, match.Stake); !errors.Is(err, ErrMatchNotFound) {
		t.Errorf("expected ErrMatchNotFound, got %v", err)
	}

	env.kickOff(match)
	if _, err := env.markets.BetUnderThreshold(ctx, match.MarketsAddress, alice, match.Stake); !errors.Is(err, ErrBettingClosed) {
		t.Errorf("expected ErrBettingClosed, got %v", err)
	}

	if env.markets.HasBet(ctx, "nowhere", models.MarketBothScored, alice) {
		t.Errorf("unknown escrow must read as no bet")
	}
	if got := env.markets.TotalBets(ctx, "nowhere", models.MarketBothScored); got != 0 {
		t.Errorf("unknown escrow must read zero bets, got %d", got)
	}
}

func TestSideMarketsSettleWithMatch(t *testing.T) {
	env := newTestEnv(t, DefaultEscrowConfig())
	ctx := context.Background()

	organiser := env.wallet(t, 0)
	under := env.wallet(t, unit)
	over1 := env.wallet(t, unit)
	over2 := env.wallet(t, unit)
	both := env.wallet(t, unit)

	match := env.createMatch(t, organiser, unit)
	markets := match.MarketsAddress
	if _, err := env.markets.BetUnderThreshold(ctx, markets, under, match.Stake); err != nil {
		t.Fatalf("bet failed: %v", err)
	}
	for _, w := range []string{over1, over2} {
		if _, err := env.markets.BetOverThreshold(ctx, markets, w, match.Stake); err != nil {
			t.Fatalf("bet failed: %v", err)
		}
	}
	if _, err := env.markets.BetBothScored(ctx, markets, both, match.Stake); err != nil {
		t.Fatalf("bet failed: %v", err)
	}

	env.kickOff(match)
	// 3-0: over wins, under loses, both-scored loses
	report, err := env.matches.GameFinished(ctx, match.Address, organiser, 3, 0)
	if err != nil {
		t.Fatalf("GameFinished failed: %v", err)
	}

	results := map[models.SideMarket]models.SideMarketSettlement{}
	for _, s := range report.SideMarkets {
		results[s.Market] = s
	}
	if results[models.MarketUnderThreshold].Won || !results[models.MarketOverThreshold].Won || results[models.MarketBothScored].Won {
		t.Errorf("unexpected side results %+v", report.SideMarkets)
	}
	for _, s := range report.SideMarkets {
		if !s.Fee.IsZero() {
			t.Errorf("%s: default side fee is zero, got %s", s.Code, s.Fee)
		}
		if !totalOf(s.Payouts).Equal(s.Pool) {
			t.Errorf("%s: payouts %s do not add up to pool %s", s.Code, totalOf(s.Payouts), s.Pool)
		}
	}

	for _, addr := range []string{under, over1, over2, both} {
		if got := env.balance(t, addr); !got.Equal(d(unit)) {
			t.Errorf("balance of %s: expected %d, got %s", addr, unit, got)
		}
	}
	if got := env.balance(t, markets); !got.IsZero() {
		t.Errorf("side escrow should be drained, holds %s", got)
	}

	views, err := env.markets.Markets(ctx, markets)
	if err != nil {
		t.Fatalf("Markets failed: %v", err)
	}
	for _, v := range views {
		if !v.IsSettled || v.Won == nil {
			t.Errorf("%s: expected settled market with a result, got %+v", v.Code, v)
		}
	}
}

func TestSideMarketFee(t *testing.T) {
	cfg := DefaultEscrowConfig()
	cfg.SideFeeBps = 1000
	env := newTestEnv(t, cfg)
	ctx := context.Background()

	organiser := env.wallet(t, 0)
	a := env.wallet(t, 100)
	b := env.wallet(t, 100)

	match := env.createMatch(t, organiser, 100)
	for _, w := range []string{a, b} {
		if _, err := env.markets.BetBothScored(ctx, match.MarketsAddress, w, match.Stake); err != nil {
			t.Fatalf("bet failed: %v", err)
		}
	}

	env.kickOff(match)
	if _, err := env.matches.GameFinished(ctx, match.Address, organiser, 1, 1); err != nil {
		t.Fatalf("GameFinished failed: %v", err)
	}

	if got := env.balance(t, organiser); !got.Equal(d(20)) {
		t.Errorf("organiser should take 10%% of 200, got %s", got)
	}
	for _, w := range []string{a, b} {
		if got := env.balance(t, w); !got.Equal(d(90)) {
			t.Errorf("expected 90, got %s", got)
		}
	}
}

func TestSideMarketSettleGuards(t *testing.T) {
	env := newTestEnv(t, DefaultEscrowConfig())
	ctx := context.Background()

	organiser := env.wallet(t, 0)
	match := env.createMatch(t, organiser, unit)

	settle := func(caller string) error {
		return env.ledger.Execute(ctx, func(tx *ledger.Tx) error {
			_, err := env.markets.settle(ctx, tx, caller, match.MarketsAddress, 1, 0)
			return err
		})
	}

	if err := settle(organiser); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("organiser calling settle directly: expected ErrUnauthorized, got %v", err)
	}
	if err := settle(match.Address); err != nil {
		t.Fatalf("parent settle failed: %v", err)
	}
	if err := settle(match.Address); !errors.Is(err, ErrAlreadySettled) {
		t.Errorf("expected ErrAlreadySettled, got %v", err)
	}
}
