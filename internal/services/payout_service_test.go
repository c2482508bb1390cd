package services

import (
	"context"
	"errors"
	"testing"

	"match-escrow/internal/ledger"
	"match-escrow/internal/models"

	"github.com/shopspring/decimal"
)

func TestCalculateFee(t *testing.T) {
	tests := []struct {
		total int64
		bps   int64
		want  int64
	}{
		{2 * unit, 500, unit / 10},
		{40, 500, 2},
		{19, 500, 0},
		{20, 500, 1},
		{100, 0, 0},
		{100, 10000, 100},
	}
	for _, tt := range tests {
		if got := CalculateFee(d(tt.total), tt.bps); !got.Equal(d(tt.want)) {
			t.Errorf("fee(%d, %d): expected %d, got %s", tt.total, tt.bps, tt.want, got)
		}
	}
}

func TestPlanSettlementConservesValue(t *testing.T) {
	positions := []Position{
		{Beneficiary: "a", Amount: d(7), Sequence: 1},
		{Beneficiary: "b", Amount: d(7), Sequence: 2},
		{Beneficiary: "c", Amount: d(7), Sequence: 3},
		{Beneficiary: "d", Amount: d(7), Sequence: 4},
		{Beneficiary: "e", Amount: d(7), Sequence: 5},
		{Beneficiary: "f", Amount: d(7), Sequence: 6},
		{Beneficiary: "g", Amount: d(7), Sequence: 7},
	}
	// winners listed out of order to check placement ordering
	winners := []Position{positions[5], positions[1], positions[3]}

	for _, policy := range []RoundingPolicy{RoundingFirstWinners, RoundingOrganiser} {
		plan := PlanSettlement(positions, winners, 500, policy)

		sum := plan.Fee
		for _, s := range plan.Shares {
			sum = sum.Add(s.Amount)
		}
		if !sum.Equal(plan.Total) {
			t.Errorf("%s: fee + shares = %s, pool %s", policy, sum, plan.Total)
		}
		if plan.Void {
			t.Errorf("%s: plan with winners must not be void", policy)
		}
		if plan.Shares[0].Beneficiary != "b" {
			t.Errorf("%s: expected earliest winner first, got %s", policy, plan.Shares[0].Beneficiary)
		}
	}

	// pool 49, fee 2, 47 over three: 16, 16, 15
	plan := PlanSettlement(positions, winners, 500, RoundingFirstWinners)
	want := []int64{16, 16, 15}
	for i, s := range plan.Shares {
		if !s.Amount.Equal(d(want[i])) {
			t.Errorf("share %d: expected %d, got %s", i, want[i], s.Amount)
		}
	}
	if !plan.Dust.Equal(d(2)) {
		t.Errorf("expected dust 2, got %s", plan.Dust)
	}
}

func TestPlanSettlementWithoutWinnersRefunds(t *testing.T) {
	positions := []Position{
		{Beneficiary: "a", Amount: d(5), Sequence: 1},
		{Beneficiary: "b", Amount: d(5), Sequence: 2},
	}
	plan := PlanSettlement(positions, nil, 500, RoundingFirstWinners)
	if !plan.Void || !plan.Fee.IsZero() {
		t.Fatalf("expected void plan without fee, got %+v", plan)
	}
	for _, s := range plan.Shares {
		if s.Kind != models.PayoutKindRefund || !s.Amount.Equal(d(5)) {
			t.Errorf("unexpected refund share %+v", s)
		}
	}
}

func TestRejectedPayoutBecomesWithdrawableCredit(t *testing.T) {
	env := newTestEnv(t, DefaultEscrowConfig())
	ctx := context.Background()

	organiser := env.wallet(t, 0)
	alice := env.wallet(t, unit)
	bob := env.wallet(t, unit)

	match := env.createMatch(t, organiser, unit)
	env.betHome(t, match, alice)
	env.betHome(t, match, bob)

	if _, err := env.accounts.SetReceivePolicy(ctx, alice, false); err != nil {
		t.Fatalf("SetReceivePolicy failed: %v", err)
	}

	env.kickOff(match)
	report, err := env.matches.GameFinished(ctx, match.Address, organiser, 1, 0)
	if err != nil {
		t.Fatalf("settlement must not fail on a refused transfer: %v", err)
	}

	var aliceDelivered, bobDelivered bool
	for _, p := range report.Payouts {
		switch p.Beneficiary {
		case alice:
			aliceDelivered = p.Delivered
		case bob:
			bobDelivered = p.Delivered
		}
	}
	if aliceDelivered || !bobDelivered {
		t.Errorf("expected alice deferred and bob paid, got alice=%v bob=%v", aliceDelivered, bobDelivered)
	}

	share := d(950_000_000)
	if got := env.balance(t, bob); !got.Equal(share) {
		t.Errorf("bob should be paid immediately, has %s", got)
	}
	if got := env.balance(t, match.Address); !got.Equal(share) {
		t.Errorf("escrow should keep alice's share, holds %s", got)
	}

	view, err := env.accounts.GetAccount(ctx, alice)
	if err != nil {
		t.Fatalf("GetAccount failed: %v", err)
	}
	if len(view.PendingCredits) != 1 || !view.PendingCredits[0].Amount.Equal(share) {
		t.Fatalf("expected one pending credit of %s, got %+v", share, view.PendingCredits)
	}

	if _, err := env.payouts.Withdraw(ctx, alice, match.Address); !errors.Is(err, ledger.ErrRecipientRejected) {
		t.Errorf("withdraw while rejecting: expected ErrRecipientRejected, got %v", err)
	}

	if _, err := env.accounts.SetReceivePolicy(ctx, alice, true); err != nil {
		t.Fatalf("SetReceivePolicy failed: %v", err)
	}
	amount, err := env.payouts.Withdraw(ctx, alice, match.Address)
	if err != nil {
		t.Fatalf("Withdraw failed: %v", err)
	}
	if !amount.Equal(share) {
		t.Errorf("expected to withdraw %s, got %s", share, amount)
	}
	if got := env.balance(t, alice); !got.Equal(share) {
		t.Errorf("alice balance after withdraw: %s", got)
	}
	if got := env.balance(t, match.Address); !got.IsZero() {
		t.Errorf("escrow should be drained after withdraw, holds %s", got)
	}

	if _, err := env.payouts.Withdraw(ctx, alice, match.Address); !errors.Is(err, ErrNothingToWithdraw) {
		t.Errorf("second withdraw: expected ErrNothingToWithdraw, got %v", err)
	}
}

func TestPullModeDefersEveryPayout(t *testing.T) {
	cfg := DefaultEscrowConfig()
	cfg.PayoutMode = PayoutPull
	env := newTestEnv(t, cfg)
	ctx := context.Background()

	organiser := env.wallet(t, 0)
	alice := env.wallet(t, unit)
	bob := env.wallet(t, unit)

	match := env.createMatch(t, organiser, unit)
	env.betHome(t, match, alice)
	env.betAway(t, match, bob)

	env.kickOff(match)
	report, err := env.matches.GameFinished(ctx, match.Address, organiser, 2, 0)
	if err != nil {
		t.Fatalf("GameFinished failed: %v", err)
	}
	for _, p := range report.Payouts {
		if p.Delivered {
			t.Errorf("pull mode must not push value, got %+v", p)
		}
	}
	if got := env.balance(t, match.Address); !got.Equal(d(2 * unit)) {
		t.Errorf("escrow should hold the whole pool, holds %s", got)
	}

	fee, err := env.payouts.Withdraw(ctx, organiser, match.Address)
	if err != nil {
		t.Fatalf("organiser withdraw failed: %v", err)
	}
	winnings, err := env.payouts.Withdraw(ctx, alice, match.Address)
	if err != nil {
		t.Fatalf("winner withdraw failed: %v", err)
	}
	if !fee.Add(winnings).Equal(d(2 * unit)) {
		t.Errorf("fee %s + winnings %s should equal the pool", fee, winnings)
	}
	if _, err := env.payouts.Withdraw(ctx, bob, match.Address); !errors.Is(err, ErrNothingToWithdraw) {
		t.Errorf("loser withdraw: expected ErrNothingToWithdraw, got %v", err)
	}
}

func TestRetryDeferredDeliversOnceAccepted(t *testing.T) {
	env := newTestEnv(t, DefaultEscrowConfig())
	ctx := context.Background()

	organiser := env.wallet(t, 0)
	alice := env.wallet(t, unit)
	bob := env.wallet(t, unit)

	match := env.createMatch(t, organiser, unit)
	env.betHome(t, match, alice)
	env.betAway(t, match, bob)

	env.accounts.SetReceivePolicy(ctx, alice, false)
	env.accounts.SetReceivePolicy(ctx, bob, false)

	env.kickOff(match)
	// draw: both refunds are refused
	if _, err := env.matches.GameFinished(ctx, match.Address, organiser, 0, 0); err != nil {
		t.Fatalf("GameFinished failed: %v", err)
	}

	n, err := env.payouts.RetryDeferred(ctx, 100)
	if err != nil {
		t.Fatalf("RetryDeferred failed: %v", err)
	}
	if n != 0 {
		t.Errorf("nothing should be delivered while recipients reject, got %d", n)
	}

	env.accounts.SetReceivePolicy(ctx, bob, true)
	n, err = env.payouts.RetryDeferred(ctx, 100)
	if err != nil {
		t.Fatalf("RetryDeferred failed: %v", err)
	}
	if n != 1 {
		t.Errorf("expected one credit delivered, got %d", n)
	}
	if got := env.balance(t, bob); !got.Equal(d(unit)) {
		t.Errorf("bob should be refunded, has %s", got)
	}
	if got := env.balance(t, alice); !got.IsZero() {
		t.Errorf("alice still rejects and must not be paid, has %s", got)
	}

	n, _ = env.payouts.RetryDeferred(ctx, 100)
	if n != 0 {
		t.Errorf("delivered credits must not be retried, got %d", n)
	}
	if _, err := env.payouts.Withdraw(ctx, bob, match.Address); !errors.Is(err, ErrNothingToWithdraw) {
		t.Errorf("swept credit must not be withdrawable, got %v", err)
	}
}

func TestFaucetDisabled(t *testing.T) {
	env := newTestEnv(t, DefaultEscrowConfig())
	disabled := NewAccountService(env.ledger, env.repo, false)

	if _, err := disabled.Faucet(context.Background(), env.wallet(t, 0), decimal.NewFromInt(1)); !errors.Is(err, ErrFaucetDisabled) {
		t.Errorf("expected ErrFaucetDisabled, got %v", err)
	}
}
