package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"match-escrow/internal/models"

	"github.com/gagliardetto/solana-go"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupLedger(t *testing.T) (*Ledger, *ManualClock) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := db.AutoMigrate(&models.Account{}, &models.Transfer{}); err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}

	clock := NewManualClock(time.Unix(1_700_000_000, 0))
	return New(db, clock, DefaultProgramID()), clock
}

func fund(t *testing.T, l *Ledger, address string, amount int64) {
	t.Helper()
	err := l.Execute(context.Background(), func(tx *Tx) error {
		_, err := tx.Deposit(address, decimal.NewFromInt(amount), "test")
		return err
	})
	if err != nil {
		t.Fatalf("deposit failed: %v", err)
	}
}

func balanceOf(t *testing.T, l *Ledger, address string) decimal.Decimal {
	t.Helper()
	acc, err := l.LoadAccount(address)
	if err != nil {
		t.Fatalf("load account failed: %v", err)
	}
	return acc.Balance
}

func TestTransferMovesValue(t *testing.T) {
	l, _ := setupLedger(t)
	fund(t, l, "alice", 100)

	var receipt *models.Transfer
	err := l.Execute(context.Background(), func(tx *Tx) error {
		var err error
		receipt, err = tx.Transfer("alice", "bob", decimal.NewFromInt(40), models.TransferKindStake, "m1")
		return err
	})
	if err != nil {
		t.Fatalf("transfer failed: %v", err)
	}

	if got := balanceOf(t, l, "alice"); !got.Equal(decimal.NewFromInt(60)) {
		t.Errorf("alice balance: expected 60, got %s", got)
	}
	if got := balanceOf(t, l, "bob"); !got.Equal(decimal.NewFromInt(40)) {
		t.Errorf("bob balance: expected 40, got %s", got)
	}
	if receipt.LedgerTime != 1_700_000_000 {
		t.Errorf("receipt time: expected 1700000000, got %d", receipt.LedgerTime)
	}

	var count int64
	l.DB().Model(&models.Transfer{}).Count(&count)
	if count != 2 {
		t.Errorf("expected 2 receipts (deposit + stake), got %d", count)
	}
}

func TestTransferFailures(t *testing.T) {
	l, _ := setupLedger(t)
	fund(t, l, "alice", 10)

	tests := []struct {
		name   string
		to     string
		amount int64
		want   error
	}{
		{"insufficient funds", "bob", 11, ErrInsufficientFunds},
		{"zero amount", "bob", 0, ErrInvalidAmount},
		{"self transfer", "alice", 5, ErrSameAccount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := l.Execute(context.Background(), func(tx *Tx) error {
				_, err := tx.Transfer("alice", tt.to, decimal.NewFromInt(tt.amount), models.TransferKindStake, "")
				return err
			})
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}

	if got := balanceOf(t, l, "alice"); !got.Equal(decimal.NewFromInt(10)) {
		t.Errorf("alice balance changed: got %s", got)
	}
}

func TestTransferToRejectingRecipient(t *testing.T) {
	l, _ := setupLedger(t)
	fund(t, l, "escrow", 50)

	err := l.Execute(context.Background(), func(tx *Tx) error {
		_, err := tx.SetRejectsIncoming("contract", true)
		return err
	})
	if err != nil {
		t.Fatalf("set policy failed: %v", err)
	}

	err = l.Execute(context.Background(), func(tx *Tx) error {
		_, err := tx.Transfer("escrow", "contract", decimal.NewFromInt(5), models.TransferKindPayout, "")
		return err
	})
	if !errors.Is(err, ErrRecipientRejected) {
		t.Fatalf("expected ErrRecipientRejected, got %v", err)
	}
	if got := balanceOf(t, l, "escrow"); !got.Equal(decimal.NewFromInt(50)) {
		t.Errorf("escrow balance: expected 50, got %s", got)
	}
}

func TestExecuteRollsBackOnError(t *testing.T) {
	l, _ := setupLedger(t)
	fund(t, l, "alice", 100)

	boom := errors.New("boom")
	err := l.Execute(context.Background(), func(tx *Tx) error {
		if _, err := tx.Transfer("alice", "bob", decimal.NewFromInt(30), models.TransferKindStake, ""); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	if got := balanceOf(t, l, "alice"); !got.Equal(decimal.NewFromInt(100)) {
		t.Errorf("alice balance after rollback: expected 100, got %s", got)
	}
	if got := balanceOf(t, l, "bob"); !got.IsZero() {
		t.Errorf("bob balance after rollback: expected 0, got %s", got)
	}
}

func TestClockIsFixedPerExecution(t *testing.T) {
	l, clock := setupLedger(t)

	var first, second int64
	l.Execute(context.Background(), func(tx *Tx) error {
		first = tx.Now()
		clock.Advance(90 * time.Second)
		second = tx.Now()
		return nil
	})
	if first != second {
		t.Errorf("ledger time moved inside one execution: %d -> %d", first, second)
	}
	if l.Now() != first+90 {
		t.Errorf("expected clock to advance by 90s, got %d", l.Now()-first)
	}
}

func TestDeriveAddress(t *testing.T) {
	key, err := solana.NewRandomPrivateKey()
	if err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}
	organiser := key.PublicKey()

	a, err := DeriveAddress(DefaultProgramID(), []byte("match"), organiser[:], Uint64Seed(0))
	if err != nil {
		t.Fatalf("derive failed: %v", err)
	}
	b, _ := DeriveAddress(DefaultProgramID(), []byte("match"), organiser[:], Uint64Seed(0))
	c, _ := DeriveAddress(DefaultProgramID(), []byte("match"), organiser[:], Uint64Seed(1))

	if a != b {
		t.Errorf("derivation is not deterministic: %s != %s", a, b)
	}
	if a == c {
		t.Errorf("different nonces produced the same address %s", a)
	}
	if _, err := ParseAddress(a); err != nil {
		t.Errorf("derived address does not parse: %v", err)
	}
}

func TestParseAddress(t *testing.T) {
	if _, err := ParseAddress("not-base58!"); !errors.Is(err, ErrInvalidAddress) {
		t.Errorf("expected ErrInvalidAddress, got %v", err)
	}
	if _, err := ParseAddress(solana.PublicKey{}.String()); !errors.Is(err, ErrInvalidAddress) {
		t.Errorf("zero key: expected ErrInvalidAddress, got %v", err)
	}
	if _, err := ParseProgramID(""); err != nil {
		t.Errorf("empty program id should fall back to default: %v", err)
	}
}
