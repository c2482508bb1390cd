package services

import (
	"context"
	"testing"
	"time"

	"match-escrow/internal/ledger"
	"match-escrow/internal/models"
	"match-escrow/internal/repository"

	"github.com/gagliardetto/solana-go"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// unit is one whole coin in base units.
const unit = 1_000_000_000

var genesis = time.Unix(1_700_000_000, 0)

func setupTestDB(t testing.TB) *gorm.DB {
	t.Helper()
	// each test gets its own named in-memory database
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

	err = db.AutoMigrate(
		&models.Account{},
		&models.Transfer{},
		&models.Match{},
		&models.MatchBet{},
		&models.SideMarketEscrow{},
		&models.SideMarketPool{},
		&models.SideMarketBet{},
		&models.OrganiserRating{},
		&models.Vote{},
		&models.Payout{},
		&models.PendingCredit{},
	)
	if err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}
	return db
}

type testEnv struct {
	db       *gorm.DB
	clock    *ledger.ManualClock
	ledger   *ledger.Ledger
	repo     *repository.Repository
	payouts  *PayoutService
	registry *RegistryService
	matches  *MatchService
	markets  *SideMarketService
	accounts *AccountService
}

func newTestEnv(t testing.TB, cfg EscrowConfig) *testEnv {
	t.Helper()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("invalid escrow config: %v", err)
	}

	db := setupTestDB(t)
	clock := ledger.NewManualClock(genesis)
	l := ledger.New(db, clock, ledger.DefaultProgramID())
	repo := repository.NewRepository(db)

	payouts := NewPayoutService(l, repo, cfg.PayoutMode)
	markets := NewSideMarketService(l, repo, payouts, cfg)

	return &testEnv{
		db:       db,
		clock:    clock,
		ledger:   l,
		repo:     repo,
		payouts:  payouts,
		registry: NewRegistryService(l, repo, cfg),
		matches:  NewMatchService(l, repo, payouts, markets, cfg),
		markets:  markets,
		accounts: NewAccountService(l, repo, true),
	}
}

// wallet creates a fresh account holding funds base units.
func (e *testEnv) wallet(t testing.TB, funds int64) string {
	t.Helper()
	key, err := solana.NewRandomPrivateKey()
	if err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}
	address := key.PublicKey().String()
	if funds > 0 {
		if _, err := e.accounts.Faucet(context.Background(), address, decimal.NewFromInt(funds)); err != nil {
			t.Fatalf("failed to fund wallet: %v", err)
		}
	}
	return address
}

func (e *testEnv) balance(t testing.TB, address string) decimal.Decimal {
	t.Helper()
	acc, err := e.ledger.LoadAccount(address)
	if err != nil {
		t.Fatalf("failed to load account: %v", err)
	}
	return acc.Balance
}

// createMatch deploys a match starting one hour after the current ledger time.
func (e *testEnv) createMatch(t testing.TB, organiser string, stake int64) *models.Match {
	t.Helper()
	match, err := e.registry.CreateMatch(context.Background(), organiser, &models.CreateMatchRequest{
		HomeTeam:  "Arsenal",
		AwayTeam:  "Chelsea",
		StartTime: e.ledger.Now() + 3600,
		Stake:     decimal.NewFromInt(stake),
	})
	if err != nil {
		t.Fatalf("CreateMatch failed: %v", err)
	}
	return match
}

func (e *testEnv) kickOff(m *models.Match) {
	e.clock.Set(time.Unix(m.StartTime, 0))
}

func (e *testEnv) betHome(t testing.TB, m *models.Match, bettor string) {
	t.Helper()
	if _, err := e.matches.BetOnHome(context.Background(), m.Address, bettor, m.Stake); err != nil {
		t.Fatalf("BetOnHome failed: %v", err)
	}
}

func (e *testEnv) betAway(t testing.TB, m *models.Match, bettor string) {
	t.Helper()
	if _, err := e.matches.BetOnAway(context.Background(), m.Address, bettor, m.Stake); err != nil {
		t.Fatalf("BetOnAway failed: %v", err)
	}
}

func totalOf(payouts []models.Payout) decimal.Decimal {
	total := decimal.Zero
	for _, p := range payouts {
		total = total.Add(p.Amount)
	}
	return total
}

func d(n int64) decimal.Decimal {
	return decimal.NewFromInt(n)
}
