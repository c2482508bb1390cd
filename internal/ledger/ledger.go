package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gagliardetto/solana-go"
	"gorm.io/gorm"
)

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrRecipientRejected = errors.New("recipient rejects incoming transfers")
	ErrInvalidAmount     = errors.New("amount must be positive")
	ErrInvalidAddress    = errors.New("invalid account address")
	ErrSameAccount       = errors.New("cannot transfer to the same account")
)

// Ledger is the execution substrate the escrows run on. Every state change
// goes through Execute, which runs it as one database transaction while
// holding the execution lock, so calls are atomic and totally ordered.
type Ledger struct {
	db        *gorm.DB
	clock     Clock
	programID solana.PublicKey
	mu        sync.Mutex
}

// New creates a ledger over db. programID is the key escrow addresses are
// derived under.
func New(db *gorm.DB, clock Clock, programID solana.PublicKey) *Ledger {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Ledger{
		db:        db,
		clock:     clock,
		programID: programID,
	}
}

// Now returns the ledger time in unix seconds.
func (l *Ledger) Now() int64 {
	return l.clock.Now().Unix()
}

func (l *Ledger) ProgramID() solana.PublicKey {
	return l.programID
}

// DB exposes the underlying handle for read-only queries.
func (l *Ledger) DB() *gorm.DB {
	return l.db
}

// Execute runs fn atomically. If fn returns an error every write it made is
// rolled back.
func (l *Ledger) Execute(ctx context.Context, fn func(tx *Tx) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.Now()
	return l.db.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		return fn(&Tx{db: db, now: now, ledger: l})
	})
}

// Tx is the handle passed to an executing state transition. The ledger time
// is fixed for the whole execution.
type Tx struct {
	db     *gorm.DB
	now    int64
	ledger *Ledger
}

func (tx *Tx) DB() *gorm.DB {
	return tx.db
}

func (tx *Tx) Now() int64 {
	return tx.now
}

// DeriveAddress derives a program address for seeds under the ledger's
// program ID.
func (tx *Tx) DeriveAddress(seeds ...[]byte) (string, error) {
	return DeriveAddress(tx.ledger.programID, seeds...)
}

// ParseAddress validates a base58 account address.
func ParseAddress(address string) (solana.PublicKey, error) {
	key, err := solana.PublicKeyFromBase58(address)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("%w: %s", ErrInvalidAddress, address)
	}
	if key.IsZero() {
		return solana.PublicKey{}, fmt.Errorf("%w: zero key", ErrInvalidAddress)
	}
	return key, nil
}
