package jobs

import (
	"context"
	"log"
	"time"
)

// sweepBatchSize bounds the credits delivered per tick.
const sweepBatchSize = 100

// CreditRetrier delivers deferred payouts to recipients that accept value.
type CreditRetrier interface {
	RetryDeferred(ctx context.Context, limit int) (int, error)
}

// CreditSweeper periodically pushes pending credits whose beneficiaries
// accept incoming transfers again
type CreditSweeper struct {
	payouts  CreditRetrier
	interval time.Duration
	stopChan chan struct{}
}

// NewCreditSweeper creates a new credit sweeper job
func NewCreditSweeper(payouts CreditRetrier, interval time.Duration) *CreditSweeper {
	return &CreditSweeper{
		payouts:  payouts,
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

// Start begins the sweep loop
func (cs *CreditSweeper) Start() {
	log.Printf("[CreditSweeper] Starting credit sweep job (interval: %v)", cs.interval)

	ticker := time.NewTicker(cs.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			cs.sweep()
		case <-cs.stopChan:
			log.Println("[CreditSweeper] Stopping credit sweep job")
			return
		}
	}
}

// Stop stops the sweep loop
func (cs *CreditSweeper) Stop() {
	close(cs.stopChan)
}

// sweep drains deliverable credits batch by batch until a batch comes back
// short.
func (cs *CreditSweeper) sweep() int {
	ctx := context.Background()

	total := 0
	for {
		n, err := cs.payouts.RetryDeferred(ctx, sweepBatchSize)
		if err != nil {
			log.Printf("[CreditSweeper] Error delivering credits: %v", err)
			break
		}
		total += n
		if n < sweepBatchSize {
			break
		}
	}

	if total > 0 {
		log.Printf("[CreditSweeper] Delivered %d pending credits", total)
	}
	return total
}
