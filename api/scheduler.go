/*
scheduler.go - Automated carry-forward scheduler

PURPOSE:
  Periodically pre-rolls the current day for every shop so that opening
  balances are already seeded when staff first open the entry screen.
  Carry-forward is idempotent, so running it here and again on demand
  is safe.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Walks every registered shop and carries today forward
  - Partial failures are logged and retried on the next tick

CONFIGURATION:
  - CheckInterval: How often to check (default: 1 hour)
  - Enabled: Whether scheduler is active (default: true)

USAGE:
  scheduler := NewRolloverScheduler(store)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - ledger/rollover.go: CarryForward semantics
  - cmd/server/main.go: Wiring
*/
package api

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/warp/daybook/ledger"
)

// RolloverScheduler pre-rolls the current day for all shops.
type RolloverScheduler struct {
	Store         ledger.ShopStore
	Rollover      *ledger.Rollover
	CheckInterval time.Duration
	Enabled       bool

	ticker *time.Ticker
	stop   chan bool
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewRolloverScheduler creates a new scheduler.
func NewRolloverScheduler(store ledger.ShopStore) *RolloverScheduler {
	return &RolloverScheduler{
		Store:         store,
		Rollover:      ledger.NewRollover(store),
		CheckInterval: 1 * time.Hour,
		Enabled:       true,
		stop:          make(chan bool),
	}
}

// Start begins the scheduler.
func (rs *RolloverScheduler) Start() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if !rs.Enabled {
		log.Println("[Scheduler] Disabled, not starting")
		return
	}

	rs.ticker = time.NewTicker(rs.CheckInterval)
	rs.wg.Add(1)

	go rs.run(rs.ticker.C)

	log.Printf("[Scheduler] Started with check interval: %v", rs.CheckInterval)
}

// Stop stops the scheduler. Safe to call more than once; only the
// first call does anything.
func (rs *RolloverScheduler) Stop() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if rs.ticker == nil {
		return
	}
	rs.ticker.Stop()
	rs.ticker = nil
	close(rs.stop)
	rs.wg.Wait()
	log.Println("[Scheduler] Stopped")
}

func (rs *RolloverScheduler) run(tick <-chan time.Time) {
	defer rs.wg.Done()

	// Run immediately on start
	rs.checkAndProcess()

	for {
		select {
		case <-tick:
			rs.checkAndProcess()
		case <-rs.stop:
			return
		}
	}
}

func (rs *RolloverScheduler) checkAndProcess() {
	ctx := context.Background()
	today := ledger.Today()

	shops, err := rs.Store.Shops(ctx)
	if err != nil {
		log.Printf("[Scheduler] Error listing shops: %v", err)
		return
	}

	applied := 0
	for _, shop := range shops {
		ok, err := rs.Rollover.CarryForward(ctx, shop.ID, today)
		if err != nil {
			// Idempotency makes retrying on the next tick safe.
			log.Printf("[Scheduler] Carry-forward failed for %s/%s: %v", shop.ID, today, err)
			continue
		}
		if ok {
			applied++
		}
	}

	if applied > 0 {
		log.Printf("[Scheduler] Carried %d shop(s) forward into %s", applied, today)
	}
}

// RunNow triggers an immediate check (for testing/admin).
func (rs *RolloverScheduler) RunNow() {
	rs.checkAndProcess()
}
