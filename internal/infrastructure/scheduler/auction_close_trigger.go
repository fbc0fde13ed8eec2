package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// AuctionCloser closes every expired auction and reports how many this call
// actually closed.
type AuctionCloser interface {
	CloseExpiredAuctions(ctx context.Context) (int, error)
}

// AuctionCloseTriggerConfig holds configuration for the close trigger
type AuctionCloseTriggerConfig struct {
	Enabled bool
	// Interval is how often expired auctions are swept
	Interval time.Duration
	// SweepTimeout bounds a single sweep
	SweepTimeout time.Duration
}

// DefaultAuctionCloseTriggerConfig returns default trigger configuration
func DefaultAuctionCloseTriggerConfig() AuctionCloseTriggerConfig {
	return AuctionCloseTriggerConfig{
		Enabled:      true,
		Interval:     time.Minute,
		SweepTimeout: 30 * time.Second,
	}
}

// AuctionCloseTrigger periodically sweeps expired auctions. It is a liveness
// aid, not a correctness requirement: listing reads run the same close
// opportunistically, and the storage guard makes concurrent sweeps safe. The
// trigger only bounds how long an expired auction can sit unclosed when
// nobody is browsing.
type AuctionCloseTrigger struct {
	config AuctionCloseTriggerConfig
	closer AuctionCloser
	logger *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewAuctionCloseTrigger creates a new auction close trigger
func NewAuctionCloseTrigger(config AuctionCloseTriggerConfig, closer AuctionCloser, logger *zap.Logger) *AuctionCloseTrigger {
	defaults := DefaultAuctionCloseTriggerConfig()
	if config.Interval <= 0 {
		config.Interval = defaults.Interval
	}
	if config.SweepTimeout <= 0 {
		config.SweepTimeout = defaults.SweepTimeout
	}
	return &AuctionCloseTrigger{
		config: config,
		closer: closer,
		logger: logger,
	}
}

// Start starts the trigger loop
func (t *AuctionCloseTrigger) Start(ctx context.Context) error {
	if !t.config.Enabled {
		t.logger.Info("Auction close trigger disabled")
		return nil
	}

	t.mu.Lock()
	if t.isRunning {
		t.mu.Unlock()
		return nil
	}
	t.isRunning = true
	t.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	t.cancel = cancel

	t.wg.Add(1)
	go t.runLoop(ctx)

	t.logger.Info("Auction close trigger started",
		zap.Duration("interval", t.config.Interval),
	)
	return nil
}

// Stop gracefully stops the trigger
func (t *AuctionCloseTrigger) Stop(ctx context.Context) error {
	t.mu.Lock()
	if !t.isRunning {
		t.mu.Unlock()
		return nil
	}
	t.isRunning = false
	t.mu.Unlock()

	if t.cancel != nil {
		t.cancel()
	}

	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		t.logger.Info("Auction close trigger stopped")
		return nil
	case <-ctx.Done():
		t.logger.Warn("Auction close trigger stop timed out")
		return ctx.Err()
	}
}

func (t *AuctionCloseTrigger) runLoop(ctx context.Context) {
	defer t.wg.Done()

	ticker := time.NewTicker(t.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.sweep(ctx)
		}
	}
}

// sweep runs one bounded close pass
func (t *AuctionCloseTrigger) sweep(ctx context.Context) {
	sweepCtx, cancel := context.WithTimeout(ctx, t.config.SweepTimeout)
	defer cancel()

	closed, err := t.closer.CloseExpiredAuctions(sweepCtx)
	if err != nil {
		t.logger.Error("Auction close sweep failed", zap.Error(err))
		return
	}
	if closed > 0 {
		t.logger.Info("Auction close sweep finished", zap.Int("closed", closed))
	}
}
