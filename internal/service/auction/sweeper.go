package auction

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const sweepBatchSize = 200

// Sweeper periodically scans for published auctions whose end date has
// elapsed and finalizes each one independently. One item's failure never
// blocks the rest of the batch.
type Sweeper struct {
	items     ItemRepository
	finalizer *Finalizer
	metrics   MetricsCollector
	logger    *slog.Logger
	interval  time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewSweeper creates a new auction sweeper. The interval is a tunable, not
// a contract; production runs at one minute.
func NewSweeper(items ItemRepository, finalizer *Finalizer, metrics MetricsCollector, logger *slog.Logger, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Sweeper{
		items:     items,
		finalizer: finalizer,
		metrics:   metrics,
		logger:    logger,
		interval:  interval,
	}
}

// Start launches the background sweep loop
func (s *Sweeper) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}

	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})

	go s.run(ctx)
	s.logger.Info("auction sweeper started", "interval", s.interval)
}

// Stop halts the sweep loop and waits for an in-flight sweep to finish
func (s *Sweeper) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel = nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	s.logger.Info("auction sweeper stopped")
}

func (s *Sweeper) run(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep runs one pass over expired auctions. Exported so operators can
// trigger it out of schedule.
func (s *Sweeper) Sweep(ctx context.Context) {
	start := time.Now()

	expired, err := s.items.ListExpiredAuctions(ctx, start.UTC(), sweepBatchSize)
	if err != nil {
		s.logger.Error("failed to list expired auctions", "error", err)
		return
	}

	processed := 0
	for _, it := range expired {
		if ctx.Err() != nil {
			return
		}
		if err := s.finalizer.Finalize(ctx, it.ID); err != nil {
			// Isolate per-item failures; the item stays due and the next
			// tick retries it.
			s.logger.Error("failed to finalize auction", "item_id", it.ID, "error", err)
			continue
		}
		processed++
	}

	if len(expired) > 0 {
		s.logger.Info("sweep completed",
			"expired", len(expired), "finalized", processed, "duration", time.Since(start))
	}
	if s.metrics != nil {
		s.metrics.RecordSweep(ctx, time.Since(start), processed)
	}
}
