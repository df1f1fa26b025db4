package analytics

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/vivek-vibhuti/linkshrink/internal/metrics"
)

// Scheduler coalesces recomputation. Clicks mark their link dirty; a single
// flusher goroutine recomputes every dirty link once per interval, so a burst
// of clicks to one link costs one recomputation instead of one each. Every
// appended event is reflected by the next flush at the latest.
type Scheduler struct {
	aggregator *Aggregator
	logger     *zap.Logger
	interval   time.Duration

	mu    sync.Mutex
	dirty map[int64]struct{}

	wake chan struct{}
	done chan struct{}
	stop sync.Once
}

// NewScheduler creates a scheduler flushing at the given interval.
func NewScheduler(aggregator *Aggregator, interval time.Duration, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		aggregator: aggregator,
		logger:     logger,
		interval:   interval,
		dirty:      map[int64]struct{}{},
		wake:       make(chan struct{}, 1),
		done:       make(chan struct{}),
	}
}

// MarkDirty queues a link for recomputation. Safe for concurrent use; marking
// an already-dirty link is a no-op.
func (s *Scheduler) MarkDirty(linkID int64) {
	s.mu.Lock()
	s.dirty[linkID] = struct{}{}
	size := len(s.dirty)
	s.mu.Unlock()

	metrics.DirtyLinks.Set(float64(size))

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Run flushes dirty links until the context is cancelled or Stop is called.
// A final flush on shutdown drains whatever is still pending.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.flush(context.Background())
			return
		case <-s.done:
			s.flush(context.Background())
			return
		case <-ticker.C:
			s.flush(ctx)
		case <-s.wake:
			// Debounce: let nearby clicks coalesce before recomputing.
			select {
			case <-time.After(s.interval):
			case <-ctx.Done():
			}
			s.flush(ctx)
		}
	}
}

// Stop signals Run to flush once more and return.
func (s *Scheduler) Stop() {
	s.stop.Do(func() { close(s.done) })
}

// Flush synchronously recomputes all dirty links. Exposed for tests and
// shutdown; Run calls it on every tick.
func (s *Scheduler) Flush(ctx context.Context) {
	s.flush(ctx)
}

func (s *Scheduler) flush(ctx context.Context) {
	s.mu.Lock()
	if len(s.dirty) == 0 {
		s.mu.Unlock()
		return
	}
	pending := s.dirty
	s.dirty = map[int64]struct{}{}
	s.mu.Unlock()

	metrics.DirtyLinks.Set(0)

	for linkID := range pending {
		if _, err := s.aggregator.Recompute(ctx, linkID); err != nil {
			s.logger.Error("snapshot recompute failed",
				zap.Int64("link_id", linkID),
				zap.Error(err),
			)
			// Put it back so a later flush retries.
			s.MarkDirty(linkID)
		}
	}
}
