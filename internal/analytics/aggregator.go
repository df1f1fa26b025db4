package analytics

import (
	"context"
	"sync"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/vivek-vibhuti/linkshrink/internal/domain"
	"github.com/vivek-vibhuti/linkshrink/internal/metrics"
)

// Aggregator maintains one rollup snapshot per link. Recomputation is a full
// re-derivation from the click log rather than an incremental bump: it
// tolerates batched or out-of-order arrival and running it twice with no new
// events produces an identical snapshot.
type Aggregator struct {
	clicks    ClickRepository
	snapshots SnapshotRepository
	logger    *zap.Logger
	now       func() time.Time

	// Serializes recomputation per link so a stale recompute never races a
	// fresher one on the upsert. Entries are reference counted and removed
	// once the last holder releases, so the map does not grow with the
	// number of links ever seen.
	mu    sync.Mutex
	locks map[int64]*linkLock
}

type linkLock struct {
	sync.Mutex
	refs int
}

// NewAggregator creates a new analytics aggregator.
func NewAggregator(clicks ClickRepository, snapshots SnapshotRepository, logger *zap.Logger) *Aggregator {
	return &Aggregator{
		clicks:    clicks,
		snapshots: snapshots,
		logger:    logger,
		now:       time.Now,
		locks:     map[int64]*linkLock{},
	}
}

// Recompute re-derives the snapshot for a link from its full event log and
// upserts it atomically.
func (a *Aggregator) Recompute(ctx context.Context, linkID int64) (*domain.AnalyticsSnapshot, error) {
	lock := a.lockLink(linkID)
	defer a.unlockLink(linkID, lock)

	start := a.now()

	events, err := a.clicks.ListByLink(ctx, linkID)
	if err != nil {
		return nil, err
	}

	snapshot := a.derive(linkID, events)
	if err := a.snapshots.Upsert(ctx, snapshot); err != nil {
		return nil, err
	}

	metrics.RecomputeDuration.Observe(time.Since(start).Seconds())
	return snapshot, nil
}

// Snapshot returns the stored rollup for a link, or domain.ErrNotFound when
// no snapshot row exists. The stored daily series is complete; trimming for
// presentation is the consumer's concern.
func (a *Aggregator) Snapshot(ctx context.Context, linkID int64) (*domain.AnalyticsSnapshot, error) {
	return a.snapshots.Get(ctx, linkID)
}

// derive is the explicit grouping algorithm: count everything, count distinct
// coarse IPs, group the four dimensions with their fallback keys, and bucket
// clicks per UTC day.
func (a *Aggregator) derive(linkID int64, events []*domain.ClickEvent) *domain.AnalyticsSnapshot {
	snapshot := domain.EmptySnapshot(linkID, a.now().UTC())
	snapshot.TotalClicks = int64(len(events))

	if len(events) == 0 {
		return snapshot
	}

	snapshot.UniqueVisitors = int64(len(lo.UniqBy(events, func(e *domain.ClickEvent) string {
		return e.IP
	})))

	snapshot.Countries = countBy(events, func(e *domain.ClickEvent) string {
		return coalesce(e.Country, domain.UnknownValue)
	})
	snapshot.Devices = countBy(events, func(e *domain.ClickEvent) string {
		return coalesce(e.Device, domain.UnknownValue)
	})
	snapshot.Browsers = countBy(events, func(e *domain.ClickEvent) string {
		return coalesce(e.Browser, domain.UnknownValue)
	})
	snapshot.Referrers = countBy(events, func(e *domain.ClickEvent) string {
		return coalesce(e.Referrer, domain.DirectReferrer)
	})
	snapshot.Daily = countBy(events, func(e *domain.ClickEvent) string {
		return e.ClickedAt.UTC().Format("2006-01-02")
	})

	last := lo.MaxBy(events, func(a, b *domain.ClickEvent) bool {
		return a.ClickedAt.After(b.ClickedAt)
	}).ClickedAt
	snapshot.LastClickAt = &last

	return snapshot
}

func (a *Aggregator) lockLink(linkID int64) *linkLock {
	a.mu.Lock()
	lock, ok := a.locks[linkID]
	if !ok {
		lock = &linkLock{}
		a.locks[linkID] = lock
	}
	lock.refs++
	a.mu.Unlock()

	lock.Lock()
	return lock
}

func (a *Aggregator) unlockLink(linkID int64, lock *linkLock) {
	lock.Unlock()

	a.mu.Lock()
	lock.refs--
	if lock.refs == 0 {
		delete(a.locks, linkID)
	}
	a.mu.Unlock()
}

func countBy(events []*domain.ClickEvent, key func(*domain.ClickEvent) string) map[string]int64 {
	counts := make(map[string]int64)
	for value, count := range lo.CountValuesBy(events, key) {
		counts[value] = int64(count)
	}
	return counts
}

func coalesce(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
