package analytics

import (
	"context"

	"github.com/vivek-vibhuti/linkshrink/internal/domain"
)

// ClickRepository is the append-only click log. Rows are never mutated or
// deleted; concurrent appends for the same link are safe.
type ClickRepository interface {
	// Append stores one normalized click event and fills in its id.
	Append(ctx context.Context, click *domain.ClickEvent) error
	// ListByLink returns the full event log for a link, oldest first.
	ListByLink(ctx context.Context, linkID int64) ([]*domain.ClickEvent, error)
	// Recent returns the newest events for a link, newest first.
	Recent(ctx context.Context, linkID int64, limit int) ([]*domain.ClickEvent, error)
}

// SnapshotRepository persists the per-link rollup. Upsert must be atomic:
// insert when absent, otherwise overwrite every derived field.
type SnapshotRepository interface {
	Upsert(ctx context.Context, snapshot *domain.AnalyticsSnapshot) error
	Get(ctx context.Context, linkID int64) (*domain.AnalyticsSnapshot, error)
}
