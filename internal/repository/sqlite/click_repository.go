package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/vivek-vibhuti/linkshrink/internal/analytics"
	"github.com/vivek-vibhuti/linkshrink/internal/domain"
)

// ClickRepository implements analytics.ClickRepository on SQLite. The clicks
// table is append-only: nothing here mutates or deletes rows.
type ClickRepository struct {
	db *sql.DB
}

// NewClickRepository creates a new SQLite-backed click repository.
func NewClickRepository(db *sql.DB) *ClickRepository {
	return &ClickRepository{db: db}
}

// Ensure ClickRepository implements analytics.ClickRepository at compile time
var _ analytics.ClickRepository = (*ClickRepository)(nil)

// Append stores one click event and fills in its id.
func (r *ClickRepository) Append(ctx context.Context, click *domain.ClickEvent) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO clicks (link_id, ip, user_agent, referrer, browser, os, device, country, clicked_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		click.LinkID, click.IP, click.UserAgent, click.Referrer,
		click.Browser, click.OS, click.Device, click.Country, click.ClickedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("append click: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("click id: %w", err)
	}
	click.ID = id
	return nil
}

const clickColumns = `id, link_id, ip, user_agent, referrer, browser, os, device, country, clicked_at`

// ListByLink returns the full event log for a link, oldest first.
func (r *ClickRepository) ListByLink(ctx context.Context, linkID int64) ([]*domain.ClickEvent, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+clickColumns+` FROM clicks WHERE link_id = ? ORDER BY clicked_at ASC, id ASC`,
		linkID,
	)
	if err != nil {
		return nil, fmt.Errorf("list clicks: %w", err)
	}
	defer rows.Close()
	return scanClicks(rows)
}

// Recent returns the newest events for a link, newest first.
func (r *ClickRepository) Recent(ctx context.Context, linkID int64, limit int) ([]*domain.ClickEvent, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+clickColumns+` FROM clicks WHERE link_id = ? ORDER BY clicked_at DESC, id DESC LIMIT ?`,
		linkID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("recent clicks: %w", err)
	}
	defer rows.Close()
	return scanClicks(rows)
}

func scanClicks(rows *sql.Rows) ([]*domain.ClickEvent, error) {
	var result []*domain.ClickEvent
	for rows.Next() {
		var (
			click     domain.ClickEvent
			clickedAt int64
		)
		if err := rows.Scan(&click.ID, &click.LinkID, &click.IP, &click.UserAgent,
			&click.Referrer, &click.Browser, &click.OS, &click.Device,
			&click.Country, &clickedAt); err != nil {
			return nil, fmt.Errorf("scan click: %w", err)
		}
		click.ClickedAt = time.Unix(clickedAt, 0).UTC()
		result = append(result, &click)
	}
	return result, rows.Err()
}
