package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/vivek-vibhuti/linkshrink/internal/analytics"
	"github.com/vivek-vibhuti/linkshrink/internal/domain"
)

// SnapshotRepository implements analytics.SnapshotRepository on SQLite. The
// dimensional breakdowns are stored as JSON text columns.
type SnapshotRepository struct {
	db *sql.DB
}

// NewSnapshotRepository creates a new SQLite-backed snapshot repository.
func NewSnapshotRepository(db *sql.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// Ensure SnapshotRepository implements analytics.SnapshotRepository at compile time
var _ analytics.SnapshotRepository = (*SnapshotRepository)(nil)

// Upsert atomically replaces every derived field of the link's snapshot row,
// inserting it if absent. Last writer wins; the recompute-from-log design
// makes any write order converge.
func (r *SnapshotRepository) Upsert(ctx context.Context, snapshot *domain.AnalyticsSnapshot) error {
	countries, devices, browsers, referrers, daily, err := marshalMaps(snapshot)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO analytics_snapshots
		   (link_id, total_clicks, unique_visitors, countries, devices, browsers, referrers, daily, last_click_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (link_id) DO UPDATE SET
		   total_clicks = excluded.total_clicks,
		   unique_visitors = excluded.unique_visitors,
		   countries = excluded.countries,
		   devices = excluded.devices,
		   browsers = excluded.browsers,
		   referrers = excluded.referrers,
		   daily = excluded.daily,
		   last_click_at = excluded.last_click_at,
		   updated_at = excluded.updated_at`,
		snapshot.LinkID, snapshot.TotalClicks, snapshot.UniqueVisitors,
		countries, devices, browsers, referrers, daily,
		nullableUnix(snapshot.LastClickAt), snapshot.UpdatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("upsert snapshot: %w", err)
	}
	return nil
}

// Get retrieves the snapshot for a link.
func (r *SnapshotRepository) Get(ctx context.Context, linkID int64) (*domain.AnalyticsSnapshot, error) {
	var (
		snapshot    domain.AnalyticsSnapshot
		countries   []byte
		devices     []byte
		browsers    []byte
		referrers   []byte
		daily       []byte
		lastClickAt sql.NullInt64
		updatedAt   int64
	)

	err := r.db.QueryRowContext(ctx,
		`SELECT link_id, total_clicks, unique_visitors, countries, devices, browsers, referrers, daily, last_click_at, updated_at
		 FROM analytics_snapshots WHERE link_id = ?`, linkID,
	).Scan(&snapshot.LinkID, &snapshot.TotalClicks, &snapshot.UniqueVisitors,
		&countries, &devices, &browsers, &referrers, &daily, &lastClickAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get snapshot: %w", err)
	}

	for _, pair := range []struct {
		data []byte
		dest *map[string]int64
	}{
		{countries, &snapshot.Countries},
		{devices, &snapshot.Devices},
		{browsers, &snapshot.Browsers},
		{referrers, &snapshot.Referrers},
		{daily, &snapshot.Daily},
	} {
		*pair.dest = map[string]int64{}
		if len(pair.data) > 0 {
			if err := json.Unmarshal(pair.data, pair.dest); err != nil {
				return nil, fmt.Errorf("decode snapshot map: %w", err)
			}
		}
	}

	if lastClickAt.Valid {
		t := time.Unix(lastClickAt.Int64, 0).UTC()
		snapshot.LastClickAt = &t
	}
	snapshot.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	return &snapshot, nil
}

func marshalMaps(s *domain.AnalyticsSnapshot) (countries, devices, browsers, referrers, daily []byte, err error) {
	for _, pair := range []struct {
		src  map[string]int64
		dest *[]byte
	}{
		{s.Countries, &countries},
		{s.Devices, &devices},
		{s.Browsers, &browsers},
		{s.Referrers, &referrers},
		{s.Daily, &daily},
	} {
		m := pair.src
		if m == nil {
			m = map[string]int64{}
		}
		if *pair.dest, err = json.Marshal(m); err != nil {
			return nil, nil, nil, nil, nil, fmt.Errorf("encode snapshot map: %w", err)
		}
	}
	return countries, devices, browsers, referrers, daily, nil
}
