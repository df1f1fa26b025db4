package domain

import "time"

// AnalyticsSnapshot is the materialized rollup for a single link. It is
// derived state: always recomputable from the click log, never the source of
// truth. At any quiescent point TotalClicks equals the number of ClickEvents
// for the link and every breakdown map sums to TotalClicks.
type AnalyticsSnapshot struct {
	LinkID         int64            `json:"linkId"`
	TotalClicks    int64            `json:"totalClicks"`
	UniqueVisitors int64            `json:"uniqueVisitors"`
	Countries      map[string]int64 `json:"countries"`
	Devices        map[string]int64 `json:"devices"`
	Browsers       map[string]int64 `json:"browsers"`
	Referrers      map[string]int64 `json:"referrers"`
	Daily          map[string]int64 `json:"daily"`
	LastClickAt    *time.Time       `json:"lastClickAt,omitempty"`
	UpdatedAt      time.Time        `json:"updatedAt"`
}

// EmptySnapshot returns the zero-valued snapshot created alongside a link.
func EmptySnapshot(linkID int64, now time.Time) *AnalyticsSnapshot {
	return &AnalyticsSnapshot{
		LinkID:    linkID,
		Countries: map[string]int64{},
		Devices:   map[string]int64{},
		Browsers:  map[string]int64{},
		Referrers: map[string]int64{},
		Daily:     map[string]int64{},
		UpdatedAt: now,
	}
}
