package domain

import "time"

// Fallback keys for dimensional classification. Every breakdown map uses
// these instead of empty strings so counts always sum to the total.
const (
	UnknownValue   = "Unknown"
	DirectReferrer = "Direct"
)

// Device classes.
const (
	DeviceDesktop = "Desktop"
	DeviceMobile  = "Mobile"
	DeviceTablet  = "Tablet"
)

// ClickObservation carries the raw facts captured at redirect time, before
// any normalization.
type ClickObservation struct {
	IP        string    `json:"ip"`
	UserAgent string    `json:"userAgent"`
	Referrer  string    `json:"referrer"`
	Timestamp time.Time `json:"timestamp"`
}

// ClickEvent is one normalized, immutable entry in the click log. Events are
// append-only: never mutated or deleted once written, and retained even after
// their parent link is retired.
type ClickEvent struct {
	ID        int64     `json:"id"`
	LinkID    int64     `json:"linkId"`
	IP        string    `json:"ip"`
	UserAgent string    `json:"userAgent"`
	Referrer  string    `json:"referrer"`
	Browser   string    `json:"browser"`
	OS        string    `json:"os"`
	Device    string    `json:"device"`
	Country   string    `json:"country"`
	ClickedAt time.Time `json:"clickedAt"`
}
