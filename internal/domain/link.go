package domain

import "time"

// ShortLink maps a short code to its target URL. The short code is immutable
// once assigned; a retired code is never reassigned to a different target.
type ShortLink struct {
	ID          int64      `json:"id"`
	ShortCode   string     `json:"shortCode"`
	OriginalURL string     `json:"originalUrl"`
	CustomAlias string     `json:"customAlias,omitempty"`
	OwnerID     string     `json:"ownerId,omitempty"`
	Active      bool       `json:"active"`
	CreatedAt   time.Time  `json:"createdAt"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty"`
}

// Expired reports whether the link's expiry time has passed.
func (l *ShortLink) Expired(now time.Time) bool {
	return l.ExpiresAt != nil && !l.ExpiresAt.After(now)
}

// Resolvable reports whether the link may serve redirects.
func (l *ShortLink) Resolvable(now time.Time) bool {
	return l.Active && !l.Expired(now)
}
