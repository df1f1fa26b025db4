package analytics

import (
	"net/url"

	"github.com/vivek-vibhuti/linkshrink/internal/domain"
)

// NormalizeReferrer reduces a raw Referer header value to its hostname.
// Empty or unparseable values become the "Direct" sentinel so the referrer
// breakdown always has a key for every click.
func NormalizeReferrer(raw string) string {
	if raw == "" {
		return domain.DirectReferrer
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return domain.DirectReferrer
	}

	host := parsed.Hostname()
	if host == "" {
		return domain.DirectReferrer
	}
	return host
}
