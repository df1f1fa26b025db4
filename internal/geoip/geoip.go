// Package geoip wraps the country-lookup collaborator. The service only ever
// sees the Resolver interface; accuracy and caching live behind it.
package geoip

import (
	"net"

	geoip2 "github.com/oschwald/geoip2-golang"
)

// Resolver maps an IP address to an ISO country code, best effort.
type Resolver interface {
	// ResolveCountry returns a country code or "Unknown".
	ResolveCountry(ip string) string
}

// MaxMindResolver resolves IP addresses using a GeoIP2 database.
type MaxMindResolver struct {
	db *geoip2.Reader
}

// NewMaxMindResolver opens the GeoIP2 database at the given path.
func NewMaxMindResolver(dbPath string) (*MaxMindResolver, error) {
	db, err := geoip2.Open(dbPath)
	if err != nil {
		return nil, err
	}
	return &MaxMindResolver{db: db}, nil
}

// Close closes the GeoIP database reader.
func (r *MaxMindResolver) Close() error {
	return r.db.Close()
}

// ResolveCountry returns the ISO country code for the given IP address.
// Returns "Unknown" for private IPs, invalid IPs, or lookup failures.
func (r *MaxMindResolver) ResolveCountry(ipStr string) string {
	ip := net.ParseIP(ipStr)
	if ip == nil {
		return "Unknown"
	}

	record, err := r.db.Country(ip)
	if err != nil {
		return "Unknown"
	}

	if record.Country.IsoCode == "" {
		return "Unknown"
	}

	return record.Country.IsoCode
}

// Unresolved is the fallback used when no GeoIP database is available.
type Unresolved struct{}

// ResolveCountry always reports "Unknown".
func (Unresolved) ResolveCountry(string) string {
	return "Unknown"
}
