package analytics

import (
	"strings"

	"github.com/vivek-vibhuti/linkshrink/internal/domain"
)

// Classification is the derived view of a raw user-agent string.
type Classification struct {
	Browser string
	OS      string
	Device  string
}

// browserMarkers is an ordered rule table over case-folded substrings.
// Edge and Opera ship "Chrome" in their user agents and Chrome ships
// "Safari", so the more specific markers must run first.
var browserMarkers = []struct {
	marker  string
	browser string
}{
	{"edg", "Edge"},
	{"opr", "Opera"},
	{"opera", "Opera"},
	{"chrome", "Chrome"},
	{"crios", "Chrome"},
	{"firefox", "Firefox"},
	{"fxios", "Firefox"},
	{"safari", "Safari"},
}

// osMarkers is ordered too: Android user agents contain "linux" and iPhone
// user agents contain "mac os x".
var osMarkers = []struct {
	marker string
	os     string
}{
	{"windows", "Windows"},
	{"android", "Android"},
	{"iphone", "iOS"},
	{"ipad", "iOS"},
	{"ipod", "iOS"},
	{"mac os", "macOS"},
	{"macintosh", "macOS"},
	{"linux", "Linux"},
}

var mobileMarkers = []string{"mobile", "android", "iphone"}
var tabletMarkers = []string{"tablet", "ipad"}

// ClassifyUserAgent derives {browser, OS, device class} from a raw user-agent
// string with a deterministic ordered substring pass. Unmatched fields come
// back as "Unknown"; the device class defaults to Desktop. It never fails:
// imprecise classification beats losing the click.
func ClassifyUserAgent(rawUA string) Classification {
	c := Classification{
		Browser: domain.UnknownValue,
		OS:      domain.UnknownValue,
		Device:  domain.DeviceDesktop,
	}
	if rawUA == "" {
		return c
	}

	ua := strings.ToLower(rawUA)

	for _, rule := range browserMarkers {
		if strings.Contains(ua, rule.marker) {
			c.Browser = rule.browser
			break
		}
	}

	for _, rule := range osMarkers {
		if strings.Contains(ua, rule.marker) {
			c.OS = rule.os
			break
		}
	}

	for _, marker := range mobileMarkers {
		if strings.Contains(ua, marker) {
			c.Device = domain.DeviceMobile
			return c
		}
	}
	for _, marker := range tabletMarkers {
		if strings.Contains(ua, marker) {
			c.Device = domain.DeviceTablet
			return c
		}
	}

	return c
}
