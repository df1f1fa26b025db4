package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"time"

	"github.com/samber/lo"

	"github.com/vivek-vibhuti/linkshrink/internal/domain"
	"github.com/vivek-vibhuti/linkshrink/pkg/problemdetails"
)

// dailyWindow bounds how many daily-series entries the API exposes. The
// aggregator stores the full series; trimming is a presentation concern.
const dailyWindow = 14

// writeJSON writes a JSON response with the given status code
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeProblem writes an RFC 7807 Problem Details response
func writeProblem(w http.ResponseWriter, problem *problemdetails.ProblemDetail) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(problem.Status)
	json.NewEncoder(w).Encode(problem)
}

// writeDomainError maps the error taxonomy onto problem details.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		writeProblem(w, problemdetails.New(http.StatusBadRequest,
			problemdetails.TypeValidationError, "Invalid Request", err.Error()))
	case errors.Is(err, domain.ErrAliasConflict):
		writeProblem(w, problemdetails.New(http.StatusBadRequest,
			problemdetails.TypeConflict, "Alias Taken", err.Error()))
	case errors.Is(err, domain.ErrNotFound):
		writeProblem(w, problemdetails.New(http.StatusNotFound,
			problemdetails.TypeNotFound, "Not Found", "resource not found"))
	case errors.Is(err, domain.ErrCodeExhausted):
		writeProblem(w, problemdetails.New(http.StatusInternalServerError,
			problemdetails.TypeInternalError, "Internal Server Error", "failed to generate short code"))
	default:
		writeProblem(w, problemdetails.New(http.StatusInternalServerError,
			problemdetails.TypeInternalError, "Internal Server Error", "internal server error"))
	}
}

// LinkResponse is the API shape of a short link.
type LinkResponse struct {
	ID          int64      `json:"id"`
	OriginalURL string     `json:"originalUrl"`
	ShortURL    string     `json:"shortUrl"`
	ShortCode   string     `json:"shortCode"`
	CustomAlias string     `json:"customAlias,omitempty"`
	QRCodeURL   string     `json:"qrCodeUrl,omitempty"`
	Active      bool       `json:"active"`
	CreatedAt   time.Time  `json:"createdAt"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty"`
}

// BulkResultResponse reports per-item outcomes for bulk creation.
type BulkResultResponse struct {
	Results []LinkResponse  `json:"results"`
	Errors  []BulkItemError `json:"errors"`
}

// BulkItemError correlates an item failure back by original URL.
type BulkItemError struct {
	OriginalURL string `json:"originalUrl"`
	Error       string `json:"error"`
}

// ListResponse is the paginated owner listing.
type ListResponse struct {
	URLs  []LinkResponse `json:"urls"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
}

// AnalyticsResponse bundles the link, its rollup, and the latest raw clicks.
type AnalyticsResponse struct {
	URL          LinkResponse         `json:"url"`
	Analytics    SnapshotResponse     `json:"analytics"`
	RecentClicks []ClickEventResponse `json:"recentClicks"`
}

// SnapshotResponse is the API shape of an analytics snapshot.
type SnapshotResponse struct {
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

// ClickEventResponse is the API shape of one raw click.
type ClickEventResponse struct {
	Browser   string    `json:"browser"`
	OS        string    `json:"os"`
	Device    string    `json:"device"`
	Country   string    `json:"country"`
	Referrer  string    `json:"referrer"`
	ClickedAt time.Time `json:"clickedAt"`
}

func newSnapshotResponse(s *domain.AnalyticsSnapshot) SnapshotResponse {
	return SnapshotResponse{
		TotalClicks:    s.TotalClicks,
		UniqueVisitors: s.UniqueVisitors,
		Countries:      s.Countries,
		Devices:        s.Devices,
		Browsers:       s.Browsers,
		Referrers:      s.Referrers,
		Daily:          trimDaily(s.Daily, dailyWindow),
		LastClickAt:    s.LastClickAt,
		UpdatedAt:      s.UpdatedAt,
	}
}

func newClickResponses(clicks []*domain.ClickEvent) []ClickEventResponse {
	return lo.Map(clicks, func(c *domain.ClickEvent, _ int) ClickEventResponse {
		return ClickEventResponse{
			Browser:   c.Browser,
			OS:        c.OS,
			Device:    c.Device,
			Country:   c.Country,
			Referrer:  c.Referrer,
			ClickedAt: c.ClickedAt,
		}
	})
}

// trimDaily keeps the most recent n date keys. Date strings sort
// chronologically, so a plain sort suffices.
func trimDaily(daily map[string]int64, n int) map[string]int64 {
	if len(daily) <= n {
		return daily
	}
	dates := lo.Keys(daily)
	sort.Strings(dates)
	trimmed := make(map[string]int64, n)
	for _, date := range dates[len(dates)-n:] {
		trimmed[date] = daily[date]
	}
	return trimmed
}
