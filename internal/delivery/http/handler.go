package http

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/vivek-vibhuti/linkshrink/internal/analytics"
	"github.com/vivek-vibhuti/linkshrink/internal/auth"
	"github.com/vivek-vibhuti/linkshrink/internal/domain"
	"github.com/vivek-vibhuti/linkshrink/internal/domain/event"
	"github.com/vivek-vibhuti/linkshrink/internal/eventbus"
	"github.com/vivek-vibhuti/linkshrink/internal/links"
	"github.com/vivek-vibhuti/linkshrink/internal/metrics"
	"github.com/vivek-vibhuti/linkshrink/internal/qr"
	"github.com/vivek-vibhuti/linkshrink/pkg/problemdetails"
)

const (
	maxBulkItems = 100
	recentLimit  = 20
	// A redirect lookup that can't finish inside this budget degrades to a
	// 500 rather than hanging the client.
	resolveTimeout = 2 * time.Second
)

// Handler handles HTTP requests for link and analytics operations.
type Handler struct {
	links      *links.Service
	aggregator *analytics.Aggregator
	clicks     analytics.ClickRepository
	bus        *eventbus.EventBus
	qr         qr.Provider
	tokens     *auth.TokenManager
	logger     *zap.Logger
	baseURL    string
	devMode    bool
	db         *sql.DB
}

// NewHandler creates a new Handler.
func NewHandler(
	linkSvc *links.Service,
	aggregator *analytics.Aggregator,
	clicks analytics.ClickRepository,
	bus *eventbus.EventBus,
	qrProvider qr.Provider,
	tokens *auth.TokenManager,
	logger *zap.Logger,
	baseURL string,
	devMode bool,
	db *sql.DB,
) *Handler {
	return &Handler{
		links:      linkSvc,
		aggregator: aggregator,
		clicks:     clicks,
		bus:        bus,
		qr:         qrProvider,
		tokens:     tokens,
		logger:     logger,
		baseURL:    baseURL,
		devMode:    devMode,
		db:         db,
	}
}

// CreateURLRequest is the body for POST /urls.
type CreateURLRequest struct {
	OriginalURL string `json:"originalUrl"`
	CustomAlias string `json:"customAlias,omitempty"`
	ExpiresAt   string `json:"expiresAt,omitempty"`
}

// CreateURL handles POST /urls. Authentication is optional: anonymous links
// have no owner and can't be managed afterwards.
func (h *Handler) CreateURL(w http.ResponseWriter, r *http.Request) {
	var req CreateURLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, problemdetails.New(http.StatusBadRequest,
			problemdetails.TypeValidationError, "Invalid Request",
			"Request body must be valid JSON with 'originalUrl' field"))
		return
	}

	link, err := h.createOne(r.Context(), req, OwnerFromContext(r.Context()))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, h.newLinkResponse(link))
}

// BulkCreateRequest is the body for POST /urls/bulk.
type BulkCreateRequest struct {
	URLs []CreateURLRequest `json:"urls"`
}

// BulkCreate handles POST /urls/bulk. Items succeed or fail independently;
// one bad URL never aborts the batch.
func (h *Handler) BulkCreate(w http.ResponseWriter, r *http.Request) {
	var req BulkCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, problemdetails.New(http.StatusBadRequest,
			problemdetails.TypeValidationError, "Invalid Request",
			"Request body must be valid JSON with 'urls' array"))
		return
	}
	if len(req.URLs) == 0 || len(req.URLs) > maxBulkItems {
		writeProblem(w, problemdetails.New(http.StatusBadRequest,
			problemdetails.TypeValidationError, "Invalid Request",
			fmt.Sprintf("urls must contain between 1 and %d items", maxBulkItems)))
		return
	}

	owner := OwnerFromContext(r.Context())
	resp := BulkResultResponse{
		Results: []LinkResponse{},
		Errors:  []BulkItemError{},
	}

	for _, item := range req.URLs {
		link, err := h.createOne(r.Context(), item, owner)
		if err != nil {
			resp.Errors = append(resp.Errors, BulkItemError{
				OriginalURL: item.OriginalURL,
				Error:       err.Error(),
			})
			continue
		}
		resp.Results = append(resp.Results, h.newLinkResponse(link))
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) createOne(ctx context.Context, req CreateURLRequest, owner string) (*domain.ShortLink, error) {
	params := links.CreateParams{
		CustomAlias: req.CustomAlias,
		OwnerID:     owner,
	}
	if req.ExpiresAt != "" {
		t, err := time.Parse(time.RFC3339, req.ExpiresAt)
		if err != nil {
			return nil, fmt.Errorf("%w: expiresAt must be RFC 3339", domain.ErrInvalidInput)
		}
		params.ExpiresAt = &t
	}
	return h.links.Create(ctx, req.OriginalURL, params)
}

// ListURLs handles GET /urls.
func (h *Handler) ListURLs(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1)
	limit := queryInt(r, "limit", 20)

	owned, err := h.links.ListForOwner(r.Context(), OwnerFromContext(r.Context()), page, limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	resp := ListResponse{URLs: []LinkResponse{}, Page: page, Limit: limit}
	for _, link := range owned {
		resp.URLs = append(resp.URLs, h.newLinkResponse(link))
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetAnalytics handles GET /urls/{id}/analytics. Unknown ids and links owned
// by someone else both get a 404, deliberately indistinguishable.
func (h *Handler) GetAnalytics(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeDomainError(w, domain.ErrNotFound)
		return
	}

	link, err := h.links.GetForOwner(r.Context(), id, OwnerFromContext(r.Context()))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	snapshot, err := h.aggregator.Snapshot(r.Context(), id)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			writeDomainError(w, err)
			return
		}
		snapshot = domain.EmptySnapshot(id, time.Now().UTC())
	}

	recent, err := h.clicks.Recent(r.Context(), id, recentLimit)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, AnalyticsResponse{
		URL:          h.newLinkResponse(link),
		Analytics:    newSnapshotResponse(snapshot),
		RecentClicks: newClickResponses(recent),
	})
}

// UpdateURLRequest is the body for PUT /urls/{id}. Absent fields stay
// unchanged; an empty expiresAt clears the expiry.
type UpdateURLRequest struct {
	OriginalURL *string `json:"originalUrl,omitempty"`
	CustomAlias *string `json:"customAlias,omitempty"`
	ExpiresAt   *string `json:"expiresAt,omitempty"`
}

// UpdateURL handles PUT /urls/{id}.
func (h *Handler) UpdateURL(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeDomainError(w, domain.ErrNotFound)
		return
	}

	var req UpdateURLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, problemdetails.New(http.StatusBadRequest,
			problemdetails.TypeValidationError, "Invalid Request",
			"Request body must be valid JSON"))
		return
	}

	params := links.UpdateParams{
		OriginalURL: req.OriginalURL,
		CustomAlias: req.CustomAlias,
	}
	if req.ExpiresAt != nil {
		if *req.ExpiresAt == "" {
			params.ClearExpiry = true
		} else {
			t, err := time.Parse(time.RFC3339, *req.ExpiresAt)
			if err != nil {
				writeDomainError(w, fmt.Errorf("%w: expiresAt must be RFC 3339", domain.ErrInvalidInput))
				return
			}
			params.ExpiresAt = &t
		}
	}

	link, err := h.links.Update(r.Context(), id, OwnerFromContext(r.Context()), params)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, h.newLinkResponse(link))
}

// DeleteURL handles DELETE /urls/{id}. Soft delete: the code stops resolving
// but the click history stays queryable.
func (h *Handler) DeleteURL(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeDomainError(w, domain.ErrNotFound)
		return
	}

	if err := h.links.Retire(r.Context(), id, OwnerFromContext(r.Context())); err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"deleted": true, "id": id})
}

// Redirect handles GET /{shortCode}: resolve, respond, then hand the click to
// the recording pipeline off the response path.
func (h *Handler) Redirect(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "shortCode")

	ctx, cancel := context.WithTimeout(r.Context(), resolveTimeout)
	defer cancel()

	link, err := h.links.Resolve(ctx, code)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeProblem(w, problemdetails.New(http.StatusNotFound,
				problemdetails.TypeNotFound, "Not Found", "Short URL not found: "+code))
			return
		}
		h.logger.Error("redirect lookup failed",
			zap.String("short_code", code),
			zap.Error(err),
		)
		writeProblem(w, problemdetails.New(http.StatusInternalServerError,
			problemdetails.TypeInternalError, "Internal Server Error", "internal server error"))
		return
	}

	// Capture the observation before responding; r is not safe to touch
	// from the publishing goroutine.
	obs := domain.ClickObservation{
		IP:        clientIP(r),
		UserAgent: r.Header.Get("User-Agent"),
		Referrer:  r.Header.Get("Referer"),
		Timestamp: time.Now().UTC(),
	}

	// Permanent redirect per the public contract, but uncached so every
	// visit reaches us and gets counted.
	w.Header().Set("Cache-Control", "no-store")
	http.Redirect(w, r, link.OriginalURL, http.StatusMovedPermanently)
	metrics.RedirectsTotal.Inc()

	go h.publishClick(link, obs)
}

// publishClick hands the observation to the click pipeline. The redirect has
// already been served, so failures are logged and swallowed.
func (h *Handler) publishClick(link *domain.ShortLink, obs domain.ClickObservation) {
	e := event.NewLinkClicked(link.ID, link.ShortCode, obs)
	if err := h.bus.Publish(context.Background(), e); err != nil {
		h.logger.Error("failed to publish click event",
			zap.String("short_code", link.ShortCode),
			zap.Error(err),
		)
	}
}

// TokenRequest is the body for the dev-only POST /auth/token.
type TokenRequest struct {
	Subject string `json:"subject"`
}

// MintToken handles POST /auth/token. Only mounted in dev mode; production
// deployments get tokens from the real identity provider.
func (h *Handler) MintToken(w http.ResponseWriter, r *http.Request) {
	var req TokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Subject == "" {
		writeProblem(w, problemdetails.New(http.StatusBadRequest,
			problemdetails.TypeValidationError, "Invalid Request", "subject is required"))
		return
	}

	token, err := h.tokens.Issue(req.Subject)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

// HealthResponse represents health check response
type HealthResponse struct {
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

// Healthz handles GET /healthz (liveness probe)
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// Readyz handles GET /readyz (readiness probe)
func (h *Handler) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.PingContext(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, HealthResponse{
			Status: "unavailable",
			Reason: "database unavailable: " + err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, HealthResponse{Status: "ready"})
}

func (h *Handler) newLinkResponse(link *domain.ShortLink) LinkResponse {
	shortURL := h.baseURL + "/" + link.ShortCode

	qrRef := ""
	if h.qr != nil {
		ref, err := h.qr.ImageRef(shortURL)
		if err != nil {
			h.logger.Warn("qr generation failed", zap.String("short_code", link.ShortCode), zap.Error(err))
		} else {
			qrRef = ref
		}
	}

	return LinkResponse{
		ID:          link.ID,
		OriginalURL: link.OriginalURL,
		ShortURL:    shortURL,
		ShortCode:   link.ShortCode,
		CustomAlias: link.CustomAlias,
		QRCodeURL:   qrRef,
		Active:      link.Active,
		CreatedAt:   link.CreatedAt,
		ExpiresAt:   link.ExpiresAt,
	}
}

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

func queryInt(r *http.Request, key string, fallback int) int {
	value := r.URL.Query().Get(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed < 1 {
		return fallback
	}
	return parsed
}

func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
