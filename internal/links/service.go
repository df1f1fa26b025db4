package links

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/vivek-vibhuti/linkshrink/internal/domain"
	"github.com/vivek-vibhuti/linkshrink/internal/shortener"
)

const (
	maxURLLength = 2048
	// How many times a creation retries after losing a short-code race.
	// Custom aliases never retry: losing that race is a real conflict.
	maxCreateAttempts = 5
)

// Service is the link directory. It owns the short-code to target mapping,
// answers redirect-path lookups, and enforces soft delete and expiry.
type Service struct {
	repo      Repository
	allocator *shortener.Allocator
	logger    *zap.Logger
	now       func() time.Time
}

// NewService creates a new link directory service.
func NewService(repo Repository, allocator *shortener.Allocator, logger *zap.Logger) *Service {
	return &Service{
		repo:      repo,
		allocator: allocator,
		logger:    logger,
		now:       time.Now,
	}
}

// CreateParams carries the optional attributes of a new link.
type CreateParams struct {
	CustomAlias string
	OwnerID     string
	ExpiresAt   *time.Time
}

// Create validates the target URL, allocates a short code, and persists the
// link. A uniqueness violation on a generated code loops back to allocation;
// on a custom alias it surfaces as domain.ErrAliasConflict.
func (s *Service) Create(ctx context.Context, originalURL string, params CreateParams) (*domain.ShortLink, error) {
	if err := validateURL(originalURL); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	if params.ExpiresAt != nil && !params.ExpiresAt.After(s.now()) {
		return nil, fmt.Errorf("%w: expiry must be in the future", domain.ErrInvalidInput)
	}

	for attempt := 0; attempt < maxCreateAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		code, err := s.allocator.Allocate(ctx, params.CustomAlias)
		if err != nil {
			return nil, err
		}

		link, err := s.repo.Create(ctx, &domain.ShortLink{
			ShortCode:   code,
			OriginalURL: originalURL,
			CustomAlias: params.CustomAlias,
			OwnerID:     params.OwnerID,
			Active:      true,
			CreatedAt:   s.now().UTC(),
			ExpiresAt:   params.ExpiresAt,
		})
		if err != nil {
			if errors.Is(err, domain.ErrAliasConflict) {
				if params.CustomAlias != "" {
					// Someone else won the alias between pre-check and insert.
					return nil, err
				}
				s.logger.Debug("short code collision, retrying",
					zap.String("short_code", code),
					zap.Int("attempt", attempt+1),
				)
				continue
			}
			return nil, err
		}
		return link, nil
	}

	return nil, domain.ErrCodeExhausted
}

// Resolve returns the link for a short code if it is active and unexpired.
// This is the redirect hot path.
func (s *Service) Resolve(ctx context.Context, code string) (*domain.ShortLink, error) {
	link, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if !link.Resolvable(s.now()) {
		return nil, domain.ErrNotFound
	}
	return link, nil
}

// GetForOwner returns a link by id, hiding foreign-owned links behind the
// same ErrNotFound as truly absent ones.
func (s *Service) GetForOwner(ctx context.Context, id int64, ownerID string) (*domain.ShortLink, error) {
	link, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if link.OwnerID == "" || link.OwnerID != ownerID {
		return nil, domain.ErrNotFound
	}
	return link, nil
}

// UpdateParams carries a partial update; nil fields are left unchanged.
type UpdateParams struct {
	OriginalURL *string
	CustomAlias *string
	ExpiresAt   *time.Time
	ClearExpiry bool
}

// Update applies a partial update to an owned link. An alias change
// re-validates and re-checks uniqueness; the short code itself never changes
// unless the alias replaces it.
func (s *Service) Update(ctx context.Context, id int64, ownerID string, params UpdateParams) (*domain.ShortLink, error) {
	link, err := s.GetForOwner(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}

	if params.OriginalURL != nil {
		if err := validateURL(*params.OriginalURL); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
		}
		link.OriginalURL = *params.OriginalURL
	}

	if params.CustomAlias != nil && *params.CustomAlias != link.CustomAlias {
		// An empty alias would send allocation down the generation path
		// and silently rotate the short code.
		if *params.CustomAlias == "" {
			return nil, fmt.Errorf("%w: alias cannot be empty; omit the field to keep it", domain.ErrInvalidInput)
		}
		code, err := s.allocator.Allocate(ctx, *params.CustomAlias)
		if err != nil {
			return nil, err
		}
		link.CustomAlias = *params.CustomAlias
		link.ShortCode = code
	}

	if params.ClearExpiry {
		link.ExpiresAt = nil
	} else if params.ExpiresAt != nil {
		if !params.ExpiresAt.After(s.now()) {
			return nil, fmt.Errorf("%w: expiry must be in the future", domain.ErrInvalidInput)
		}
		link.ExpiresAt = params.ExpiresAt
	}

	if err := s.repo.Update(ctx, link); err != nil {
		return nil, err
	}
	return link, nil
}

// Retire soft-deletes an owned link. Retiring twice is a no-op; the click
// history stays queryable through analytics.
func (s *Service) Retire(ctx context.Context, id int64, ownerID string) error {
	if _, err := s.GetForOwner(ctx, id, ownerID); err != nil {
		return err
	}
	return s.repo.Retire(ctx, id)
}

// ListForOwner returns the owner's links ordered by creation time descending.
func (s *Service) ListForOwner(ctx context.Context, ownerID string, page, limit int) ([]*domain.ShortLink, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return s.repo.ListByOwner(ctx, ownerID, limit, (page-1)*limit)
}

// validateURL validates the URL format and constraints
func validateURL(rawURL string) error {
	if len(rawURL) > maxURLLength {
		return fmt.Errorf("url exceeds maximum length of %d characters", maxURLLength)
	}

	parsedURL, err := url.ParseRequestURI(rawURL)
	if err != nil {
		return fmt.Errorf("invalid url format: %w", err)
	}

	scheme := strings.ToLower(parsedURL.Scheme)
	if scheme != "http" && scheme != "https" {
		return fmt.Errorf("url scheme must be http or https, got: %s", parsedURL.Scheme)
	}

	if parsedURL.Host == "" {
		return fmt.Errorf("url must have a host")
	}

	return nil
}
