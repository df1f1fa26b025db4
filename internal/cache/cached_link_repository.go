package cache

import (
	"context"

	"github.com/vivek-vibhuti/linkshrink/internal/domain"
	"github.com/vivek-vibhuti/linkshrink/internal/links"
)

// Compile-time interface check
var _ links.Repository = (*CachedLinkRepository)(nil)

// CachedLinkRepository decorates a links.Repository with a code-keyed cache.
// Only the redirect hot path (FindByCode) reads through the cache; writes
// invalidate so a retired or updated link never serves stale redirects past
// the TTL.
type CachedLinkRepository struct {
	repo  links.Repository
	cache LinkCache
}

// NewCachedLinkRepository wraps a repository with the given cache.
func NewCachedLinkRepository(repo links.Repository, cache LinkCache) *CachedLinkRepository {
	return &CachedLinkRepository{repo: repo, cache: cache}
}

// Create persists the link and primes the cache.
func (r *CachedLinkRepository) Create(ctx context.Context, link *domain.ShortLink) (*domain.ShortLink, error) {
	created, err := r.repo.Create(ctx, link)
	if err != nil {
		return nil, err
	}
	_ = r.cache.Set(ctx, created)
	return created, nil
}

// FindByCode retrieves a link, checking the cache first.
func (r *CachedLinkRepository) FindByCode(ctx context.Context, code string) (*domain.ShortLink, error) {
	if cached, err := r.cache.Get(ctx, code); err == nil && cached != nil {
		return cached, nil
	}

	link, err := r.repo.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	_ = r.cache.Set(ctx, link)
	return link, nil
}

// FindByID is not cached; it serves owner-scoped management calls.
func (r *CachedLinkRepository) FindByID(ctx context.Context, id int64) (*domain.ShortLink, error) {
	return r.repo.FindByID(ctx, id)
}

// Update persists the change and invalidates the cached entries. The caller
// may have swapped the short code (alias change), so the code currently in
// storage is looked up first; invalidating only link.ShortCode would leave
// the old code serving stale redirects from cache.
func (r *CachedLinkRepository) Update(ctx context.Context, link *domain.ShortLink) error {
	prev, err := r.repo.FindByID(ctx, link.ID)
	if err != nil {
		return err
	}
	if err := r.repo.Update(ctx, link); err != nil {
		return err
	}
	_ = r.cache.Invalidate(ctx, prev.ShortCode)
	if link.ShortCode != prev.ShortCode {
		_ = r.cache.Invalidate(ctx, link.ShortCode)
	}
	return nil
}

// Retire soft-deletes the link and invalidates the cached entry.
func (r *CachedLinkRepository) Retire(ctx context.Context, id int64) error {
	link, err := r.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := r.repo.Retire(ctx, id); err != nil {
		return err
	}
	_ = r.cache.Invalidate(ctx, link.ShortCode)
	return nil
}

// ListByOwner is not cached as it returns paginated results.
func (r *CachedLinkRepository) ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]*domain.ShortLink, error) {
	return r.repo.ListByOwner(ctx, ownerID, limit, offset)
}

// ActiveCodeExists is not cached to keep allocation pre-checks accurate.
func (r *CachedLinkRepository) ActiveCodeExists(ctx context.Context, code string) (bool, error) {
	return r.repo.ActiveCodeExists(ctx, code)
}
