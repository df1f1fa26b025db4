package links

import (
	"context"

	"github.com/vivek-vibhuti/linkshrink/internal/domain"
)

// Repository is the persistence capability the link directory depends on.
// Create must enforce short-code uniqueness transactionally and surface a
// violation as domain.ErrAliasConflict; it also creates the link's empty
// analytics snapshot in the same transaction.
type Repository interface {
	Create(ctx context.Context, link *domain.ShortLink) (*domain.ShortLink, error)
	FindByCode(ctx context.Context, code string) (*domain.ShortLink, error)
	FindByID(ctx context.Context, id int64) (*domain.ShortLink, error)
	Update(ctx context.Context, link *domain.ShortLink) error
	Retire(ctx context.Context, id int64) error
	ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]*domain.ShortLink, error)
	ActiveCodeExists(ctx context.Context, code string) (bool, error)
}
