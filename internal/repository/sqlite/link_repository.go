package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vivek-vibhuti/linkshrink/internal/domain"
	"github.com/vivek-vibhuti/linkshrink/internal/links"
)

// LinkRepository implements links.Repository on SQLite.
type LinkRepository struct {
	db *sql.DB
}

// NewLinkRepository creates a new SQLite-backed link repository.
func NewLinkRepository(db *sql.DB) *LinkRepository {
	return &LinkRepository{db: db}
}

// Ensure LinkRepository implements links.Repository at compile time
var _ links.Repository = (*LinkRepository)(nil)

// Create persists a link and its empty analytics snapshot in one
// transaction. The unique index on short_code is the real uniqueness
// guarantee; a violation surfaces as domain.ErrAliasConflict.
func (r *LinkRepository) Create(ctx context.Context, link *domain.ShortLink) (*domain.ShortLink, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin create link: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO links (short_code, original_url, custom_alias, owner_id, active, created_at, expires_at)
		 VALUES (?, ?, ?, ?, 1, ?, ?)`,
		link.ShortCode, link.OriginalURL, link.CustomAlias, link.OwnerID,
		link.CreatedAt.Unix(), nullableUnix(link.ExpiresAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: %q", domain.ErrAliasConflict, link.ShortCode)
		}
		return nil, fmt.Errorf("insert link: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("link id: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO analytics_snapshots (link_id, updated_at) VALUES (?, ?)`,
		id, link.CreatedAt.Unix(),
	); err != nil {
		return nil, fmt.Errorf("insert snapshot: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit create link: %w", err)
	}

	created := *link
	created.ID = id
	created.Active = true
	return &created, nil
}

const linkColumns = `id, short_code, original_url, custom_alias, owner_id, active, created_at, expires_at`

// FindByCode retrieves a link by its short code, active or not.
func (r *LinkRepository) FindByCode(ctx context.Context, code string) (*domain.ShortLink, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+linkColumns+` FROM links WHERE short_code = ?`, code)
	return scanLink(row)
}

// FindByID retrieves a link by id.
func (r *LinkRepository) FindByID(ctx context.Context, id int64) (*domain.ShortLink, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+linkColumns+` FROM links WHERE id = ?`, id)
	return scanLink(row)
}

// Update overwrites the mutable columns of a link.
func (r *LinkRepository) Update(ctx context.Context, link *domain.ShortLink) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE links SET short_code = ?, original_url = ?, custom_alias = ?, expires_at = ? WHERE id = ?`,
		link.ShortCode, link.OriginalURL, link.CustomAlias, nullableUnix(link.ExpiresAt), link.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %q", domain.ErrAliasConflict, link.ShortCode)
		}
		return fmt.Errorf("update link: %w", err)
	}
	return nil
}

// Retire marks a link inactive. Retiring twice is a no-op.
func (r *LinkRepository) Retire(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE links SET active = 0 WHERE id = ?`, id); err != nil {
		return fmt.Errorf("retire link: %w", err)
	}
	return nil
}

// ListByOwner returns an owner's links newest first. Anonymous links
// (empty owner) are never listed.
func (r *LinkRepository) ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]*domain.ShortLink, error) {
	if ownerID == "" {
		return nil, nil
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+linkColumns+` FROM links
		 WHERE owner_id = ?
		 ORDER BY created_at DESC, id DESC
		 LIMIT ? OFFSET ?`,
		ownerID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list links: %w", err)
	}
	defer rows.Close()

	var result []*domain.ShortLink
	for rows.Next() {
		link, err := scanLink(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, link)
	}
	return result, rows.Err()
}

// ActiveCodeExists reports whether a code is taken. Codes are never reused
// after retirement, so any row counts.
func (r *LinkRepository) ActiveCodeExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM links WHERE short_code = ?)`, code).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check code: %w", err)
	}
	return exists, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLink(row rowScanner) (*domain.ShortLink, error) {
	var (
		link      domain.ShortLink
		created   int64
		expiresAt sql.NullInt64
	)
	err := row.Scan(&link.ID, &link.ShortCode, &link.OriginalURL, &link.CustomAlias,
		&link.OwnerID, &link.Active, &created, &expiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scan link: %w", err)
	}

	link.CreatedAt = time.Unix(created, 0).UTC()
	if expiresAt.Valid {
		t := time.Unix(expiresAt.Int64, 0).UTC()
		link.ExpiresAt = &t
	}
	return &link, nil
}

func nullableUnix(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Unix()
}

// SQLite reports constraint violations in the error text.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
