package sqlite_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/vivek-vibhuti/linkshrink/internal/database"
	"github.com/vivek-vibhuti/linkshrink/internal/domain"
	"github.com/vivek-vibhuti/linkshrink/internal/repository/sqlite"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := database.OpenDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, database.RunMigrations(db))
	return db
}

func createTestLink(t *testing.T, repo *sqlite.LinkRepository, code string) *domain.ShortLink {
	t.Helper()

	link, err := repo.Create(context.Background(), &domain.ShortLink{
		ShortCode:   code,
		OriginalURL: "https://example.com/" + code,
		OwnerID:     "owner-1",
		Active:      true,
		CreatedAt:   time.Now().UTC().Truncate(time.Second),
	})
	require.NoError(t, err)
	return link
}
