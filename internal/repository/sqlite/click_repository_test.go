package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vivek-vibhuti/linkshrink/internal/domain"
	"github.com/vivek-vibhuti/linkshrink/internal/repository/sqlite"
)

func appendTestClick(t *testing.T, repo *sqlite.ClickRepository, linkID int64, ip string, at time.Time) *domain.ClickEvent {
	t.Helper()

	click := &domain.ClickEvent{
		LinkID:    linkID,
		IP:        ip,
		UserAgent: "Mozilla/5.0",
		Referrer:  domain.DirectReferrer,
		Browser:   "Chrome",
		OS:        "Windows",
		Device:    domain.DeviceDesktop,
		Country:   domain.UnknownValue,
		ClickedAt: at.UTC().Truncate(time.Second),
	}
	require.NoError(t, repo.Append(context.Background(), click))
	return click
}

func TestClickRepository_AppendAndList(t *testing.T) {
	db := setupTestDB(t)
	links := sqlite.NewLinkRepository(db)
	clicks := sqlite.NewClickRepository(db)

	link := createTestLink(t, links, "click001")

	base := time.Now().Add(-time.Hour)
	first := appendTestClick(t, clicks, link.ID, "203.0.113.0", base)
	second := appendTestClick(t, clicks, link.ID, "198.51.100.0", base.Add(time.Minute))

	assert.NotZero(t, first.ID)
	assert.NotZero(t, second.ID)

	log, err := clicks.ListByLink(context.Background(), link.ID)
	require.NoError(t, err)
	require.Len(t, log, 2)
	assert.Equal(t, first.ID, log[0].ID, "log is oldest first")
	assert.Equal(t, "203.0.113.0", log[0].IP)
	assert.Equal(t, "Chrome", log[0].Browser)
}

func TestClickRepository_Recent(t *testing.T) {
	db := setupTestDB(t)
	links := sqlite.NewLinkRepository(db)
	clicks := sqlite.NewClickRepository(db)

	link := createTestLink(t, links, "click002")

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		appendTestClick(t, clicks, link.ID, "203.0.113.0", base.Add(time.Duration(i)*time.Minute))
	}

	recent, err := clicks.Recent(context.Background(), link.ID, 3)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	assert.True(t, recent[0].ClickedAt.After(recent[2].ClickedAt), "recent is newest first")
}

func TestClickRepository_ListEmpty(t *testing.T) {
	db := setupTestDB(t)
	links := sqlite.NewLinkRepository(db)
	clicks := sqlite.NewClickRepository(db)

	link := createTestLink(t, links, "click003")

	log, err := clicks.ListByLink(context.Background(), link.ID)
	require.NoError(t, err)
	assert.Empty(t, log)
}
