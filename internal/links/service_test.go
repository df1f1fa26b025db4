package links_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vivek-vibhuti/linkshrink/internal/domain"
	"github.com/vivek-vibhuti/linkshrink/internal/links"
	"github.com/vivek-vibhuti/linkshrink/internal/shortener"
)

// memoryRepo is an in-memory links.Repository enforcing the same uniqueness
// guarantee as the sqlite adapter.
type memoryRepo struct {
	mu     sync.Mutex
	nextID int64
	byID   map[int64]*domain.ShortLink
	byCode map[string]int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		byID:   map[int64]*domain.ShortLink{},
		byCode: map[string]int64{},
	}
}

func (m *memoryRepo) Create(_ context.Context, link *domain.ShortLink) (*domain.ShortLink, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.byCode[link.ShortCode]; exists {
		return nil, fmt.Errorf("%w: %q", domain.ErrAliasConflict, link.ShortCode)
	}
	m.nextID++
	created := *link
	created.ID = m.nextID
	m.byID[created.ID] = &created
	m.byCode[created.ShortCode] = created.ID
	return &created, nil
}

func (m *memoryRepo) FindByCode(_ context.Context, code string) (*domain.ShortLink, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.byCode[code]
	if !ok {
		return nil, domain.ErrNotFound
	}
	link := *m.byID[id]
	return &link, nil
}

func (m *memoryRepo) FindByID(_ context.Context, id int64) (*domain.ShortLink, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	link, ok := m.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *link
	return &copied, nil
}

func (m *memoryRepo) Update(_ context.Context, link *domain.ShortLink) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.byID[link.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if other, taken := m.byCode[link.ShortCode]; taken && other != link.ID {
		return fmt.Errorf("%w: %q", domain.ErrAliasConflict, link.ShortCode)
	}
	delete(m.byCode, existing.ShortCode)
	copied := *link
	m.byID[link.ID] = &copied
	m.byCode[link.ShortCode] = link.ID
	return nil
}

func (m *memoryRepo) Retire(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if link, ok := m.byID[id]; ok {
		link.Active = false
	}
	return nil
}

func (m *memoryRepo) ListByOwner(_ context.Context, ownerID string, limit, offset int) ([]*domain.ShortLink, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var owned []*domain.ShortLink
	for id := m.nextID; id >= 1; id-- {
		link, ok := m.byID[id]
		if !ok || link.OwnerID != ownerID || ownerID == "" {
			continue
		}
		copied := *link
		owned = append(owned, &copied)
	}
	if offset >= len(owned) {
		return nil, nil
	}
	owned = owned[offset:]
	if len(owned) > limit {
		owned = owned[:limit]
	}
	return owned, nil
}

func (m *memoryRepo) ActiveCodeExists(_ context.Context, code string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.byCode[code]
	return ok, nil
}

func newService(repo links.Repository) *links.Service {
	return links.NewService(repo, shortener.NewAllocator(repo), zap.NewNop())
}

func TestService_Create_GeneratedCode(t *testing.T) {
	svc := newService(newMemoryRepo())

	link, err := svc.Create(context.Background(), "https://example.com/a", links.CreateParams{})

	require.NoError(t, err)
	assert.Len(t, link.ShortCode, 8)
	assert.True(t, link.Active)
	assert.NotZero(t, link.ID)
}

func TestService_Create_InvalidURL(t *testing.T) {
	svc := newService(newMemoryRepo())

	tests := []string{
		"not-a-url",
		"ftp://example.com/file",
		"https://",
		"",
	}

	for _, raw := range tests {
		_, err := svc.Create(context.Background(), raw, links.CreateParams{})
		require.ErrorIs(t, err, domain.ErrInvalidInput, "url %q", raw)
	}
}

func TestService_Create_AliasConflict_NoRowCreated(t *testing.T) {
	repo := newMemoryRepo()
	svc := newService(repo)

	_, err := svc.Create(context.Background(), "https://example.com/a", links.CreateParams{CustomAlias: "promo"})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), "https://example.com/b", links.CreateParams{CustomAlias: "promo"})
	require.ErrorIs(t, err, domain.ErrAliasConflict)

	assert.Len(t, repo.byID, 1)
}

func TestService_Create_PastExpiry(t *testing.T) {
	svc := newService(newMemoryRepo())

	past := time.Now().Add(-time.Hour)
	_, err := svc.Create(context.Background(), "https://example.com/a", links.CreateParams{ExpiresAt: &past})

	require.ErrorIs(t, err, domain.ErrInvalidInput)
}

// Concurrent creations without aliases must all end up with distinct codes.
func TestService_Create_ConcurrentDistinctCodes(t *testing.T) {
	repo := newMemoryRepo()
	svc := newService(repo)

	const n = 32
	var wg sync.WaitGroup
	codes := make(chan string, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			link, err := svc.Create(context.Background(),
				fmt.Sprintf("https://example.com/%d", i), links.CreateParams{})
			assert.NoError(t, err)
			if link != nil {
				codes <- link.ShortCode
			}
		}(i)
	}
	wg.Wait()
	close(codes)

	seen := map[string]bool{}
	for code := range codes {
		assert.False(t, seen[code], "duplicate code %q", code)
		seen[code] = true
	}
	assert.Len(t, seen, n)
}

func TestService_Resolve(t *testing.T) {
	svc := newService(newMemoryRepo())

	link, err := svc.Create(context.Background(), "https://example.com/a", links.CreateParams{})
	require.NoError(t, err)

	resolved, err := svc.Resolve(context.Background(), link.ShortCode)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/a", resolved.OriginalURL)

	_, err = svc.Resolve(context.Background(), "missing1")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestService_Resolve_Expired(t *testing.T) {
	repo := newMemoryRepo()
	svc := newService(repo)

	soon := time.Now().Add(50 * time.Millisecond)
	link, err := svc.Create(context.Background(), "https://example.com/a", links.CreateParams{ExpiresAt: &soon})
	require.NoError(t, err)

	_, err = svc.Resolve(context.Background(), link.ShortCode)
	require.NoError(t, err)

	time.Sleep(100 * time.Millisecond)

	_, err = svc.Resolve(context.Background(), link.ShortCode)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestService_Retire_IdempotentAndHidesCode(t *testing.T) {
	svc := newService(newMemoryRepo())

	link, err := svc.Create(context.Background(), "https://example.com/a", links.CreateParams{OwnerID: "u1"})
	require.NoError(t, err)

	require.NoError(t, svc.Retire(context.Background(), link.ID, "u1"))
	require.NoError(t, svc.Retire(context.Background(), link.ID, "u1"))

	_, err = svc.Resolve(context.Background(), link.ShortCode)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestService_Retire_ForeignOwnerLooksAbsent(t *testing.T) {
	svc := newService(newMemoryRepo())

	link, err := svc.Create(context.Background(), "https://example.com/a", links.CreateParams{OwnerID: "u1"})
	require.NoError(t, err)

	err = svc.Retire(context.Background(), link.ID, "u2")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestService_Update_AliasConflict(t *testing.T) {
	svc := newService(newMemoryRepo())

	_, err := svc.Create(context.Background(), "https://example.com/a", links.CreateParams{CustomAlias: "promo"})
	require.NoError(t, err)

	link, err := svc.Create(context.Background(), "https://example.com/b", links.CreateParams{OwnerID: "u1"})
	require.NoError(t, err)

	alias := "promo"
	_, err = svc.Update(context.Background(), link.ID, "u1", links.UpdateParams{CustomAlias: &alias})
	require.ErrorIs(t, err, domain.ErrAliasConflict)
}

func TestService_Update_EmptyAliasRejected(t *testing.T) {
	svc := newService(newMemoryRepo())

	link, err := svc.Create(context.Background(), "https://example.com/a",
		links.CreateParams{OwnerID: "u1", CustomAlias: "promo"})
	require.NoError(t, err)

	empty := ""
	_, err = svc.Update(context.Background(), link.ID, "u1", links.UpdateParams{CustomAlias: &empty})
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	// The short code did not rotate.
	kept, err := svc.GetForOwner(context.Background(), link.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, "promo", kept.ShortCode)
}

func TestService_ListForOwner_NewestFirst(t *testing.T) {
	svc := newService(newMemoryRepo())

	for i := 0; i < 5; i++ {
		_, err := svc.Create(context.Background(),
			fmt.Sprintf("https://example.com/%d", i), links.CreateParams{OwnerID: "u1"})
		require.NoError(t, err)
	}

	page1, err := svc.ListForOwner(context.Background(), "u1", 1, 3)
	require.NoError(t, err)
	require.Len(t, page1, 3)
	assert.Equal(t, "https://example.com/4", page1[0].OriginalURL)

	page2, err := svc.ListForOwner(context.Background(), "u1", 2, 3)
	require.NoError(t, err)
	assert.Len(t, page2, 2)
}
