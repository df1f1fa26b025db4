package shortener

import (
	"context"
	"regexp"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vivek-vibhuti/linkshrink/internal/domain"
)

// fakeChecker is an in-memory CodeChecker.
type fakeChecker struct {
	mu    sync.Mutex
	taken map[string]bool
	// fail makes every generated code look taken
	fail bool
}

func (f *fakeChecker) ActiveCodeExists(_ context.Context, code string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return true, nil
	}
	return f.taken[code], nil
}

func TestAllocator_Allocate_GeneratesEightCharCode(t *testing.T) {
	allocator := NewAllocator(&fakeChecker{taken: map[string]bool{}})

	code, err := allocator.Allocate(context.Background(), "")

	require.NoError(t, err)
	assert.Len(t, code, 8)
	assert.Regexp(t, regexp.MustCompile(`^[A-Za-z0-9_-]{8}$`), code)
}

func TestAllocator_Allocate_DistinctCodes(t *testing.T) {
	allocator := NewAllocator(&fakeChecker{taken: map[string]bool{}})

	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		code, err := allocator.Allocate(context.Background(), "")
		require.NoError(t, err)
		assert.False(t, seen[code], "duplicate code %q", code)
		seen[code] = true
	}
}

func TestAllocator_Allocate_CustomAlias_Valid(t *testing.T) {
	allocator := NewAllocator(&fakeChecker{taken: map[string]bool{}})

	code, err := allocator.Allocate(context.Background(), "my-promo_1")

	require.NoError(t, err)
	assert.Equal(t, "my-promo_1", code)
}

func TestAllocator_Allocate_CustomAlias_InvalidPattern(t *testing.T) {
	tests := []struct {
		name  string
		alias string
	}{
		{"too short", "ab"},
		{"too long", "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"},
		{"spaces", "my promo"},
		{"slash", "a/b/c"},
		{"unicode", "pромо"},
	}

	allocator := NewAllocator(&fakeChecker{taken: map[string]bool{}})

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := allocator.Allocate(context.Background(), tt.alias)
			require.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestAllocator_Allocate_CustomAlias_Taken(t *testing.T) {
	allocator := NewAllocator(&fakeChecker{taken: map[string]bool{"promo": true}})

	_, err := allocator.Allocate(context.Background(), "promo")

	require.ErrorIs(t, err, domain.ErrAliasConflict)
}

func TestAllocator_Allocate_CustomAlias_CaseSensitive(t *testing.T) {
	allocator := NewAllocator(&fakeChecker{taken: map[string]bool{"promo": true}})

	code, err := allocator.Allocate(context.Background(), "PROMO")

	require.NoError(t, err)
	assert.Equal(t, "PROMO", code)
}

func TestAllocator_Allocate_RetriesExhausted(t *testing.T) {
	allocator := NewAllocator(&fakeChecker{fail: true})

	_, err := allocator.Allocate(context.Background(), "")

	require.ErrorIs(t, err, domain.ErrCodeExhausted)
}

func TestAllocator_Allocate_ContextCancelled(t *testing.T) {
	allocator := NewAllocator(&fakeChecker{fail: true})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := allocator.Allocate(ctx, "")

	require.ErrorIs(t, err, context.Canceled)
}
