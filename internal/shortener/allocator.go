package shortener

import (
	"context"
	"fmt"
	"regexp"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/vivek-vibhuti/linkshrink/internal/domain"
)

const (
	// NanoID alphabet: URL-safe (a-z, A-Z, 0-9, hyphen, underscore), case-sensitive
	codeAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789-_"
	codeLength   = 8
	maxAttempts  = 5
)

var aliasPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{3,50}$`)

// CodeChecker answers whether a short code is already held by an active link.
type CodeChecker interface {
	ActiveCodeExists(ctx context.Context, code string) (bool, error)
}

// Allocator produces collision-checked short codes and validates custom
// aliases. Allocation only reserves a code conceptually: the storage layer's
// unique constraint is the real guarantee, and callers must treat a conflict
// at persistence time as a retryable allocation failure.
type Allocator struct {
	checker CodeChecker
}

// NewAllocator creates a new Allocator.
func NewAllocator(checker CodeChecker) *Allocator {
	return &Allocator{checker: checker}
}

// Allocate returns a short code for the link being created. With a custom
// alias it validates the pattern and checks availability; otherwise it
// generates random codes until one is free or the attempt budget runs out.
func (a *Allocator) Allocate(ctx context.Context, customAlias string) (string, error) {
	if customAlias != "" {
		if !aliasPattern.MatchString(customAlias) {
			return "", fmt.Errorf("%w: alias must be 3-50 letters, digits, hyphens or underscores", domain.ErrInvalidInput)
		}
		taken, err := a.checker.ActiveCodeExists(ctx, customAlias)
		if err != nil {
			return "", err
		}
		if taken {
			return "", fmt.Errorf("%w: %q", domain.ErrAliasConflict, customAlias)
		}
		return customAlias, nil
	}

	// Collisions at this length are vanishingly rare, but the retry loop
	// must exist for correctness.
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		code, err := gonanoid.Generate(codeAlphabet, codeLength)
		if err != nil {
			return "", fmt.Errorf("failed to generate short code: %w", err)
		}

		taken, err := a.checker.ActiveCodeExists(ctx, code)
		if err != nil {
			return "", err
		}
		if !taken {
			return code, nil
		}
	}

	return "", domain.ErrCodeExhausted
}
