package domain

import "errors"

var (
	// ErrNotFound covers unknown short codes, unknown link ids, and links
	// owned by someone else. Callers must not be able to tell those apart.
	ErrNotFound = errors.New("link not found")

	// ErrInvalidInput marks user-correctable validation failures.
	ErrInvalidInput = errors.New("invalid input")

	// ErrAliasConflict is returned when a short code or custom alias is
	// already held by an active link.
	ErrAliasConflict = errors.New("alias already taken")

	// ErrCodeExhausted is returned when the allocator runs out of retries.
	ErrCodeExhausted = errors.New("short code generation failed after max retries")
)
