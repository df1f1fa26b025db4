// Package problemdetails implements RFC 7807 error response bodies.
package problemdetails

// Problem type slugs, resolved against baseURI.
const (
	TypeValidationError   = "validation-error"
	TypeConflict          = "alias-conflict"
	TypeNotFound          = "not-found"
	TypeUnauthorized      = "unauthorized"
	TypeRateLimitExceeded = "rate-limit-exceeded"
	TypeInternalError     = "internal-error"
)

const baseURI = "https://api.linkshrink.dev/problems/"

// ProblemDetail is the application/problem+json response body.
type ProblemDetail struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail"`
}

// New builds a problem detail for the given status and type slug.
func New(status int, problemType, title, detail string) *ProblemDetail {
	return &ProblemDetail{
		Type:   baseURI + problemType,
		Title:  title,
		Status: status,
		Detail: detail,
	}
}
