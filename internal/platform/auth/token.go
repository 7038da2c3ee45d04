package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"strings"
)

// SchemeName is the OpenAPI security scheme protected operations reference.
const SchemeName = "adminToken"

// AdminTokenHeader is the alternative header for clients that cannot set
// Authorization.
const AdminTokenHeader = "X-Admin-Token"

var (
	ErrMissingToken = errors.New("missing admin token")
	ErrInvalidToken = errors.New("invalid admin token")
)

// ExtractToken returns the credential from an "Authorization: Bearer" value,
// falling back to the X-Admin-Token value.
func ExtractToken(authorization, adminToken string) (string, error) {
	if scheme, token, ok := strings.Cut(strings.TrimSpace(authorization), " "); ok &&
		strings.EqualFold(scheme, "Bearer") {
		if token = strings.TrimSpace(token); token != "" {
			return token, nil
		}
	}
	if token := strings.TrimSpace(adminToken); token != "" {
		return token, nil
	}
	return "", ErrMissingToken
}

// TokenVerifier checks credentials against the single shared admin token.
type TokenVerifier struct {
	digest  [sha256.Size]byte
	enabled bool
}

// NewTokenVerifier returns a verifier for token. An empty token disables
// authentication entirely.
func NewTokenVerifier(token string) *TokenVerifier {
	if token == "" {
		return &TokenVerifier{}
	}
	return &TokenVerifier{digest: sha256.Sum256([]byte(token)), enabled: true}
}

// Enabled reports whether a token is configured.
func (v *TokenVerifier) Enabled() bool {
	return v != nil && v.enabled
}

// Verify compares token in constant time. Both sides are hashed first so
// the comparison does not leak the configured token's length.
func (v *TokenVerifier) Verify(token string) error {
	if !v.Enabled() {
		return nil
	}
	if token == "" {
		return ErrMissingToken
	}
	got := sha256.Sum256([]byte(token))
	if subtle.ConstantTimeCompare(got[:], v.digest[:]) != 1 {
		return ErrInvalidToken
	}
	return nil
}
