package middleware

import (
	"net/http"
	"slices"

	"github.com/go-chi/cors"
)

// CORSPolicy decides which browser origins may call the API.
type CORSPolicy struct {
	// AllowedOrigins lists exact origins. Empty allows every origin.
	AllowedOrigins []string
	// AllowNullOrigin admits "Origin: null" (file:// pages, sandboxed
	// frames) in production. Outside production it is always admitted.
	AllowNullOrigin bool
	Production      bool
}

// Allows reports whether origin passes the policy. Requests without an
// Origin header never reach this check.
func (p CORSPolicy) Allows(origin string) bool {
	if origin == "null" {
		return p.AllowNullOrigin || !p.Production
	}
	if len(p.AllowedOrigins) == 0 {
		return true
	}
	return slices.Contains(p.AllowedOrigins, origin)
}

// CORS returns the go-chi/cors handler for policy.
func CORS(policy CORSPolicy) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowOriginFunc: func(_ *http.Request, origin string) bool {
			return policy.Allows(origin)
		},
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodHead,
			http.MethodPost,
			http.MethodPut,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders: []string{
			"Accept",
			"Authorization",
			"Content-Type",
			"X-Admin-Token",
			"X-Request-Id",
		},
		ExposedHeaders: []string{
			"Content-Disposition",
			"Location",
			"X-Request-Id",
			"X-RateLimit-Limit",
			"X-RateLimit-Remaining",
			"X-RateLimit-Reset",
		},
		MaxAge: 300,
	})
}
