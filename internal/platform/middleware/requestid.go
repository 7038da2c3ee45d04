package middleware

import (
	"context"
	"net/http"
	"strings"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

const maxRequestIDLength = 128

// CorrelationIDHeader is accepted in place of X-Request-Id, as sent by
// upload scripts and proxies that tag a batch of requests.
const CorrelationIDHeader = "X-Correlation-Id"

// isValidRequestID accepts printable ASCII only.
func isValidRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLength {
		return false
	}
	return strings.IndexFunc(id, func(c rune) bool { return c < 0x20 || c > 0x7E }) < 0
}

// incomingRequestID returns the first valid ID among X-Request-Id and
// X-Correlation-Id.
func incomingRequestID(r *http.Request) (string, bool) {
	for _, name := range []string{chimiddleware.RequestIDHeader, CorrelationIDHeader} {
		if id := r.Header.Get(name); isValidRequestID(id) {
			return id, true
		}
	}
	return "", false
}

// RequestID reuses a valid incoming ID or generates a UUIDv4. The value is
// stored under chi's request ID key and echoed as X-Request-Id.
func RequestID() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID, ok := incomingRequestID(r)
			if !ok {
				reqID = uuid.NewString()
			}
			w.Header().Set(chimiddleware.RequestIDHeader, reqID)
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), chimiddleware.RequestIDKey, reqID)))
		})
	}
}
