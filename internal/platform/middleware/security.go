package middleware

import (
	"net/http"
	"strings"
)

const hstsValue = "max-age=31536000; includeSubDomains"

// securityHeaders are set on every API response. Record data is personal,
// so nothing is cacheable and nothing may be framed.
var securityHeaders = [][2]string{
	{"Cache-Control", "no-store"},
	{"Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'"},
	{"Cross-Origin-Opener-Policy", "same-origin"},
	{"Cross-Origin-Resource-Policy", "same-origin"},
	{"Permissions-Policy", "camera=(), geolocation=(), microphone=(), payment=(), usb=()"},
	{"Referrer-Policy", "strict-origin-when-cross-origin"},
	{"X-Content-Type-Options", "nosniff"},
	{"X-Frame-Options", "DENY"},
}

// SecurityOptions configures Security.
type SecurityOptions struct {
	// DocsPath is the API docs UI. It loads scripts and styles, so it only
	// gets nosniff.
	DocsPath string
	// Production adds Strict-Transport-Security.
	Production bool
}

// Security returns middleware that sets security headers on all responses.
func Security(opts SecurityOptions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			if opts.Production {
				h.Set("Strict-Transport-Security", hstsValue)
			}
			if isDocsPath(r.URL.Path, opts.DocsPath) {
				h.Set("X-Content-Type-Options", "nosniff")
				next.ServeHTTP(w, r)
				return
			}
			for _, kv := range securityHeaders {
				h.Set(kv[0], kv[1])
			}
			next.ServeHTTP(w, r)
		})
	}
}

func isDocsPath(path, docsPath string) bool {
	if docsPath == "" {
		return false
	}
	return path == docsPath || strings.HasPrefix(path, strings.TrimSuffix(docsPath, "/")+"/")
}
