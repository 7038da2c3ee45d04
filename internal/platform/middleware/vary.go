package middleware

import (
	"net/http"
	"strings"
)

// Vary adds values to the Vary header, skipping any already listed. The
// server passes Accept because responses switch between JSON and CBOR on it.
func Vary(values ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			addVary(w.Header(), values...)
			next.ServeHTTP(w, r)
		})
	}
}

func addVary(h http.Header, values ...string) {
	present := map[string]bool{}
	for _, line := range h.Values("Vary") {
		for v := range strings.SplitSeq(line, ",") {
			present[strings.ToLower(strings.TrimSpace(v))] = true
		}
	}
	for _, v := range values {
		if key := strings.ToLower(v); !present[key] {
			present[key] = true
			h.Add("Vary", v)
		}
	}
}
