// Package respond writes RFC 9457 problem details for responses produced
// outside huma operations: router fallbacks, panics and middleware rejections.
package respond

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"strconv"
	"strings"

	"github.com/fxamacker/cbor/v2"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/RaidenIV/dj-database/internal/platform/logging"
)

const (
	contentTypeProblemJSON = "application/problem+json"
	contentTypeProblemCBOR = "application/problem+cbor"

	msgNotFound         = "resource not found"
	msgMethodNotAllowed = "method not allowed"
	msgInternal         = "internal server error"
)

// problem mirrors huma.ErrorModel with the $schema link huma adds to its own
// error bodies.
type problem struct {
	Schema string `json:"$schema,omitempty" cbor:"$schema,omitempty"`
	Title  string `json:"title,omitempty"   cbor:"title,omitempty"`
	Status int    `json:"status,omitempty"  cbor:"status,omitempty"`
	Detail string `json:"detail,omitempty"  cbor:"detail,omitempty"`
}

// WriteProblem renders a problem details body, as CBOR when the client
// prefers it and JSON otherwise.
func WriteProblem(w http.ResponseWriter, r *http.Request, status int, detail string) {
	schema := schemaURL(r)
	body := problem{
		Schema: schema,
		Title:  http.StatusText(status),
		Status: status,
		Detail: detail,
	}

	h := w.Header()
	h.Set("Link", "<"+schema+">; rel=\"describedBy\"")
	ensureVary(h, "Accept")

	var (
		payload []byte
		err     error
	)
	if selectFormat(r.Header.Get("Accept")) {
		h.Set("Content-Type", contentTypeProblemCBOR)
		payload, err = cbor.Marshal(body)
	} else {
		h.Set("Content-Type", contentTypeProblemJSON)
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		err = enc.Encode(body)
		payload = buf.Bytes()
	}
	if err != nil {
		logging.LogError(r.Context(), "failed to encode problem", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.WriteHeader(status)
	_, _ = w.Write(payload)
}

// NotFoundHandler emits a problem details 404 response.
func NotFoundHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteProblem(w, r, http.StatusNotFound, msgNotFound)
	}
}

// MethodNotAllowedHandler emits a problem details 405 response with an Allow header.
func MethodNotAllowedHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if allow := allowedMethods(r); len(allow) > 0 {
			w.Header().Set("Allow", strings.Join(allow, ", "))
		}
		WriteProblem(w, r, http.StatusMethodNotAllowed, msgMethodNotAllowed)
	}
}

type responseWriter struct {
	http.ResponseWriter
	wroteHeader bool
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.wroteHeader = true
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	return rw.ResponseWriter.Write(b)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// Recoverer converts panics into 500 problem responses. http.ErrAbortHandler
// is re-panicked so net/http can abort the connection.
func Recoverer() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rw := &responseWriter{ResponseWriter: w}
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(rec)
				}
				logging.LogError(r.Context(), "panic recovered", fmt.Errorf("%v", rec),
					zap.ByteString("stack", debug.Stack()))
				if rw.wroteHeader {
					return
				}
				WriteProblem(rw, r, http.StatusInternalServerError, msgInternal)
			}()
			next.ServeHTTP(rw, r)
		})
	}
}

func schemaURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https") {
		scheme = "https"
	}
	return scheme + "://" + r.Host + "/schemas/ErrorModel.json"
}

func ensureVary(h http.Header, values ...string) {
	existing := map[string]struct{}{}
	for _, line := range h.Values("Vary") {
		for part := range strings.SplitSeq(line, ",") {
			existing[strings.ToLower(strings.TrimSpace(part))] = struct{}{}
		}
	}
	for _, v := range values {
		key := strings.ToLower(v)
		if _, ok := existing[key]; ok || v == "" {
			continue
		}
		existing[key] = struct{}{}
		h.Add("Vary", v)
	}
}

type mediaRange struct {
	typ     string
	subtype string
	q       float64
}

func parseAccept(header string) []mediaRange {
	var ranges []mediaRange
	for part := range strings.SplitSeq(header, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		params := strings.Split(part, ";")
		mr := mediaRange{q: 1.0}
		typ, sub, ok := strings.Cut(strings.ToLower(strings.TrimSpace(params[0])), "/")
		if !ok {
			sub = "*"
		}
		mr.typ, mr.subtype = typ, sub
		for _, p := range params[1:] {
			k, v, _ := strings.Cut(strings.TrimSpace(p), "=")
			if strings.TrimSpace(k) != "q" {
				continue
			}
			if q, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil && q >= 0 && q <= 1 {
				mr.q = q
			}
		}
		ranges = append(ranges, mr)
	}
	return ranges
}

// selectFormat reports whether CBOR should be used. JSON wins ties and
// wildcards.
func selectFormat(accept string) bool {
	var jsonQ, cborQ float64
	for _, mr := range parseAccept(accept) {
		if mr.typ != "application" && mr.typ != "*" {
			continue
		}
		switch {
		case mr.subtype == "cbor" || strings.HasSuffix(mr.subtype, "+cbor"):
			cborQ = max(cborQ, mr.q)
		case mr.subtype == "json" || strings.HasSuffix(mr.subtype, "+json"):
			jsonQ = max(jsonQ, mr.q)
		}
	}
	return cborQ > 0 && cborQ > jsonQ
}

// allowedMethods inspects chi's routing context to discover allowed methods.
func allowedMethods(r *http.Request) []string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil || rctx.Routes == nil {
		return nil
	}

	routePath := rctx.RoutePath
	if routePath == "" {
		routePath = r.URL.RawPath
		if routePath == "" {
			routePath = r.URL.Path
		}
		if routePath == "" {
			routePath = "/"
		}
	}

	methods := []string{
		http.MethodGet,
		http.MethodHead,
		http.MethodPost,
		http.MethodPut,
		http.MethodPatch,
		http.MethodDelete,
		http.MethodOptions,
	}
	allowed := make([]string, 0, len(methods))
	for _, method := range methods {
		if rctx.Routes.Match(chi.NewRouteContext(), method, routePath) {
			allowed = append(allowed, method)
		}
	}
	return allowed
}
