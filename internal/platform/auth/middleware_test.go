package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	humachi "github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
)

type testOutput struct {
	Body struct {
		Secret string `json:"secret"`
	}
}

func setupTestAPI(verifier *TokenVerifier, requireAuth bool) *chi.Mux {
	router := chi.NewRouter()
	api := humachi.New(router, huma.DefaultConfig("Test", "1.0.0"))
	api.UseMiddleware(NewAuthMiddleware(api, verifier))

	var security []map[string][]string
	if requireAuth {
		security = Security()
	}
	huma.Register(api, huma.Operation{
		OperationID: "test-endpoint",
		Method:      http.MethodGet,
		Path:        "/test",
		Security:    security,
	}, func(ctx context.Context, _ *struct{}) (*testOutput, error) {
		out := &testOutput{}
		out.Body.Secret = "record data"
		return out, nil
	})
	return router
}

func TestMiddlewareSkipsUnsecuredEndpoints(t *testing.T) {
	router := setupTestAPI(NewTokenVerifier("s3cret"), false)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/test", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for unsecured endpoint, got %d", rec.Code)
	}
}

func TestMiddlewareOpenWhenNoTokenConfigured(t *testing.T) {
	router := setupTestAPI(NewTokenVerifier(""), true)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/test", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 without configured token, got %d", rec.Code)
	}
}

func TestMiddlewareRejectsMissingToken(t *testing.T) {
	router := setupTestAPI(NewTokenVerifier("s3cret"), true)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/test", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if got := rec.Header().Get("WWW-Authenticate"); got != "Bearer" {
		t.Fatalf("expected WWW-Authenticate Bearer, got %q", got)
	}
	if body := rec.Body.String(); strings.Contains(body, "record data") {
		t.Fatalf("response leaked protected data: %s", body)
	}
}

func TestMiddlewareRejectsWrongToken(t *testing.T) {
	router := setupTestAPI(NewTokenVerifier("s3cret"), true)

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "Bearer nope")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestMiddlewareAcceptsBearerAndHeader(t *testing.T) {
	router := setupTestAPI(NewTokenVerifier("s3cret"), true)

	for _, set := range []func(*http.Request){
		func(r *http.Request) { r.Header.Set("Authorization", "Bearer s3cret") },
		func(r *http.Request) { r.Header.Set(AdminTokenHeader, "s3cret") },
	} {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		set(req)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
	}
}
