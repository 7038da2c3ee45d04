package routes

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	_ "github.com/danielgtaylor/huma/v2/formats/cbor"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/RaidenIV/dj-database/internal/platform/auth"
	applog "github.com/RaidenIV/dj-database/internal/platform/logging"
	appmiddleware "github.com/RaidenIV/dj-database/internal/platform/middleware"
	"github.com/RaidenIV/dj-database/internal/platform/respond"
	recordsvc "github.com/RaidenIV/dj-database/internal/service/record"
)

func newTestRouter(token string, cfg huma.Config) (chi.Router, huma.API) {
	router := chi.NewRouter()
	router.Use(
		appmiddleware.RequestID(),
		chimiddleware.RealIP,
		applog.RequestLogger(),
		respond.Recoverer(),
	)
	api := humachi.New(router, cfg)
	svc := recordsvc.NewService(recordsvc.NewMemoryStore())
	Register(api, Deps{
		Verifier: auth.NewTokenVerifier(token),
		Records:  svc,
		Importer: recordsvc.NewImporter(svc, nil),
	})
	return router, api
}

func TestRegisterRoutesRecords(t *testing.T) {
	router, _ := newTestRouter("token", huma.DefaultConfig("RoutesTest", "test"))

	req := httptest.NewRequest(http.MethodGet, "/api/records", nil)
	req.Header.Set(chimiddleware.RequestIDHeader, "routes-records")
	req.Header.Set("Authorization", "Bearer token")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
}

func TestRegisterRoutesAuthApplied(t *testing.T) {
	router, _ := newTestRouter("token", huma.DefaultConfig("RoutesTest", "test"))

	req := httptest.NewRequest(http.MethodGet, "/api/records/stats", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
}

func TestRegisterSecurityScheme(t *testing.T) {
	_, api := newTestRouter("", huma.DefaultConfig("RoutesTest", "test"))

	scheme := api.OpenAPI().Components.SecuritySchemes[auth.SchemeName]
	if scheme == nil {
		t.Fatal("expected admin token security scheme")
	}
	if scheme.Type != "http" || scheme.Scheme != "bearer" {
		t.Errorf("unexpected scheme %+v", scheme)
	}
}

func TestLocationUsesServerPrefix(t *testing.T) {
	cfg := huma.DefaultConfig("RoutesTest", "test")
	cfg.Servers = []*huma.Server{{URL: "https://djdb.example.com/v1"}}
	router, _ := newTestRouter("", cfg)

	body := `{"stageName":"A","fullName":"B","age":"30","email":"a@example.com"}`
	req := httptest.NewRequest(http.MethodPost, "/api/records", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.Code, resp.Body.String())
	}
	if loc := resp.Header().Get("Location"); !strings.HasPrefix(loc, "/v1/api/records/") {
		t.Errorf("unexpected Location %q", loc)
	}
}
