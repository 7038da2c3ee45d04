package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	_ "github.com/danielgtaylor/huma/v2/formats/cbor"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/ulule/limiter/v3"
	"go.uber.org/zap"

	"github.com/RaidenIV/dj-database/internal/http/health"
	"github.com/RaidenIV/dj-database/internal/http/v1/routes"
	"github.com/RaidenIV/dj-database/internal/platform/auth"
	"github.com/RaidenIV/dj-database/internal/platform/config"
	"github.com/RaidenIV/dj-database/internal/platform/firebase"
	applog "github.com/RaidenIV/dj-database/internal/platform/logging"
	"github.com/RaidenIV/dj-database/internal/platform/metrics"
	appmiddleware "github.com/RaidenIV/dj-database/internal/platform/middleware"
	"github.com/RaidenIV/dj-database/internal/platform/respond"
	"github.com/RaidenIV/dj-database/internal/service/record"
)

// Version can be overridden at build time: -ldflags "-X main.Version=1.2.3"
var Version = "dev"

// jsonBodyLimit caps non-upload request bodies.
const jsonBodyLimit = 1 << 20

func main() {
	if err := run(); err != nil {
		applog.LogError(context.Background(), "server failed", err)
		_ = applog.Sync()
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	applog.Configure(applog.Options{Level: cfg.LogLevel, ProjectID: cfg.FirebaseProjectID})
	defer func() {
		if err := applog.Sync(); err != nil {
			applog.LogError(context.Background(), "logger sync error", err)
		}
	}()
	if err := applog.Err(); err != nil {
		applog.LogError(context.Background(), "logger init error", err)
	}

	ctx := context.Background()
	if !cfg.AuthEnabled() {
		applog.LogWarn(ctx, "ADMIN_TOKEN is not set: every endpoint is open")
	}

	store, err := record.Connect(ctx, opener(cfg), cfg.StoreConnectTimeout)
	if err != nil {
		return fmt.Errorf("connect %s store: %w", cfg.StoreDriver, err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.Close(closeCtx); err != nil {
			applog.LogError(closeCtx, "store close error", err)
		}
	}()
	applog.LogInfo(ctx, "store connected", zap.String("driver", cfg.StoreDriver))

	rl, closeLimiter, err := appmiddleware.NewLimiter(cfg.RateLimit, cfg.RedisURL)
	if err != nil {
		return err
	}
	defer func() { _ = closeLimiter() }()

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           newRouter(cfg, store, metrics.New(), rl),
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    64 << 10, // 64 KB
	}

	listenErr := make(chan error, 1)
	go func() {
		applog.LogInfo(ctx, "server listening", zap.String("addr", srv.Addr), zap.String("version", Version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			listenErr <- err
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-listenErr:
		return fmt.Errorf("listen on %s: %w", srv.Addr, err)
	case <-stop:
		applog.LogInfo(ctx, "shutdown signal received")
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		applog.LogError(shutdownCtx, "server shutdown error", err)
	}
	applog.LogInfo(ctx, "server exited")
	return nil
}

// opener returns the constructor for the configured store driver.
func opener(cfg config.Config) record.Opener {
	switch cfg.StoreDriver {
	case config.DriverFirestore:
		return func(ctx context.Context) (record.Store, error) {
			clients, err := firebase.InitializeClients(ctx, firebase.Config{
				ProjectID:                    cfg.FirebaseProjectID,
				GoogleApplicationCredentials: cfg.GoogleCredentials,
			})
			if err != nil {
				return nil, err
			}
			return record.NewFirestoreStore(clients.Firestore), nil
		}
	case config.DriverMongo:
		return func(ctx context.Context) (record.Store, error) {
			return record.NewMongoStore(ctx, cfg.MongoURI, cfg.DBName)
		}
	case config.DriverPostgres:
		return func(ctx context.Context) (record.Store, error) {
			return record.NewPostgresStore(ctx, cfg.DatabaseURL)
		}
	default:
		return func(context.Context) (record.Store, error) {
			return record.NewMemoryStore(), nil
		}
	}
}

// newRouter assembles the middleware stack, the API and the plain routes.
func newRouter(cfg config.Config, store record.Store, m *metrics.Metrics, rl *limiter.Limiter) http.Handler {
	humaCfg := huma.DefaultConfig("DJ Database API", Version)
	humaCfg.DocsPath = "/api-docs"

	router := chi.NewRouter()
	router.NotFound(respond.NotFoundHandler())
	router.MethodNotAllowed(respond.MethodNotAllowedHandler())

	// Base middleware stack
	router.Use(
		appmiddleware.RequestID(),
		// RealIP extracts client IP from X-Real-IP or X-Forwarded-For headers.
		// SECURITY: Only use behind a trusted reverse proxy (e.g., Cloud Run, nginx).
		// Without a trusted proxy, clients can spoof their IP address.
		chimiddleware.RealIP,
		applog.RequestLogger(),
		applog.AccessLogger(),
		respond.Recoverer(),
		appmiddleware.Security(appmiddleware.SecurityOptions{
			DocsPath:   humaCfg.DocsPath,
			Production: cfg.IsProduction(),
		}),
		appmiddleware.Vary("Accept"),
		appmiddleware.CORS(appmiddleware.CORSPolicy{
			AllowedOrigins:  cfg.AllowedOrigins,
			AllowNullOrigin: cfg.AllowNullOrigin,
			Production:      cfg.IsProduction(),
		}),
		m.Middleware,
		appmiddleware.RateLimit(rl),
		bodyLimit(cfg.MaxUploadBytes),
	)

	router.Get("/health", health.Handler(store))
	router.Handle("/metrics", m.Handler())

	api := humachi.New(router, humaCfg)

	addCBORContent(api)

	svc := record.NewService(store)
	routes.Register(api, routes.Deps{
		Verifier:          auth.NewTokenVerifier(cfg.AdminToken),
		Records:           svc,
		Importer:          record.NewImporter(svc, m),
		PublicSubmissions: cfg.PublicSubmissions,
		MaxUploadBytes:    cfg.MaxUploadBytes,
	})
	return router
}

// addCBORContent documents application/cbor next to every JSON request and
// response body.
func addCBORContent(api huma.API) {
	api.OpenAPI().OnAddOperation = append(api.OpenAPI().OnAddOperation,
		func(_ *huma.OpenAPI, op *huma.Operation) {
			if op.RequestBody != nil && op.RequestBody.Content != nil {
				if jsonContent, ok := op.RequestBody.Content["application/json"]; ok {
					op.RequestBody.Content["application/cbor"] = jsonContent
				}
			}
			for _, resp := range op.Responses {
				if resp.Content == nil {
					continue
				}
				if jsonContent, ok := resp.Content["application/json"]; ok {
					resp.Content["application/cbor"] = jsonContent
				}
			}
		},
	)
}

// bodyLimit applies chi's RequestSize with the upload cap on multipart
// requests and a 1 MB cap on everything else.
func bodyLimit(maxUpload int64) func(http.Handler) http.Handler {
	small := chimiddleware.RequestSize(jsonBodyLimit)
	large := chimiddleware.RequestSize(maxUpload)
	return func(next http.Handler) http.Handler {
		smallNext, largeNext := small(next), large(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isMultipart(r) {
				largeNext.ServeHTTP(w, r)
				return
			}
			smallNext.ServeHTTP(w, r)
		})
	}
}

func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/")
}
