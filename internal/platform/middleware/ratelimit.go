package middleware

import (
	"fmt"
	"net/http"

	libredis "github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"

	"github.com/RaidenIV/dj-database/internal/platform/logging"
	"github.com/RaidenIV/dj-database/internal/platform/respond"
)

const rateLimitPrefix = "djdb:ratelimit"

// NewLimiter builds a per-client-IP limiter for a ulule formatted rate such
// as "120-M". With a non-empty redisURL counters are shared through Redis;
// otherwise they live in process memory. The returned close func releases
// the Redis client and is never nil.
func NewLimiter(rate, redisURL string) (*limiter.Limiter, func() error, error) {
	r, err := limiter.NewRateFromFormatted(rate)
	if err != nil {
		return nil, nil, fmt.Errorf("parse rate %q: %w", rate, err)
	}

	if redisURL == "" {
		store := memory.NewStoreWithOptions(limiter.StoreOptions{Prefix: rateLimitPrefix})
		return limiter.New(store, r), func() error { return nil }, nil
	}

	opts, err := libredis.ParseURL(redisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := libredis.NewClient(opts)
	store, err := sredis.NewStoreWithOptions(client, limiter.StoreOptions{Prefix: rateLimitPrefix})
	if err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("redis rate limit store: %w", err)
	}
	return limiter.New(store, r), client.Close, nil
}

// RateLimit rejects clients over the limit with a 429 problem. A failing
// limiter store lets the request through rather than taking the API down.
func RateLimit(l *limiter.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		mw := stdlib.NewMiddleware(l,
			stdlib.WithLimitReachedHandler(func(w http.ResponseWriter, r *http.Request) {
				respond.WriteProblem(w, r, http.StatusTooManyRequests, "too many requests, try again later")
			}),
			stdlib.WithErrorHandler(func(w http.ResponseWriter, r *http.Request, err error) {
				logging.LogError(r.Context(), "rate limiter unavailable", err)
				next.ServeHTTP(w, r)
			}),
		)
		return mw.Handler(next)
	}
}
