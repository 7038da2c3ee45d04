package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	applog "github.com/RaidenIV/dj-database/internal/platform/logging"
)

// Store states reported by the health endpoint.
const (
	StateConnected    = "connected"
	StateDisconnected = "disconnected"
)

const pingTimeout = 2 * time.Second

// Pinger checks the backing store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Response is the payload for the health endpoint.
type Response struct {
	OK         bool   `json:"ok"`
	StoreState string `json:"storeState"`
}

// Handler reports liveness plus the store connection state. It answers 200
// even when the store is down.
func Handler(store Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
		defer cancel()

		state := StateConnected
		if err := store.Ping(ctx); err != nil {
			applog.LogWarn(r.Context(), "health check: store ping failed", zap.Error(err))
			state = StateDisconnected
		}

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")
		_ = json.NewEncoder(w).Encode(Response{OK: true, StoreState: state})
	}
}
