package auth

import (
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"go.uber.org/zap"

	applog "github.com/RaidenIV/dj-database/internal/platform/logging"
)

// NewAuthMiddleware creates huma middleware enforcing the admin token on
// operations that declare a Security requirement. With no token configured
// every operation is open.
func NewAuthMiddleware(api huma.API, verifier *TokenVerifier) func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		if len(ctx.Operation().Security) == 0 || !verifier.Enabled() {
			next(ctx)
			return
		}

		token, err := ExtractToken(ctx.Header("Authorization"), ctx.Header(AdminTokenHeader))
		if err == nil {
			err = verifier.Verify(token)
		}
		if err != nil {
			applog.LogWarn(ctx.Context(), "auth failed",
				zap.String("reason", categorizeAuthError(err)),
				zap.String("operation", ctx.Operation().OperationID))
			ctx.SetHeader("WWW-Authenticate", "Bearer")
			_ = huma.WriteErr(api, ctx, http.StatusUnauthorized, "unauthorized")
			return
		}
		next(ctx)
	}
}

// categorizeAuthError returns a safe category string for logging.
func categorizeAuthError(err error) string {
	switch {
	case errors.Is(err, ErrMissingToken):
		return "no_token"
	case errors.Is(err, ErrInvalidToken):
		return "invalid_token"
	default:
		return "unknown"
	}
}

// Security is the requirement list protected operations declare.
func Security() []map[string][]string {
	return []map[string][]string{{SchemeName: {}}}
}
