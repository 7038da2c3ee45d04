package routes

import (
	"net/url"

	"github.com/danielgtaylor/huma/v2"

	"github.com/RaidenIV/dj-database/internal/http/v1/records"
	"github.com/RaidenIV/dj-database/internal/platform/auth"
	recordsvc "github.com/RaidenIV/dj-database/internal/service/record"
)

// Deps carries what the API routes need.
type Deps struct {
	Verifier          *auth.TokenVerifier
	Records           *recordsvc.Service
	Importer          *recordsvc.Importer
	PublicSubmissions bool
	MaxUploadBytes    int64
}

// Register wires all HTTP routes into the provided API router.
func Register(api huma.API, deps Deps) {
	registerSecurityScheme(api.OpenAPI())

	// Apply auth middleware for protected endpoints
	api.UseMiddleware(auth.NewAuthMiddleware(api, deps.Verifier))

	records.Register(api, deps.Records, deps.Importer, records.Options{
		Prefix:            apiPrefix(api),
		PublicSubmissions: deps.PublicSubmissions,
		MaxUploadBytes:    deps.MaxUploadBytes,
	})
}

func registerSecurityScheme(oapi *huma.OpenAPI) {
	if oapi.Components == nil {
		oapi.Components = &huma.Components{}
	}
	if oapi.Components.SecuritySchemes == nil {
		oapi.Components.SecuritySchemes = map[string]*huma.SecurityScheme{}
	}
	oapi.Components.SecuritySchemes[auth.SchemeName] = &huma.SecurityScheme{
		Type:        "http",
		Scheme:      "bearer",
		Description: "Admin token, sent as a bearer token or in the " + auth.AdminTokenHeader + " header.",
	}
}

func apiPrefix(api huma.API) string {
	for _, s := range api.OpenAPI().Servers {
		if u, err := url.Parse(s.URL); err == nil && u.Path != "" {
			return u.Path
		}
	}
	return ""
}
