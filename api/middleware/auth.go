package middleware

import (
	"net/http"
	"strings"

	"github.com/agrisoko/farmhub-backend/api/responses"
	pkgauth "github.com/agrisoko/farmhub-backend/pkg/auth"
	"github.com/agrisoko/farmhub-backend/pkg/config"
	pkgerrors "github.com/agrisoko/farmhub-backend/pkg/errors"
	"github.com/agrisoko/farmhub-backend/pkg/logger"
)

// Auth validates a bearer token and seeds the request context with the
// authenticated principal. Clerk tokens carry the managed hub id.
func Auth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			if raw == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			token := raw
			if strings.HasPrefix(strings.ToLower(token), "bearer ") {
				token = strings.TrimSpace(token[7:])
			}
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgauth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			ctx := WithUserID(r.Context(), claims.UserID.String())
			ctx = WithRole(ctx, string(claims.Role))
			if claims.HubID != nil {
				ctx = WithHubID(ctx, claims.HubID.String())
			}

			if logg != nil {
				fields := map[string]any{
					"user_id":    claims.UserID.String(),
					"actor_role": string(claims.Role),
				}
				if claims.HubID != nil {
					fields["hub_id"] = claims.HubID.String()
				}
				ctx = logg.WithFields(ctx, fields)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
