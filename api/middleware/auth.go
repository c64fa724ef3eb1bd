package middleware

import (
	"net/http"
	"strings"

	"github.com/inkwellbooks/inkwell-backend/api/responses"
	pkgauth "github.com/inkwellbooks/inkwell-backend/pkg/auth"
	"github.com/inkwellbooks/inkwell-backend/pkg/config"
	pkgerrors "github.com/inkwellbooks/inkwell-backend/pkg/errors"
	"github.com/inkwellbooks/inkwell-backend/pkg/logger"
)

// Auth validates a bearer token and seeds the request context with the
// customer identity. Identity is issued by the external auth collaborator;
// this service only verifies the signature.
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

			ctx := WithCustomerID(r.Context(), claims.CustomerID)
			ctx = WithEmail(ctx, claims.Email)

			if logg != nil {
				ctx = logg.WithCustomerID(ctx, claims.CustomerID.String())
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
