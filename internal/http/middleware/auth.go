// Package middleware implements the request authorization pipeline: every
// privileged route passes RequireIdentity, optionally followed by
// RequireRole. Each step writes its failure response and returns
// immediately; nothing downstream runs after a failed step.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/apporbit/apporbit-server/internal/domain"
	"github.com/apporbit/apporbit-server/internal/http/response"
	"github.com/apporbit/apporbit-server/internal/platform/identity"
	"github.com/apporbit/apporbit-server/pkg/logger"
)

type ctxKey string

const ctxIdentity ctxKey = "identity"

// UserSource resolves the stored user record for a verified email.
type UserSource interface {
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
}

// RequireIdentity verifies the bearer credential. A missing or unparseable
// credential is Unauthorized; a credential the provider rejects is
// Forbidden.
func RequireIdentity(verifier identity.Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authz := r.Header.Get("Authorization")
			if !strings.HasPrefix(authz, "Bearer ") {
				response.Unauthorized(w, "missing authorization header")
				return
			}
			raw := strings.TrimPrefix(authz, "Bearer ")
			if raw == "" {
				response.Unauthorized(w, "missing bearer token")
				return
			}

			id, err := verifier.Verify(r.Context(), raw)
			if err != nil {
				response.Forbidden(w, "forbidden access")
				return
			}

			ctx := context.WithValue(r.Context(), ctxIdentity, id)
			ctx = context.WithValue(ctx, logger.UserEmailKey, id.Email)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole admits the caller only when the stored user for the verified
// identity holds exactly the required role. Must be chained after
// RequireIdentity.
func RequireRole(users UserSource, role domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := Identity(r)
			if id == nil {
				response.Unauthorized(w, "authentication required")
				return
			}

			user, err := users.FindByEmail(r.Context(), id.Email)
			if err != nil {
				response.InternalError(w, "failed to resolve caller role")
				return
			}
			if user == nil || user.Role != role {
				response.Forbidden(w, "forbidden access")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// Identity returns the verified caller attached by RequireIdentity, or nil.
func Identity(r *http.Request) *identity.Identity {
	v := r.Context().Value(ctxIdentity)
	if v == nil {
		return nil
	}
	return v.(*identity.Identity)
}
