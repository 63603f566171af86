package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/diagnosis/vms/internal/domain"
	"github.com/diagnosis/vms/internal/http/response"
	"github.com/diagnosis/vms/pkg/logger"
)

type ctxKey string

const CtxAdmin ctxKey = "admin"

// Authenticator resolves a bearer token to an active admin.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*domain.Admin, error)
}

func RequireJWT(authn Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authz := r.Header.Get("Authorization")
			if !strings.HasPrefix(authz, "Bearer ") {
				response.Unauthorized(w, "No token provided")
				return
			}
			raw := strings.TrimSpace(strings.TrimPrefix(authz, "Bearer "))

			admin, err := authn.Authenticate(r.Context(), raw)
			if err != nil {
				if errors.Is(err, domain.ErrUnauthorized) {
					response.WriteError(w, http.StatusUnauthorized, domain.Message(err), response.CodeInvalidToken)
					return
				}
				response.FromError(w, r, err)
				return
			}

			ctx := context.WithValue(r.Context(), CtxAdmin, admin)
			ctx = context.WithValue(ctx, logger.AdminIDKey, admin.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequirePermission must run after RequireJWT.
func RequirePermission(name string, allowed func(domain.Permissions) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			admin := Admin(r)
			if admin == nil {
				response.Unauthorized(w, "No token provided")
				return
			}
			if !allowed(admin.Permissions) {
				logger.InfoContext(r.Context(), "Permission denied", "permission", name, "path", r.URL.Path)
				response.Forbidden(w, "Insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func CanManageVisitors(p domain.Permissions) bool { return p.CanManageVisitors }
func CanViewReports(p domain.Permissions) bool    { return p.CanViewReports }
func CanManageAdmins(p domain.Permissions) bool   { return p.CanManageAdmins }

func Admin(r *http.Request) *domain.Admin {
	v, _ := r.Context().Value(CtxAdmin).(*domain.Admin)
	return v
}
