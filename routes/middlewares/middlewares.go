package middlewares

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/oauth"
)

type ctxKey int

const (
	tenantKey ctxKey = iota
	userKey
	roleKey
	modulesKey
)

// Authenticated verifies the bearer token and unpacks its claims (tenant,
// user, role, enabled modules) into the request context.
func Authenticated(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return chi.Chain(oauth.Authorize(secret, nil), identity).Handler(next)
	}
}

func identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := r.Context().Value(oauth.ClaimsContext).(map[string]string)
		if !ok {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}

		tenantID, err := strconv.Atoi(claims["tenant_id"])
		if err != nil {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}
		userID, err := strconv.Atoi(claims["user_id"])
		if err != nil {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}

		ctx := r.Context()
		ctx = context.WithValue(ctx, tenantKey, tenantID)
		ctx = context.WithValue(ctx, userKey, userID)
		ctx = context.WithValue(ctx, roleKey, claims["roles"])
		ctx = context.WithValue(ctx, modulesKey, claims["modules"])
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireModule gates a route subtree on the tenant having the named module
// enabled.
func RequireModule(name string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			modules, _ := r.Context().Value(modulesKey).(string)
			for _, m := range strings.Split(modules, ",") {
				if strings.TrimSpace(m) == name {
					next.ServeHTTP(w, r)
					return
				}
			}
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		})
	}
}

// Admin middleware to check for the 'admin' role in the token claims.
func Admin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		roles, _ := r.Context().Value(roleKey).(string)

		isAdmin := false
		for _, role := range strings.Split(roles, ",") {
			if role == "admin" {
				isAdmin = true
				break
			}
		}

		if !isAdmin {
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// WithIdentity builds a context carrying the given identity, exactly as the
// authentication middleware would. Intended for tests.
func WithIdentity(ctx context.Context, tenantID, userID int, role, modules string) context.Context {
	ctx = context.WithValue(ctx, tenantKey, tenantID)
	ctx = context.WithValue(ctx, userKey, userID)
	ctx = context.WithValue(ctx, roleKey, role)
	return context.WithValue(ctx, modulesKey, modules)
}

func TenantID(ctx context.Context) int {
	id, _ := ctx.Value(tenantKey).(int)
	return id
}

func UserID(ctx context.Context) int {
	id, _ := ctx.Value(userKey).(int)
	return id
}

func Role(ctx context.Context) string {
	role, _ := ctx.Value(roleKey).(string)
	return role
}
