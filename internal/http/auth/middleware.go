package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/MrJamesThe3rd/tabungan/internal/auth"
	"github.com/MrJamesThe3rd/tabungan/internal/http/respond"
)

type Verifier interface {
	Verify(ctx context.Context, token string) (*auth.Identity, error)
}

type ctxKey struct{}

// Middleware rejects requests without a valid token and stores the verified
// identity in the request context. Browsers cannot set headers on websocket
// upgrades, so access_token in the query is accepted as well.
func Middleware(v Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := BearerToken(r)
			if token == "" {
				token = r.URL.Query().Get("access_token")
			}

			if token == "" {
				http.Error(w, "missing bearer token", http.StatusUnauthorized)
				return
			}

			id, err := v.Verify(r.Context(), token)
			if err != nil {
				respond.Error(w, r, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

func BearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")

	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}

	return strings.TrimSpace(token)
}

func WithIdentity(ctx context.Context, id *auth.Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// IdentityFrom returns the identity stored by Middleware.
func IdentityFrom(ctx context.Context) (*auth.Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(*auth.Identity)
	return id, ok && id != nil
}
