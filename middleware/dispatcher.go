package middleware

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/tokengate/tokengate"
)

type identityContextKey struct{}

// IdentityFromContext returns the authenticated caller identity attached by
// [Dispatch], if any.
func IdentityFromContext(ctx context.Context) (*tokengate.Identity, bool) {
	identity, ok := ctx.Value(identityContextKey{}).(*tokengate.Identity)
	return identity, ok
}

// Dispatch returns middleware that authenticates each request against engine
// using the given route table (nil means [DefaultRules]). See the package
// documentation for the dispatch state machine.
func Dispatch(engine *tokengate.Engine, rules []Rule) func(http.Handler) http.Handler {
	if rules == nil {
		rules = DefaultRules()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			class, tenantName := Classify(rules, r.URL.Path)
			if class == ClassExempt {
				next.ServeHTTP(w, r)
				return
			}

			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			ctx := tokengate.WithClientIP(r.Context(), clientIP(r))

			flavor := ""
			if class == ClassTenant || class == ClassTenantLogout {
				flavor = tenantName
			}

			identity, err := authenticate(ctx, engine, token, flavor)
			if err != nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			if identity == nil {
				next.ServeHTTP(w, r)
				return
			}

			if class == ClassGlobalLogout || class == ClassTenantLogout {
				// Best effort by contract: Logout swallows blacklist outages.
				_ = engine.Logout(ctx, token, flavor)
			}

			ctx = context.WithValue(ctx, identityContextKey{}, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// authenticate shields the request worker from panics during validation;
// any panic is collapsed into an unauthorized outcome.
func authenticate(ctx context.Context, engine *tokengate.Engine, token, tenantName string) (identity *tokengate.Identity, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			identity = nil
			err = fmt.Errorf("authentication dispatch panic: %v", rec)
		}
	}()

	return engine.Authenticate(ctx, token, tenantName)
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	token := value[len(bearer):]
	if token == "" {
		return "", false
	}

	return token, true
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
