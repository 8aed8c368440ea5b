package chi

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"go.uber.org/zap"

	logpkg "github.com/kailas-cloud/reltag/internal/logger"
)

// publicPaths are reachable without an API key so probes and scrapers keep working.
var publicPaths = map[string]struct{}{
	"/health":  {},
	"/metrics": {},
}

const bearerPrefix = "Bearer "

// BearerAuthMiddleware requires "Authorization: Bearer <key>" with one of apiKeys
// on every route except the public ones. Blank keys are ignored; with no keys
// left the middleware is a pass-through.
func BearerAuthMiddleware(apiKeys []string) func(http.Handler) http.Handler {
	keys := make([][]byte, 0, len(apiKeys))
	for _, k := range apiKeys {
		if k != "" {
			keys = append(keys, []byte(k))
		}
	}

	return func(next http.Handler) http.Handler {
		if len(keys) == 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := publicPaths[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			token, reason := bearerToken(r)
			if reason == "" && !knownKey(keys, token) {
				reason = "invalid api key"
			}
			if reason != "" {
				logpkg.FromContext(r.Context()).Debug("Request rejected",
					zap.String("path", r.URL.Path),
					zap.String("reason", reason),
				)
				writeError(w, http.StatusUnauthorized, codeUnauthorized, reason)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// bearerToken extracts the token, or returns a non-empty rejection reason.
func bearerToken(r *http.Request) (token, reason string) {
	auth := r.Header.Get("Authorization")
	switch {
	case auth == "":
		return "", "missing authorization header"
	case !strings.HasPrefix(auth, bearerPrefix):
		return "", "authorization header must use Bearer scheme"
	}
	return auth[len(bearerPrefix):], ""
}

// knownKey compares against every key in constant time per key.
func knownKey(keys [][]byte, token string) bool {
	t := []byte(token)
	found := 0
	for _, k := range keys {
		found |= subtle.ConstantTimeCompare(k, t)
	}
	return found == 1
}
