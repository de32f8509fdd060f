// ABOUTME: HTTP middleware enforcing the Gate on MCP endpoints
// ABOUTME: Reads credentials from Authorization, X-API-Key or the api_key query parameter

package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
)

// ExtractCredential returns the credential carried by r, trying in order the
// Bearer Authorization header, the X-API-Key header and the api_key query
// parameter.
func ExtractCredential(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if key := r.Header.Get("X-API-Key"); key != "" {
		return strings.TrimSpace(key)
	}
	return r.URL.Query().Get("api_key")
}

// HTTPMiddleware rejects requests the gate does not admit and attaches the
// AuthContext to admitted ones.
func HTTPMiddleware(g *Gate) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authCtx, err := g.Authenticate(ExtractCredential(r))
			if err != nil {
				g.logger.Warn("rejected request", "path", r.URL.Path, "remote", r.RemoteAddr, "error", err)
				writeUnauthorized(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithAuth(r.Context(), authCtx)))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, err error) {
	msg := "invalid credential"
	switch {
	case errors.Is(err, ErrMissingCredential):
		msg = "missing credential"
	case errors.Is(err, ErrExpiredToken):
		msg = "token expired"
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="kachaka-mcp"`)
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
