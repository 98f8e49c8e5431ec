package middleware

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"

	"github.com/JonMunkholm/importme/internal/config"
)

// APIKeyAuth returns middleware that checks the X-API-Key header, or an
// "Authorization: Bearer" token, against the configured keys.
// When RequireAPIKey is false all requests pass through.
func APIKeyAuth(cfg *config.SecurityConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cfg.RequireAPIKey {
				next.ServeHTTP(w, r)
				return
			}

			apiKey := requestKey(r)
			if apiKey == "" {
				slog.Warn("auth: missing API key",
					"path", r.URL.Path,
					"method", r.Method,
					"remote_addr", r.RemoteAddr,
				)
				writeAuthError(w, http.StatusUnauthorized, "missing API key", "AUTH001")
				return
			}

			if !isValidAPIKey(apiKey, cfg.APIKeys) {
				slog.Warn("auth: invalid API key",
					"path", r.URL.Path,
					"method", r.Method,
					"remote_addr", r.RemoteAddr,
				)
				writeAuthError(w, http.StatusForbidden, "invalid API key", "AUTH002")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func requestKey(r *http.Request) string {
	if key := strings.TrimSpace(r.Header.Get("X-API-Key")); key != "" {
		return key
	}
	if token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

func writeAuthError(w http.ResponseWriter, status int, message, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(`{"error":"` + message + `","message":"` + message + `","code":"` + code + `"}` + "\n"))
}

// isValidAPIKey checks key against every configured key in constant time,
// so the comparison takes as long whichever key matches.
func isValidAPIKey(key string, validKeys []string) bool {
	valid := 0
	for _, validKey := range validKeys {
		valid |= subtle.ConstantTimeCompare([]byte(key), []byte(validKey))
	}
	return valid == 1
}
