package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/JonMunkholm/importme/internal/config"
	"github.com/stretchr/testify/assert"
)

// echoRemote writes back the RemoteAddr the handler saw.
var echoRemote = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte(r.RemoteAddr))
})

func TestTrustedRealIP(t *testing.T) {
	handler := TrustedRealIP([]string{"10.0.0.0/8", "192.168.1.5", "not-a-cidr"})(echoRemote)

	tests := []struct {
		name    string
		remote  string
		headers map[string]string
		want    string
	}{
		{
			name:    "trusted proxy with X-Real-IP",
			remote:  "10.1.2.3:4000",
			headers: map[string]string{"X-Real-IP": "203.0.113.7"},
			want:    "203.0.113.7",
		},
		{
			name:    "trusted single address with X-Forwarded-For chain",
			remote:  "192.168.1.5:4000",
			headers: map[string]string{"X-Forwarded-For": "198.51.100.2, 10.0.0.1"},
			want:    "198.51.100.2",
		},
		{
			name:    "untrusted client cannot spoof",
			remote:  "203.0.113.50:1234",
			headers: map[string]string{"X-Real-IP": "1.2.3.4"},
			want:    "203.0.113.50:1234",
		},
		{
			name:    "invalid forwarded address ignored",
			remote:  "10.1.2.3:4000",
			headers: map[string]string{"X-Real-IP": "garbage"},
			want:    "10.1.2.3:4000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Body.String())
		})
	}
}

func TestAPIKeyAuth(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	cfg := &config.SecurityConfig{RequireAPIKey: true, APIKeys: []string{"alpha", "beta"}}
	handler := APIKeyAuth(cfg)(ok)

	tests := []struct {
		name     string
		header   string
		value    string
		wantCode int
	}{
		{"missing key", "", "", http.StatusUnauthorized},
		{"wrong key", "X-API-Key", "gamma", http.StatusForbidden},
		{"valid header key", "X-API-Key", "beta", http.StatusNoContent},
		{"valid bearer token", "Authorization", "Bearer alpha", http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/schemas", nil)
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantCode >= 400 {
				assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			}
		})
	}
}

func TestAPIKeyAuth_Disabled(t *testing.T) {
	handler := APIKeyAuth(&config.SecurityConfig{})(echoRemote)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLogger_CapturesStatus(t *testing.T) {
	var seen *responseWriter
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = w.(*responseWriter)
		w.WriteHeader(http.StatusTeapot)
		w.WriteHeader(http.StatusOK) // ignored
		w.Write([]byte("short"))
	})
	rec := httptest.NewRecorder()

	Logger(inner).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, http.StatusTeapot, seen.status)
	assert.Equal(t, 5, seen.bytes)
}
