package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestValidateAuthConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     AuthConfig
		wantErr bool
	}{
		{"disabled", AuthConfig{}, false},
		{"enabled without key", AuthConfig{Enabled: true}, true},
		{"short key", AuthConfig{Enabled: true, APIKey: "abc"}, true},
		{"ok", AuthConfig{Enabled: true, APIKey: "0123456789abcdef"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ValidateAuthConfig(tt.cfg); (err != nil) != tt.wantErr {
				t.Errorf("ValidateAuthConfig() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestAuthMiddleware(t *testing.T) {
	cfg := AuthConfig{Enabled: true, APIKey: "0123456789abcdef"}
	h := AuthMiddleware(cfg, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	tests := []struct {
		name string
		path string
		key  string
		want int
	}{
		{"public health", "/health", "", http.StatusTeapot},
		{"public metrics", "/metrics", "", http.StatusTeapot},
		{"missing key", "/api/projects", "", http.StatusUnauthorized},
		{"wrong key", "/api/projects", "0123456789abcdeX", http.StatusUnauthorized},
		{"valid key", "/api/projects", "0123456789abcdef", http.StatusTeapot},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.key != "" {
				req.Header.Set("X-API-Key", tt.key)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}
