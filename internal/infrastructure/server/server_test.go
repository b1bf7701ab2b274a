package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/GriffinCanCode/AgentRegistry/gateway/internal/infrastructure/config"
	"github.com/GriffinCanCode/AgentRegistry/gateway/internal/infrastructure/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, mutate func(*config.Config)) *Server {
	t.Helper()
	cfg := config.Default()
	cfg.Logging.Development = true
	if mutate != nil {
		mutate(cfg)
	}
	srv, err := NewServer(context.Background(), cfg, Options{
		Logger:  logging.NewNop(),
		APIKeys: []string{"test-key"},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Close() })
	return srv
}

func TestServerRoutes(t *testing.T) {
	srv := newTestServer(t, nil)

	tests := []struct {
		name   string
		path   string
		key    string
		status int
	}{
		{"root", "/", "", http.StatusOK},
		{"health", "/health", "", http.StatusOK},
		{"metrics", "/metrics", "", http.StatusOK},
		{"unsynced without key", "/v1/mother/unsynced", "", http.StatusUnauthorized},
		{"unsynced with key", "/v1/mother/unsynced", "test-key", http.StatusOK},
		{"listing", "/v1/mother/agents", "test-key", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.key != "" {
				req.Header.Set("X-API-Key", tt.key)
			}
			w := httptest.NewRecorder()
			srv.Handler().ServeHTTP(w, req)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
		})
	}
}

func TestServerTraceHeaders(t *testing.T) {
	srv := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Trace-ID", "trace-abc")
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	assert.Equal(t, "trace-abc", w.Header().Get("X-Trace-ID"))
}

func TestServerCompressesMetrics(t *testing.T) {
	srv := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "gzip", w.Header().Get("Content-Encoding"))
}

func TestServerMintDisabledWithoutChain(t *testing.T) {
	srv := newTestServer(t, nil)
	assert.Empty(t, srv.issuer.Account())
}

func TestServerRejectsBadCORS(t *testing.T) {
	cfg := config.Default()
	cfg.CORS.Origins = []string{"https://[broken"}
	_, err := NewServer(context.Background(), cfg, Options{Logger: logging.NewNop()})
	assert.Error(t, err)
}

func TestServerRejectsMissingFieldTable(t *testing.T) {
	cfg := config.Default()
	cfg.Fields.TablePath = "/nonexistent/fields.yaml"
	_, err := NewServer(context.Background(), cfg, Options{Logger: logging.NewNop()})
	assert.Error(t, err)
}
