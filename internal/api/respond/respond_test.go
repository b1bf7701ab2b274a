package respond

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/GriffinCanCode/AgentRegistry/gateway/internal/shared/apperr"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, handler gin.HandlerFunc) (*httptest.ResponseRecorder, Failure) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Recovery())
	router.GET("/", handler)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	var body Failure
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w, body
}

func TestError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		status   int
		category string
	}{
		{"validation", apperr.Validation("bad input"), http.StatusBadRequest, "validation_error"},
		{"timeout", apperr.New(apperr.CategoryUpstreamTimeout, "slow"), http.StatusGatewayTimeout, "upstream_timeout"},
		{"media", apperr.New(apperr.CategoryUnsupportedMedia, "html"), http.StatusUnsupportedMediaType, "unsupported_media_type"},
		{"plain", errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, body := serve(t, func(c *gin.Context) { Error(c, tt.err) })
			assert.Equal(t, tt.status, w.Code)
			assert.False(t, body.Success)
			assert.Equal(t, tt.category, body.Error)
			assert.Equal(t, tt.err.Error(), body.Message)
		})
	}
}

func TestRecovery(t *testing.T) {
	w, body := serve(t, func(c *gin.Context) { panic("exploded") })
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "internal_error", body.Error)
	assert.Equal(t, "exploded", body.Message)
}
