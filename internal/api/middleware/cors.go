package middleware

import (
	"fmt"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CORSConfig defines CORS configuration options. Origins are glob patterns
// such as https://*.example.org; a lone "*" allows every origin.
type CORSConfig struct {
	AllowOrigins  []string
	AllowMethods  []string
	AllowHeaders  []string
	ExposeHeaders []string
	MaxAge        time.Duration
}

// DefaultCORSConfig returns the gateway CORS configuration for origins
func DefaultCORSConfig(origins []string) CORSConfig {
	return CORSConfig{
		AllowOrigins: origins,
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{
			"Content-Type",
			"Content-Length",
			"Accept-Encoding",
			"Accept",
			"Origin",
			"Cache-Control",
			"X-Requested-With",
			APIKeyHeader,
			"X-Trace-ID",
		},
		ExposeHeaders: []string{"X-Trace-ID", "X-Span-ID"},
		MaxAge:        12 * time.Hour,
	}
}

// CORS creates a CORS middleware with the provided configuration. It fails
// when a pattern is malformed.
func CORS(cfg CORSConfig) (gin.HandlerFunc, error) {
	base := cors.Config{
		AllowMethods:  cfg.AllowMethods,
		AllowHeaders:  cfg.AllowHeaders,
		ExposeHeaders: cfg.ExposeHeaders,
		MaxAge:        cfg.MaxAge,
	}

	patterns := make([]string, 0, len(cfg.AllowOrigins))
	for _, origin := range cfg.AllowOrigins {
		origin = strings.ToLower(strings.TrimSpace(origin))
		switch {
		case origin == "":
			continue
		case origin == "*":
			base.AllowAllOrigins = true
			return cors.New(base), nil
		case !doublestar.ValidatePattern(origin):
			return nil, fmt.Errorf("invalid CORS origin pattern %q", origin)
		}
		patterns = append(patterns, origin)
	}
	if len(patterns) == 0 {
		return nil, fmt.Errorf("no CORS origins configured")
	}

	base.AllowOriginFunc = func(origin string) bool {
		return matchOrigin(patterns, strings.ToLower(origin))
	}
	return cors.New(base), nil
}

func matchOrigin(patterns []string, origin string) bool {
	for _, pattern := range patterns {
		if ok, err := doublestar.Match(pattern, origin); err == nil && ok {
			return true
		}
	}
	return false
}
