// Package middleware provides the gateway's HTTP middleware.
//
//   - CORS: origin glob patterns (https://*.example.org) on top of gin-contrib/cors
//   - RateLimit: per-IP token buckets with idle client eviction
//   - APIKey: X-API-Key check against the configured key set
//
// Example Usage:
//
//	corsMW, err := middleware.CORS(middleware.DefaultCORSConfig(cfg.CORS.Origins))
//	router.Use(corsMW, middleware.RateLimit(middleware.DefaultRateLimitConfig()))
//	mother := router.Group("/v1/mother", middleware.APIKey(config.APIKeys()))
package middleware
