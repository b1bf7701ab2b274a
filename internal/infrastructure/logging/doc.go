// Package logging provides structured logging using uber/zap.
//
// Two modes are supported:
//   - Production: JSON output for machine parsing
//   - Development: colored console output for humans
//
// Example:
//
//	logger := logging.NewOrNop(logging.Config{Level: "info"})
//	logger.Info("Server starting", zap.String("port", "8000"))
//	router.Use(logging.Middleware(logger))
package logging
