// Package main is the entry point for the agent registry gateway.
//
// The gateway ingests agent cards and ERC-8004 registration files, mints an
// on-chain identity for agents it has not seen before, and syncs their
// normalized attributes into the remote registry.
//
//	Client → Gateway → upstream document (http, ipfs, data:)
//	                 → identity registry contract (mint)
//	                 → registry (sync, search, details)
//
// Configuration:
//   - Environment variables (12-factor), see internal/infrastructure/config
//   - CLI flags (override env vars)
//
// Usage:
//
//	# Production mode
//	./server -port 8000
//
//	# Development mode (colored logs, debug level)
//	./server -dev
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
