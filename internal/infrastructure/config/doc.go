// Package config provides 12-factor configuration for the gateway.
//
// Configuration is loaded from environment variables with defaults.
//
// Sections:
//   - Server: PORT, HOST, SHUTDOWN_TIMEOUT, HTTP_COMPRESS
//   - Logging: LOG_LEVEL, LOG_DEV
//   - RateLimit: RATE_LIMIT_RPS, RATE_LIMIT_BURST, RATE_LIMIT_ENABLED
//   - CORS: CORS_ORIGINS (comma-separated glob patterns)
//   - Chain: CHAIN_RPC_URL, CHAIN_ID, IDENTITY_CONTRACT_ADDRESS, SIGNER_PRIVATE_KEY
//   - Ledger: LEDGER_URL, LEDGER_TOKEN, LEDGER_TIMEOUT, LEDGER_RATE_LIMIT, REGISTRY_MARKER
//   - Fetch: FETCH_TIMEOUT, FETCH_MAX_BYTES, IPFS_GATEWAY
//   - Reconcile: DATABASE_URL
//   - Fields: FIELD_TABLE_PATH
//
// API keys are read separately with APIKeys.
package config
