// Package http exposes the gateway's REST endpoints.
//
// Public routes accept descriptor batches and searches. Webhook deliveries
// and every /v1/mother route require an X-API-Key header. Every failure is
// answered with {success:false, error, message}; see package respond.
package http
