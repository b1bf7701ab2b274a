// Package client provides the outbound HTTP client of the registry adapter.
// It talks to a single base URL, so one breaker covers one upstream.
//
// Built on go-resty/resty:
//   - Pooled keep-alive transport from hashicorp/go-retryablehttp
//   - JSON bodies encoded and decoded with bytedance/sonic
//   - Circuit breaker around every call (internal/infrastructure/resilience)
//   - Optional token-bucket rate limiting per client instance
//
// Retries are disabled. A failed call is reported to the caller, who may
// re-submit: the sync pipeline is idempotent.
//
// Example Usage:
//
//	c := client.NewClient(client.Options{Name: "ledger", BaseURL: url})
//	req, err := c.Request(ctx)
//	resp, err := c.Execute(func() (*resty.Response, error) {
//		return req.Get("/v1/subjects/abc")
//	})
package client
