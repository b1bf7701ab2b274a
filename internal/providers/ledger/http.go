package ledger

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/GriffinCanCode/AgentRegistry/gateway/internal/domain/record"
	"github.com/GriffinCanCode/AgentRegistry/gateway/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentRegistry/gateway/internal/providers/http/client"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// Config configures the HTTP registry client
type Config struct {
	BaseURL   string
	Token     string
	Timeout   time.Duration
	RateLimit float64
}

// HTTPClient talks to the registry's JSON API
type HTTPClient struct {
	http    *client.Client
	logger  *zap.Logger
	metrics *monitoring.Metrics
}

// RemoteError is a failure reported by the registry. Cause holds the nested
// cause reported by the registry, if any.
type RemoteError struct {
	Op      string
	Status  int
	Message string
	Cause   error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("registry %s failed (%d): %s", e.Op, e.Status, e.Message)
}

func (e *RemoteError) Unwrap() error {
	return e.Cause
}

type syncRequest struct {
	Data map[string]*record.Record `json:"data"`
}

type searchRequest struct {
	Criteria        []Criterion `json:"criteria"`
	TrustedAccounts []string    `json:"trustedAccounts,omitempty"`
}

type searchResponse struct {
	Results []SearchResult `json:"results"`
}

type errorDetail struct {
	Message string       `json:"message"`
	Cause   *errorDetail `json:"cause,omitempty"`
}

type errorBody struct {
	Error   *errorDetail `json:"error"`
	Message string       `json:"message"`
}

// NewHTTPClient creates a registry client
func NewHTTPClient(cfg Config, logger *zap.Logger) *HTTPClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	c := client.NewClient(client.Options{
		Name:      "ledger",
		BaseURL:   cfg.BaseURL,
		Timeout:   cfg.Timeout,
		RateLimit: cfg.RateLimit,
	})
	c.SetHeader("Accept", "application/json")
	if cfg.Token != "" {
		c.SetBearerAuth(cfg.Token)
	}

	return &HTTPClient{http: c, logger: logger}
}

// WithMetrics attaches a metrics collector
func (c *HTTPClient) WithMetrics(metrics *monitoring.Metrics) *HTTPClient {
	c.metrics = metrics
	return c
}

// Sync upserts records keyed by subject
func (c *HTTPClient) Sync(ctx context.Context, data map[string]*record.Record) error {
	_, err := c.do(ctx, "sync", func(req *resty.Request) (*resty.Response, error) {
		return req.SetBody(syncRequest{Data: data}).Post("/v1/sync")
	})
	return err
}

// Search returns subjects matching all criteria
func (c *HTTPClient) Search(ctx context.Context, criteria []Criterion, trustedAccounts []string) ([]SearchResult, error) {
	var out searchResponse
	_, err := c.do(ctx, "search", func(req *resty.Request) (*resty.Response, error) {
		return req.
			SetBody(searchRequest{Criteria: criteria, TrustedAccounts: trustedAccounts}).
			SetResult(&out).
			Post("/v1/search")
	})
	if err != nil {
		return nil, err
	}
	return out.Results, nil
}

// GetDetails returns the stored triples of subject
func (c *HTTPClient) GetDetails(ctx context.Context, subject string) (*Entry, error) {
	var out Entry
	_, err := c.do(ctx, "details", func(req *resty.Request) (*resty.Response, error) {
		return req.
			SetPathParam("subject", subject).
			SetResult(&out).
			Get("/v1/subjects/{subject}")
	})
	if err != nil {
		var remote *RemoteError
		if errors.As(err, &remote) && remote.Status == http.StatusNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if out.Subject == "" {
		out.Subject = subject
	}
	return &out, nil
}

// do runs one request through the breaker and converts error responses
func (c *HTTPClient) do(ctx context.Context, op string, send func(*resty.Request) (*resty.Response, error)) (*resty.Response, error) {
	start := time.Now()

	req, err := c.http.Request(ctx)
	if err != nil {
		c.observe(op, "unavailable", start)
		return nil, fmt.Errorf("registry %s: %w", op, err)
	}

	var failure errorBody
	req.SetError(&failure)

	resp, err := c.http.Execute(func() (*resty.Response, error) {
		resp, err := send(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode() >= http.StatusInternalServerError {
			remote := remoteError(op, resp, &failure)
			// a conflict reported as 5xx is still a healthy registry
			if Classify(remote) == OutcomeAlreadyExists {
				return resp, nil
			}
			return resp, remote
		}
		return resp, nil
	})
	if err != nil {
		c.observe(op, "error", start)
		c.logger.Warn("Registry call failed", zap.String("op", op), zap.Error(err))
		var remote *RemoteError
		if errors.As(err, &remote) {
			return nil, err
		}
		return nil, fmt.Errorf("registry %s: %w", op, err)
	}

	if resp.IsError() {
		c.observe(op, strconv.Itoa(resp.StatusCode()), start)
		return nil, remoteError(op, resp, &failure)
	}

	c.observe(op, "ok", start)
	return resp, nil
}

func (c *HTTPClient) observe(op, status string, start time.Time) {
	c.metrics.RecordLedgerCall(op, status, time.Since(start))
}

func remoteError(op string, resp *resty.Response, body *errorBody) *RemoteError {
	e := &RemoteError{Op: op, Status: resp.StatusCode()}

	switch {
	case body.Error != nil:
		e.Message = body.Error.Message
		e.Cause = causeChain(body.Error.Cause)
	case body.Message != "":
		e.Message = body.Message
	default:
		e.Message = resp.Status()
		if text := resp.String(); text != "" && len(text) < 512 {
			e.Message = text
		}
	}
	return e
}

func causeChain(d *errorDetail) error {
	if d == nil {
		return nil
	}
	inner := causeChain(d.Cause)
	if inner == nil {
		return errors.New(d.Message)
	}
	return fmt.Errorf("%s: %w", d.Message, inner)
}
