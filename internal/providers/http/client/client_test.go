package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/GriffinCanCode/AgentRegistry/gateway/internal/infrastructure/resilience"
	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientSendsDefaults(t *testing.T) {
	var gotAuth, gotAgent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotAgent = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := NewClient(Options{Name: "test", BaseURL: srv.URL})
	c.SetBearerAuth("tok")

	req, err := c.Request(context.Background())
	require.NoError(t, err)

	var out struct {
		OK bool `json:"ok"`
	}
	resp, err := c.Execute(func() (*resty.Response, error) {
		return req.SetResult(&out).Get("/ping")
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode())
	assert.True(t, out.OK)
	assert.Equal(t, "Bearer tok", gotAuth)
	assert.Equal(t, "AgentRegistry-Gateway/1.0", gotAgent)
}

func TestClientDoesNotRetry(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(Options{BaseURL: srv.URL})
	req, err := c.Request(context.Background())
	require.NoError(t, err)

	resp, err := req.Get("/")
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode())
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestClientBreakerOpens(t *testing.T) {
	c := NewClient(Options{Name: "flaky"})
	assert.Equal(t, resilience.StateClosed, c.BreakerState())

	failure := errors.New("upstream 500")
	for i := 0; i < 10; i++ {
		_, err := c.Execute(func() (*resty.Response, error) { return nil, failure })
		assert.ErrorIs(t, err, failure)
	}

	assert.Equal(t, resilience.StateOpen, c.BreakerState())

	_, err := c.Execute(func() (*resty.Response, error) { return nil, nil })
	assert.ErrorIs(t, err, ErrUnavailable)

	req, err := c.Request(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Nil(t, req)
}

func TestClientRateLimit(t *testing.T) {
	c := NewClient(Options{RateLimit: 1})

	req, err := c.Request(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, req)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req, err = c.Request(ctx)
	assert.Error(t, err)
	assert.Nil(t, req)
}
