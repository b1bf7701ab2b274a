package http

import (
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/GriffinCanCode/AgentRegistry/gateway/internal/domain/agent"
	"github.com/GriffinCanCode/AgentRegistry/gateway/internal/domain/identity"
	"github.com/GriffinCanCode/AgentRegistry/gateway/internal/domain/reconcile"
	"github.com/GriffinCanCode/AgentRegistry/gateway/internal/domain/view"
	"github.com/GriffinCanCode/AgentRegistry/gateway/internal/providers/chain"
	"github.com/GriffinCanCode/AgentRegistry/gateway/internal/providers/fetch"
	"github.com/GriffinCanCode/AgentRegistry/gateway/internal/providers/ledger"
	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "secret-key"

type fakeIssuer struct {
	mu   sync.Mutex
	next int64
}

func (f *fakeIssuer) Mint(context.Context, string) (*chain.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.next++
	return &chain.Receipt{
		ChainID:  84532,
		Contract: common.HexToAddress("0x8004a6090Cd10A7288092483047B097295Fb8847"),
		TokenID:  big.NewInt(f.next),
		TxHash:   common.BigToHash(big.NewInt(f.next)),
	}, nil
}

func (f *fakeIssuer) Account() string { return "0x00000000000000000000000000000000000000aa" }

type testEnv struct {
	router   *gin.Engine
	upstream *httptest.Server
	registry *ledger.Memory
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/card.json":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"name":"Alpha","type":"agent","description":"<b>Finds</b> things","active":true,
				"skills":[{"id":"find","tags":["search"]}]}`))
		case "/page.html":
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte(`<html><body>hi</body></html>`))
		case "/slow.json":
			time.Sleep(300 * time.Millisecond)
			_, _ = w.Write([]byte(`{}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(upstream.Close)

	registry := ledger.NewMemory()
	mapper, err := view.NewDefaultMapper()
	require.NoError(t, err)
	issuer := &fakeIssuer{}
	unsynced := reconcile.NewMemoryStore()

	svc := agent.NewService(agent.Deps{
		Registry: registry,
		Fetcher:  fetch.New(fetch.Config{Timeout: 100 * time.Millisecond}, nil),
		Resolver: identity.NewResolver(registry, issuer, nil).WithPending(unsynced),
		Mapper:   mapper,
		Unsynced: unsynced,
		Marker:   "agent-registry",
	})

	router := gin.New()
	NewHandlers(svc, issuer.Account(), nil).Register(router, []string{testKey})
	return &testEnv{router: router, upstream: upstream, registry: registry}
}

func (e *testEnv) do(t *testing.T, method, path, body string, headers map[string]string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return w, out
}

func authed(contentType string) map[string]string {
	h := map[string]string{"X-API-Key": testKey}
	if contentType != "" {
		h["Content-Type"] = contentType
	}
	return h
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	w, body := env.do(t, http.MethodGet, "/health", "", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "0x00000000000000000000000000000000000000aa", body["account"])
	_, err := time.Parse(time.RFC3339, body["timestamp"].(string))
	assert.NoError(t, err)
}

func TestIngestAgentCard(t *testing.T) {
	env := newTestEnv(t)
	cardURL := env.upstream.URL + "/card.json"

	w, body := env.do(t, http.MethodPost, "/v1/mother/agent", `{"url":"`+cardURL+`"}`, authed("application/json"))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "created", body["status"])
	assert.NotEmpty(t, body["mintTransaction"])
	nftID := body["nftId"].(string)
	assert.True(t, identity.IsComposite(nftID), nftID)

	// raw-text body resolves to the same subject without a second mint
	w, body = env.do(t, http.MethodPost, "/v1/mother/agent", cardURL, authed("text/plain"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, nftID, body["nftId"])
	assert.Nil(t, body["mintTransaction"])
	assert.Equal(t, "already_exists", body["status"])

	w, body = env.do(t, http.MethodGet, "/v1/mother/agent/"+nftID, "", authed(""))
	require.Equal(t, http.StatusOK, w.Code)
	got := body["agent"].(map[string]interface{})
	assert.Equal(t, "Alpha", got["name"])
	assert.Equal(t, "Finds things", got["description"])
	assert.Equal(t, true, got["active"])
	assert.Equal(t, cardURL, got["agentCardUrl"])
	assert.Equal(t, []interface{}{"search"}, got["skillTags"])
	assert.Equal(t, nftID, got["nftId"])
}

func TestIngestRegistrationTokenURI(t *testing.T) {
	env := newTestEnv(t)
	uri := env.upstream.URL + "/card.json"

	w, body := env.do(t, http.MethodPost, "/v1/mother/erc8004", `{"tokenUri":"`+uri+`"}`, authed("application/json"))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, body = env.do(t, http.MethodGet, "/v1/mother/agent/"+body["nftId"].(string), "", authed(""))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, uri, body["agent"].(map[string]interface{})["tokenUri"])
}

func TestIngestFailures(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name     string
		body     string
		status   int
		category string
	}{
		{"empty body", "", http.StatusBadRequest, "validation_error"},
		{"missing field", `{"other":"x"}`, http.StatusBadRequest, "validation_error"},
		{"upstream 404", env.upstream.URL + "/missing.json", http.StatusBadGateway, "upstream_fetch_error"},
		{"non-json", env.upstream.URL + "/page.html", http.StatusUnsupportedMediaType, "unsupported_media_type"},
		{"timeout", env.upstream.URL + "/slow.json", http.StatusGatewayTimeout, "upstream_timeout"},
		{"bad scheme", "ftp://example.org/card.json", http.StatusBadRequest, "validation_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, body := env.do(t, http.MethodPost, "/v1/mother/agent", tt.body, authed("text/plain"))
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			assert.Equal(t, false, body["success"])
			assert.Equal(t, tt.category, body["error"])
			assert.NotEmpty(t, body["message"])
		})
	}
	assert.Zero(t, env.registry.Len())
}

func TestMotherRequiresAPIKey(t *testing.T) {
	env := newTestEnv(t)

	w, body := env.do(t, http.MethodGet, "/v1/mother/agents", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "unauthorized", body["error"])

	w, _ = env.do(t, http.MethodGet, "/v1/mother/agents", "", map[string]string{"x-api-key": "nope"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = env.do(t, http.MethodPost, "/v1/intuition/events", "{}", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestListAgentsPagination(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodPost, "/v1/mother/agent", env.upstream.URL+"/card.json", authed("text/plain"))

	w, body := env.do(t, http.MethodGet, "/v1/mother/agents", "", authed(""))
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, body["total"])
	assert.Len(t, body["agents"], 1)
	assert.NotContains(t, body, "page")

	w, body = env.do(t, http.MethodGet, "/v1/mother/agents?page=2", "", authed(""))
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 2, body["page"])
	assert.EqualValues(t, 20, body["limit"])
	assert.Len(t, body["agents"], 0)

	w, body = env.do(t, http.MethodGet, "/v1/mother/agents?page=9223372036854775807&limit=2", "", authed(""))
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, body["total"])
	assert.Len(t, body["agents"], 0)

	w, body = env.do(t, http.MethodGet, "/v1/mother/agents?limit=0", "", authed(""))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "validation_error", body["error"])
}

func TestGetAgentNotFound(t *testing.T) {
	env := newTestEnv(t)
	w, body := env.do(t, http.MethodGet, "/v1/mother/agent/84532:0x8004a6090Cd10A7288092483047B097295Fb8847:7", "", authed(""))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not_found", body["error"])
}

func TestWebhookReplayIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	event := `{"type":"quiz_completed","userAddress":"0x52908400098527886E0F7030069857D2E4169EE7",
		"communityId":"builders","metadata":{"quizId":"q-1","completedAt":"2026-01-02T03:04:05Z"},"version":1}`

	w, first := env.do(t, http.MethodPost, "/v1/intuition/events", event, authed("application/json"))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "created", first["status"])

	w, second := env.do(t, http.MethodPost, "/v1/intuition/events", event, authed("application/json"))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "already_exists", second["status"])
	assert.Equal(t, first["subject"], second["subject"])

	w, body := env.do(t, http.MethodPost, "/v1/intuition/events", `{"type":"quiz_completed"}`, authed("application/json"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "validation_error", body["error"])
}

func TestRegisterAndSearchAgents(t *testing.T) {
	env := newTestEnv(t)

	w, body := env.do(t, http.MethodPost, "/agents",
		`{"did:example:1":{"type":"agent","name":"One","tags":["x"]}}`, map[string]string{"Content-Type": "application/json"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "created", body["status"])

	w, body = env.do(t, http.MethodPost, "/agents", `{"did:example:1":{"type":"agent"}}`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "validation_error", body["error"])

	w, body = env.do(t, http.MethodPost, "/agents/search", `{"criteria":[{"name":"One"},{"type":"agent"}]}`, map[string]string{"Content-Type": "application/json"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	results := body["results"].([]interface{})
	require.Len(t, results, 1)
	assert.Equal(t, "did:example:1", results[0].(map[string]interface{})["subject"])

	w, body = env.do(t, http.MethodPost, "/agents/search", `{"criteria":[]}`, map[string]string{"Content-Type": "application/json"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "validation_error", body["error"])
}

func TestParsePage(t *testing.T) {
	tests := []struct {
		query string
		want  *agent.Page
		err   bool
	}{
		{"", nil, false},
		{"page=3", &agent.Page{Page: 3, Limit: 20}, false},
		{"limit=5", &agent.Page{Page: 1, Limit: 5}, false},
		{"page=2&limit=50", &agent.Page{Page: 2, Limit: 50}, false},
		{"page=0", nil, true},
		{"page=x", nil, true},
		{"limit=101", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest(http.MethodGet, "/?"+tt.query, nil)
			got, err := parsePage(c)
			if tt.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
