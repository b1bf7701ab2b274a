package identity

import (
	"context"
	"encoding/base64"
	"errors"
	"math/big"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/GriffinCanCode/AgentRegistry/gateway/internal/domain/reconcile"
	"github.com/GriffinCanCode/AgentRegistry/gateway/internal/providers/chain"
	"github.com/GriffinCanCode/AgentRegistry/gateway/internal/providers/ledger"
	"github.com/GriffinCanCode/AgentRegistry/gateway/internal/shared/apperr"
	"github.com/GriffinCanCode/AgentRegistry/gateway/internal/shared/jsonv"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const contractHex = "0x8004a6090Cd10A7288092483047B097295Fb8847"

type fakeIssuer struct {
	mu     sync.Mutex
	uris   []string
	next   int64
	err    error
	delay  time.Duration
	called atomic.Int32
}

func (f *fakeIssuer) Mint(ctx context.Context, tokenURI string) (*chain.Receipt, error) {
	f.called.Add(1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.next++
	f.uris = append(f.uris, tokenURI)
	return &chain.Receipt{
		ChainID:  84532,
		Contract: common.HexToAddress(contractHex),
		TokenID:  big.NewInt(f.next),
		TxHash:   common.HexToHash("0xfeed"),
	}, nil
}

func (f *fakeIssuer) Account() string { return "0x1" }

type failingSearch struct{}

func (failingSearch) Search(context.Context, []ledger.Criterion, []string) ([]ledger.SearchResult, error) {
	return nil, errors.New("registry unreachable")
}

func payload(t *testing.T) jsonv.Value {
	t.Helper()
	v, err := jsonv.ParseString(`{"name":"Alpha"}`)
	require.NoError(t, err)
	return v
}

func TestParseComposite(t *testing.T) {
	tests := []struct {
		in    string
		valid bool
	}{
		{"84532:" + contractHex + ":7", true},
		{"1:0x8004a6090cd10a7288092483047b097295fb8847:0", true},
		{"84532:" + contractHex, false},
		{"0:" + contractHex + ":7", false},
		{"x:" + contractHex + ":7", false},
		{"1:8004a6090Cd10A7288092483047B097295Fb8847:7", false},
		{"1:0x1234:7", false},
		{"1:" + contractHex + ":-1", false},
		{"1:" + contractHex + ":abc", false},
		{"did:example:123", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.valid, IsComposite(tt.in))
		})
	}

	c, err := ParseComposite("84532:0x8004a6090cd10a7288092483047b097295fb8847:12")
	require.NoError(t, err)
	assert.Equal(t, "84532:"+contractHex+":12", c.String())
}

func TestResolveReusesRegisteredIdentity(t *testing.T) {
	reg := ledger.NewMemory()
	subject := "84532:" + contractHex + ":5"
	reg.Put(subject, ledger.Triple{Predicate: NaturalKeyPredicate, Object: ledger.Atom{Data: "https://a.example/card.json"}})
	issuer := &fakeIssuer{}

	r := NewResolver(reg, issuer, nil)
	res, err := r.Resolve(context.Background(), "https://a.example/card.json", payload(t))

	require.NoError(t, err)
	assert.Equal(t, subject, res.SubjectID)
	assert.False(t, res.Minted)
	assert.Empty(t, res.MintTxRef)
	assert.Zero(t, issuer.called.Load())
}

func TestResolveMintsWhenMatchIsNotComposite(t *testing.T) {
	reg := ledger.NewMemory()
	reg.Put("legacy-subject", ledger.Triple{Predicate: NaturalKeyPredicate, Object: ledger.Atom{Data: "https://a.example/card.json"}})
	issuer := &fakeIssuer{}

	res, err := NewResolver(reg, issuer, nil).Resolve(context.Background(), "https://a.example/card.json", payload(t))

	require.NoError(t, err)
	assert.True(t, res.Minted)
	assert.Equal(t, "84532:"+contractHex+":1", res.SubjectID)
	assert.Equal(t, common.HexToHash("0xfeed").Hex(), res.MintTxRef)
	assert.Equal(t, []string{"https://a.example/card.json"}, issuer.uris)
}

func TestResolveWithoutNaturalKeyAlwaysMints(t *testing.T) {
	issuer := &fakeIssuer{}
	r := NewResolver(ledger.NewMemory(), issuer, nil)

	first, err := r.Resolve(context.Background(), "", payload(t))
	require.NoError(t, err)
	second, err := r.Resolve(context.Background(), "  ", payload(t))
	require.NoError(t, err)

	assert.NotEqual(t, first.SubjectID, second.SubjectID)
	require.Len(t, issuer.uris, 2)
	require.True(t, strings.HasPrefix(issuer.uris[0], "data:application/json;base64,"))
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(issuer.uris[0], "data:application/json;base64,"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Alpha"}`, string(raw))
}

func TestResolveMissingConfiguration(t *testing.T) {
	issuer := chain.Disabled{Err: apperr.Configuration("identity issuance is not configured: missing CHAIN_RPC_URL")}
	_, err := NewResolver(ledger.NewMemory(), issuer, nil).Resolve(context.Background(), "", payload(t))

	require.Error(t, err)
	assert.Equal(t, apperr.CategoryConfiguration, apperr.CategoryOf(err))
}

func TestResolveMintFailureIsSyncFailure(t *testing.T) {
	issuer := &fakeIssuer{err: errors.New("execution reverted")}
	_, err := NewResolver(ledger.NewMemory(), issuer, nil).Resolve(context.Background(), "https://a.example/card.json", payload(t))

	require.Error(t, err)
	assert.Equal(t, apperr.CategorySync, apperr.CategoryOf(err))
	assert.EqualValues(t, 1, issuer.called.Load())
}

func TestResolveLookupFailureDoesNotMint(t *testing.T) {
	issuer := &fakeIssuer{}
	_, err := NewResolver(failingSearch{}, issuer, nil).Resolve(context.Background(), "https://a.example/card.json", payload(t))

	require.Error(t, err)
	assert.Zero(t, issuer.called.Load())
}

func TestResolveConcurrentSameKeyMintsOnce(t *testing.T) {
	issuer := &fakeIssuer{delay: 50 * time.Millisecond}
	r := NewResolver(ledger.NewMemory(), issuer, nil)

	const callers = 5
	doc := payload(t)
	results := make([]*Resolution, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := r.Resolve(context.Background(), "https://a.example/card.json", doc)
			assert.NoError(t, err)
			results[i] = res
		}(i)
	}
	wg.Wait()

	assert.EqualValues(t, 1, issuer.called.Load())
	for _, res := range results {
		require.NotNil(t, res)
		assert.Equal(t, results[0].SubjectID, res.SubjectID)
	}
}

type pendingStore map[string]reconcile.Entry

func (p pendingStore) Lookup(_ context.Context, naturalKey string) (reconcile.Entry, bool, error) {
	e, ok := p[naturalKey]
	return e, ok, nil
}

func TestResolveReusesPendingIdentity(t *testing.T) {
	issuer := &fakeIssuer{}
	pending := pendingStore{
		"https://a.example/card.json": {Subject: "84532:" + contractHex + ":7", NaturalKey: "https://a.example/card.json", TxHash: "0xabc"},
	}
	r := NewResolver(ledger.NewMemory(), issuer, nil).WithPending(pending)

	res, err := r.Resolve(context.Background(), "https://a.example/card.json", payload(t))
	require.NoError(t, err)
	assert.Equal(t, "84532:"+contractHex+":7", res.SubjectID)
	assert.True(t, res.Pending)
	assert.False(t, res.Minted)
	assert.Equal(t, "0xabc", res.MintTxRef)
	assert.Zero(t, issuer.called.Load())

	other, err := r.Resolve(context.Background(), "https://b.example/card.json", payload(t))
	require.NoError(t, err)
	assert.True(t, other.Minted)
	assert.False(t, other.Pending)
}

// slowSearch holds every lookup for delay unless the lookup ctx ends first
type slowSearch struct {
	delay   time.Duration
	started chan struct{}
	once    sync.Once
}

func (s *slowSearch) Search(ctx context.Context, _ []ledger.Criterion, _ []string) ([]ledger.SearchResult, error) {
	s.once.Do(func() { close(s.started) })
	select {
	case <-time.After(s.delay):
		return nil, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func TestResolveCancelledCallerDoesNotFailOthers(t *testing.T) {
	search := &slowSearch{delay: 200 * time.Millisecond, started: make(chan struct{})}
	issuer := &fakeIssuer{}
	r := NewResolver(search, issuer, nil)
	const key = "https://a.example/card.json"
	doc := payload(t)

	leaderCtx, cancel := context.WithCancel(context.Background())
	leaderErr := make(chan error, 1)
	go func() {
		_, err := r.Resolve(leaderCtx, key, doc)
		leaderErr <- err
	}()
	<-search.started

	followerDone := make(chan *Resolution, 1)
	go func() {
		res, err := r.Resolve(context.Background(), key, doc)
		assert.NoError(t, err)
		followerDone <- res
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-leaderErr, context.Canceled)

	res := <-followerDone
	require.NotNil(t, res)
	assert.True(t, res.Minted)
	assert.EqualValues(t, 1, issuer.called.Load())
}
