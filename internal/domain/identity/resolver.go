package identity

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"

	"github.com/GriffinCanCode/AgentRegistry/gateway/internal/domain/reconcile"
	"github.com/GriffinCanCode/AgentRegistry/gateway/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/AgentRegistry/gateway/internal/providers/chain"
	"github.com/GriffinCanCode/AgentRegistry/gateway/internal/providers/ledger"
	"github.com/GriffinCanCode/AgentRegistry/gateway/internal/shared/apperr"
	"github.com/GriffinCanCode/AgentRegistry/gateway/internal/shared/jsonv"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// NaturalKeyPredicate is the stored field holding the source URL of a
// subject
const NaturalKeyPredicate = "agent_card_url"

// Searcher is the registry lookup used before minting
type Searcher interface {
	Search(ctx context.Context, criteria []ledger.Criterion, trustedAccounts []string) ([]ledger.SearchResult, error)
}

// Pending finds identities that were minted but never synced
type Pending interface {
	Lookup(ctx context.Context, naturalKey string) (reconcile.Entry, bool, error)
}

// Resolution is the subject chosen for a payload
type Resolution struct {
	SubjectID string
	Minted    bool
	// Pending marks a subject taken from the unsynced store
	Pending bool
	// MintTxRef is the transaction hash, set when Minted or Pending
	MintTxRef string
}

// Resolver finds the subject identifier for a natural key, minting one when
// none is registered yet
type Resolver struct {
	registry Searcher
	issuer   chain.Issuer
	pending  Pending
	logger   *zap.Logger
	inflight singleflight.Group
}

// NewResolver creates a resolver
func NewResolver(registry Searcher, issuer chain.Issuer, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{registry: registry, issuer: issuer, logger: logger}
}

// WithPending makes the resolver reuse identities minted by an earlier
// request whose sync failed
func (r *Resolver) WithPending(pending Pending) *Resolver {
	r.pending = pending
	return r
}

// Resolve returns the subject for naturalKey. An empty key always mints.
// Concurrent calls for the same key share one lookup and at most one mint;
// the shared work is detached from any single caller, and each caller stops
// waiting when its own ctx ends.
func (r *Resolver) Resolve(ctx context.Context, naturalKey string, payload jsonv.Value) (*Resolution, error) {
	naturalKey = strings.TrimSpace(naturalKey)
	if naturalKey == "" {
		return r.mint(ctx, dataURI(payload))
	}

	shared := context.WithoutCancel(ctx)
	ch := r.inflight.DoChan(naturalKey, func() (interface{}, error) {
		return r.resolveKey(shared, naturalKey)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case out := <-ch:
		if out.Err != nil {
			return nil, out.Err
		}
		res := *out.Val.(*Resolution)
		return &res, nil
	}
}

func (r *Resolver) resolveKey(ctx context.Context, naturalKey string) (*Resolution, error) {
	log := tracing.Logger(ctx, r.logger)
	subject, err := r.lookup(ctx, naturalKey)
	if err != nil {
		return nil, err
	}
	if subject != "" {
		log.Debug("Reusing registered identity",
			zap.String("natural_key", naturalKey),
			zap.String("subject", subject),
		)
		return &Resolution{SubjectID: subject}, nil
	}

	if r.pending != nil {
		entry, ok, err := r.pending.Lookup(ctx, naturalKey)
		if err != nil {
			return nil, apperr.Wrap(apperr.CategoryInternal, "unsynced identity lookup failed", err)
		}
		if ok {
			log.Info("Reusing unsynced identity",
				zap.String("natural_key", naturalKey),
				zap.String("subject", entry.Subject),
			)
			return &Resolution{SubjectID: entry.Subject, Pending: true, MintTxRef: entry.TxHash}, nil
		}
	}

	return r.mint(ctx, naturalKey)
}

// lookup returns the first registered composite subject for naturalKey
func (r *Resolver) lookup(ctx context.Context, naturalKey string) (string, error) {
	results, err := r.registry.Search(ctx, []ledger.Criterion{{Key: NaturalKeyPredicate, Value: naturalKey}}, nil)
	if err != nil {
		return "", apperr.Wrap(apperr.CategorySync, "identity lookup failed", err)
	}
	for _, result := range results {
		if IsComposite(result.Subject) {
			return result.Subject, nil
		}
		tracing.Logger(ctx, r.logger).Warn("Ignoring non-composite subject for natural key",
			zap.String("natural_key", naturalKey),
			zap.String("subject", result.Subject),
		)
	}
	return "", nil
}

// mint registers a new identity. The chain wait is detached from request
// cancellation so a dropped client cannot orphan a submitted transaction.
func (r *Resolver) mint(ctx context.Context, tokenURI string) (*Resolution, error) {
	receipt, err := r.issuer.Mint(context.WithoutCancel(ctx), tokenURI)
	if err != nil {
		var categorized *apperr.Error
		if errors.As(err, &categorized) {
			return nil, err
		}
		return nil, apperr.Wrap(apperr.CategorySync, "identity mint failed", err)
	}

	subject := Composite{
		ChainID:  receipt.ChainID,
		Contract: receipt.Contract,
		TokenID:  receipt.TokenID,
	}.String()

	return &Resolution{
		SubjectID: subject,
		Minted:    true,
		MintTxRef: receipt.TxHash.Hex(),
	}, nil
}

// dataURI inlines payload as the token URI of a mint without a natural key
func dataURI(payload jsonv.Value) string {
	return "data:application/json;base64," + base64.StdEncoding.EncodeToString(payload.AppendJSON(nil))
}
