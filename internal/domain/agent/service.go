package agent

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/GriffinCanCode/AgentRegistry/gateway/internal/domain/events"
	"github.com/GriffinCanCode/AgentRegistry/gateway/internal/domain/identity"
	"github.com/GriffinCanCode/AgentRegistry/gateway/internal/domain/reconcile"
	"github.com/GriffinCanCode/AgentRegistry/gateway/internal/domain/record"
	"github.com/GriffinCanCode/AgentRegistry/gateway/internal/domain/syncer"
	"github.com/GriffinCanCode/AgentRegistry/gateway/internal/domain/view"
	"github.com/GriffinCanCode/AgentRegistry/gateway/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentRegistry/gateway/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/AgentRegistry/gateway/internal/providers/ledger"
	"github.com/GriffinCanCode/AgentRegistry/gateway/internal/shared/apperr"
	"github.com/GriffinCanCode/AgentRegistry/gateway/internal/shared/jsonv"
	"go.uber.org/zap"
)

const (
	// TagPredicate carries the registry marker and other tags
	TagPredicate = "has tag"
	// TokenURIPredicate holds the token URI of an ERC-8004 registration
	TokenURIPredicate = "token_uri"
)

// SourceKind tells which document a source URL points to
type SourceKind string

const (
	KindAgentCard    SourceKind = "agent"
	KindRegistration SourceKind = "erc8004"
)

// Source is a document to ingest
type Source struct {
	URI  string
	Kind SourceKind
}

// Fetcher retrieves source documents
type Fetcher interface {
	Fetch(ctx context.Context, uri string) (jsonv.Value, error)
}

// Resolver chooses the subject of a payload
type Resolver interface {
	Resolve(ctx context.Context, naturalKey string, payload jsonv.Value) (*identity.Resolution, error)
}

// IngestResult is the outcome of one ingested document
type IngestResult struct {
	SubjectID string
	Minted    bool
	MintTx    string
	Status    syncer.Status
	Timestamp time.Time
}

// BatchResult is the outcome of a descriptor batch
type BatchResult struct {
	Subjects []string
	Status   syncer.Status
}

// EventResult is the outcome of a webhook delivery
type EventResult struct {
	Type    string
	Subject string
	Status  syncer.Status
}

// Page selects a slice of a listing. Page is 1-based.
type Page struct {
	Page  int
	Limit int
}

// bounds returns the slice of a listing of total items covered by p. Pages
// past the end are empty and are caught before multiplying, so no page
// number can overflow.
func (p *Page) bounds(total int) (start, end int) {
	if p.Page < 1 || p.Limit < 1 || p.Page-1 > total/p.Limit {
		return total, total
	}
	start = (p.Page - 1) * p.Limit
	end = total
	if p.Limit < total-start {
		end = start + p.Limit
	}
	return start, end
}

// Listing is one page of registered agents
type Listing struct {
	Agents []view.View
	Total  int
	Page   *Page
}

// Service runs the ingestion pipeline and the read paths
type Service struct {
	registry ledger.Client
	fetcher  Fetcher
	resolver Resolver
	syncer   *syncer.Orchestrator
	mapper   *view.Mapper
	events   *events.Registry
	unsynced reconcile.Store
	marker   string
	logger   *zap.Logger
	metrics  *monitoring.Metrics
	now      func() time.Time
}

// Deps are the collaborators of a Service
type Deps struct {
	Registry ledger.Client
	Fetcher  Fetcher
	Resolver Resolver
	Mapper   *view.Mapper
	Events   *events.Registry
	Unsynced reconcile.Store
	// Marker tags every ingested agent so it can be listed
	Marker string
	Logger *zap.Logger
}

// NewService creates a pipeline service
func NewService(deps Deps) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if deps.Events == nil {
		deps.Events = events.DefaultRegistry()
	}
	if deps.Unsynced == nil {
		deps.Unsynced = reconcile.NewMemoryStore()
	}
	return &Service{
		registry: deps.Registry,
		fetcher:  deps.Fetcher,
		resolver: deps.Resolver,
		syncer:   syncer.New(deps.Registry, logger.Named("syncer")),
		mapper:   deps.Mapper,
		events:   deps.Events,
		unsynced: deps.Unsynced,
		marker:   deps.Marker,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// WithMetrics attaches a metrics collector
func (s *Service) WithMetrics(metrics *monitoring.Metrics) *Service {
	s.metrics = metrics
	s.syncer.WithMetrics(metrics)
	return s
}

// Ingest fetches a source document and runs it through normalization,
// identity resolution and sync
func (s *Service) Ingest(ctx context.Context, src Source) (*IngestResult, error) {
	uri := strings.TrimSpace(src.URI)
	if uri == "" {
		return nil, apperr.Validation("a url or tokenUri is required")
	}

	doc, err := s.fetcher.Fetch(ctx, uri)
	if err != nil {
		return nil, err
	}
	if !doc.IsObject() {
		return nil, apperr.Validation("document at %s must be a JSON object, got %s", uri, doc.Kind())
	}

	rec := record.Build(doc)

	// data: URIs carry the document itself and identify nothing
	naturalKey := uri
	if strings.HasPrefix(strings.ToLower(uri), "data:") {
		naturalKey = ""
	}
	if naturalKey != "" {
		rec.Set(identity.NaturalKeyPredicate, record.Single(naturalKey))
	}
	if src.Kind == KindRegistration {
		rec.Set(TokenURIPredicate, record.Single(uri))
	}
	if s.marker != "" {
		rec.Set(TagPredicate, record.Multi(s.marker))
	}

	res, err := s.resolver.Resolve(ctx, naturalKey, doc)
	if err != nil {
		return nil, err
	}

	status, err := s.syncer.SyncRecord(ctx, res.SubjectID, rec)
	if err != nil {
		if res.Minted || res.Pending {
			s.recordUnsynced(ctx, res, naturalKey, err)
		}
		return nil, err
	}
	if res.Pending {
		s.resolveUnsynced(ctx, res.SubjectID)
	}

	tracing.Logger(ctx, s.logger).Info("Agent ingested",
		zap.String("kind", string(src.Kind)),
		zap.String("subject", res.SubjectID),
		zap.Bool("minted", res.Minted),
		zap.String("status", string(status)),
	)

	result := &IngestResult{
		SubjectID: res.SubjectID,
		Minted:    res.Minted,
		Status:    status,
		Timestamp: s.now(),
	}
	if res.Minted {
		result.MintTx = res.MintTxRef
	}
	return result, nil
}

// RegisterDescriptors syncs caller-identified descriptors in one upsert. body
// maps subject keys to descriptor objects, each with a type and a name.
func (s *Service) RegisterDescriptors(ctx context.Context, body jsonv.Value) (*BatchResult, error) {
	if !body.IsObject() || body.Members().Len() == 0 {
		return nil, apperr.Validation("body must be a non-empty object mapping subject keys to descriptors")
	}

	data := make(map[string]*record.Record, body.Members().Len())
	subjects := make([]string, 0, body.Members().Len())
	var invalid error
	body.Members().Each(func(key string, descriptor jsonv.Value) {
		if invalid != nil {
			return
		}
		if err := validateDescriptor(key, descriptor); err != nil {
			invalid = err
			return
		}
		data[key] = record.Build(descriptor)
		subjects = append(subjects, key)
	})
	if invalid != nil {
		return nil, invalid
	}

	status, err := s.syncer.SyncRecords(ctx, data)
	if err != nil {
		return nil, err
	}
	return &BatchResult{Subjects: subjects, Status: status}, nil
}

func validateDescriptor(key string, descriptor jsonv.Value) error {
	if strings.TrimSpace(key) == "" {
		return apperr.Validation("subject keys must not be empty")
	}
	if !descriptor.IsObject() {
		return apperr.Validation("descriptor %q must be an object", key)
	}
	for _, field := range []string{"type", "name"} {
		v, ok := descriptor.Lookup(field)
		if !ok || v.Kind() != jsonv.String || strings.TrimSpace(v.Str()) == "" {
			return apperr.Validation("descriptor %q requires a non-empty %q", key, field)
		}
	}
	return nil
}

// Search returns subjects matching every criterion
func (s *Service) Search(ctx context.Context, criteria []ledger.Criterion, trustedAccounts []string) ([]ledger.SearchResult, error) {
	if len(criteria) == 0 {
		return nil, apperr.Validation("at least one criterion is required")
	}
	for _, c := range criteria {
		if strings.TrimSpace(c.Key) == "" {
			return nil, apperr.Validation("criterion keys must not be empty")
		}
	}

	results, err := s.registry.Search(ctx, criteria, trustedAccounts)
	if err != nil {
		return nil, apperr.Wrap(apperr.CategorySync, "registry search failed", err)
	}
	if results == nil {
		results = []ledger.SearchResult{}
	}
	return results, nil
}

// IngestEvent validates a webhook body and syncs it under its deterministic
// subject. Replays resolve to already_exists.
func (s *Service) IngestEvent(ctx context.Context, body []byte) (*EventResult, error) {
	decoded, err := s.events.Decode(body)
	if err != nil {
		return nil, err
	}

	status, err := s.syncer.SyncRecord(ctx, decoded.Subject, decoded.Record)
	if err != nil {
		return nil, err
	}
	return &EventResult{
		Type:    decoded.Event.EventType(),
		Subject: decoded.Subject,
		Status:  status,
	}, nil
}

// ListAgents returns every entry tagged with the registry marker. Without a
// page the whole list is returned.
func (s *Service) ListAgents(ctx context.Context, page *Page) (*Listing, error) {
	results, err := s.registry.Search(ctx, []ledger.Criterion{{Key: TagPredicate, Value: s.marker}}, nil)
	if err != nil {
		return nil, apperr.Wrap(apperr.CategorySync, "registry search failed", err)
	}

	total := len(results)
	if page != nil {
		start, end := page.bounds(total)
		results = results[start:end]
	}

	agents := make([]view.View, 0, len(results))
	for _, r := range results {
		triples := r.Triples
		if len(triples) == 0 {
			entry, err := s.registry.GetDetails(ctx, r.Subject)
			if err != nil {
				tracing.Logger(ctx, s.logger).Warn("Skipping agent without details", zap.String("subject", r.Subject), zap.Error(err))
				continue
			}
			triples = entry.Triples
		}
		agents = append(agents, s.viewOf(r.Subject, triples))
	}

	return &Listing{Agents: agents, Total: total, Page: page}, nil
}

// GetAgent returns the view of one subject
func (s *Service) GetAgent(ctx context.Context, subject string) (view.View, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return nil, apperr.Validation("an agent id is required")
	}

	entry, err := s.registry.GetDetails(ctx, subject)
	if errors.Is(err, ledger.ErrNotFound) || (err == nil && len(entry.Triples) == 0) {
		return nil, apperr.Wrap(apperr.CategoryNotFound, "agent "+subject+" not found", ledger.ErrNotFound)
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.CategorySync, "registry lookup failed", err)
	}
	return s.viewOf(subject, entry.Triples), nil
}

// Unsynced lists minted identities whose record is not in the registry
func (s *Service) Unsynced(ctx context.Context) ([]reconcile.Entry, error) {
	entries, err := s.unsynced.List(ctx)
	if err != nil {
		return nil, apperr.Wrap(apperr.CategoryInternal, "listing unsynced identities failed", err)
	}
	s.metrics.SetUnsynced(len(entries))
	return entries, nil
}

func (s *Service) viewOf(subject string, triples []ledger.Triple) view.View {
	v := s.mapper.MapEntryToView(triples)
	v["nftId"] = subject
	return v
}

func (s *Service) recordUnsynced(ctx context.Context, res *identity.Resolution, naturalKey string, cause error) {
	entry := reconcile.Entry{
		Subject:    res.SubjectID,
		NaturalKey: naturalKey,
		TxHash:     res.MintTxRef,
		Error:      cause.Error(),
		RecordedAt: s.now(),
	}
	log := tracing.Logger(ctx, s.logger)
	if err := s.unsynced.Record(context.WithoutCancel(ctx), entry); err != nil {
		log.Error("Failed to record unsynced identity",
			zap.String("subject", res.SubjectID),
			zap.String("tx", res.MintTxRef),
			zap.Error(err),
		)
		return
	}
	log.Warn("Identity minted but not synced",
		zap.String("subject", res.SubjectID),
		zap.String("tx", res.MintTxRef),
		zap.Error(cause),
	)
	s.refreshUnsyncedGauge(ctx)
}

func (s *Service) resolveUnsynced(ctx context.Context, subject string) {
	if err := s.unsynced.Resolve(ctx, subject); err != nil {
		tracing.Logger(ctx, s.logger).Warn("Failed to clear unsynced identity", zap.String("subject", subject), zap.Error(err))
		return
	}
	s.refreshUnsyncedGauge(ctx)
}

func (s *Service) refreshUnsyncedGauge(ctx context.Context) {
	if s.metrics == nil {
		return
	}
	if n, err := s.unsynced.Count(ctx); err == nil {
		s.metrics.SetUnsynced(n)
	}
}
