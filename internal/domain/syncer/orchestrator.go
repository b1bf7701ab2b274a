package syncer

import (
	"context"
	"strings"

	"github.com/GriffinCanCode/AgentRegistry/gateway/internal/domain/record"
	"github.com/GriffinCanCode/AgentRegistry/gateway/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentRegistry/gateway/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/AgentRegistry/gateway/internal/providers/ledger"
	"github.com/GriffinCanCode/AgentRegistry/gateway/internal/shared/apperr"
	"go.uber.org/zap"
)

// Status is the successful result of a sync
type Status string

const (
	StatusCreated       Status = "created"
	StatusAlreadyExists Status = "already_exists"
)

// Orchestrator pushes records to the registry. Each call performs exactly
// one upsert; nothing is retried.
type Orchestrator struct {
	registry ledger.Client
	logger   *zap.Logger
	metrics  *monitoring.Metrics
}

// New creates an orchestrator
func New(registry ledger.Client, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{registry: registry, logger: logger}
}

// WithMetrics attaches a metrics collector
func (o *Orchestrator) WithMetrics(metrics *monitoring.Metrics) *Orchestrator {
	o.metrics = metrics
	return o
}

// SyncRecord stores rec under subject
func (o *Orchestrator) SyncRecord(ctx context.Context, subject string, rec *record.Record) (Status, error) {
	return o.SyncRecords(ctx, map[string]*record.Record{subject: rec})
}

// SyncRecords stores several subjects in one upsert. An "already exists"
// conflict is reported as StatusAlreadyExists, not as an error.
func (o *Orchestrator) SyncRecords(ctx context.Context, data map[string]*record.Record) (Status, error) {
	if len(data) == 0 {
		return "", apperr.Validation("nothing to sync")
	}
	for subject, rec := range data {
		if strings.TrimSpace(subject) == "" {
			return "", apperr.Validation("subject identifier must not be empty")
		}
		if rec == nil {
			return "", apperr.Validation("record for %q is missing", subject)
		}
	}

	result := ledger.Upsert(ctx, o.registry, data)
	o.metrics.RecordSync(result.Outcome.String())
	log := tracing.Logger(ctx, o.logger)

	switch result.Outcome {
	case ledger.OutcomeOK:
		log.Debug("Records synced", zap.Int("subjects", len(data)))
		return StatusCreated, nil
	case ledger.OutcomeAlreadyExists:
		log.Info("Records already registered, treating as no-op",
			zap.Int("subjects", len(data)),
			zap.Error(result.Err),
		)
		return StatusAlreadyExists, nil
	default:
		log.Error("Record sync failed", zap.Int("subjects", len(data)), zap.Error(result.Err))
		return "", apperr.Wrap(apperr.CategorySync, "registry sync failed", result.Err)
	}
}
