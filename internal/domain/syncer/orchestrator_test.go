package syncer

import (
	"context"
	"errors"
	"testing"

	"github.com/GriffinCanCode/AgentRegistry/gateway/internal/domain/record"
	"github.com/GriffinCanCode/AgentRegistry/gateway/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/AgentRegistry/gateway/internal/providers/ledger"
	"github.com/GriffinCanCode/AgentRegistry/gateway/internal/shared/apperr"
	"github.com/GriffinCanCode/AgentRegistry/gateway/internal/shared/jsonv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type stubRegistry struct {
	ledger.Client
	err   error
	calls int
}

func (s *stubRegistry) Sync(context.Context, map[string]*record.Record) error {
	s.calls++
	return s.err
}

func sample(t *testing.T) *record.Record {
	t.Helper()
	v, err := jsonv.ParseString(`{"profile":{"name":"Alpha","meta":{"capabilities":["web_search",{"nested":"obj"}]}},"score":42}`)
	require.NoError(t, err)
	return record.Build(v)
}

func TestSyncRecordOutcomes(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status Status
		fails  bool
	}{
		{"created", nil, StatusCreated, false},
		{"atom conflict", errors.New("Atom already exists"), StatusAlreadyExists, false},
		{"nested triple conflict", &ledger.RemoteError{Op: "sync", Status: 409, Message: "tx failed", Cause: errors.New("triple already exists")}, StatusAlreadyExists, false},
		{"other", errors.New("insufficient funds"), "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := &stubRegistry{err: tt.err}
			status, err := New(reg, nil).SyncRecord(context.Background(), "subject-1", sample(t))

			assert.Equal(t, 1, reg.calls)
			if tt.fails {
				require.Error(t, err)
				assert.Equal(t, apperr.CategorySync, apperr.CategoryOf(err))
				assert.Contains(t, err.Error(), "insufficient funds")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.status, status)
		})
	}
}

func TestSyncRecordIdempotent(t *testing.T) {
	reg := ledger.NewMemory()
	o := New(reg, nil)
	ctx := context.Background()

	status, err := o.SyncRecord(ctx, "subject-1", sample(t))
	require.NoError(t, err)
	assert.Equal(t, StatusCreated, status)

	before, err := reg.GetDetails(ctx, "subject-1")
	require.NoError(t, err)

	status, err = o.SyncRecord(ctx, "subject-1", sample(t))
	require.NoError(t, err)
	assert.Equal(t, StatusAlreadyExists, status)

	after, err := reg.GetDetails(ctx, "subject-1")
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestEndToEndStoredFields(t *testing.T) {
	reg := ledger.NewMemory()
	_, err := New(reg, nil).SyncRecord(context.Background(), "subject-1", sample(t))
	require.NoError(t, err)

	entry, err := reg.GetDetails(context.Background(), "subject-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"Alpha"}, entry.Values("profile:name"))
	assert.Equal(t, []string{"web_search", `{"nested":"obj"}`}, entry.Values("profile:meta:capabilities"))
	assert.Equal(t, []string{"42"}, entry.Values("score"))
}

func TestSyncValidation(t *testing.T) {
	reg := &stubRegistry{}
	o := New(reg, nil)

	_, err := o.SyncRecord(context.Background(), " ", sample(t))
	assert.Equal(t, apperr.CategoryValidation, apperr.CategoryOf(err))

	_, err = o.SyncRecord(context.Background(), "s", nil)
	assert.Equal(t, apperr.CategoryValidation, apperr.CategoryOf(err))

	_, err = o.SyncRecords(context.Background(), nil)
	assert.Equal(t, apperr.CategoryValidation, apperr.CategoryOf(err))

	assert.Zero(t, reg.calls)
}

func TestSyncFailureLogCarriesTraceID(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	reg := &stubRegistry{err: errors.New("insufficient funds")}
	ctx := tracing.WithSpan(context.Background(), "req_trace", "")

	_, err := New(reg, zap.New(core)).SyncRecord(ctx, "subject-1", sample(t))
	require.Error(t, err)

	entries := logs.FilterMessage("Record sync failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "req_trace", entries[0].ContextMap()["trace_id"])
}
