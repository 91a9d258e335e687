package metrics

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lead-intake-bot/internal/domain"
	"lead-intake-bot/internal/infra/memory"
	"lead-intake-bot/internal/usecase"
)

type brokenStore struct{ domain.RecordStore }

func (brokenStore) WriteCell(context.Context, int, int, string) error {
	return errors.New("quota exceeded")
}

func TestStepsArePreinitialised(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	assert.Equal(t, len(usecase.Steps()), testutil.CollectAndCount(m.StepsTotal))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.StepsTotal.WithLabelValues(string(usecase.StepLeadSaved))))
}

func TestHitCountsSteps(t *testing.T) {
	m := New(prometheus.NewRegistry())
	funnel := usecase.NewFunnelUsecase(m)

	funnel.Reach(1, usecase.StepLeadSaved)
	funnel.Reach(2, usecase.StepLeadSaved)
	funnel.Reach(1, usecase.StepFinished)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.StepsTotal.WithLabelValues(string(usecase.StepLeadSaved))))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StepsTotal.WithLabelValues(string(usecase.StepFinished))))
}

func TestRecordUpdate(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.RecordUpdate("callback")
	m.RecordUpdate("callback")
	assert.Equal(t, 2.0, testutil.ToFloat64(m.UpdatesTotal.WithLabelValues("callback")))
}

func TestInstrumentedStoreObservesCalls(t *testing.T) {
	ctx := context.Background()
	m := New(prometheus.NewRegistry())
	st := InstrumentStore(memory.NewRecordStore(), m)

	require.NoError(t, st.EnsureHeader(ctx, domain.Header()))
	row, err := st.AppendRow(ctx, []string{"Ana"})
	require.NoError(t, err)
	require.NoError(t, st.WriteCell(ctx, row, domain.ColNotes, "x"))
	_, err = st.ReadRow(ctx, row)
	require.NoError(t, err)
	_, err = st.ReadCell(ctx, 99, 1)
	assert.ErrorIs(t, err, domain.ErrRowNotFound)

	assert.Equal(t, 5, testutil.CollectAndCount(m.StoreDuration))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StoreErrors.WithLabelValues("read_cell")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.StoreErrors))
}

func TestInstrumentedStoreCountsBackendErrors(t *testing.T) {
	m := New(prometheus.NewRegistry())
	st := InstrumentStore(brokenStore{memory.NewRecordStore()}, m)

	assert.Error(t, st.WriteCell(context.Background(), 2, 1, "x"))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StoreErrors.WithLabelValues("write_cell")))
	assert.NoError(t, st.EnsureHeader(context.Background(), domain.Header()), "embedded interface hides the bootstrapper")
}
