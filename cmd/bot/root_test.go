package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"lead-intake-bot/internal/config"
	"lead-intake-bot/internal/domain"
	"lead-intake-bot/internal/infra/metrics"
	"lead-intake-bot/internal/usecase"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestAlgorithmCommand(t *testing.T) {
	out, err := execute(t, "algorithm")
	require.NoError(t, err)
	assert.Equal(t, usecase.AlgorithmText, out)
}

func TestHeaderCommandWritesWorkbook(t *testing.T) {
	t.Chdir(t.TempDir())
	path := filepath.Join(t.TempDir(), "leads.xlsx")
	t.Setenv("STORE_BACKEND", "xlsx")
	t.Setenv("LEADS_XLSX_PATH", path)
	t.Setenv("GOOGLE_SHEET_NAME", "Leads")
	t.Setenv("LOG_LEVEL", "error")

	out, err := execute(t, "header")
	require.NoError(t, err)
	assert.Contains(t, out, "header ok")

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	v, err := f.GetCellValue("Leads", "AF1")
	require.NoError(t, err)
	assert.Equal(t, domain.ColumnName(domain.ColMessengerCall), v)
}

func TestRunRequiresToken(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("STORE_BACKEND", "memory")
	t.Setenv("TELEGRAM_BOT_TOKEN", "")

	_, err := execute(t, "run")
	assert.ErrorContains(t, err, "TELEGRAM_BOT_TOKEN")
}

func TestWireAppWithRedisSessions(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	require.NoError(t, mr.Set("leadbot:session:5", `{"user_id":5,"state":"editing","row":3}`))

	cfg := config.Config{
		StoreBackend:   config.StoreSQLite,
		SQLiteDSN:      filepath.Join(t.TempDir(), "leads.db"),
		FunnelDSN:      filepath.Join(t.TempDir(), "funnel.db"),
		SessionBackend: config.SessionRedis,
		RedisURL:       "redis://" + mr.Addr(),
	}
	a, err := wireApp(ctx, cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	defer a.Close()

	assert.False(t, mr.Exists("leadbot:session:5"), "stale sessions are dropped at startup")
	header, err := a.store.ReadRow(ctx, domain.HeaderRow)
	require.NoError(t, err)
	assert.Equal(t, domain.Header(), header)
	assert.Len(t, a.funnel, 2)

	s, err := a.sessions.Get(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, domain.StateAwaitingLead, s.State)
}

func TestRouterServesHealthAndMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	require.NoError(t, m.Hit(usecase.StepLeadSaved, 1))
	srv := httptest.NewServer(newRouter(reg))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", string(body))

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Contains(t, string(body), `leadbot_workflow_steps_total{step="lead_saved"} 1`)
}
