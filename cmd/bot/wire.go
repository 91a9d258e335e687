package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"lead-intake-bot/internal/config"
	"lead-intake-bot/internal/domain"
	"lead-intake-bot/internal/infra/gsheets"
	"lead-intake-bot/internal/infra/memory"
	"lead-intake-bot/internal/infra/metrics"
	"lead-intake-bot/internal/infra/redisstore"
	"lead-intake-bot/internal/infra/sqlite"
	"lead-intake-bot/internal/infra/xlsx"
	"lead-intake-bot/internal/usecase"
)

// bootstrapStore is a record store that can also write its header.
type bootstrapStore interface {
	domain.RecordStore
	domain.HeaderBootstrapper
}

type app struct {
	store    bootstrapStore
	sessions domain.SessionStore
	funnel   usecase.FunnelRepositories
	metrics  *metrics.Metrics
	registry *prometheus.Registry
	closers  []func() error
}

// wireApp opens every backend and bootstraps the header. Any failure here
// aborts startup.
func wireApp(ctx context.Context, cfg config.Config, logger *slog.Logger) (*app, error) {
	a := &app{registry: prometheus.NewRegistry()}
	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	a.metrics = metrics.New(a.registry)
	a.funnel = usecase.FunnelRepositories{a.metrics}

	st, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, closeStore)
	a.store = metrics.InstrumentStore(st, a.metrics)
	if err := a.store.EnsureHeader(ctx, domain.Header()); err != nil {
		a.Close()
		return nil, fmt.Errorf("header bootstrap: %w", err)
	}

	if err := a.openSessions(ctx, cfg, logger); err != nil {
		a.Close()
		return nil, err
	}

	if cfg.FunnelDSN != "" {
		repo, err := sqlite.NewFunnelRepo(cfg.FunnelDSN)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("funnel sqlite init: %w", err)
		}
		a.closers = append(a.closers, repo.Close)
		a.funnel = append(a.funnel, repo)
	}
	return a, nil
}

func (a *app) openSessions(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	if cfg.SessionBackend != config.SessionRedis {
		a.sessions = memory.NewSessionStore()
		return nil
	}
	rdb, err := redisstore.Connect(ctx, cfg.RedisURL)
	if err != nil {
		return err
	}
	a.closers = append(a.closers, rdb.Close)
	sessions := redisstore.NewSessionStore(rdb, cfg.SessionTTL)
	// диалоги не переживают рестарт
	n, err := sessions.Reset(ctx)
	if err != nil {
		return fmt.Errorf("reset sessions: %w", err)
	}
	logger.Info("sessions reset", "dropped", n)
	a.sessions = sessions
	return nil
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i]()
	}
	a.closers = nil
}

// openStore returns the configured record store and its close func.
func openStore(ctx context.Context, cfg config.Config) (bootstrapStore, func() error, error) {
	noop := func() error { return nil }
	switch cfg.StoreBackend {
	case config.StoreSheets:
		st, err := gsheets.NewRecordStore(ctx, cfg.SpreadsheetID, cfg.SheetName,
			option.WithCredentialsFile(cfg.GoogleCredentials),
			option.WithScopes(sheets.SpreadsheetsScope),
		)
		if err != nil {
			return nil, nil, err
		}
		return st, noop, nil
	case config.StoreSQLite:
		st, err := sqlite.NewRecordStore(cfg.SQLiteDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("sqlite init: %w", err)
		}
		return st, st.Close, nil
	case config.StoreXLSX:
		st, err := xlsx.Open(cfg.XLSXPath, cfg.SheetName)
		if err != nil {
			return nil, nil, err
		}
		return st, st.Close, nil
	case config.StoreMemory:
		return memory.NewRecordStore(), noop, nil
	}
	return nil, nil, errors.New("unknown store backend " + cfg.StoreBackend)
}
