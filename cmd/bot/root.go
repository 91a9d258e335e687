package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	telegramAdapter "lead-intake-bot/internal/adapter/telegram"
	"lead-intake-bot/internal/config"
	"lead-intake-bot/internal/domain"
	"lead-intake-bot/internal/usecase"
)

type rootOptions struct {
	configFile string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	rootCmd := &cobra.Command{
		Use:           "leadbot",
		Short:         "Telegram bot that records leads into a spreadsheet",
		Long:          "leadbot parses lead text sent by operators, stores it as a spreadsheet row and lets them fill in the remaining columns from an inline menu.",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBot(cmd, opts)
		},
	}
	rootCmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "config file (default ./leadbot.{yaml,toml,env})")

	rootCmd.AddCommand(
		newRunCmd(opts),
		newHeaderCmd(opts),
		newAlgorithmCmd(),
	)
	return rootCmd
}

func newRunCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Start the bot (default command)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBot(cmd, opts)
		},
	}
}

func newHeaderCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "header",
		Short: "Write the column header into the configured store and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(viper.New(), opts.configFile)
			if err != nil {
				return err
			}
			logger := newLogger(cfg.LogLevel)
			st, closeStore, err := openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer closeStore()
			if err := st.EnsureHeader(cmd.Context(), domain.Header()); err != nil {
				return fmt.Errorf("header bootstrap: %w", err)
			}
			logger.Info("header ok", "backend", cfg.StoreBackend)
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "header ok (%d columns)\n", domain.ColumnCount)
			return err
		},
	}
}

func newAlgorithmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "algorithm",
		Short: "Print the lead handling checklist",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprint(cmd.OutOrStdout(), usecase.AlgorithmText)
			return err
		},
	}
}

func runBot(cmd *cobra.Command, opts *rootOptions) error {
	cfg, err := config.Load(viper.New(), opts.configFile)
	if err != nil {
		return err
	}
	if err := cfg.RequireToken(); err != nil {
		return err
	}
	logger := newLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := wireApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	bot, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		return fmt.Errorf("telegram auth: %w", err)
	}
	bot.Debug = false
	logger.Info("authorized", "username", bot.Self.UserName)

	allow := usecase.ParseAllowList(cfg.AuthorizedUsers)
	if len(allow) == 0 {
		logger.Warn("AUTHORIZED_USERS is empty, every user will be refused")
	}
	editor := usecase.NewEditor(a.store, a.sessions, allow, usecase.NewFunnelUsecase(a.funnel), logger)
	handler := telegramAdapter.NewHandler(bot, editor, a.metrics, logger)

	srv := newHTTPServer(cfg.HTTPAddr, a.registry)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", "addr", cfg.HTTPAddr, "error", err)
		}
	}()

	logger.Info("bot started", "store", cfg.StoreBackend, "sessions", cfg.SessionBackend, "users", len(allow))
	handler.Run(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", "error", err)
	}
	logger.Info("bot stopped")
	return nil
}

func newLogger(level slog.Level) *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}
