package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	StoreSheets = "sheets"
	StoreSQLite = "sqlite"
	StoreXLSX   = "xlsx"
	StoreMemory = "memory"

	SessionMemory = "memory"
	SessionRedis  = "redis"
)

const (
	keyToken          = "telegram_bot_token"
	keyAuthorized     = "authorized_users"
	keyStoreBackend   = "store_backend"
	keyCredentials    = "google_credentials"
	keySpreadsheetID  = "google_spreadsheet_id"
	keySheetName      = "google_sheet_name"
	keySQLiteDSN      = "leads_sqlite_dsn"
	keyXLSXPath       = "leads_xlsx_path"
	keyFunnelDSN      = "funnel_sqlite_dsn"
	keySessionBackend = "session_backend"
	keyRedisURL       = "redis_url"
	keySessionTTL     = "session_ttl"
	keyHTTPAddr       = "http_addr"
	keyLogLevel       = "log_level"
)

type Config struct {
	TelegramToken   string
	AuthorizedUsers string

	StoreBackend      string
	GoogleCredentials string
	SpreadsheetID     string
	SheetName         string
	SQLiteDSN         string
	XLSXPath          string
	// FunnelDSN: если задан, шаги воронки пишутся ещё и в SQLite.
	FunnelDSN string

	SessionBackend string
	RedisURL       string
	SessionTTL     time.Duration

	HTTPAddr string
	LogLevel slog.Level
}

// Load reads configuration from the environment and, when present, from a
// config file: configFile if given, otherwise ./leadbot.{yaml,toml,env,...}.
// Environment variables win over the file.
func Load(v *viper.Viper, configFile string) (Config, error) {
	if v == nil {
		v = viper.New()
	}
	v.SetDefault(keyStoreBackend, StoreSheets)
	v.SetDefault(keySheetName, "Leads")
	v.SetDefault(keySQLiteDSN, "leads.db")
	v.SetDefault(keyXLSXPath, "leads.xlsx")
	v.SetDefault(keySessionBackend, SessionMemory)
	v.SetDefault(keyRedisURL, "redis://localhost:6379/0")
	v.SetDefault(keySessionTTL, 24*time.Hour)
	v.SetDefault(keyHTTPAddr, ":8080")
	v.SetDefault(keyLogLevel, "info")
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("leadbot")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := Config{
		TelegramToken:     strings.TrimSpace(v.GetString(keyToken)),
		AuthorizedUsers:   v.GetString(keyAuthorized),
		StoreBackend:      strings.ToLower(strings.TrimSpace(v.GetString(keyStoreBackend))),
		GoogleCredentials: v.GetString(keyCredentials),
		SpreadsheetID:     v.GetString(keySpreadsheetID),
		SheetName:         v.GetString(keySheetName),
		SQLiteDSN:         v.GetString(keySQLiteDSN),
		XLSXPath:          v.GetString(keyXLSXPath),
		FunnelDSN:         v.GetString(keyFunnelDSN),
		SessionBackend:    strings.ToLower(strings.TrimSpace(v.GetString(keySessionBackend))),
		RedisURL:          v.GetString(keyRedisURL),
		SessionTTL:        v.GetDuration(keySessionTTL),
		HTTPAddr:          v.GetString(keyHTTPAddr),
	}
	if err := cfg.LogLevel.UnmarshalText([]byte(v.GetString(keyLogLevel))); err != nil {
		return Config{}, fmt.Errorf("log level: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.StoreBackend {
	case StoreSheets:
		if c.GoogleCredentials == "" || c.SpreadsheetID == "" {
			return errors.New("sheets backend needs GOOGLE_CREDENTIALS and GOOGLE_SPREADSHEET_ID")
		}
		if c.SheetName == "" {
			return errors.New("sheets backend needs GOOGLE_SHEET_NAME")
		}
	case StoreSQLite:
		if c.SQLiteDSN == "" {
			return errors.New("sqlite backend needs LEADS_SQLITE_DSN")
		}
	case StoreXLSX:
		if c.XLSXPath == "" {
			return errors.New("xlsx backend needs LEADS_XLSX_PATH")
		}
	case StoreMemory:
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}

	switch c.SessionBackend {
	case SessionMemory:
	case SessionRedis:
		if c.RedisURL == "" {
			return errors.New("redis session backend needs REDIS_URL")
		}
	default:
		return fmt.Errorf("unknown SESSION_BACKEND %q", c.SessionBackend)
	}
	if c.SessionTTL < 0 {
		return fmt.Errorf("SESSION_TTL must not be negative, got %s", c.SessionTTL)
	}
	return nil
}

// RequireToken is checked only by commands that talk to Telegram.
func (c Config) RequireToken() error {
	if c.TelegramToken == "" {
		return errors.New("TELEGRAM_BOT_TOKEN is not set")
	}
	return nil
}
