// Package config loads typed settings from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Canonical environment variable keys.
const (
	KeyBotToken    = "BOT_TOKEN"
	KeyAdmins      = "ADMINS"
	KeyDev         = "DEV"
	KeyBotWorkers  = "BOT_WORKERS"
	KeyWebhookURL  = "WEBHOOK_URL"
	KeyWebhookPath = "WEBHOOK_PATH"
	KeyHTTPPort    = "HTTP_PORT"
	KeySupportURL  = "SUPPORT_URL"

	KeyPostgresHost = "POSTGRES_HOST"
	KeyPostgresDB   = "POSTGRES_DB"
	KeyPostgresUser = "POSTGRES_USER"
	KeyPostgresPass = "POSTGRES_PASSWORD"

	KeyRedisHost = "REDIS_HOST"
	KeyRedisPort = "REDIS_PORT"
	KeyRedisPass = "REDIS_PASSWORD"

	KeyUseAPI      = "USE_API"
	KeyAPIID       = "API_ID"
	KeyAPIHash     = "API_HASH"
	KeyLocalAPIURL = "LOCAL_API_URL"

	KeyLogLevel  = "LOG_LEVEL"
	KeyLogFormat = "LOG_FORMAT"
)

type BotConfig struct {
	Token       string
	AdminIDs    []int64
	Workers     int // update-dispatch workers
	WebhookURL  string
	WebhookPath string
	SupportURL  string
}

type LogConfig struct {
	Level  string // trace|debug|info|warn|error
	Format string // json|console
}

type DatabaseConfig struct {
	Host     string
	Name     string
	User     string
	Password string
}

// DSN builds a pgx-compatible connection string from the parts.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:5432/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Name)
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LocalAPIConfig describes the self-hosted Bot API server. When enabled,
// outbound Telegram calls route through it instead of the public API, which
// lifts the public file-size limits.
type LocalAPIConfig struct {
	Enabled bool
	ID      string
	Hash    string
	URL     string
}

type RuntimeConfig struct {
	Dev bool
}

type Config struct {
	Bot      BotConfig
	Log      LogConfig
	Database DatabaseConfig
	Redis    RedisConfig
	LocalAPI LocalAPIConfig
	HTTPPort int

	Runtime RuntimeConfig
}

// IsAdmin reports whether the Telegram ID belongs to the configured admin set.
func (c *Config) IsAdmin(tgID int64) bool {
	for _, id := range c.Bot.AdminIDs {
		if id == tgID {
			return true
		}
	}
	return false
}

// Load resolves configuration from the environment. A .env file is honored
// only in development mode; production relies on the real environment.
func Load() (*Config, error) {
	dev := parseBool(os.Getenv(KeyDev))
	if dev {
		if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load .env: %w", err)
		}
	}

	cfg := &Config{
		Bot: BotConfig{
			Token:       strings.TrimSpace(os.Getenv(KeyBotToken)),
			Workers:     8,
			WebhookURL:  strings.TrimSpace(os.Getenv(KeyWebhookURL)),
			WebhookPath: strings.TrimSpace(os.Getenv(KeyWebhookPath)),
			SupportURL:  strings.TrimSpace(os.Getenv(KeySupportURL)),
		},
		Log: LogConfig{
			Level:  strings.TrimSpace(os.Getenv(KeyLogLevel)),
			Format: strings.TrimSpace(os.Getenv(KeyLogFormat)),
		},
		Database: DatabaseConfig{
			Host:     strings.TrimSpace(os.Getenv(KeyPostgresHost)),
			Name:     strings.TrimSpace(os.Getenv(KeyPostgresDB)),
			User:     strings.TrimSpace(os.Getenv(KeyPostgresUser)),
			Password: os.Getenv(KeyPostgresPass),
		},
		Redis: RedisConfig{
			Password: os.Getenv(KeyRedisPass),
		},
		LocalAPI: LocalAPIConfig{
			Enabled: parseBool(os.Getenv(KeyUseAPI)),
			ID:      strings.TrimSpace(os.Getenv(KeyAPIID)),
			Hash:    strings.TrimSpace(os.Getenv(KeyAPIHash)),
			URL:     strings.TrimSpace(os.Getenv(KeyLocalAPIURL)),
		},
		HTTPPort: 3000,
		Runtime:  RuntimeConfig{Dev: dev},
	}

	// Defaults
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Bot.WebhookPath == "" {
		cfg.Bot.WebhookPath = "/webhook"
	}
	if cfg.Bot.SupportURL == "" {
		cfg.Bot.SupportURL = "https://t.me/"
	}
	if cfg.LocalAPI.Enabled && cfg.LocalAPI.URL == "" {
		cfg.LocalAPI.URL = "http://telegram-bot-api:8081"
	}

	if raw := strings.TrimSpace(os.Getenv(KeyBotWorkers)); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid %s: %q", KeyBotWorkers, raw)
		}
		cfg.Bot.Workers = n
	}
	if raw := strings.TrimSpace(os.Getenv(KeyHTTPPort)); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid %s: %q", KeyHTTPPort, raw)
		}
		cfg.HTTPPort = n
	}

	ids, err := parseAdminIDs(os.Getenv(KeyAdmins))
	if err != nil {
		return nil, err
	}
	cfg.Bot.AdminIDs = ids

	redisHost := strings.TrimSpace(os.Getenv(KeyRedisHost))
	redisPort := strings.TrimSpace(os.Getenv(KeyRedisPort))
	if redisPort == "" {
		redisPort = "6379"
	}
	if redisHost != "" {
		cfg.Redis.Addr = redisHost + ":" + redisPort
	}

	// Required settings
	var missing []string
	if cfg.Bot.Token == "" {
		missing = append(missing, KeyBotToken)
	}
	if cfg.Database.Host == "" {
		missing = append(missing, KeyPostgresHost)
	}
	if cfg.Database.Name == "" {
		missing = append(missing, KeyPostgresDB)
	}
	if cfg.Database.User == "" {
		missing = append(missing, KeyPostgresUser)
	}
	if cfg.Redis.Addr == "" {
		missing = append(missing, KeyRedisHost)
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required environment variable(s): %s", strings.Join(missing, ", "))
	}
	if cfg.LocalAPI.Enabled && (cfg.LocalAPI.ID == "" || cfg.LocalAPI.Hash == "") {
		return nil, fmt.Errorf("%s requires %s and %s", KeyUseAPI, KeyAPIID, KeyAPIHash)
	}

	return cfg, nil
}

func parseAdminIDs(raw string) ([]int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		id, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid %s entry %q: %w", KeyAdmins, p, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func parseBool(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
