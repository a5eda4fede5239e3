package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// TelegramConfig holds Telegram bot related settings.
type TelegramConfig struct {
	Token   string `yaml:"token" envconfig:"BOT_TOKEN"`
	AdminID int64  `yaml:"admin_id" envconfig:"TELEGRAM_ADMIN_ID"`
	RunMode string `yaml:"run_mode" envconfig:"TELEGRAM_RUN_MODE"`
	// LongPollTimeoutSeconds defines long polling timeout; 0 -> default
	LongPollTimeoutSeconds int `yaml:"longpoll_timeout_seconds" envconfig:"TELEGRAM_LONGPOLL_TIMEOUT_SECONDS"`
	// WelcomePhoto is an optional path to the image sent with /start.
	WelcomePhoto string `yaml:"welcome_photo" envconfig:"TELEGRAM_WELCOME_PHOTO"`
	// DeliveryTimeoutSeconds bounds a single outbound send during alert fan-out.
	DeliveryTimeoutSeconds int `yaml:"delivery_timeout_seconds" envconfig:"TELEGRAM_DELIVERY_TIMEOUT_SECONDS"`
}

// WebhookConfig specifies Telegram webhook settings.
type WebhookConfig struct {
	URL    string `yaml:"url" envconfig:"WEBHOOK_URL"`
	Listen string `yaml:"listen" envconfig:"WEBHOOK_LISTEN"`
	Port   int    `yaml:"port" envconfig:"WEBHOOK_PORT"`
}

// AlertAPIConfig configures the inbound alert HTTP listener.
type AlertAPIConfig struct {
	Listen string `yaml:"listen" envconfig:"ALERT_API_LISTEN"`
	Port   int    `yaml:"port" envconfig:"ALERT_API_PORT"`
}

// StorageConfig selects the persistence backend for subscriptions and the allow-list.
type StorageConfig struct {
	// Driver is "file" (JSON snapshots) or "postgres".
	Driver          string `yaml:"driver" envconfig:"STORAGE_DRIVER"`
	SubscribersPath string `yaml:"subscribers_path" envconfig:"STORAGE_SUBSCRIBERS_PATH"`
	AllowListPath   string `yaml:"allowlist_path" envconfig:"STORAGE_ALLOWLIST_PATH"`
}

// DatabaseConfig holds Postgres connection settings for the postgres storage driver.
type DatabaseConfig struct {
	Host           string `yaml:"host" envconfig:"DB_HOST"`
	Port           string `yaml:"port" envconfig:"DB_PORT"`
	User           string `yaml:"user" envconfig:"DB_USER"`
	Password       string `yaml:"password" envconfig:"DB_PASSWORD"`
	Name           string `yaml:"name" envconfig:"DB_NAME"`
	SSLMode        string `yaml:"sslmode" envconfig:"DB_SSLMODE"`
	MaxConnections int    `yaml:"max_connections" envconfig:"DB_MAX_CONNECTIONS"`
}

// AccessConfig controls the allow-list gate in front of the bot.
type AccessConfig struct {
	// Enforce enables allow-list checks for non-admin recipients.
	Enforce bool `yaml:"enforce" envconfig:"ACCESS_ENFORCE"`
}

// TopicSpec declares an instrument offered on the signal menu.
type TopicSpec struct {
	Slug  string `yaml:"slug"`
	Title string `yaml:"title"`
}

// LoggingConfig defines logging related configuration.
type LoggingConfig struct {
	Level   string `yaml:"level" envconfig:"LOG_LEVEL"`
	Format  string `yaml:"format" envconfig:"LOG_FORMAT"`
	Dir     string `yaml:"dir"`
	File    string `yaml:"file"`
	Profile string `yaml:"profile"`
}

const (
	// RunModeWebhook selects webhook mode for Telegram updates.
	RunModeWebhook = "webhook"
	// RunModeLongpoll selects long-polling mode for Telegram updates.
	RunModeLongpoll = "longpoll"
)

const (
	// StorageDriverFile persists state as flat JSON snapshots.
	StorageDriverFile = "file"
	// StorageDriverPostgres persists state in Postgres via sqlx.
	StorageDriverPostgres = "postgres"
)

// Config aggregates the full application configuration.
type Config struct {
	Telegram TelegramConfig `yaml:"telegram"`
	Webhook  WebhookConfig  `yaml:"webhook"`
	AlertAPI AlertAPIConfig `yaml:"alert_api"`
	Storage  StorageConfig  `yaml:"storage"`
	Database DatabaseConfig `yaml:"database"`
	Access   AccessConfig   `yaml:"access"`
	Topics   []TopicSpec    `yaml:"topics"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// Load reads configuration from a YAML file and environment variables.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize performs basic validation of required configuration fields and adjusts defaults.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}

	if cfg.Telegram.Token == "" {
		return fmt.Errorf("telegram token is required")
	}
	if cfg.Telegram.DeliveryTimeoutSeconds < 0 {
		return fmt.Errorf("telegram.delivery_timeout_seconds must be >= 0")
	}
	if cfg.Telegram.DeliveryTimeoutSeconds == 0 {
		cfg.Telegram.DeliveryTimeoutSeconds = 10
	}

	rm := strings.ToLower(strings.TrimSpace(cfg.Telegram.RunMode))
	if rm == "" {
		rm = RunModeLongpoll
	}
	if rm == "polling" { // accept alias
		rm = RunModeLongpoll
	}
	switch rm {
	case RunModeWebhook:
		if strings.TrimSpace(cfg.Webhook.URL) == "" {
			return fmt.Errorf("webhook.url is required when telegram.run_mode is 'webhook'")
		}
		if strings.TrimSpace(cfg.Webhook.Listen) == "" {
			return fmt.Errorf("webhook.listen is required when telegram.run_mode is 'webhook'")
		}
		if cfg.Webhook.Port <= 0 {
			return fmt.Errorf("webhook.port must be > 0 when telegram.run_mode is 'webhook'")
		}
	case RunModeLongpoll:
		if cfg.Telegram.LongPollTimeoutSeconds < 0 {
			return fmt.Errorf("telegram.longpoll_timeout_seconds must be >= 0")
		}
	default:
		return fmt.Errorf("invalid telegram.run_mode %q; allowed: webhook, longpoll", cfg.Telegram.RunMode)
	}
	cfg.Telegram.RunMode = rm

	if strings.TrimSpace(cfg.AlertAPI.Listen) == "" {
		cfg.AlertAPI.Listen = "0.0.0.0"
	}
	if cfg.AlertAPI.Port == 0 {
		cfg.AlertAPI.Port = 8080
	}
	if cfg.AlertAPI.Port < 0 {
		return fmt.Errorf("alert_api.port must be > 0")
	}

	driver := strings.ToLower(strings.TrimSpace(cfg.Storage.Driver))
	if driver == "" {
		driver = StorageDriverFile
	}
	switch driver {
	case StorageDriverFile:
		if strings.TrimSpace(cfg.Storage.SubscribersPath) == "" {
			cfg.Storage.SubscribersPath = "data/subscribers.json"
		}
		if strings.TrimSpace(cfg.Storage.AllowListPath) == "" {
			cfg.Storage.AllowListPath = "data/allowlist.json"
		}
	case StorageDriverPostgres:
		if strings.TrimSpace(cfg.Database.Host) == "" {
			return fmt.Errorf("database.host is required when storage.driver is 'postgres'")
		}
		if strings.TrimSpace(cfg.Database.Name) == "" {
			return fmt.Errorf("database.name is required when storage.driver is 'postgres'")
		}
	default:
		return fmt.Errorf("invalid storage.driver %q; allowed: file, postgres", cfg.Storage.Driver)
	}
	cfg.Storage.Driver = driver

	if len(cfg.Topics) == 0 {
		cfg.Topics = []TopicSpec{
			{Slug: "gold", Title: "🥇 Gold"},
			{Slug: "bitcoin", Title: "₿ Bitcoin"},
		}
	}
	seen := make(map[string]struct{}, len(cfg.Topics))
	for i, t := range cfg.Topics {
		slug := strings.ToLower(strings.TrimSpace(t.Slug))
		if slug == "" {
			return fmt.Errorf("topics[%d].slug must not be empty", i)
		}
		if slug == "all" {
			return fmt.Errorf("topics[%d].slug %q is reserved for broadcast", i, slug)
		}
		if _, dup := seen[slug]; dup {
			return fmt.Errorf("duplicate topic slug %q", slug)
		}
		seen[slug] = struct{}{}
		cfg.Topics[i].Slug = slug
		if strings.TrimSpace(t.Title) == "" {
			cfg.Topics[i].Title = slug
		}
	}

	return nil
}
