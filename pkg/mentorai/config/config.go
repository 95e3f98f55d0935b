// Package config defines all configuration structures for the MentorAI
// backend and loads them from YAML, .env files and environment variables.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all backend configuration.
type Config struct {
	// Name is the assistant name shown in generated messages.
	Name string `yaml:"name"`

	// Timezone is the default timezone for users without one on their
	// profile (e.g. "America/Sao_Paulo").
	Timezone string `yaml:"timezone"`

	// Database configures the SQLite store.
	Database DatabaseConfig `yaml:"database"`

	// LLM configures the chat-completion provider.
	LLM LLMConfig `yaml:"llm"`

	// Twilio configures the SMS/WhatsApp relay.
	Twilio TwilioConfig `yaml:"twilio"`

	// Pusher configures in-app push delivery.
	Pusher PusherConfig `yaml:"pusher"`

	// Gateway configures the HTTP API server.
	Gateway GatewayConfig `yaml:"gateway"`

	// Poller configures the reminder and inactivity sweeps.
	Poller PollerConfig `yaml:"poller"`

	// Logging configures log output.
	Logging LoggingConfig `yaml:"logging"`
}

// DatabaseConfig holds SQLite settings.
type DatabaseConfig struct {
	// Path is the SQLite database file path.
	Path string `yaml:"path"`

	// BusyTimeout is the SQLite busy timeout in milliseconds.
	BusyTimeout int `yaml:"busy_timeout"`
}

// LLMConfig configures the chat-completion endpoint.
type LLMConfig struct {
	// BaseURL is the OpenAI-compatible API base (default https://api.openai.com/v1).
	BaseURL string `yaml:"base_url"`

	// APIKey is the bearer token. Prefer keyring or OPENAI_API_KEY over
	// putting it here in plaintext.
	APIKey string `yaml:"api_key"`

	// ChatModel is used for interactive conversation.
	ChatModel string `yaml:"chat_model"`

	// NudgeModel is used for reminder/inactivity nudge generation.
	// Falls back to ChatModel when empty.
	NudgeModel string `yaml:"nudge_model"`

	// RequestTimeout bounds a single completion call.
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// TwilioConfig holds Twilio credentials and sender numbers.
type TwilioConfig struct {
	AccountSID string `yaml:"account_sid"`
	AuthToken  string `yaml:"auth_token"`

	// SMSFrom is the E.164 number outbound SMS is sent from.
	SMSFrom string `yaml:"sms_from"`

	// WhatsAppFrom is the E.164 number outbound WhatsApp is sent from
	// (stored without the "whatsapp:" prefix).
	WhatsAppFrom string `yaml:"whatsapp_from"`
}

// PusherConfig holds Pusher Channels credentials.
type PusherConfig struct {
	AppID   string `yaml:"app_id"`
	Key     string `yaml:"key"`
	Secret  string `yaml:"secret"`
	Cluster string `yaml:"cluster"`
}

// GatewayConfig configures the HTTP server.
type GatewayConfig struct {
	// Address is the listen address (default ":8090").
	Address string `yaml:"address"`

	// AuthToken protects /api routes when set. Webhook routes are always
	// open: Twilio cannot send custom auth headers.
	AuthToken string `yaml:"auth_token"`

	// CORSOrigins lists allowed browser origins. Empty disables CORS headers.
	CORSOrigins []string `yaml:"cors_origins,omitempty"`
}

// PollerConfig configures the background sweeps.
type PollerConfig struct {
	// Enabled turns the poller on/off.
	Enabled bool `yaml:"enabled"`

	// ReminderInterval is the time between reminder sweeps.
	ReminderInterval time.Duration `yaml:"reminder_interval"`

	// InactivityInterval is the time between inactivity sweeps.
	InactivityInterval time.Duration `yaml:"inactivity_interval"`

	// IdleThreshold is how long a user must be silent before a nudge.
	IdleThreshold time.Duration `yaml:"idle_threshold"`

	// MaxConcurrentNudges bounds the inactivity sweep fan-out.
	MaxConcurrentNudges int `yaml:"max_concurrent_nudges"`
}

// LoggingConfig configures slog output.
type LoggingConfig struct {
	// Level is "debug", "info", "warn" or "error".
	Level string `yaml:"level"`

	// Format is "json" or "text".
	Format string `yaml:"format"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Name:     "MentorAI",
		Timezone: "UTC",
		Database: DatabaseConfig{
			Path:        "./data/mentorai.db",
			BusyTimeout: 5000,
		},
		LLM: LLMConfig{
			BaseURL:        "https://api.openai.com/v1",
			ChatModel:      "gpt-4o-mini",
			RequestTimeout: 60 * time.Second,
		},
		Gateway: GatewayConfig{
			Address: ":8090",
		},
		Poller: PollerConfig{
			Enabled:             true,
			ReminderInterval:    15 * time.Minute,
			InactivityInterval:  time.Hour,
			IdleThreshold:       24 * time.Hour,
			MaxConcurrentNudges: 4,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads the configuration file at path, applies defaults and
// environment overrides. A missing file is not an error when path is empty:
// defaults plus environment are used.
func Load(path string) (*Config, error) {
	// .env is optional; ignore a missing file.
	_ = godotenv.Load()

	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %q: %w", path, err)
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides config values from the environment. Environment always
// wins over the YAML file so deployments can keep secrets out of it.
func applyEnv(cfg *Config) {
	setIfEnv(&cfg.LLM.APIKey, "OPENAI_API_KEY")
	setIfEnv(&cfg.LLM.BaseURL, "MENTORAI_LLM_BASE_URL")
	setIfEnv(&cfg.LLM.ChatModel, "MENTORAI_CHAT_MODEL")
	setIfEnv(&cfg.LLM.NudgeModel, "MENTORAI_NUDGE_MODEL")
	setIfEnv(&cfg.Twilio.AccountSID, "TWILIO_ACCOUNT_SID")
	setIfEnv(&cfg.Twilio.AuthToken, "TWILIO_AUTH_TOKEN")
	setIfEnv(&cfg.Twilio.SMSFrom, "TWILIO_SMS_FROM")
	setIfEnv(&cfg.Twilio.WhatsAppFrom, "TWILIO_WHATSAPP_FROM")
	setIfEnv(&cfg.Pusher.AppID, "PUSHER_APP_ID")
	setIfEnv(&cfg.Pusher.Key, "PUSHER_KEY")
	setIfEnv(&cfg.Pusher.Secret, "PUSHER_SECRET")
	setIfEnv(&cfg.Pusher.Cluster, "PUSHER_CLUSTER")
	setIfEnv(&cfg.Gateway.Address, "MENTORAI_ADDRESS")
	setIfEnv(&cfg.Gateway.AuthToken, "MENTORAI_AUTH_TOKEN")
	setIfEnv(&cfg.Database.Path, "MENTORAI_DB_PATH")
}

func setIfEnv(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// Validate checks cross-field constraints that would otherwise surface as
// confusing runtime errors.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("config: database.path is required")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("config: invalid timezone %q: %w", c.Timezone, err)
	}
	if c.Poller.ReminderInterval <= 0 {
		c.Poller.ReminderInterval = 15 * time.Minute
	}
	if c.Poller.InactivityInterval <= 0 {
		c.Poller.InactivityInterval = time.Hour
	}
	if c.Poller.IdleThreshold <= 0 {
		c.Poller.IdleThreshold = 24 * time.Hour
	}
	if c.Poller.MaxConcurrentNudges <= 0 {
		c.Poller.MaxConcurrentNudges = 4
	}
	return nil
}

// Location resolves the configured default timezone. Validate guarantees it
// parses, so errors here are ignored in favor of UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Save writes the configuration as YAML to path.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write config %q: %w", path, err)
	}
	return nil
}
