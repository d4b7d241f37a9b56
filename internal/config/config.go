package config

import (
	"fmt"
	"time"
	_ "time/tzdata"

	"github.com/caarlos0/env/v6"
)

type LLMProvider string

const (
	ProviderOpenAI LLMProvider = "openai"
	ProviderYandex LLMProvider = "yandex"
)

type Transport string

const (
	TransportConsole  Transport = "console"
	TransportTelegram Transport = "telegram"
)

type Config struct {
	// Storage
	DBPath         string `env:"DB_PATH" envDefault:"data/presence.db"`
	HistoryWindow  int    `env:"HISTORY_WINDOW" envDefault:"24"`
	HistoryMaxRows int    `env:"HISTORY_MAX_ROWS" envDefault:"800"`

	// Persona
	PersonaPath  string   `env:"PERSONA_PATH"`
	PersonaWatch bool     `env:"PERSONA_WATCH" envDefault:"true"`
	WakeWords    []string `env:"WAKE_WORDS" envSeparator:"," envDefault:"vesper,vesp"`

	// LLM settings
	LLMProvider      LLMProvider `env:"LLM_PROVIDER" envDefault:"openai"`
	OpenAIAPIKey     string      `env:"OPENAI_API_KEY"`
	OpenAIBaseURL    string      `env:"OPENAI_BASE_URL" envDefault:"https://api.deepseek.com"`
	ModelFast        string      `env:"MODEL_FAST" envDefault:"deepseek-chat"`
	ModelDeep        string      `env:"MODEL_DEEP" envDefault:"deepseek-reasoner"`
	MaxTokensFast    int         `env:"MAX_TOKENS_FAST" envDefault:"180"`
	MaxTokensDeep    int         `env:"MAX_TOKENS_DEEP" envDefault:"450"`
	LLMPerMinute     int         `env:"LLM_PER_MINUTE" envDefault:"12"`
	YandexOAuthToken string      `env:"YANDEX_OAUTH_TOKEN"`
	YandexFolderID   string      `env:"YANDEX_FOLDER_ID"`

	// Transport
	Transport        Transport `env:"TRANSPORT" envDefault:"console"`
	TelegramBotToken string    `env:"TELEGRAM_BOT_TOKEN"`
	TelegramChatID   int64     `env:"TELEGRAM_CHAT_ID"`
	AllowedUsers     []int64   `env:"ALLOWED_USERS" envSeparator:":"`

	// Timing
	PresenceListenPoll     time.Duration `env:"PRESENCE_LISTEN_POLL" envDefault:"2s"`
	PresenceResponseWindow time.Duration `env:"PRESENCE_RESPONSE_WINDOW" envDefault:"20s"`
	PresenceChimeMin       time.Duration `env:"PRESENCE_CHIME_MIN" envDefault:"5m"`
	PresenceChimeMax       time.Duration `env:"PRESENCE_CHIME_MAX" envDefault:"15m"`
	ChatListenWindow       time.Duration `env:"CHAT_LISTEN_WINDOW" envDefault:"8s"`
	ChatIdleToPresence     time.Duration `env:"CHAT_IDLE_TO_PRESENCE" envDefault:"12s"`
	DedupeWindow           time.Duration `env:"DEDUPE_WINDOW" envDefault:"6s"`
	LocalTimezone          string        `env:"LOCAL_TIMEZONE" envDefault:"America/New_York"`

	// Housekeeping
	MaintenanceSpec string `env:"MAINTENANCE_SPEC" envDefault:"@hourly"`

	// Logging
	LogLevel      string `env:"LOG_LEVEL" envDefault:"info"`
	LogFilePath   string `env:"LOG_FILE_PATH" envDefault:"logs/presence.log"`
	LogMaxSizeMB  int    `env:"LOG_MAX_SIZE_MB" envDefault:"20"`
	LogMaxBackups int    `env:"LOG_MAX_BACKUPS" envDefault:"3"`
}

// Load parses the environment into a Config and validates cross-field constraints.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.PresenceChimeMin <= 0 || c.PresenceChimeMax < c.PresenceChimeMin {
		return fmt.Errorf("invalid chime range: min=%s max=%s", c.PresenceChimeMin, c.PresenceChimeMax)
	}
	if c.HistoryWindow <= 0 {
		return fmt.Errorf("HISTORY_WINDOW must be positive, got %d", c.HistoryWindow)
	}
	if len(c.WakeWords) == 0 {
		return fmt.Errorf("WAKE_WORDS must not be empty")
	}
	switch c.Transport {
	case TransportConsole:
	case TransportTelegram:
		if c.TelegramBotToken == "" {
			return fmt.Errorf("telegram transport requires TELEGRAM_BOT_TOKEN")
		}
		if len(c.AllowedUsers) == 0 {
			return fmt.Errorf("telegram transport requires ALLOWED_USERS")
		}
	default:
		return fmt.Errorf("unknown transport: %s", c.Transport)
	}
	if _, err := time.LoadLocation(c.LocalTimezone); err != nil {
		return fmt.Errorf("invalid LOCAL_TIMEZONE %q: %w", c.LocalTimezone, err)
	}
	return nil
}

// Location returns the configured local timezone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.LocalTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
