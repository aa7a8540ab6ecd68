package config

import (
	"log"
	"time"

	"github.com/caarlos0/env/v6"
)

type LLMProvider string

const (
	ProviderOpenAI LLMProvider = "openai"
	ProviderYandex LLMProvider = "yandex"
)

type Config struct {
	TelegramBotToken string `env:"TELEGRAM_BOT_TOKEN,required"`
	AdminUserID      int64  `env:"ADMIN_USER"`
	AdminPassword    string `env:"ADMIN_PASSWORD" envDefault:"tnixai2025"`

	// LLM settings
	LLMProvider      LLMProvider `env:"LLM_PROVIDER" envDefault:"openai"`
	OpenAIAPIKey     string      `env:"OPENAI_API_KEY"`
	OpenAIBaseURL    string      `env:"OPENAI_BASE_URL" envDefault:"https://api.mistral.ai/v1"`
	OpenAIModel      string      `env:"OPENAI_MODEL" envDefault:"mistral-large-latest"`
	YandexOAuthToken string      `env:"YANDEX_OAUTH_TOKEN"`
	YandexFolderID   string      `env:"YANDEX_FOLDER_ID"`

	// Storage
	DataDir       string `env:"DATA_DIR" envDefault:"user_data"`
	UserIndexFile string `env:"USER_INDEX_FILE" envDefault:"user_index.json"`
	LogFilePath   string `env:"LOG_FILE_PATH" envDefault:"logs/interactions.jsonl"`

	// Web panel
	PanelPort     int    `env:"PANEL_PORT"`
	PanelPassword string `env:"PANEL_PASSWORD"`

	// Run mode
	UseWebhook    bool   `env:"USE_WEBHOOK"`
	WebhookDomain string `env:"WEBHOOK_DOMAIN"`
	WebhookPort   int    `env:"WEBHOOK_PORT" envDefault:"8443"`

	// Conversation sessions
	SessionTTL time.Duration `env:"SESSION_TTL" envDefault:"1h"`
}

func New() *Config {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	if cfg.PanelPassword == "" {
		cfg.PanelPassword = cfg.AdminPassword
	}
	return cfg
}
