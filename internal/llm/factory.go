package llm

import (
	"fmt"
	"strings"

	"tanigpt/internal/config"
)

const (
	ProviderOpenAI = "openai"
	ProviderYandex = "yandex"
)

// Factory creates LLM clients with consistent logic
type Factory struct {
	OpenaiAPIKey     string
	OpenaiBaseURL    string
	OpenaiModel      string
	YandexOAuthToken string
	YandexFolderID   string
}

func NewFactory(cfg *config.Config) *Factory {
	return &Factory{
		OpenaiAPIKey:     cfg.OpenAIAPIKey,
		OpenaiBaseURL:    cfg.OpenAIBaseURL,
		OpenaiModel:      cfg.OpenAIModel,
		YandexOAuthToken: cfg.YandexOAuthToken,
		YandexFolderID:   cfg.YandexFolderID,
	}
}

func (f *Factory) CreateClient(provider string) (Client, error) {
	switch strings.ToLower(provider) {
	case ProviderOpenAI:
		if f.OpenaiAPIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is not set")
		}
		return NewOpenAI(f.OpenaiAPIKey, f.OpenaiBaseURL, f.OpenaiModel), nil
	case ProviderYandex:
		if f.YandexOAuthToken == "" || f.YandexFolderID == "" {
			return nil, fmt.Errorf("YANDEX_OAUTH_TOKEN or YANDEX_FOLDER_ID is not set")
		}
		return NewYandex(f.YandexOAuthToken, f.YandexFolderID)
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", provider)
	}
}
