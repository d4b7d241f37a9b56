package llm

import (
	"fmt"
	"strings"

	"presence-agent/internal/config"
)

// Factory creates LLM clients from the shared configuration.
type Factory struct {
	Provider         config.LLMProvider
	OpenaiAPIKey     string
	OpenaiBaseURL    string
	YandexOAuthToken string
	YandexFolderID   string
}

func NewFactory(cfg *config.Config) *Factory {
	return &Factory{
		Provider:         cfg.LLMProvider,
		OpenaiAPIKey:     cfg.OpenAIAPIKey,
		OpenaiBaseURL:    cfg.OpenAIBaseURL,
		YandexOAuthToken: cfg.YandexOAuthToken,
		YandexFolderID:   cfg.YandexFolderID,
	}
}

func (f *Factory) CreateClient(model string, maxTokens int) (Client, error) {
	switch config.LLMProvider(strings.ToLower(string(f.Provider))) {
	case config.ProviderOpenAI:
		if f.OpenaiAPIKey == "" {
			return nil, fmt.Errorf("%w: OPENAI_API_KEY not set", ErrUnavailable)
		}
		return NewOpenAI(f.OpenaiAPIKey, f.OpenaiBaseURL, model, maxTokens), nil
	case config.ProviderYandex:
		return NewYandex(f.YandexOAuthToken, f.YandexFolderID, maxTokens)
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", f.Provider)
	}
}

// NewReplierFromConfig builds the fast and deep clients and the throttle.
func NewReplierFromConfig(cfg *config.Config) (*Replier, error) {
	f := NewFactory(cfg)
	fast, err := f.CreateClient(cfg.ModelFast, cfg.MaxTokensFast)
	if err != nil {
		return nil, fmt.Errorf("fast client: %w", err)
	}
	deep, err := f.CreateClient(cfg.ModelDeep, cfg.MaxTokensDeep)
	if err != nil {
		return nil, fmt.Errorf("deep client: %w", err)
	}
	return NewReplier(fast, deep, cfg.LLMPerMinute), nil
}
