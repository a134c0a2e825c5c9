package ai

import "fmt"

// Config holds AI provider configuration.
type Config struct {
	Provider ProviderType

	GeminiAPIKey string

	OllamaBaseURL string // e.g. "http://localhost:11434"
	OllamaModel   string // e.g. "llama3", "mistral"
}

// NewProvider creates a Provider based on the config. Switching AI
// backends is a config change, not a code change.
func NewProvider(cfg Config) (Provider, error) {
	switch cfg.Provider {
	case ProviderGemini:
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY is required for Gemini provider")
		}
		return NewGeminiService(cfg.GeminiAPIKey), nil

	case ProviderOllama:
		return NewOllamaService(cfg.OllamaBaseURL, cfg.OllamaModel), nil

	default:
		// Auto: Gemini with Ollama fallback when both are configured.
		if cfg.GeminiAPIKey != "" {
			return NewFallbackProvider(
				NewGeminiService(cfg.GeminiAPIKey),
				NewOllamaService(cfg.OllamaBaseURL, cfg.OllamaModel),
			), nil
		}
		return NewOllamaService(cfg.OllamaBaseURL, cfg.OllamaModel), nil
	}
}
