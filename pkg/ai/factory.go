package ai

import (
	"fmt"

	"flowdesk-backend/pkg/gemini"
)

// Config holds AI provider configuration
type Config struct {
	Provider ProviderType // "gemini", "ollama" or "auto"

	// Gemini config
	GeminiAPIKey string

	// Ollama config
	OllamaBaseURL string // e.g., "http://localhost:11434"
	OllamaModel   string // e.g., "llama3", "mistral"
}

// DynamicConfig is Config with runtime-mutable Ollama settings.
// The getters are read on every request so the settings API can
// repoint the local model without a restart.
type DynamicConfig struct {
	Provider         ProviderType
	GeminiAPIKey     string
	GetOllamaBaseURL func() string
	GetOllamaModel   func() string
}

// NewProvider creates a Provider based on the config.
// This is the factory function - switch AI provider by changing config.Provider
func NewProvider(cfg Config) (Provider, error) {
	switch cfg.Provider {
	case ProviderGemini:
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY is required for Gemini provider")
		}
		return gemini.NewGeminiService(cfg.GeminiAPIKey), nil

	case ProviderOllama:
		return NewOllamaService(cfg.OllamaBaseURL, cfg.OllamaModel), nil

	default:
		// Auto: prefer Gemini with Ollama fallback when both are configured
		if cfg.GeminiAPIKey != "" {
			return NewFallbackService(
				gemini.NewGeminiService(cfg.GeminiAPIKey),
				NewOllamaService(cfg.OllamaBaseURL, cfg.OllamaModel),
			), nil
		}
		return NewOllamaService(cfg.OllamaBaseURL, cfg.OllamaModel), nil
	}
}

// NewProviderWithDynamicConfig creates a Provider whose Ollama side reads
// its base URL and model through the supplied getters
func NewProviderWithDynamicConfig(cfg DynamicConfig) (Provider, error) {
	ollama := NewOllamaServiceWithGetters(cfg.GetOllamaBaseURL, cfg.GetOllamaModel)

	switch cfg.Provider {
	case ProviderGemini:
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY is required for Gemini provider")
		}
		return gemini.NewGeminiService(cfg.GeminiAPIKey), nil

	case ProviderOllama:
		return ollama, nil

	default:
		if cfg.GeminiAPIKey != "" {
			return NewFallbackService(gemini.NewGeminiService(cfg.GeminiAPIKey), ollama), nil
		}
		return ollama, nil
	}
}
