package ai

import "context"

// Provider is the interface for remote text-completion services.
// Implement this interface to add new AI providers (Gemini, Ollama, OpenAI, etc.)
// The prompt carries all instructions; providers return the raw reply text and
// make no guarantee about its shape beyond "it is text".
type Provider interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// ProviderType represents the AI provider type
type ProviderType string

const (
	ProviderGemini ProviderType = "gemini"
	ProviderOllama ProviderType = "ollama"
	ProviderAuto   ProviderType = "auto"
)
