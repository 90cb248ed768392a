package ai

import (
	"context"
	"fmt"
	"log"
	"net"
	"strings"
)

// FallbackService implements smart AI provider routing with fallback:
// Gemini first (better structured output), fallback to Ollama on quota
// exhaustion, and the reverse retry when Ollama is unreachable.
type FallbackService struct {
	gemini Provider
	ollama *OllamaService
}

// NewFallbackService creates a new fallback service with both providers
func NewFallbackService(gemini Provider, ollama *OllamaService) *FallbackService {
	return &FallbackService{
		gemini: gemini,
		ollama: ollama,
	}
}

// isConnectionError checks if the error is a network/connection error
func isConnectionError(err error) bool {
	if err == nil {
		return false
	}

	// Check for network errors
	if _, ok := err.(net.Error); ok {
		return true
	}

	// Check for common connection error messages
	errStr := err.Error()
	connectionIndicators := []string{
		"connection refused",
		"no such host",
		"network is unreachable",
		"connection reset",
		"timeout",
		"dial tcp",
		"EOF",
	}

	for _, indicator := range connectionIndicators {
		if strings.Contains(strings.ToLower(errStr), strings.ToLower(indicator)) {
			return true
		}
	}

	return false
}

// isQuotaError checks if the error indicates API quota exhaustion (429)
func isQuotaError(err error) bool {
	if err == nil {
		return false
	}

	errStr := err.Error()
	quotaIndicators := []string{
		"429",
		"quota",
		"rate limit",
		"too many requests",
		"resource exhausted",
		"RESOURCE_EXHAUSTED",
	}

	for _, indicator := range quotaIndicators {
		if strings.Contains(strings.ToLower(errStr), strings.ToLower(indicator)) {
			return true
		}
	}

	return false
}

// Complete tries Gemini first, falls back to Ollama on quota error
func (f *FallbackService) Complete(ctx context.Context, prompt string) (string, error) {
	if f.gemini != nil {
		result, err := f.gemini.Complete(ctx, prompt)
		if err == nil {
			return result, nil
		}

		if isQuotaError(err) {
			log.Printf("[AI] Gemini quota exhausted: %v, falling back to Ollama", err)
		} else {
			log.Printf("[AI] Gemini error: %v, falling back to Ollama", err)
		}
	}

	if f.ollama != nil {
		result, err := f.ollama.Complete(ctx, prompt)
		if err == nil {
			return result, nil
		}

		// If Ollama also fails with connection error, try Gemini again
		if isConnectionError(err) && f.gemini != nil {
			log.Printf("[AI] Ollama connection failed: %v, retrying Gemini", err)
			return f.gemini.Complete(ctx, prompt)
		}

		return "", fmt.Errorf("ollama completion failed: %w", err)
	}

	return "", fmt.Errorf("no AI provider available")
}
