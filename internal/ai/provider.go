package ai

import (
	"context"
	"fmt"

	"github.com/facturaIA/invoice-ai-service/internal/config"
)

// Format tells a provider what shape of output is expected
type Format int

const (
	// FormatText is free text (reminder emails)
	FormatText Format = iota
	// FormatInvoiceSeed is the extraction object or the {"error": ...} sentinel
	FormatInvoiceSeed
	// FormatInsights is {"insights": [string, ...]}
	FormatInsights
)

// Request is a single prompt sent to a model
type Request struct {
	Prompt string
	Format Format
}

// JSON reports whether the request expects a JSON document back
func (r Request) JSON() bool {
	return r.Format != FormatText
}

// Provider is a generative text model backend
type Provider interface {
	Name() string
	Generate(ctx context.Context, req Request) (string, error)
}

// NewProvider creates the provider named by cfg.Provider
func NewProvider(ctx context.Context, cfg config.AIConfig) (Provider, error) {
	switch cfg.Provider {
	case config.ProviderGemini:
		if cfg.Gemini.APIKey == "" {
			return nil, fmt.Errorf("gemini API key not configured")
		}
		return NewGeminiProvider(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model)
	case config.ProviderOpenAI:
		if cfg.OpenAI.APIKey == "" {
			return nil, fmt.Errorf("openai API key not configured")
		}
		return NewOpenAIProvider(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL, cfg.OpenAI.Model), nil
	case config.ProviderOllama:
		return NewOllamaProvider(cfg.Ollama.BaseURL, cfg.Ollama.Model), nil
	default:
		return nil, fmt.Errorf("unsupported AI provider: %s", cfg.Provider)
	}
}
