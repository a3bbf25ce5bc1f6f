package llm

import (
	"fmt"
)

// Config holds the provider selection and credentials for client
// construction. Credentials are injected here by the caller; clients never
// read process environment at call time.
type Config struct {
	Provider string // gemini, ollama, openai
	APIKey   string
	Model    string
	BaseURL  string
}

// NewTextGenerator creates the appropriate TextGenerator for the config.
//
// Providers that require an API key (gemini, openai) return (nil, nil) when
// no key is configured: a nil generator is the "no credentials" signal the
// lifecycle manager maps to pending status, distinct from a construction
// error.
func NewTextGenerator(cfg Config) (TextGenerator, error) {
	switch cfg.Provider {
	case "gemini", "":
		if cfg.APIKey == "" {
			return nil, nil
		}
		return NewGeminiClient(GeminiConfig{APIKey: cfg.APIKey, Model: cfg.Model, BaseURL: cfg.BaseURL}), nil
	case "openai":
		if cfg.APIKey == "" {
			return nil, nil
		}
		return NewOpenAIClient(OpenAIConfig{APIKey: cfg.APIKey, Model: cfg.Model, BaseURL: cfg.BaseURL}), nil
	case "ollama":
		return NewOllamaClient(OllamaConfig{BaseURL: cfg.BaseURL, Model: cfg.Model}), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %q", cfg.Provider)
	}
}

// NewEmbeddingGenerator creates the appropriate EmbeddingGenerator.
// Returns (nil, nil) for providers without embedding support (Gemini text
// endpoint) or when credentials are missing; related-note lookup is simply
// disabled in that case.
func NewEmbeddingGenerator(cfg Config, embeddingModel string) (EmbeddingGenerator, error) {
	switch cfg.Provider {
	case "openai":
		if cfg.APIKey == "" {
			return nil, nil
		}
		return NewOpenAIEmbeddingClient(OpenAIConfig{APIKey: cfg.APIKey, EmbeddingModel: embeddingModel, BaseURL: cfg.BaseURL}), nil
	case "ollama":
		model := embeddingModel
		if model == "" {
			model = "nomic-embed-text"
		}
		return NewOllamaClient(OllamaConfig{BaseURL: cfg.BaseURL, Model: model}), nil
	default:
		return nil, nil
	}
}
