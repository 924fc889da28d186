package llm

import (
	"context"
	"fmt"

	"github.com/normanking/alquad/internal/config"
)

// NewBackend creates the backend selected in configuration.
func NewBackend(ctx context.Context, cfg *config.Config) (Backend, error) {
	switch cfg.LLM.Provider {
	case "ollama":
		return NewOllamaBackend(&ProviderConfig{
			Name:        "ollama",
			Endpoint:    cfg.LLM.Ollama.Endpoint,
			Models:      []string{cfg.LLM.Ollama.Model},
			Temperature: cfg.LLM.Temperature,
			TopP:        cfg.LLM.TopP,
			Timeout:     cfg.LLM.Ollama.Timeout,
		}), nil
	case "gemini":
		backend, err := NewGeminiBackend(ctx, &ProviderConfig{
			Name:        "gemini",
			APIKey:      cfg.LLM.Gemini.APIKey,
			Models:      cfg.LLM.Gemini.Models,
			Temperature: cfg.LLM.Temperature,
			TopP:        cfg.LLM.TopP,
			Timeout:     cfg.LLM.Gemini.Timeout,
		})
		if err != nil {
			return nil, err
		}
		return backend, nil
	case "openai":
		return NewOpenAIBackend(&ProviderConfig{
			Name:        "openai",
			Endpoint:    cfg.LLM.OpenAI.Endpoint,
			APIKey:      cfg.LLM.OpenAI.APIKey,
			Models:      []string{cfg.LLM.OpenAI.Model},
			Temperature: cfg.LLM.Temperature,
			TopP:        cfg.LLM.TopP,
			Timeout:     cfg.LLM.OpenAI.Timeout,
		}), nil
	default:
		return nil, fmt.Errorf("unknown provider: %s", cfg.LLM.Provider)
	}
}

// NewOracle builds the session oracle: the configured backend, instrumented
// with metrics when m is non-nil, behind retries, pacing and the quota latch.
func NewOracle(ctx context.Context, cfg *config.Config, m *Metrics) (*RetryingOracle, error) {
	backend, err := NewBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if m != nil {
		backend = m.Wrap(backend)
	}

	policy := RetryPolicy{Attempts: cfg.LLM.RetryAttempts, Delay: cfg.LLM.RetryDelay}
	return NewRetryingOracle(backend, policy, WithLimiter(NewRateLimiter(cfg.LLM.RequestsPerMinute))), nil
}
