// Package llm connects the navigator to language model backends.
// Supports Ollama (local), Google Gemini and OpenAI-compatible servers.
package llm

import (
	"context"
	"io"
	"time"
)

// MaxErrorBodySize limits how much of an error response body is read (1MB).
const MaxErrorBodySize = 1 * 1024 * 1024

// readLimitedBody reads up to maxBytes from r.
func readLimitedBody(r io.Reader, maxBytes int64) ([]byte, error) {
	return io.ReadAll(io.LimitReader(r, maxBytes))
}

// Oracle answers a single free-text prompt. It is the only capability the
// navigator and the intent detectors depend on.
type Oracle interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

// Backend is a concrete model service.
type Backend interface {
	Oracle

	// Name returns the backend identifier.
	Name() string

	// Available reports whether the backend is configured and reachable.
	Available(ctx context.Context) bool
}

// ProviderConfig contains configuration for one backend.
type ProviderConfig struct {
	// Name identifies the backend (ollama, gemini, openai).
	Name string

	// Endpoint is the API base URL. Empty means the SDK default.
	Endpoint string

	// APIKey for authentication.
	APIKey string

	// Models in order of preference. The first is the primary model.
	Models []string

	// Temperature and TopP sampling parameters.
	Temperature float64
	TopP        float64

	// Timeout for a single call.
	Timeout time.Duration
}

// Model returns the primary model.
func (c *ProviderConfig) Model() string {
	if len(c.Models) == 0 {
		return ""
	}
	return c.Models[0]
}

// DefaultConfig returns sensible defaults for a backend.
func DefaultConfig(name string) *ProviderConfig {
	switch name {
	case "ollama":
		return &ProviderConfig{
			Name:        "ollama",
			Endpoint:    "http://localhost:11434",
			Models:      []string{"deepseek-r1:7b-qwen-distill-q4_k_m"},
			Temperature: 0.3,
			TopP:        0.9,
			Timeout:     120 * time.Second,
		}
	case "gemini":
		return &ProviderConfig{
			Name:        "gemini",
			Models:      []string{"gemini-2.5-flash", "gemini-2.0-flash"},
			Temperature: 0.3,
			TopP:        0.9,
			Timeout:     60 * time.Second,
		}
	case "openai":
		return &ProviderConfig{
			Name:        "openai",
			Endpoint:    "https://api.openai.com/v1",
			Models:      []string{"gpt-4o-mini"},
			Temperature: 0.3,
			TopP:        0.9,
			Timeout:     60 * time.Second,
		}
	default:
		return &ProviderConfig{
			Name:        name,
			Temperature: 0.3,
			TopP:        0.9,
			Timeout:     60 * time.Second,
		}
	}
}
