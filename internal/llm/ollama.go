package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"
)

// OllamaBackend talks to a local or remote Ollama server through
// /api/generate with streaming disabled.
type OllamaBackend struct {
	config *ProviderConfig
	client *http.Client
}

// OllamaOption is a functional option for configuring OllamaBackend.
type OllamaOption func(*OllamaBackend)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) OllamaOption {
	return func(b *OllamaBackend) {
		b.client = c
	}
}

// NewOllamaBackend creates a new Ollama backend.
func NewOllamaBackend(cfg *ProviderConfig, opts ...OllamaOption) *OllamaBackend {
	defaults := DefaultConfig("ollama")
	if cfg == nil {
		cfg = defaults
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = defaults.Endpoint
	}
	cfg.Endpoint = strings.TrimRight(cfg.Endpoint, "/")
	if len(cfg.Models) == 0 {
		cfg.Models = defaults.Models
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaults.Timeout
	}

	b := &OllamaBackend{
		config: cfg,
		client: &http.Client{
			// Per-call deadlines come from the request context.
			Transport: &http.Transport{
				ResponseHeaderTimeout: cfg.Timeout,
				IdleConnTimeout:       90 * time.Second,
				TLSHandshakeTimeout:   10 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Name returns the backend identifier.
func (b *OllamaBackend) Name() string {
	return "ollama"
}

// Model returns the configured model.
func (b *OllamaBackend) Model() string {
	return b.config.Model()
}

// Available checks that Ollama is running and has the configured model pulled.
func (b *OllamaBackend) Available(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.config.Endpoint+"/api/tags", nil)
	if err != nil {
		return false
	}
	resp, err := b.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false
	}

	var result struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return false
	}

	model := b.config.Model()
	for _, m := range result.Models {
		if strings.Contains(m.Name, model) {
			return true
		}
	}
	return false
}

type ollamaGenerateRequest struct {
	Model   string        `json:"model"`
	Prompt  string        `json:"prompt"`
	Stream  bool          `json:"stream"`
	Options ollamaOptions `json:"options"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"top_p"`
}

type ollamaGenerateResponse struct {
	Model    string `json:"model"`
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// GenerateContent sends prompt to /api/generate and returns the reply text
// with any <think> reasoning block removed.
func (b *OllamaBackend) GenerateContent(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, b.config.Timeout)
	defer cancel()

	body, err := json.Marshal(ollamaGenerateRequest{
		Model:  b.config.Model(),
		Prompt: prompt,
		Stream: false,
		Options: ollamaOptions{
			Temperature: b.config.Temperature,
			TopP:        b.config.TopP,
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.config.Endpoint+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := readLimitedBody(resp.Body, MaxErrorBodySize)
		apiErr := fmt.Errorf("ollama error (status %d): %s", resp.StatusCode, string(bodyBytes))
		if resp.StatusCode == http.StatusTooManyRequests {
			return "", quotaError(b.Name(), apiErr)
		}
		return "", apiErr
	}

	var out ollamaGenerateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	text := stripThinking(out.Response)
	if text == "" {
		return "", errEmptyResponse
	}
	return text, nil
}

var thinkRe = regexp.MustCompile(`(?s)<think>.*?</think>`)

// stripThinking removes reasoning blocks emitted by reasoning models.
func stripThinking(s string) string {
	return strings.TrimSpace(thinkRe.ReplaceAllString(s, ""))
}
