package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"
)

// GeminiBackend calls Google's Gemini API through the genai SDK. Models are
// tried in order; a model the API does not know falls through to the next.
type GeminiBackend struct {
	config *ProviderConfig
	client *genai.Client
}

// NewGeminiBackend creates a Gemini backend. An API key is required.
func NewGeminiBackend(ctx context.Context, cfg *ProviderConfig) (*GeminiBackend, error) {
	if cfg == nil || cfg.APIKey == "" {
		return nil, errors.New("gemini: api key is required")
	}
	if len(cfg.Models) == 0 {
		cfg.Models = DefaultConfig("gemini").Models
	}

	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.Endpoint != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.Endpoint}
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	return &GeminiBackend{config: cfg, client: client}, nil
}

// Name returns the backend identifier.
func (b *GeminiBackend) Name() string {
	return "gemini"
}

// Available reports whether a client was configured. The Gemini API has no
// cheap health endpoint worth spending quota on.
func (b *GeminiBackend) Available(ctx context.Context) bool {
	return b.client != nil
}

// GenerateContent sends prompt to the first model that accepts it.
func (b *GeminiBackend) GenerateContent(ctx context.Context, prompt string) (string, error) {
	if b.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.config.Timeout)
		defer cancel()
	}

	genCfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(b.config.Temperature)),
		TopP:        genai.Ptr(float32(b.config.TopP)),
	}

	var lastErr error
	for _, model := range b.config.Models {
		resp, err := b.client.Models.GenerateContent(ctx, model, genai.Text(prompt), genCfg)
		if err != nil {
			if isGeminiQuota(err) {
				return "", quotaError(b.Name(), err)
			}
			if isGeminiModelMissing(err) {
				log.Debug().Str("model", model).Err(err).Msg("gemini model unavailable, trying next")
				lastErr = err
				continue
			}
			return "", fmt.Errorf("gemini %s: %w", model, err)
		}

		text := strings.TrimSpace(resp.Text())
		if text == "" {
			return "", errEmptyResponse
		}
		return text, nil
	}
	return "", fmt.Errorf("gemini: no usable model: %w", lastErr)
}

func geminiAPIError(err error) (genai.APIError, bool) {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return *apiErrPtr, true
	}
	return genai.APIError{}, false
}

func isGeminiQuota(err error) bool {
	if apiErr, ok := geminiAPIError(err); ok {
		if apiErr.Code == http.StatusTooManyRequests || apiErr.Status == "RESOURCE_EXHAUSTED" {
			return true
		}
	}
	return IsQuotaSignal(err)
}

func isGeminiModelMissing(err error) bool {
	apiErr, ok := geminiAPIError(err)
	return ok && (apiErr.Code == http.StatusNotFound || apiErr.Status == "NOT_FOUND")
}
