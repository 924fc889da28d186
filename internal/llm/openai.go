package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// OpenAIBackend calls any OpenAI-compatible chat completions endpoint
// (OpenAI itself, LM Studio, vLLM, llama.cpp server).
type OpenAIBackend struct {
	config *ProviderConfig
	client *openai.Client
}

// NewOpenAIBackend creates an OpenAI-compatible backend.
func NewOpenAIBackend(cfg *ProviderConfig) *OpenAIBackend {
	defaults := DefaultConfig("openai")
	if cfg == nil {
		cfg = defaults
	}
	if len(cfg.Models) == 0 {
		cfg.Models = defaults.Models
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.Endpoint != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.Endpoint, "/")
	}
	return &OpenAIBackend{config: cfg, client: openai.NewClientWithConfig(clientCfg)}
}

// Name returns the backend identifier.
func (b *OpenAIBackend) Name() string {
	return "openai"
}

// Available lists models as a reachability check.
func (b *OpenAIBackend) Available(ctx context.Context) bool {
	_, err := b.client.ListModels(ctx)
	return err == nil
}

// GenerateContent sends prompt as a single user message.
func (b *OpenAIBackend) GenerateContent(ctx context.Context, prompt string) (string, error) {
	if b.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.config.Timeout)
		defer cancel()
	}

	resp, err := b.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: b.config.Model(),
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: float32(b.config.Temperature),
		TopP:        float32(b.config.TopP),
	})
	if err != nil {
		if isOpenAIQuota(err) {
			return "", quotaError(b.Name(), err)
		}
		return "", fmt.Errorf("openai: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errEmptyResponse
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", errEmptyResponse
	}
	return text, nil
}

func isOpenAIQuota(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusTooManyRequests {
		return true
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode == http.StatusTooManyRequests {
		return true
	}
	return IsQuotaSignal(err)
}
