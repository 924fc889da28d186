package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/normanking/alquad/internal/config"
)

func TestOpenAIBackend(t *testing.T) {
	var body map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"), r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"created": 1,
			"model": "local-model",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": " {\"action\": \"not_found\"} "}, "finish_reason": "stop"}]
		}`)
	}))
	defer server.Close()

	backend := NewOpenAIBackend(&ProviderConfig{
		Endpoint: server.URL + "/v1",
		APIKey:   "sk-test",
		Models:   []string{"local-model"},
	})

	text, err := backend.GenerateContent(context.Background(), "where is chrome")
	require.NoError(t, err)
	assert.Equal(t, `{"action": "not_found"}`, text)
	assert.Equal(t, "local-model", body["model"])
}

func TestOpenAIBackend_Quota(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		io.WriteString(w, `{"error": {"message": "You exceeded your current quota", "type": "insufficient_quota", "code": "insufficient_quota"}}`)
	}))
	defer server.Close()

	backend := NewOpenAIBackend(&ProviderConfig{Endpoint: server.URL + "/v1", APIKey: "sk-test", Models: []string{"m"}})
	_, err := backend.GenerateContent(context.Background(), "p")
	assert.ErrorIs(t, err, ErrQuotaExceeded)
}

func TestGeminiBackend(t *testing.T) {
	var paths []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"candidates": [{"content": {"role": "model", "parts": [{"text": "{\"action\": \"open\", \"path\": \"D:\\\\cv.pdf\"}"}]}}]}`)
	}))
	defer server.Close()

	backend, err := NewGeminiBackend(context.Background(), &ProviderConfig{
		Endpoint: server.URL,
		APIKey:   "test-key",
		Models:   []string{"gemini-test"},
	})
	require.NoError(t, err)

	text, err := backend.GenerateContent(context.Background(), "open my cv")
	require.NoError(t, err)
	assert.Equal(t, `{"action": "open", "path": "D:\\cv.pdf"}`, text)
	require.Len(t, paths, 1)
	assert.Contains(t, paths[0], "gemini-test")
}

func TestGeminiBackend_Quota(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		io.WriteString(w, `{"error": {"code": 429, "message": "Resource has been exhausted (e.g. check quota).", "status": "RESOURCE_EXHAUSTED"}}`)
	}))
	defer server.Close()

	backend, err := NewGeminiBackend(context.Background(), &ProviderConfig{
		Endpoint: server.URL,
		APIKey:   "test-key",
		Models:   []string{"gemini-test"},
	})
	require.NoError(t, err)

	_, err = backend.GenerateContent(context.Background(), "p")
	assert.ErrorIs(t, err, ErrQuotaExceeded)
}

func TestNewGeminiBackend_RequiresKey(t *testing.T) {
	_, err := NewGeminiBackend(context.Background(), &ProviderConfig{})
	assert.Error(t, err)
}

func TestMetricsBackend(t *testing.T) {
	m := NewMetrics()
	backend := m.Wrap(&scriptedBackend{replies: []scriptedReply{
		{text: "ok"},
		{err: io.ErrUnexpectedEOF},
		{err: ErrQuotaExceeded},
	}})

	for i := 0; i < 3; i++ {
		backend.GenerateContent(context.Background(), "p")
	}

	assert.Equal(t, "scripted", backend.Name())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.calls.WithLabelValues("scripted", OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.calls.WithLabelValues("scripted", OutcomeError)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.calls.WithLabelValues("scripted", OutcomeQuota)))

	snap := m.Snapshot()
	assert.Equal(t, 3, snap.Calls)
	assert.Equal(t, 1, snap.Errors)
	assert.Equal(t, 1, snap.Quota)
}

func TestNewBackend(t *testing.T) {
	cfg := config.Default()

	backend, err := NewBackend(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, "ollama", backend.Name())

	cfg.LLM.Provider = "openai"
	cfg.LLM.OpenAI.APIKey = "sk-test"
	backend, err = NewBackend(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, "openai", backend.Name())

	cfg.LLM.Provider = "gemini"
	cfg.LLM.Gemini.APIKey = ""
	_, err = NewBackend(context.Background(), cfg)
	assert.Error(t, err)

	cfg.LLM.Provider = "telepathy"
	_, err = NewBackend(context.Background(), cfg)
	assert.Error(t, err)
}

func TestNewOracle(t *testing.T) {
	oracle, err := NewOracle(context.Background(), config.Default(), NewMetrics())
	require.NoError(t, err)
	assert.Equal(t, "ollama", oracle.Name())
	assert.False(t, oracle.QuotaExceeded())
}
