package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.LLM.Provider != "ollama" {
		t.Errorf("expected default provider 'ollama', got '%s'", cfg.LLM.Provider)
	}
	if cfg.LLM.Ollama.Endpoint != "http://localhost:11434" {
		t.Errorf("expected ollama endpoint 'http://localhost:11434', got '%s'", cfg.LLM.Ollama.Endpoint)
	}
	if cfg.LLM.RetryAttempts != 3 || cfg.LLM.RetryDelay != time.Second {
		t.Errorf("expected 3 retries 1s apart, got %d / %s", cfg.LLM.RetryAttempts, cfg.LLM.RetryDelay)
	}
	if cfg.Agent.MaxDepth != 10 {
		t.Errorf("expected max depth 10, got %d", cfg.Agent.MaxDepth)
	}
	if cfg.Agent.MaxItemsPerFolder != 50 {
		t.Errorf("expected 50 items per folder, got %d", cfg.Agent.MaxItemsPerFolder)
	}
	if !cfg.Agent.DeferPartition || cfg.Agent.DeferredPartition != `C:\` {
		t.Errorf("expected C:\\ to be deferred, got %v %q", cfg.Agent.DeferPartition, cfg.Agent.DeferredPartition)
	}
	if cfg.Cache.MaxEntries != 200 || cfg.Cache.TTL != 30*time.Minute {
		t.Errorf("unexpected cache defaults: %+v", cfg.Cache)
	}
	if len(cfg.FileSystem.SetupKeywords) != 4 {
		t.Errorf("expected 4 setup keywords, got %v", cfg.FileSystem.SetupKeywords)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got '%s'", cfg.Logging.Level)
	}
}

func TestLoadFromPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, ".alquad", "config.yaml")

	cfg, err := LoadFromPath(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Error("config file was not created")
	}
	if cfg.LLM.Provider != "ollama" {
		t.Errorf("expected default provider 'ollama', got '%s'", cfg.LLM.Provider)
	}
	if cfg.Cache.TTL != 30*time.Minute {
		t.Errorf("expected cache ttl to survive a round trip, got %s", cfg.Cache.TTL)
	}

	cfg2, err := LoadFromPath(configPath)
	if err != nil {
		t.Fatalf("failed to load existing config: %v", err)
	}
	if cfg2.Agent.MaxDepth != cfg.Agent.MaxDepth {
		t.Error("config values changed on reload")
	}
}

func TestSaveToPath(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")

	cfg := Default()
	cfg.LLM.Provider = "openai"
	cfg.LLM.OpenAI.Model = "local-model"
	cfg.Agent.Partitions = []PartitionConfig{{Root: "/mnt/data", Letter: "D"}}
	cfg.Scoring.PhraseBonus = 42

	if err := cfg.SaveToPath(configPath); err != nil {
		t.Fatalf("failed to save config: %v", err)
	}

	loaded, err := LoadFromPath(configPath)
	if err != nil {
		t.Fatalf("failed to load saved config: %v", err)
	}

	if loaded.LLM.Provider != "openai" {
		t.Errorf("expected provider 'openai', got '%s'", loaded.LLM.Provider)
	}
	if loaded.LLM.OpenAI.Model != "local-model" {
		t.Errorf("expected model 'local-model', got '%s'", loaded.LLM.OpenAI.Model)
	}
	if len(loaded.Agent.Partitions) != 1 || loaded.Agent.Partitions[0].Letter != "D" {
		t.Errorf("expected one partition labelled D, got %+v", loaded.Agent.Partitions)
	}
	if loaded.Scoring.Weights().PhraseBonus != 42 {
		t.Errorf("expected phrase bonus 42, got %d", loaded.Scoring.Weights().PhraseBonus)
	}
}

func TestLoadFromPath_EnvOverrides(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")

	t.Setenv("LLM_PROVIDER", "gemini")
	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("ALQUAD_AGENT_MAX_DEPTH", "4")

	cfg, err := LoadFromPath(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.LLM.Provider != "gemini" {
		t.Errorf("expected provider from LLM_PROVIDER, got '%s'", cfg.LLM.Provider)
	}
	if cfg.LLM.Gemini.APIKey != "test-key" {
		t.Errorf("expected api key from GEMINI_API_KEY, got '%s'", cfg.LLM.Gemini.APIKey)
	}
	if cfg.Agent.MaxDepth != 4 {
		t.Errorf("expected max depth 4 from env, got %d", cfg.Agent.MaxDepth)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected valid config, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantField string
	}{
		{
			name:   "valid default config",
			mutate: func(*Config) {},
		},
		{
			name:      "empty provider",
			mutate:    func(c *Config) { c.LLM.Provider = "" },
			wantField: "llm.provider",
		},
		{
			name:      "unknown provider",
			mutate:    func(c *Config) { c.LLM.Provider = "carrier-pigeon" },
			wantField: "llm.provider",
		},
		{
			name:      "ollama without model",
			mutate:    func(c *Config) { c.LLM.Ollama.Model = "" },
			wantField: "llm.ollama.model",
		},
		{
			name: "gemini without key",
			mutate: func(c *Config) {
				c.LLM.Provider = "gemini"
				c.LLM.Gemini.APIKey = ""
			},
			wantField: "llm.gemini.api_key",
		},
		{
			name: "openai with key",
			mutate: func(c *Config) {
				c.LLM.Provider = "openai"
				c.LLM.OpenAI.APIKey = "sk-test"
			},
		},
		{
			name:      "zero depth",
			mutate:    func(c *Config) { c.Agent.MaxDepth = 0 },
			wantField: "agent.max_depth",
		},
		{
			name:      "bad partition letter",
			mutate:    func(c *Config) { c.Agent.Partitions = []PartitionConfig{{Root: "/data", Letter: "DD"}} },
			wantField: "agent.partitions[0].letter",
		},
		{
			name:      "invalid log level",
			mutate:    func(c *Config) { c.Logging.Level = "verbose" },
			wantField: "logging.level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()

			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}

			var cfgErr *ConfigurationError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("expected ConfigurationError, got %v", err)
			}
			if cfgErr.Field != tt.wantField {
				t.Errorf("expected field %q, got %q", tt.wantField, cfgErr.Field)
			}
		})
	}
}

func TestExpandPath(t *testing.T) {
	homeDir, _ := os.UserHomeDir()

	if got := expandPath("~/logs"); got != filepath.Join(homeDir, "logs") {
		t.Errorf("expected ~ to expand, got %s", got)
	}
	if got := expandPath("/abs/path"); got != "/abs/path" {
		t.Errorf("expected absolute path unchanged, got %s", got)
	}
}
